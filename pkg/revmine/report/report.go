package report

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/driftline/revmine/pkg/revmine/internalerr"
	"github.com/driftline/revmine/pkg/revmine/review"
)

// Report aggregates statistics across a set of processed batches. It
// is computed on demand and never mutated afterwards.
type Report struct {
	ID              string                      `json:"id"`
	GeneratedAt     string                      `json:"generated_at"`
	TotalBatches    int                         `json:"total_batches"`
	Overall         OverallStats                `json:"overall_stats"`
	Insights        []string                    `json:"insights"`
	Categories      map[string]CategoryAnalysis `json:"category_analysis"`
	SentimentTrends SentimentTrends             `json:"sentiment_trends"`
	Quality         QualityMetrics              `json:"quality_metrics"`
	BatchSummaries  []review.Stats              `json:"batch_summaries"`
}

// OverallStats are the cross-batch totals.
type OverallStats struct {
	TotalReviews          int     `json:"total_reviews"`
	TotalHighQuality      int     `json:"total_high_quality_reviews"`
	TotalApps             int     `json:"total_apps"`
	TotalPlatforms        int     `json:"total_platforms"`
	AverageRating         float64 `json:"average_rating"`
	AverageSentimentScore float64 `json:"average_sentiment_score"`
	QualityRate           float64 `json:"quality_rate"`
}

// CategoryAnalysis summarizes one classified category across batches.
type CategoryAnalysis struct {
	Count            int     `json:"count"`
	AverageSentiment float64 `json:"average_sentiment"`
	AverageRating    float64 `json:"average_rating"`
}

// SentimentTrends holds average sentiment per platform and per app.
type SentimentTrends struct {
	PlatformAverages map[string]float64 `json:"platform_sentiment_averages"`
	AppAverages      map[string]float64 `json:"app_sentiment_averages"`
}

// QualityMetrics are the spam/duplicate/quality rates across batches.
type QualityMetrics struct {
	TotalReviews     int     `json:"total_reviews"`
	SpamCount        int     `json:"spam_count"`
	DuplicateCount   int     `json:"duplicate_count"`
	HighQualityCount int     `json:"high_quality_count"`
	SpamRate         float64 `json:"spam_rate"`
	DuplicateRate    float64 `json:"duplicate_rate"`
	QualityRate      float64 `json:"quality_rate"`
}

// Generator builds reports from processed batches.
type Generator struct {
	MinQualityScore float64
	Now             func() time.Time
}

// NewGenerator returns a generator with the default quality bar.
func NewGenerator() *Generator {
	return &Generator{MinQualityScore: review.DefaultMinQualityScore, Now: time.Now}
}

// Generate computes the cross-batch report. An empty batch set is an
// explicit failure, not a zeroed report.
func (g *Generator) Generate(batches []review.Batch) (Report, error) {
	if len(batches) == 0 {
		return Report{}, fmt.Errorf("%w: no batches to report on", internalerr.ErrEmptyBatch)
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	rep := Report{
		ID:           ulid.MustNew(ulid.Now(), rand.Reader).String(),
		GeneratedAt:  now().UTC().Format(review.TimeLayout),
		TotalBatches: len(batches),
		Overall:      g.overallStats(batches),
		Insights:     g.insights(batches),
		Categories:   g.categoryAnalysis(batches),
		Quality:      g.qualityMetrics(batches),
	}
	rep.SentimentTrends = sentimentTrends(batches)
	for _, b := range batches {
		rep.BatchSummaries = append(rep.BatchSummaries, b.Stats())
	}
	return rep, nil
}

func (g *Generator) overallStats(batches []review.Batch) OverallStats {
	stats := OverallStats{}
	apps := make(map[string]struct{})
	platforms := make(map[string]struct{})

	var ratingSum, ratingCount int
	var sentimentSum float64
	var sentimentCount int

	for _, b := range batches {
		apps[b.AppName] = struct{}{}
		platforms[b.Platform] = struct{}{}
		stats.TotalReviews += len(b.Reviews)
		stats.TotalHighQuality += len(b.HighQualityReviews(g.minQuality()))
		for _, r := range b.Reviews {
			if rating, ok := r.RatingValue(); ok {
				ratingSum += rating
				ratingCount++
			}
			sentimentSum += r.SentimentScore
			sentimentCount++
		}
	}

	stats.TotalApps = len(apps)
	stats.TotalPlatforms = len(platforms)
	if ratingCount > 0 {
		stats.AverageRating = float64(ratingSum) / float64(ratingCount)
	}
	if sentimentCount > 0 {
		stats.AverageSentimentScore = sentimentSum / float64(sentimentCount)
	}
	if stats.TotalReviews > 0 {
		stats.QualityRate = float64(stats.TotalHighQuality) / float64(stats.TotalReviews)
	}
	return stats
}

func (g *Generator) insights(batches []review.Batch) []string {
	var insights []string

	bestApp := ""
	bestRating := 0.0
	for _, b := range batches {
		stats := b.Stats()
		if stats.AverageRating > bestRating {
			bestApp, bestRating = b.AppName, stats.AverageRating
		}
	}
	if bestApp != "" {
		insights = append(insights, fmt.Sprintf("Highest rated app: %s (%.1f/5)", bestApp, bestRating))
	}

	counts := make(map[string]int)
	for _, b := range batches {
		for _, r := range b.Reviews {
			if r.PrimaryCategory != "" && r.PrimaryCategory != review.Unclassified {
				counts[r.PrimaryCategory]++
			}
		}
	}
	topCategory := ""
	topCount := 0
	for cat, n := range counts {
		if n > topCount || (n == topCount && cat < topCategory) {
			topCategory, topCount = cat, n
		}
	}
	if topCategory != "" {
		insights = append(insights, fmt.Sprintf("Most discussed category: %s (%d reviews)", topCategory, topCount))
	}

	return insights
}

func (g *Generator) categoryAnalysis(batches []review.Batch) map[string]CategoryAnalysis {
	type acc struct {
		count        int
		sentimentSum float64
		ratingSum    int
		ratingCount  int
	}
	accs := make(map[string]*acc)

	for _, b := range batches {
		for _, r := range b.Reviews {
			if r.PrimaryCategory == "" || r.PrimaryCategory == review.Unclassified {
				continue
			}
			a := accs[r.PrimaryCategory]
			if a == nil {
				a = &acc{}
				accs[r.PrimaryCategory] = a
			}
			a.count++
			a.sentimentSum += r.SentimentScore
			if rating, ok := r.RatingValue(); ok {
				a.ratingSum += rating
				a.ratingCount++
			}
		}
	}

	out := make(map[string]CategoryAnalysis, len(accs))
	for cat, a := range accs {
		analysis := CategoryAnalysis{
			Count:            a.count,
			AverageSentiment: a.sentimentSum / float64(a.count),
		}
		if a.ratingCount > 0 {
			analysis.AverageRating = float64(a.ratingSum) / float64(a.ratingCount)
		}
		out[cat] = analysis
	}
	return out
}

func sentimentTrends(batches []review.Batch) SentimentTrends {
	type acc struct {
		sum   float64
		count int
	}
	platform := make(map[string]*acc)
	app := make(map[string]*acc)

	add := func(m map[string]*acc, key string, score float64) {
		a := m[key]
		if a == nil {
			a = &acc{}
			m[key] = a
		}
		a.sum += score
		a.count++
	}

	for _, b := range batches {
		for _, r := range b.Reviews {
			add(platform, b.Platform, r.SentimentScore)
			add(app, b.AppName, r.SentimentScore)
		}
	}

	trends := SentimentTrends{
		PlatformAverages: make(map[string]float64, len(platform)),
		AppAverages:      make(map[string]float64, len(app)),
	}
	for key, a := range platform {
		trends.PlatformAverages[key] = a.sum / float64(a.count)
	}
	for key, a := range app {
		trends.AppAverages[key] = a.sum / float64(a.count)
	}
	return trends
}

func (g *Generator) qualityMetrics(batches []review.Batch) QualityMetrics {
	m := QualityMetrics{}
	for _, b := range batches {
		m.TotalReviews += len(b.Reviews)
		for _, r := range b.Reviews {
			if r.IsSpam {
				m.SpamCount++
			}
			if r.IsDuplicate {
				m.DuplicateCount++
			}
			if r.HighQuality(g.minQuality()) {
				m.HighQualityCount++
			}
		}
	}
	if m.TotalReviews > 0 {
		m.SpamRate = float64(m.SpamCount) / float64(m.TotalReviews)
		m.DuplicateRate = float64(m.DuplicateCount) / float64(m.TotalReviews)
		m.QualityRate = float64(m.HighQualityCount) / float64(m.TotalReviews)
	}
	return m
}

func (g *Generator) minQuality() float64 {
	if g.MinQualityScore > 0 {
		return g.MinQualityScore
	}
	return review.DefaultMinQualityScore
}

// WriteJSON writes the report to path as indented JSON.
func (r Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

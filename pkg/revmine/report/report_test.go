package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/driftline/revmine/pkg/revmine/internalerr"
	"github.com/driftline/revmine/pkg/revmine/review"
)

func intp(n int) *int { return &n }

func fixedGenerator() *Generator {
	g := NewGenerator()
	g.Now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return g
}

func sampleBatches() []review.Batch {
	return []review.Batch{
		{
			ID:        "b1",
			AppName:   "Duolingo",
			Platform:  "reddit",
			ScrapedAt: "2024-06-01T10:00:00",
			Reviews: []review.Review{
				{
					ReviewID: "r1", Platform: "reddit", AppName: "Duolingo",
					Content:         "the streak system keeps me coming back",
					Rating:          intp(5),
					PrimaryCategory: "features", Sentiment: review.SentimentPositive,
					SentimentScore: 0.6, QualityScore: 1.2,
					ProcessedAt: "2024-06-01T10:05:00",
				},
				{
					ReviewID: "r2", Platform: "reddit", AppName: "Duolingo",
					Content: "too many ads between lessons now",
					Rating:  intp(2),
					IsSpam:  true, SentimentScore: -0.4,
					ProcessedAt: "2024-06-01T10:05:00",
				},
			},
		},
		{
			ID:        "b2",
			AppName:   "Babbel",
			Platform:  "play_store",
			ScrapedAt: "2024-06-01T11:00:00",
			Reviews: []review.Review{
				{
					ReviewID: "r3", Platform: "play_store", AppName: "Babbel",
					Content:         "grammar explanations are clear and detailed here",
					Rating:          intp(4),
					PrimaryCategory: "content_quality", Sentiment: review.SentimentPositive,
					SentimentScore: 0.5, QualityScore: 0.9,
					ProcessedAt: "2024-06-01T11:05:00",
				},
			},
		},
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	g := fixedGenerator()
	if _, err := g.Generate(nil); !errors.Is(err, internalerr.ErrEmptyBatch) {
		t.Errorf("err = %v, want ErrEmptyBatch", err)
	}
}

func TestGenerateOverallStats(t *testing.T) {
	g := fixedGenerator()
	rep, err := g.Generate(sampleBatches())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if rep.ID == "" {
		t.Error("report should carry an ID")
	}
	if rep.GeneratedAt != "2024-06-01T12:00:00" {
		t.Errorf("GeneratedAt = %q", rep.GeneratedAt)
	}
	if rep.TotalBatches != 2 {
		t.Errorf("TotalBatches = %d", rep.TotalBatches)
	}

	o := rep.Overall
	if o.TotalReviews != 3 {
		t.Errorf("TotalReviews = %d, want 3", o.TotalReviews)
	}
	if o.TotalApps != 2 || o.TotalPlatforms != 2 {
		t.Errorf("apps/platforms = %d/%d", o.TotalApps, o.TotalPlatforms)
	}
	wantAvg := (5.0 + 2.0 + 4.0) / 3.0
	if o.AverageRating != wantAvg {
		t.Errorf("AverageRating = %v, want %v", o.AverageRating, wantAvg)
	}
}

func TestGenerateQualityMetrics(t *testing.T) {
	g := fixedGenerator()
	rep, err := g.Generate(sampleBatches())
	if err != nil {
		t.Fatal(err)
	}

	q := rep.Quality
	if q.TotalReviews != 3 || q.SpamCount != 1 {
		t.Errorf("quality = %+v", q)
	}
	if q.HighQualityCount != 2 {
		t.Errorf("HighQualityCount = %d, want 2", q.HighQualityCount)
	}
	if q.SpamRate < 0.33 || q.SpamRate > 0.34 {
		t.Errorf("SpamRate = %v", q.SpamRate)
	}
}

func TestGenerateCategoryAnalysis(t *testing.T) {
	g := fixedGenerator()
	rep, err := g.Generate(sampleBatches())
	if err != nil {
		t.Fatal(err)
	}

	features, ok := rep.Categories["features"]
	if !ok {
		t.Fatalf("Categories = %v", rep.Categories)
	}
	if features.Count != 1 || features.AverageSentiment != 0.6 || features.AverageRating != 5.0 {
		t.Errorf("features analysis = %+v", features)
	}
	if _, ok := rep.Categories[review.Unclassified]; ok {
		t.Error("unclassified reviews must not appear in category analysis")
	}
}

func TestGenerateSentimentTrends(t *testing.T) {
	g := fixedGenerator()
	rep, err := g.Generate(sampleBatches())
	if err != nil {
		t.Fatal(err)
	}

	trends := rep.SentimentTrends
	wantReddit := (0.6 + -0.4) / 2
	if got := trends.PlatformAverages["reddit"]; got != wantReddit {
		t.Errorf("reddit average = %v, want %v", got, wantReddit)
	}
	if got := trends.AppAverages["Babbel"]; got != 0.5 {
		t.Errorf("Babbel average = %v, want 0.5", got)
	}
}

func TestGenerateInsights(t *testing.T) {
	g := fixedGenerator()
	rep, err := g.Generate(sampleBatches())
	if err != nil {
		t.Fatal(err)
	}

	var sawRating, sawCategory bool
	for _, insight := range rep.Insights {
		if strings.HasPrefix(insight, "Highest rated app:") {
			sawRating = true
		}
		if strings.HasPrefix(insight, "Most discussed category:") {
			sawCategory = true
		}
	}
	if !sawRating || !sawCategory {
		t.Errorf("insights = %v", rep.Insights)
	}
}

func TestWriteJSON(t *testing.T) {
	g := fixedGenerator()
	rep, err := g.Generate(sampleBatches())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := rep.WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var loaded Report
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if loaded.TotalBatches != 2 {
		t.Errorf("loaded TotalBatches = %d", loaded.TotalBatches)
	}
}

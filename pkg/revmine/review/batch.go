package review

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/oklog/ulid/v2"
)

// DefaultMinQualityScore is the quality bar applied when callers do not
// supply their own threshold.
const DefaultMinQualityScore = 0.5

// Batch is a scraped and processed collection of reviews for one
// (app, platform) pair. A batch owns its reviews exclusively; pipeline
// stages replace the review slice wholesale rather than mutating it.
type Batch struct {
	ID              string         `json:"id"`
	AppName         string         `json:"app_name"`
	Platform        string         `json:"platform"`
	ScrapedAt       string         `json:"scraped_at"`
	TotalScraped    int            `json:"total_scraped"`
	TotalProcessed  int            `json:"total_processed"`
	ProcessingStats map[string]int `json:"processing_stats,omitempty"`
	Reviews         []Review       `json:"reviews"`
}

// NewBatch creates a batch for the given app and platform, assigning a
// ULID identifier and stamping the scrape time.
func NewBatch(appName, platform string, reviews []Review) Batch {
	return Batch{
		ID:           ulid.MustNew(ulid.Now(), rand.Reader).String(),
		AppName:      appName,
		Platform:     platform,
		ScrapedAt:    Now(),
		TotalScraped: len(reviews),
		Reviews:      reviews,
	}
}

// ProcessedReviews returns only the reviews that completed the pipeline.
func (b Batch) ProcessedReviews() []Review {
	var out []Review
	for _, r := range b.Reviews {
		if r.Processed() {
			out = append(out, r)
		}
	}
	return out
}

// HighQualityReviews returns the reviews clearing the quality bar.
func (b Batch) HighQualityReviews(minScore float64) []Review {
	var out []Review
	for _, r := range b.Reviews {
		if r.HighQuality(minScore) {
			out = append(out, r)
		}
	}
	return out
}

// Stats holds the aggregate statistics exposed for a processed batch.
type Stats struct {
	AppName               string         `json:"app_name"`
	Platform              string         `json:"platform"`
	TotalReviews          int            `json:"total_reviews"`
	ProcessedReviews      int            `json:"processed_reviews"`
	HighQualityReviews    int            `json:"high_quality_reviews"`
	SpamReviews           int            `json:"spam_reviews"`
	DuplicateReviews      int            `json:"duplicate_reviews"`
	CategoryDistribution  map[string]int `json:"category_distribution"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	RatingDistribution    map[int]int    `json:"rating_distribution"`
	AverageRating         float64        `json:"average_rating"`
	AverageSentimentScore float64        `json:"average_sentiment_score"`
	ScrapedAt             string         `json:"scraped_at"`
	ProcessingStats       map[string]int `json:"processing_stats,omitempty"`
}

// Stats computes the aggregate statistics for the batch.
func (b Batch) Stats() Stats {
	processed := b.ProcessedReviews()

	s := Stats{
		AppName:               b.AppName,
		Platform:              b.Platform,
		TotalReviews:          len(b.Reviews),
		ProcessedReviews:      len(processed),
		HighQualityReviews:    len(b.HighQualityReviews(DefaultMinQualityScore)),
		CategoryDistribution:  make(map[string]int),
		SentimentDistribution: make(map[string]int),
		RatingDistribution:    make(map[int]int),
		ScrapedAt:             b.ScrapedAt,
		ProcessingStats:       b.ProcessingStats,
	}

	for _, r := range b.Reviews {
		if r.IsSpam {
			s.SpamReviews++
		}
		if r.IsDuplicate {
			s.DuplicateReviews++
		}
	}

	var ratingSum, ratingCount int
	var sentimentSum float64
	for _, r := range processed {
		cat := r.PrimaryCategory
		if cat == "" {
			cat = Unclassified
		}
		s.CategoryDistribution[cat]++

		sentiment := r.Sentiment
		if sentiment == "" {
			sentiment = SentimentNeutral
		}
		s.SentimentDistribution[sentiment]++

		if rating, ok := r.RatingValue(); ok {
			s.RatingDistribution[rating]++
			ratingSum += rating
			ratingCount++
		}
		sentimentSum += r.SentimentScore
	}

	if ratingCount > 0 {
		s.AverageRating = float64(ratingSum) / float64(ratingCount)
	}
	if len(processed) > 0 {
		s.AverageSentimentScore = sentimentSum / float64(len(processed))
	}
	return s
}

// batchFile is the persisted JSON layout: a metadata object plus the
// review array. Round-trips losslessly through SaveJSON/LoadJSON.
type batchFile struct {
	Metadata batchMetadata `json:"metadata"`
	Reviews  []Review      `json:"reviews"`
}

type batchMetadata struct {
	ID              string         `json:"id"`
	AppName         string         `json:"app_name"`
	Platform        string         `json:"platform"`
	ScrapedAt       string         `json:"scraped_at"`
	TotalScraped    int            `json:"total_scraped"`
	TotalProcessed  int            `json:"total_processed"`
	ProcessingStats map[string]int `json:"processing_stats,omitempty"`
}

// SaveJSON writes the batch to path in the persisted batch format.
func (b Batch) SaveJSON(path string) error {
	doc := batchFile{
		Metadata: batchMetadata{
			ID:              b.ID,
			AppName:         b.AppName,
			Platform:        b.Platform,
			ScrapedAt:       b.ScrapedAt,
			TotalScraped:    b.TotalScraped,
			TotalProcessed:  b.TotalProcessed,
			ProcessingStats: b.ProcessingStats,
		},
		Reviews: b.Reviews,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write batch %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a batch previously written with SaveJSON.
func LoadJSON(path string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Batch{}, fmt.Errorf("read batch %s: %w", path, err)
	}
	var doc batchFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return Batch{}, fmt.Errorf("parse batch %s: %w", path, err)
	}
	b := Batch{
		ID:              doc.Metadata.ID,
		AppName:         doc.Metadata.AppName,
		Platform:        doc.Metadata.Platform,
		ScrapedAt:       doc.Metadata.ScrapedAt,
		TotalScraped:    doc.Metadata.TotalScraped,
		TotalProcessed:  doc.Metadata.TotalProcessed,
		ProcessingStats: doc.Metadata.ProcessingStats,
		Reviews:         doc.Reviews,
	}
	if b.TotalScraped == 0 {
		b.TotalScraped = len(b.Reviews)
	}
	return b, nil
}

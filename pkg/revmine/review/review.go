package review

import (
	"fmt"
	"time"

	"github.com/driftline/revmine/pkg/revmine/internalerr"
)

// Sentiment labels assigned by the classifier.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Unclassified is the sentinel primary category for reviews the
// classifier could not place with enough confidence.
const Unclassified = "unclassified"

// TimeLayout is the timestamp format used for all review timestamps.
const TimeLayout = "2006-01-02T15:04:05"

// Review is one opinion unit (app review, post or comment) flowing
// through the pipeline. Stages never mutate a Review in place; each
// stage returns new values with derived fields filled in.
type Review struct {
	// Core identifiers
	ReviewID string `json:"review_id"`
	Platform string `json:"platform"`
	AppName  string `json:"app_name"`

	// Content
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
	Rating  *int   `json:"rating,omitempty"`

	// User information
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Verified bool   `json:"verified"`

	// Timestamps
	ReviewDate  string `json:"review_date,omitempty"`
	ScrapedAt   string `json:"scraped_at,omitempty"`
	ProcessedAt string `json:"processed_at,omitempty"`

	// Engagement metrics
	HelpfulCount int `json:"helpful_count"`
	ReplyCount   int `json:"reply_count"`

	// Technical metadata
	AppID     string `json:"app_id,omitempty"`
	SourceURL string `json:"source_url,omitempty"`

	// Cleaning metadata
	CleanedAt      string `json:"cleaned_at,omitempty"`
	OriginalLength int    `json:"original_length,omitempty"`
	CleanedLength  int    `json:"cleaned_length,omitempty"`

	// Classification results
	PrimaryCategory          string             `json:"primary_category,omitempty"`
	CategoryScores           map[string]float64 `json:"category_scores,omitempty"`
	ClassificationConfidence float64            `json:"classification_confidence"`
	Sentiment                string             `json:"sentiment,omitempty"`
	SentimentScore           float64            `json:"sentiment_score"`
	KeywordsFound            []string           `json:"keywords_found,omitempty"`
	ClassifiedAt             string             `json:"classified_at,omitempty"`

	// Quality flags
	IsDuplicate  bool    `json:"is_duplicate"`
	IsSpam       bool    `json:"is_spam"`
	QualityScore float64 `json:"quality_score"`
}

// Validate checks the invariants a review must satisfy before it may
// enter the pipeline. Malformed records are rejected at the boundary
// where they are constructed.
func (r Review) Validate() error {
	if r.ReviewID == "" {
		return fmt.Errorf("%w: review_id is required", internalerr.ErrInvalidRecord)
	}
	if r.Platform == "" {
		return fmt.Errorf("%w: platform is required", internalerr.ErrInvalidRecord)
	}
	if r.AppName == "" {
		return fmt.Errorf("%w: app_name is required", internalerr.ErrInvalidRecord)
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", internalerr.ErrInvalidRecord)
	}
	switch r.Sentiment {
	case "", SentimentPositive, SentimentNegative, SentimentNeutral:
	default:
		return fmt.Errorf("%w: unknown sentiment %q", internalerr.ErrInvalidRecord, r.Sentiment)
	}
	return nil
}

// Processed reports whether the review has been through the pipeline.
func (r Review) Processed() bool {
	return r.ProcessedAt != ""
}

// HighQuality reports whether the review clears the quality bar used by
// exports and reports.
func (r Review) HighQuality(minScore float64) bool {
	return !r.IsSpam &&
		!r.IsDuplicate &&
		r.QualityScore >= minScore &&
		len(r.Content) >= 20
}

// RatingValue returns the rating and whether one is present.
func (r Review) RatingValue() (int, bool) {
	if r.Rating == nil {
		return 0, false
	}
	return *r.Rating, true
}

// Now formats the current UTC time using the shared timestamp layout.
func Now() string {
	return time.Now().UTC().Format(TimeLayout)
}

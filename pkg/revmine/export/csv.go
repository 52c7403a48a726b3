// Package export writes processed reviews and batch summaries to CSV
// and JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// DefaultMaxRowsPerFile caps review rows per CSV file; larger exports
// are split into numbered parts.
const DefaultMaxRowsPerFile = 10000

const fileTimestampLayout = "20060102_150405"

// reviewHeader is the fixed CSV column order for review exports.
var reviewHeader = []string{
	"review_id", "platform", "app_name", "content", "title", "rating",
	"user_id", "username", "verified", "review_date", "scraped_at", "processed_at",
	"helpful_count", "reply_count", "primary_category", "category_scores",
	"classification_confidence", "sentiment", "sentiment_score", "keywords_found",
	"is_duplicate", "is_spam", "quality_score",
}

// CSVExporter writes reviews and batch summaries as CSV files.
type CSVExporter struct {
	MaxRowsPerFile int
	Logger         *log.Logger
	Now            func() time.Time
}

// NewCSVExporter returns an exporter with the default chunk size.
func NewCSVExporter(logger *log.Logger) *CSVExporter {
	return &CSVExporter{MaxRowsPerFile: DefaultMaxRowsPerFile, Logger: logger, Now: time.Now}
}

// ExportReviews writes reviews under outputDir as one or more CSV
// files named after base, returning the created paths. Exports larger
// than MaxRowsPerFile are split into _part_N files.
func (e *CSVExporter) ExportReviews(reviews []review.Review, base, outputDir string) ([]string, error) {
	if len(reviews) == 0 {
		e.logf("no reviews to export")
		return nil, nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", outputDir, err)
	}

	maxRows := e.MaxRowsPerFile
	if maxRows <= 0 {
		maxRows = DefaultMaxRowsPerFile
	}

	var chunks [][]review.Review
	for start := 0; start < len(reviews); start += maxRows {
		end := start + maxRows
		if end > len(reviews) {
			end = len(reviews)
		}
		chunks = append(chunks, reviews[start:end])
	}

	var created []string
	for i, chunk := range chunks {
		name := base + ".csv"
		if len(chunks) > 1 {
			name = fmt.Sprintf("%s_part_%d.csv", base, i+1)
		}
		path := filepath.Join(outputDir, SafeFilename(name))
		if err := e.writeReviewFile(chunk, path); err != nil {
			return created, err
		}
		created = append(created, path)
	}

	e.logf("exported %d reviews to %d CSV file(s)", len(reviews), len(created))
	return created, nil
}

// ExportBatch writes a batch's reviews with a timestamped filename
// derived from the app and platform.
func (e *CSVExporter) ExportBatch(b review.Batch, outputDir string) ([]string, error) {
	base := fmt.Sprintf("%s_%s_%s", b.AppName, b.Platform, e.now().Format(fileTimestampLayout))
	return e.ExportReviews(b.Reviews, base, outputDir)
}

// ExportSummary writes one row of aggregate statistics per batch.
func (e *CSVExporter) ExportSummary(batches []review.Batch, base, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create export dir %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("%s_%s.csv", base, e.now().Format(fileTimestampLayout)))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"app_name", "platform", "total_reviews", "high_quality_reviews",
		"average_rating", "average_sentiment_score",
		"positive_sentiment_count", "negative_sentiment_count", "neutral_sentiment_count",
		"scraped_at",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, b := range batches {
		stats := b.Stats()
		row := []string{
			stats.AppName,
			stats.Platform,
			strconv.Itoa(stats.TotalReviews),
			strconv.Itoa(stats.HighQualityReviews),
			strconv.FormatFloat(stats.AverageRating, 'f', 2, 64),
			strconv.FormatFloat(stats.AverageSentimentScore, 'f', 3, 64),
			strconv.Itoa(stats.SentimentDistribution[review.SentimentPositive]),
			strconv.Itoa(stats.SentimentDistribution[review.SentimentNegative]),
			strconv.Itoa(stats.SentimentDistribution[review.SentimentNeutral]),
			stats.ScrapedAt,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write summary %s: %w", path, err)
	}
	e.logf("exported summary CSV to %s", path)
	return path, nil
}

func (e *CSVExporter) writeReviewFile(reviews []review.Review, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reviewHeader); err != nil {
		return err
	}
	for _, r := range reviews {
		if err := w.Write(reviewRow(r)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// reviewRow flattens a review into CSV cells. Maps and slices are
// JSON-encoded; absent ratings become empty cells.
func reviewRow(r review.Review) []string {
	rating := ""
	if r.Rating != nil {
		rating = strconv.Itoa(*r.Rating)
	}
	return []string{
		r.ReviewID,
		r.Platform,
		r.AppName,
		r.Content,
		r.Title,
		rating,
		r.UserID,
		r.Username,
		strconv.FormatBool(r.Verified),
		r.ReviewDate,
		r.ScrapedAt,
		r.ProcessedAt,
		strconv.Itoa(r.HelpfulCount),
		strconv.Itoa(r.ReplyCount),
		r.PrimaryCategory,
		jsonCell(r.CategoryScores),
		strconv.FormatFloat(r.ClassificationConfidence, 'f', -1, 64),
		r.Sentiment,
		strconv.FormatFloat(r.SentimentScore, 'f', -1, 64),
		jsonCell(r.KeywordsFound),
		strconv.FormatBool(r.IsDuplicate),
		strconv.FormatBool(r.IsSpam),
		strconv.FormatFloat(r.QualityScore, 'f', -1, 64),
	}
}

func jsonCell(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// SafeFilename replaces characters that are invalid in filenames with
// underscores, collapses underscore runs, and caps the length at 200.
func SafeFilename(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)

	parts := strings.FieldsFunc(safe, func(r rune) bool { return r == '_' })
	safe = strings.Join(parts, "_")

	if len(safe) > 200 {
		safe = safe[:200]
	}
	return safe
}

func (e *CSVExporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *CSVExporter) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

package export

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// JSONExporter writes reviews and batches as JSON files.
type JSONExporter struct {
	Logger *log.Logger
	Now    func() time.Time
}

// NewJSONExporter returns a JSON exporter.
func NewJSONExporter(logger *log.Logger) *JSONExporter {
	return &JSONExporter{Logger: logger, Now: time.Now}
}

type exportMetadata struct {
	ExportedAt   string `json:"exported_at"`
	TotalReviews int    `json:"total_reviews"`
	ExportType   string `json:"export_type"`
}

type reviewExport struct {
	Metadata exportMetadata  `json:"metadata"`
	Reviews  []review.Review `json:"reviews"`
}

// ExportReviews writes the reviews under outputDir as base.json and
// returns the created path.
func (e *JSONExporter) ExportReviews(reviews []review.Review, base, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create export dir %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, SafeFilename(base)+".json")

	payload := reviewExport{
		Metadata: exportMetadata{
			ExportedAt:   e.now().UTC().Format(review.TimeLayout),
			TotalReviews: len(reviews),
			ExportType:   "reviews",
		},
		Reviews: reviews,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal reviews: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	e.logf("exported %d reviews to JSON: %s", len(reviews), path)
	return path, nil
}

// ExportBatch saves the whole batch, metadata included, with a
// timestamped filename derived from the app and platform.
func (e *JSONExporter) ExportBatch(b review.Batch, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create export dir %s: %w", outputDir, err)
	}
	name := fmt.Sprintf("%s_%s_%s", b.AppName, b.Platform, e.now().Format(fileTimestampLayout))
	path := filepath.Join(outputDir, SafeFilename(name)+".json")

	if err := b.SaveJSON(path); err != nil {
		return "", err
	}
	e.logf("exported batch %s to JSON: %s", b.ID, path)
	return path, nil
}

func (e *JSONExporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *JSONExporter) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

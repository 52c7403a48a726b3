package export

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/driftline/revmine/pkg/revmine/review"
)

func intp(n int) *int { return &n }

func sampleReviews(n int) []review.Review {
	reviews := make([]review.Review, n)
	for i := range reviews {
		reviews[i] = review.Review{
			ReviewID:        "r" + string(rune('a'+i%26)),
			Platform:        "reddit",
			AppName:         "Duolingo",
			Content:         "the lessons are short and effective",
			Rating:          intp(4),
			PrimaryCategory: "features",
			CategoryScores:  map[string]float64{"features": 0.6},
			KeywordsFound:   []string{"feature"},
			Sentiment:       review.SentimentPositive,
		}
	}
	return reviews
}

func TestSafeFilename(t *testing.T) {
	cases := map[string]string{
		"plain_name.csv":        "plain_name.csv",
		`bad<>:"/\|?*chars.csv`: "bad_chars.csv",
		"many___underscores":    "many_underscores",
		"_leading_trailing_":    "leading_trailing",
	}
	for in, want := range cases {
		if got := SafeFilename(in); got != want {
			t.Errorf("SafeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSafeFilenameCapsLength(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := SafeFilename(long); len(got) != 200 {
		t.Errorf("len = %d, want 200", len(got))
	}
}

func TestExportReviewsWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	e := NewCSVExporter(nil)

	paths, err := e.ExportReviews(sampleReviews(3), "duolingo_reddit", dir)
	if err != nil {
		t.Fatalf("ExportReviews: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d files, want 1", len(paths))
	}

	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(records))
	}
	if records[0][0] != "review_id" {
		t.Errorf("header = %v", records[0])
	}
	// Complex fields are JSON-encoded in their cells.
	if got := records[1][15]; got != `{"features":0.6}` {
		t.Errorf("category_scores cell = %q", got)
	}
}

func TestExportReviewsChunksLargeSets(t *testing.T) {
	dir := t.TempDir()
	e := NewCSVExporter(nil)
	e.MaxRowsPerFile = 2

	paths, err := e.ExportReviews(sampleReviews(5), "big", dir)
	if err != nil {
		t.Fatalf("ExportReviews: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("got %d files, want 3", len(paths))
	}
	for _, p := range paths {
		if !strings.Contains(p, "_part_") {
			t.Errorf("chunked file %q missing part suffix", p)
		}
	}
}

func TestExportReviewsEmptyInput(t *testing.T) {
	e := NewCSVExporter(nil)
	paths, err := e.ExportReviews(nil, "empty", t.TempDir())
	if err != nil {
		t.Fatalf("ExportReviews: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("empty input should create no files, got %v", paths)
	}
}

func TestExportSummary(t *testing.T) {
	dir := t.TempDir()
	e := NewCSVExporter(nil)

	batch := review.Batch{
		AppName:   "Duolingo",
		Platform:  "reddit",
		ScrapedAt: "2024-06-01T10:00:00",
		Reviews:   sampleReviews(2),
	}
	path, err := e.ExportSummary([]review.Batch{batch}, "summary", dir)
	if err != nil {
		t.Fatalf("ExportSummary: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(records))
	}
	if records[1][0] != "Duolingo" || records[1][1] != "reddit" {
		t.Errorf("summary row = %v", records[1])
	}
}

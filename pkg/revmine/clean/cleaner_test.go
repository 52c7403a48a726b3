package clean

import (
	"testing"
	"time"

	"github.com/driftline/revmine/pkg/revmine/review"
)

func intp(n int) *int { return &n }

func TestNormalizeRating(t *testing.T) {
	cases := []struct {
		in   any
		want *int
	}{
		{0, intp(1)},
		{6, intp(5)},
		{3, intp(3)},
		{3.7, intp(4)},
		{"4", intp(4)},
		{"4.4", intp(4)},
		{"not a number", nil},
		{nil, nil},
		{[]string{"5"}, nil},
	}
	for _, tc := range cases {
		got := NormalizeRating(tc.in)
		switch {
		case got == nil && tc.want == nil:
		case got == nil || tc.want == nil:
			t.Errorf("NormalizeRating(%v) = %v, want %v", tc.in, got, tc.want)
		case *got != *tc.want:
			t.Errorf("NormalizeRating(%v) = %d, want %d", tc.in, *got, *tc.want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-15T10:30:00":        "2024-01-15T10:30:00",
		"2024-01-15 10:30:00":        "2024-01-15T10:30:00",
		"2024-01-15":                 "2024-01-15T00:00:00",
		"01/15/2024":                 "2024-01-15T00:00:00",
		"not a date":                 "",
		"":                           "",
		"2024-01-15T10:30:00.123456": "2024-01-15T10:30:00.123456",
	}
	for in, want := range cases {
		if got := NormalizeDate(in); got != want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeCount(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{5, 5},
		{-3, 0},
		{2.9, 2},
		{"7", 7},
		{"junk", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := NormalizeCount(tc.in); got != tc.want {
			t.Errorf("NormalizeCount(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCleanSetsProvenanceFields(t *testing.T) {
	c := NewCleaner(NewValidator(0, 0), nil)
	c.SetNow(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	raw := review.Review{
		ReviewID: "r1",
		Content:  "This app is really good https://example.com and useful for learning on the go",
		Rating:   intp(9),
	}
	got, ok := c.Clean(raw)
	if !ok {
		t.Fatal("valid review was dropped")
	}
	if got.Content != "This app is really good and useful for learning on the go" {
		t.Errorf("Content = %q", got.Content)
	}
	if got.Rating == nil || *got.Rating != 5 {
		t.Errorf("Rating = %v, want 5", got.Rating)
	}
	if got.CleanedAt != "2024-06-01T12:00:00" {
		t.Errorf("CleanedAt = %q", got.CleanedAt)
	}
	if got.OriginalLength != len(raw.Content) {
		t.Errorf("OriginalLength = %d, want %d", got.OriginalLength, len(raw.Content))
	}
	if got.CleanedLength != len(got.Content) {
		t.Errorf("CleanedLength = %d, want %d", got.CleanedLength, len(got.Content))
	}
}

func TestCleanBatchDropsInvalid(t *testing.T) {
	c := NewCleaner(NewValidator(0, 0), nil)
	reviews := []review.Review{
		{ReviewID: "keep", Content: "The interface works well and loading is fast"},
		{ReviewID: "drop", Content: "ok"},
	}
	cleaned, removed := c.CleanBatch(reviews)
	if len(cleaned) != 1 || removed != 1 {
		t.Fatalf("CleanBatch: %d kept, %d removed", len(cleaned), removed)
	}
	if cleaned[0].ReviewID != "keep" {
		t.Errorf("kept %q", cleaned[0].ReviewID)
	}
}

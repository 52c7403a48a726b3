package classify

import (
	"testing"
	"time"

	"github.com/driftline/revmine/pkg/revmine/review"
)

func testClassifier() *Classifier {
	c := NewClassifier(nil, 0, nil, nil)
	c.SetNow(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	return c
}

func TestClassifyInterfaceComplaint(t *testing.T) {
	c := testClassifier()
	r := c.Classify(review.Review{
		Content: "The app interface is really confusing and hard to use",
	})

	if r.PrimaryCategory != "ux_ui" {
		t.Errorf("PrimaryCategory = %q, want ux_ui", r.PrimaryCategory)
	}
	if r.Sentiment != review.SentimentNegative {
		t.Errorf("Sentiment = %q, want negative", r.Sentiment)
	}
	if r.ClassificationConfidence < DefaultConfidenceThreshold {
		t.Errorf("confidence %v below threshold", r.ClassificationConfidence)
	}
	if r.ClassifiedAt != "2024-06-01T12:00:00" {
		t.Errorf("ClassifiedAt = %q", r.ClassifiedAt)
	}
}

func TestClassifyEmptyContent(t *testing.T) {
	c := testClassifier()
	r := c.Classify(review.Review{})

	if r.PrimaryCategory != review.Unclassified {
		t.Errorf("PrimaryCategory = %q, want %q", r.PrimaryCategory, review.Unclassified)
	}
	if r.ClassificationConfidence != 0 {
		t.Errorf("confidence = %v, want 0", r.ClassificationConfidence)
	}
	if r.Sentiment != review.SentimentNeutral || r.SentimentScore != 0 {
		t.Errorf("sentiment = %q/%v, want neutral/0", r.Sentiment, r.SentimentScore)
	}
	if len(r.CategoryScores) != 0 {
		t.Errorf("CategoryScores = %v, want empty", r.CategoryScores)
	}
}

func TestCategoryScoresBounded(t *testing.T) {
	c := testClassifier()
	texts := []string{
		"interface design ui ux navigation usability interface design ui ux",
		"price price price price cost cost billing subscription payment expensive",
		"a review that mentions nothing related to any category at all",
	}
	for _, text := range texts {
		for id, score := range c.CategoryScores(text) {
			if score < 0 || score > 1 {
				t.Errorf("score[%s] = %v outside [0,1] for %q", id, score, text)
			}
		}
	}
}

func TestCategoryScoresEmptyText(t *testing.T) {
	c := testClassifier()
	for id, score := range c.CategoryScores("") {
		if score != 0 {
			t.Errorf("score[%s] = %v, want 0 for empty text", id, score)
		}
	}
}

func TestClassifyBelowThresholdIsUnclassified(t *testing.T) {
	c := testClassifier()
	r := c.Classify(review.Review{
		Content: "I have opinions about many unrelated everyday things entirely",
	})
	if r.PrimaryCategory != review.Unclassified {
		t.Errorf("PrimaryCategory = %q, want %q", r.PrimaryCategory, review.Unclassified)
	}
}

func TestExtractKeywords(t *testing.T) {
	c := testClassifier()
	got := c.ExtractKeywords("the interface is slow and the price is high")
	want := []string{"interface", "price", "slow"}
	if len(got) != len(want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractKeywordsWholeWordsOnly(t *testing.T) {
	c := testClassifier()
	// "uxury" must not match the "ux" keyword.
	for _, kw := range c.ExtractKeywords("luxury goods are expensive") {
		if kw == "ux" {
			t.Error("substring match leaked through the word boundary")
		}
	}
}

func TestClassifyBatchPreservesOrder(t *testing.T) {
	c := testClassifier()
	in := []review.Review{
		{ReviewID: "a", Content: "the interface design is clean"},
		{ReviewID: "b", Content: "the subscription price is too high"},
	}
	out := c.ClassifyBatch(in)
	if len(out) != 2 || out[0].ReviewID != "a" || out[1].ReviewID != "b" {
		t.Fatalf("ClassifyBatch reordered reviews: %v", out)
	}
}

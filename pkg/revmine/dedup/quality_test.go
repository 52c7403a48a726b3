package dedup

import (
	"strings"
	"testing"
	"time"

	"github.com/driftline/revmine/pkg/revmine/review"
)

func fixedScorer() *Scorer {
	return &Scorer{Now: func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}}
}

func TestScoreEmptyReview(t *testing.T) {
	s := fixedScorer()
	if got := s.Score(review.Review{}); got != 0 {
		t.Errorf("Score(empty) = %v, want 0", got)
	}
}

func TestScoreShortContentEarnsNothing(t *testing.T) {
	s := fixedScorer()
	if got := s.Score(review.Review{Content: strings.Repeat("a", 50)}); got != 0 {
		t.Errorf("Score(50 chars) = %v, want 0", got)
	}
}

func TestScoreLengthTerm(t *testing.T) {
	s := fixedScorer()
	got := s.Score(review.Review{Content: strings.Repeat("a", 100)})
	if got != 0.5 {
		t.Errorf("Score(100 chars) = %v, want 0.5", got)
	}

	// Length term caps at 2 no matter how long the content runs.
	capped := s.Score(review.Review{Content: strings.Repeat("a", 1000)})
	if capped != 2.0 {
		t.Errorf("Score(1000 chars) = %v, want 2.0", capped)
	}
}

func TestScoreHelpfulTermCaps(t *testing.T) {
	s := fixedScorer()
	if got := s.Score(review.Review{HelpfulCount: 5}); got != 0.5 {
		t.Errorf("Score(helpful=5) = %v, want 0.5", got)
	}
	if got := s.Score(review.Review{HelpfulCount: 100}); got != 2.0 {
		t.Errorf("Score(helpful=100) = %v, want 2.0", got)
	}
}

func TestScoreVerifiedAndTitleBonuses(t *testing.T) {
	s := fixedScorer()
	if got := s.Score(review.Review{Verified: true}); got != 1.0 {
		t.Errorf("Score(verified) = %v, want 1.0", got)
	}
	if got := s.Score(review.Review{Title: "Great"}); got != 0.5 {
		t.Errorf("Score(titled) = %v, want 0.5", got)
	}
}

func TestScoreRecencyBonus(t *testing.T) {
	s := fixedScorer()

	fresh := s.Score(review.Review{ReviewDate: "2024-06-01T00:00:00"})
	if fresh != 1.0 {
		t.Errorf("Score(same day) = %v, want 1.0", fresh)
	}

	old := s.Score(review.Review{ReviewDate: "2020-01-01T00:00:00"})
	if old != 0 {
		t.Errorf("Score(4 years old) = %v, want 0", old)
	}

	garbage := s.Score(review.Review{ReviewDate: "last tuesday"})
	if garbage != 0 {
		t.Errorf("Score(unparsable date) = %v, want 0", garbage)
	}
}

func TestScoreOrdersRicherReviewHigher(t *testing.T) {
	s := fixedScorer()
	rich := review.Review{
		Content:      strings.Repeat("detailed feedback ", 20),
		Title:        "Thorough review",
		Verified:     true,
		HelpfulCount: 30,
		ReviewDate:   "2024-05-01T00:00:00",
	}
	poor := review.Review{Content: "meh"}
	if s.Score(rich) <= s.Score(poor) {
		t.Error("richer review should outscore the poor one")
	}
}

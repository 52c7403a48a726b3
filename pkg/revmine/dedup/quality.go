package dedup

import (
	"time"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// Scorer computes the heuristic quality score used to pick a survivor
// among duplicates. Only the relative ordering of scores matters; the
// value has no upper bound contract.
type Scorer struct {
	Now func() time.Time
}

// NewScorer returns a scorer using the wall clock.
func NewScorer() *Scorer {
	return &Scorer{Now: time.Now}
}

// Score combines content length, helpfulness, verification, the
// presence of a title, and recency into a single ranking value.
func (s *Scorer) Score(r review.Review) float64 {
	score := 0.0

	if n := len(r.Content); n > 50 {
		score += min(float64(n)/200.0, 2.0)
	}

	score += min(float64(r.HelpfulCount)/10.0, 2.0)

	if r.Verified {
		score += 1.0
	}
	if r.Title != "" {
		score += 0.5
	}

	// Reviews less than a year old earn a recency bonus; unparsable
	// or missing dates contribute nothing.
	if r.ReviewDate != "" {
		if t, err := parseReviewDate(r.ReviewDate); err == nil {
			daysOld := int(s.now().Sub(t).Hours() / 24)
			if daysOld >= 0 && daysOld < 365 {
				score += float64(365-daysOld) / 365.0
			}
		}
	}

	return score
}

func (s *Scorer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var dateLayouts = []string{
	review.TimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02",
}

func parseReviewDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

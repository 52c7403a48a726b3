package clean

import (
	"log"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// reISODate recognizes dates already in ISO-8601 form, which pass
// through untouched.
var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// dateLayouts are the known input formats for review dates, tried in
// order.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05Z",
}

// Cleaner normalizes and filters a batch of reviews. Invalid reviews
// are dropped silently and only counted.
type Cleaner struct {
	validator Validator
	logger    *log.Logger
	now       func() time.Time
}

// NewCleaner creates a cleaner with the given validator. Logger may be
// nil.
func NewCleaner(validator Validator, logger *log.Logger) *Cleaner {
	return &Cleaner{
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (c *Cleaner) SetNow(now func() time.Time) { c.now = now }

// CleanBatch cleans every review and returns the survivors in input
// order plus the number removed.
func (c *Cleaner) CleanBatch(reviews []review.Review) ([]review.Review, int) {
	cleaned := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		out, ok := c.Clean(r)
		if ok {
			cleaned = append(cleaned, out)
		}
	}
	removed := len(reviews) - len(cleaned)
	if c.logger != nil {
		c.logger.Printf("cleaned %d of %d reviews (%d removed)", len(cleaned), len(reviews), removed)
	}
	return cleaned, removed
}

// Clean normalizes one review's text and fields. The second return is
// false when the review fails validation and should be dropped.
func (c *Cleaner) Clean(r review.Review) (review.Review, bool) {
	out := r
	out.Title = Normalize(r.Title)
	out.Content = Normalize(r.Content)

	if !c.validator.Valid(out.Content) {
		return review.Review{}, false
	}

	out.Rating = clampRating(r.Rating)
	out.ReviewDate = NormalizeDate(r.ReviewDate)
	out.HelpfulCount = clampCount(r.HelpfulCount)
	out.ReplyCount = clampCount(r.ReplyCount)

	out.CleanedAt = c.now().UTC().Format(review.TimeLayout)
	out.OriginalLength = len(r.Content)
	out.CleanedLength = len(out.Content)
	return out, true
}

// NormalizeRating coerces an arbitrary raw rating value to an integer
// in [1,5]. Numeric values are rounded then clamped; nil and
// non-numeric values yield nil.
func NormalizeRating(v any) *int {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case float64:
		f = val
	case float32:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	n := int(math.Round(f))
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	return &n
}

// NormalizeDate parses a raw date string against the known formats and
// returns it in ISO-8601 form, or "" when it cannot be parsed.
// ISO-8601 input passes through unchanged.
func NormalizeDate(s string) string {
	if s == "" {
		return ""
	}
	if reISODate.MatchString(s) {
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(review.TimeLayout)
		}
	}
	return ""
}

// NormalizeCount coerces an arbitrary raw count to a non-negative
// integer; non-numeric values yield 0.
func NormalizeCount(v any) int {
	var n int
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		n = val
	case int64:
		n = int(val)
	case float64:
		n = int(val)
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		n = int(parsed)
	default:
		return 0
	}
	return clampCount(n)
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampRating(r *int) *int {
	if r == nil {
		return nil
	}
	n := *r
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	return &n
}

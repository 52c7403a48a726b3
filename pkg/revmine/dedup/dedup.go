package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"log"
	"regexp"
	"strings"
	"unicode"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// DefaultThreshold is the similarity level at which two reviews are
// treated as near-duplicates.
const DefaultThreshold = 0.90

// dedupSpamPatterns are the promotional phrases checked by the spam
// pass. Two or more hits mark a review as spam; one hit is enough for
// very short content.
var dedupSpamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`visit\s+my\s+website`),
	regexp.MustCompile(`click\s+here`),
	regexp.MustCompile(`make\s+money`),
	regexp.MustCompile(`free\s+money`),
	regexp.MustCompile(`earn\s+\$\d+`),
	regexp.MustCompile(`work\s+from\s+home`),
	regexp.MustCompile(`buy\s+now`),
	regexp.MustCompile(`limited\s+time`),
	regexp.MustCompile(`act\s+fast`),
	regexp.MustCompile(`special\s+offer`),
	regexp.MustCompile(`https?://`),
	regexp.MustCompile(`www\.`),
	regexp.MustCompile(`\.com`),
	regexp.MustCompile(`whatsapp`),
	regexp.MustCompile(`telegram`),
	regexp.MustCompile(`contact\s+me`),
}

// Engine removes duplicate and spam reviews in four strictly
// sequential passes: exact fingerprint, near-duplicate similarity,
// spam patterns, and same-author collapse.
type Engine struct {
	threshold float64
	scorer    *Scorer
	logger    *log.Logger
}

// NewEngine creates a dedup engine. A non-positive threshold falls
// back to DefaultThreshold; a nil scorer gets a wall-clock scorer.
// Logger may be nil.
func NewEngine(threshold float64, scorer *Scorer, logger *log.Logger) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if scorer == nil {
		scorer = NewScorer()
	}
	return &Engine{threshold: threshold, scorer: scorer, logger: logger}
}

// PassStats counts the reviews removed by each pass.
type PassStats struct {
	ExactDuplicates int
	NearDuplicates  int
	Spam            int
	UserDuplicates  int
}

// Removed is the total number of reviews dropped across all passes.
func (p PassStats) Removed() int {
	return p.ExactDuplicates + p.NearDuplicates + p.Spam + p.UserDuplicates
}

// Deduplicate runs all four passes and returns the surviving reviews
// plus per-pass removal counts. Empty input returns empty output.
func (e *Engine) Deduplicate(reviews []review.Review) ([]review.Review, PassStats) {
	var stats PassStats
	if len(reviews) == 0 {
		return nil, stats
	}

	out := e.removeExactDuplicates(reviews)
	stats.ExactDuplicates = len(reviews) - len(out)
	e.logf("removed %d exact duplicates", stats.ExactDuplicates)

	n := len(out)
	out = e.removeNearDuplicates(out)
	stats.NearDuplicates = n - len(out)
	e.logf("removed %d near-duplicate reviews", stats.NearDuplicates)

	n = len(out)
	out = e.removeSpam(out)
	stats.Spam = n - len(out)
	e.logf("removed %d spam reviews", stats.Spam)

	n = len(out)
	out = e.removeUserDuplicates(out)
	stats.UserDuplicates = n - len(out)
	e.logf("removed %d same-author duplicates", stats.UserDuplicates)

	return out, stats
}

// removeExactDuplicates keeps the first review per content fingerprint.
func (e *Engine) removeExactDuplicates(reviews []review.Review) []review.Review {
	seen := make(map[string]struct{}, len(reviews))
	out := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		fp := Fingerprint(r)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Fingerprint returns the md5 digest of the lower-cased, trimmed
// title|content pair used for exact-duplicate detection.
func Fingerprint(r review.Review) string {
	title := strings.ToLower(strings.TrimSpace(r.Title))
	content := strings.ToLower(strings.TrimSpace(r.Content))
	sum := md5.Sum([]byte(title + "|" + content))
	return hex.EncodeToString(sum[:])
}

// removeNearDuplicates compares each review against every already
// accepted one; on a match above the threshold, the higher-quality
// review keeps the accepted slot. A review matches at most one
// accepted review (first match wins).
func (e *Engine) removeNearDuplicates(reviews []review.Review) []review.Review {
	accepted := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		duplicate := false
		for i, kept := range accepted {
			if Similarity(r, kept) >= e.threshold {
				if e.scorer.Score(r) > e.scorer.Score(kept) {
					accepted[i] = r
				}
				duplicate = true
				break
			}
		}
		if !duplicate {
			accepted = append(accepted, r)
		}
	}
	return accepted
}

func (e *Engine) removeSpam(reviews []review.Review) []review.Review {
	out := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		if !IsSpamReview(r) {
			out = append(out, r)
		}
	}
	return out
}

// IsSpamReview applies the dedup-stage spam heuristics over the
// combined title and content.
func IsSpamReview(r review.Review) bool {
	content := strings.ToLower(r.Content)
	combined := strings.ToLower(r.Title) + " " + content

	hits := 0
	for _, re := range dedupSpamPatterns {
		if re.MatchString(combined) {
			hits++
		}
	}
	if hits >= 2 {
		return true
	}
	if len(content) < 20 && hits >= 1 {
		return true
	}

	// Mostly-uppercase content reads as shouting spam.
	if len(r.Content) > 10 {
		upper := 0
		for _, c := range r.Content {
			if unicode.IsUpper(c) {
				upper++
			}
		}
		if float64(upper)/float64(len(r.Content)) > 0.7 {
			return true
		}
	}

	// Heavy word repetition is another spam tell.
	words := strings.Fields(content)
	if len(words) > 5 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		repetition := 1 - float64(len(unique))/float64(len(words))
		if repetition > 0.7 {
			return true
		}
	}

	return false
}

// removeUserDuplicates keeps a single highest-quality review per
// (user_id, app_name) pair. An empty user_id is a valid group key, so
// all anonymous reviews for one app collapse together; this mirrors
// the upstream grouping and is deliberate.
func (e *Engine) removeUserDuplicates(reviews []review.Review) []review.Review {
	type groupKey struct{ userID, appName string }

	groups := make(map[groupKey][]int)
	order := make([]groupKey, 0, len(reviews))
	for i, r := range reviews {
		key := groupKey{r.UserID, r.AppName}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	out := make([]review.Review, 0, len(reviews))
	for _, key := range order {
		indexes := groups[key]
		best := indexes[0]
		if len(indexes) > 1 {
			bestScore := e.scorer.Score(reviews[best])
			for _, idx := range indexes[1:] {
				if score := e.scorer.Score(reviews[idx]); score > bestScore {
					best, bestScore = idx, score
				}
			}
		}
		out = append(out, reviews[best])
	}
	return out
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

package classify

import (
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// DefaultConfidenceThreshold gates category assignment: results below
// it are reported as unclassified.
const DefaultConfidenceThreshold = 0.3

// Category is a named topical category with its keyword list.
type Category struct {
	Name     string
	Keywords []string
}

// DefaultCategories returns the built-in review categories.
func DefaultCategories() map[string]Category {
	return map[string]Category{
		"ux_ui": {
			Name:     "User Experience & Interface",
			Keywords: []string{"interface", "design", "usability", "navigation", "ui", "ux", "user-friendly"},
		},
		"pricing": {
			Name:     "Pricing & Billing",
			Keywords: []string{"price", "cost", "expensive", "cheap", "billing", "subscription", "payment"},
		},
		"performance": {
			Name:     "Performance & Reliability",
			Keywords: []string{"slow", "fast", "lag", "crash", "bug", "stable", "performance", "loading"},
		},
		"features": {
			Name:     "Features & Functionality",
			Keywords: []string{"feature", "function", "capability", "tool", "option", "missing", "need"},
		},
		"customer_service": {
			Name:     "Customer Service",
			Keywords: []string{"support", "help", "service", "response", "staff", "customer care"},
		},
		"content_quality": {
			Name:     "Content Quality",
			Keywords: []string{"content", "quality", "selection", "variety", "catalog", "library"},
		},
	}
}

// keywordPattern holds a keyword with its precompiled whole-word
// matcher and weight. Multi-word keywords weigh more.
type keywordPattern struct {
	keyword string
	re      *regexp.Regexp
	weight  float64
}

// Classifier assigns a primary category and sentiment to each review
// using deterministic keyword scoring. Every method is total: empty or
// degenerate text yields sentinel results, never an error.
type Classifier struct {
	categories map[string][]keywordPattern
	names      []string // sorted category ids for deterministic scans
	threshold  float64
	sentiment  *SentimentAnalyzer
	logger     *log.Logger
	now        func() time.Time
}

// NewClassifier builds a classifier over the given categories. Nil
// categories fall back to the defaults; a non-positive threshold falls
// back to DefaultConfidenceThreshold. Logger may be nil.
func NewClassifier(categories map[string]Category, threshold float64, sentiment *SentimentAnalyzer, logger *log.Logger) *Classifier {
	if categories == nil {
		categories = DefaultCategories()
	}
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if sentiment == nil {
		sentiment = NewSentimentAnalyzer(nil, nil)
	}

	compiled := make(map[string][]keywordPattern, len(categories))
	names := make([]string, 0, len(categories))
	for id, cat := range categories {
		names = append(names, id)
		patterns := make([]keywordPattern, 0, len(cat.Keywords))
		for _, kw := range cat.Keywords {
			lowered := lower(kw)
			patterns = append(patterns, keywordPattern{
				keyword: kw,
				re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(lowered) + `\b`),
				weight:  float64(len(strings.Fields(kw)))*0.5 + 1.0,
			})
		}
		compiled[id] = patterns
	}
	sort.Strings(names)

	return &Classifier{
		categories: compiled,
		names:      names,
		threshold:  threshold,
		sentiment:  sentiment,
		logger:     logger,
		now:        time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (c *Classifier) SetNow(now func() time.Time) { c.now = now }

// ClassifyBatch classifies every review and logs summary statistics.
func (c *Classifier) ClassifyBatch(reviews []review.Review) []review.Review {
	out := make([]review.Review, len(reviews))
	for i, r := range reviews {
		out[i] = c.Classify(r)
	}
	c.logStats(out)
	return out
}

// Classify returns a copy of the review with classification fields
// filled in.
func (c *Classifier) Classify(r review.Review) review.Review {
	out := r
	combined := strings.TrimSpace(r.Title + " " + r.Content)

	if combined == "" {
		out.PrimaryCategory = review.Unclassified
		out.CategoryScores = map[string]float64{}
		out.ClassificationConfidence = 0
		out.Sentiment = review.SentimentNeutral
		out.SentimentScore = 0
		return out
	}

	scores := c.CategoryScores(combined)
	primary, confidence := c.primaryCategory(scores)
	sentiment, sentimentScore := c.sentiment.Analyze(combined)

	out.PrimaryCategory = primary
	out.CategoryScores = scores
	out.ClassificationConfidence = confidence
	out.Sentiment = sentiment
	out.SentimentScore = sentimentScore
	out.KeywordsFound = c.ExtractKeywords(combined)
	out.ClassifiedAt = c.now().UTC().Format(review.TimeLayout)
	return out
}

// CategoryScores computes a [0,1] score per category: weighted
// whole-word keyword occurrence counts, normalized by text length.
// Empty text yields 0 for every category.
func (c *Classifier) CategoryScores(text string) map[string]float64 {
	lowered := lower(text)
	wordCount := len(strings.Fields(text))

	scores := make(map[string]float64, len(c.categories))
	for id, patterns := range c.categories {
		if wordCount == 0 {
			scores[id] = 0
			continue
		}
		raw := 0.0
		for _, p := range patterns {
			raw += float64(len(p.re.FindAllStringIndex(lowered, -1))) * p.weight
		}
		score := raw / (float64(wordCount)*0.1 + 1)
		if score > 1 {
			score = 1
		}
		scores[id] = score
	}
	return scores
}

// primaryCategory picks the top-scoring category and derives a
// confidence from its margin over the runner-up. Below-threshold
// results are reported as unclassified, but the raw confidence is
// kept; callers must not assume the two are mutually consistent.
func (c *Classifier) primaryCategory(scores map[string]float64) (string, float64) {
	if len(scores) == 0 {
		return review.Unclassified, 0
	}

	primary := ""
	maxScore := -1.0
	for _, id := range c.names {
		if score, ok := scores[id]; ok && score > maxScore {
			primary, maxScore = id, score
		}
	}

	sorted := make([]float64, 0, len(scores))
	for _, s := range scores {
		sorted = append(sorted, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var confidence float64
	if len(sorted) < 2 || sorted[0] == 0 {
		confidence = maxScore
	} else {
		confidence = maxScore + (sorted[0] - sorted[1])
		if confidence > 1 {
			confidence = 1
		}
	}

	if confidence < c.threshold {
		return review.Unclassified, confidence
	}
	return primary, confidence
}

// ExtractKeywords returns the sorted set of category keywords present
// as whole words anywhere in the text.
func (c *Classifier) ExtractKeywords(text string) []string {
	lowered := lower(text)
	seen := make(map[string]struct{})
	for _, patterns := range c.categories {
		for _, p := range patterns {
			if p.re.MatchString(lowered) {
				seen[p.keyword] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	found := make([]string, 0, len(seen))
	for kw := range seen {
		found = append(found, kw)
	}
	sort.Strings(found)
	return found
}

func (c *Classifier) logStats(reviews []review.Review) {
	if c.logger == nil || len(reviews) == 0 {
		return
	}
	categories := make(map[string]int)
	sentiments := make(map[string]int)
	var confidenceSum float64
	for _, r := range reviews {
		categories[r.PrimaryCategory]++
		sentiments[r.Sentiment]++
		confidenceSum += r.ClassificationConfidence
	}
	c.logger.Printf("classified %d reviews (avg confidence %.3f)", len(reviews), confidenceSum/float64(len(reviews)))
	c.logger.Printf("category distribution: %v", categories)
	c.logger.Printf("sentiment distribution: %v", sentiments)
}

func lower(s string) string { return strings.ToLower(s) }

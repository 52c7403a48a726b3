package classify

import (
	"regexp"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// Sentiment label thresholds: net scores inside (-0.02, 0.02) are
// neutral.
const (
	positiveThreshold = 0.02
	negativeThreshold = -0.02
)

var reWord = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// DefaultPositiveLexicon maps positive words to weights 1-3.
func DefaultPositiveLexicon() map[string]int {
	return map[string]int{
		"excellent": 3, "amazing": 3, "outstanding": 3, "fantastic": 3,
		"great": 2, "good": 2, "wonderful": 2, "awesome": 3, "love": 2,
		"best": 2, "perfect": 3, "brilliant": 2, "superb": 2,
		"like": 1, "nice": 1, "fine": 1, "okay": 1, "decent": 1,
		"helpful": 1, "useful": 1, "easy": 1, "smooth": 1, "fast": 1,
	}
}

// DefaultNegativeLexicon maps negative words to weights 1-3.
func DefaultNegativeLexicon() map[string]int {
	return map[string]int{
		"terrible": 3, "awful": 3, "horrible": 3, "disgusting": 3, "trash": 3,
		"bad": 2, "poor": 2, "worst": 3, "hate": 2, "useless": 2,
		"broken": 2, "buggy": 2, "slow": 2, "crash": 2, "freezes": 2,
		"disappointed": 2, "frustrated": 2, "annoying": 1, "confusing": 1,
		"difficult": 1, "hard": 1, "problem": 1, "issue": 1, "error": 1,
	}
}

// SentimentAnalyzer scores text against weighted positive/negative
// lexicons.
type SentimentAnalyzer struct {
	positive map[string]int
	negative map[string]int
}

// NewSentimentAnalyzer builds an analyzer from the given lexicons; nil
// lexicons fall back to the defaults.
func NewSentimentAnalyzer(positive, negative map[string]int) *SentimentAnalyzer {
	if positive == nil {
		positive = DefaultPositiveLexicon()
	}
	if negative == nil {
		negative = DefaultNegativeLexicon()
	}
	return &SentimentAnalyzer{positive: positive, negative: negative}
}

// Analyze returns the sentiment label and a score clamped to [-1,1].
// Text with no word tokens is neutral with score 0.
func (a *SentimentAnalyzer) Analyze(text string) (string, float64) {
	words := reWord.FindAllString(lower(text), -1)
	if len(words) == 0 {
		return review.SentimentNeutral, 0
	}

	var positive, negative int
	for _, w := range words {
		if weight, ok := a.positive[w]; ok {
			positive += weight
		} else if weight, ok := a.negative[w]; ok {
			negative += weight
		}
	}

	net := float64(positive-negative) / float64(len(words))

	label := review.SentimentNeutral
	if net > positiveThreshold {
		label = review.SentimentPositive
	} else if net < negativeThreshold {
		label = review.SentimentNegative
	}

	score := net * 10
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return label, score
}

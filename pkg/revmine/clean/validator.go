package clean

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default length bounds for review content, in characters.
const (
	DefaultMinLength = 5
	DefaultMaxLength = 5000
)

// minAlphanumeric is the least number of letters/digits a review needs
// to count as real text rather than punctuation noise.
const minAlphanumeric = 5

// englishWords is the function-word set behind the crude language
// heuristic: content matching at least two distinct entries is assumed
// to be English.
var englishWords = []string{
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
}

// spamPatterns are the cleaning-stage spam checks. The repeated-char
// run check lives in hasLongRun since RE2 has no backreferences.
var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z]{20,}`),
	regexp.MustCompile(`(?i)www\.`),
	regexp.MustCompile(`(?i)bit\.ly`),
	regexp.MustCompile(`(?i)click here`),
	regexp.MustCompile(`(?i)free money`),
	regexp.MustCompile(`(?i)buy now`),
	regexp.MustCompile(`(?i)limited time`),
}

// Validator applies the per-record acceptance rules to normalized
// content. A zero Validator uses the default length bounds.
type Validator struct {
	MinLength int
	MaxLength int
}

// NewValidator returns a validator with the given length bounds;
// non-positive bounds fall back to the defaults.
func NewValidator(minLength, maxLength int) Validator {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return Validator{MinLength: minLength, MaxLength: maxLength}
}

// Valid reports whether normalized content passes every acceptance
// rule: length bounds, alphanumeric floor, spam patterns, and the
// English heuristic. Rejected content is simply dropped upstream.
func (v Validator) Valid(content string) bool {
	minLen := v.MinLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	maxLen := v.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	if n := utf8.RuneCountInString(content); n < minLen || n > maxLen {
		return false
	}
	if countAlphanumeric(content) < minAlphanumeric {
		return false
	}
	if IsSpam(content) {
		return false
	}
	return looksEnglish(content)
}

// IsSpam reports whether content matches any cleaning-stage spam
// pattern.
func IsSpam(content string) bool {
	if hasLongRun(content, 11) {
		return true
	}
	for _, re := range spamPatterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

func countAlphanumeric(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// hasLongRun reports whether s contains a run of the same rune of at
// least length n.
func hasLongRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func looksEnglish(content string) bool {
	lower := strings.ToLower(content)
	matches := 0
	for _, w := range englishWords {
		if strings.Contains(lower, w) {
			matches++
			if matches >= 2 {
				return true
			}
		}
	}
	return false
}

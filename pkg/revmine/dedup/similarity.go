package dedup

import (
	"regexp"
	"strings"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// stopWords are removed before similarity comparison so that reviews
// differing only in function words still match.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

var (
	rePunct  = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	reSpaces = regexp.MustCompile(`\s+`)
)

// Similarity returns a [0,1] similarity between two reviews based on a
// longest-common-subsequence ratio over stop-word-free content. When
// both reviews carry titles, title similarity is blended in at 20%.
// Missing content on either side yields 0.
func Similarity(a, b review.Review) float64 {
	contentA := normalizeForComparison(a.Content)
	contentB := normalizeForComparison(b.Content)
	if contentA == "" || contentB == "" {
		return 0
	}

	sim := ratio(contentA, contentB)

	titleA := normalizeForComparison(a.Title)
	titleB := normalizeForComparison(b.Title)
	if titleA != "" && titleB != "" {
		sim = sim*0.8 + ratio(titleA, titleB)*0.2
	}
	return sim
}

// normalizeForComparison lowercases, strips punctuation to spaces,
// collapses whitespace, and drops stop words.
func normalizeForComparison(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = rePunct.ReplaceAllString(text, " ")
	text = reSpaces.ReplaceAllString(text, " ")

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// ratio is the Ratcliff-Obershelp similarity of two strings: twice the
// number of matching characters over the total length.
func ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	matched := matchingTotal(ra, rb)
	return 2.0 * float64(matched) / float64(total)
}

// matchingTotal sums the lengths of the matching blocks found by
// recursively locating the longest common substring and matching the
// pieces on either side of it.
func matchingTotal(a, b []rune) int {
	ai, bj, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a[:ai], b[:bj]) +
		matchingTotal(a[ai+size:], b[bj+size:])
}

// longestMatch finds the longest common substring of a and b, returning
// its start in each plus its length. Earliest match in a wins ties.
func longestMatch(a, b []rune) (int, int, int) {
	b2j := make(map[rune][]int)
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	bestI, bestJ, bestSize := 0, 0, 0
	lengths := make(map[int]int)
	for i, r := range a {
		next := make(map[int]int)
		for _, j := range b2j[r] {
			k := lengths[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		lengths = next
	}
	return bestI, bestJ, bestSize
}

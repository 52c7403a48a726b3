package clean

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reURL        = regexp.MustCompile(`https?://[a-zA-Z0-9$\-_@.&+!*(),/:;?=%~#]+`)
	reEmail      = regexp.MustCompile(`\S+@\S+\.\S+`)
	reBangs      = regexp.MustCompile(`!{2,}`)
	reQuestions  = regexp.MustCompile(`\?{2,}`)
	reEllipsis   = regexp.MustCompile(`\.{3,}`)
	reDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-'"@#]`)
)

// Normalize cleans raw review text. The steps run in a fixed order:
// HTML entity decode, NFKC normalization, whitespace collapse, control
// character removal, URL/email stripping, punctuation-run collapse, and
// an allow-set filter keeping word characters, whitespace and basic
// punctuation. Empty input yields an empty string; the function never
// fails.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = html.UnescapeString(text)
	text = norm.NFKC.String(text)
	text = reWhitespace.ReplaceAllString(text, " ")
	text = stripControl(text)
	text = reURL.ReplaceAllString(text, "")
	text = reEmail.ReplaceAllString(text, "")
	text = reBangs.ReplaceAllString(text, "!")
	text = reQuestions.ReplaceAllString(text, "?")
	text = reEllipsis.ReplaceAllString(text, "...")
	text = reDisallowed.ReplaceAllString(text, "")

	// Stripping URLs and emails can leave doubled spaces behind.
	text = reWhitespace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

package utils

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	urlPattern   = regexp.MustCompile(`https?://\S+|www\.\S+`)
	spacePattern = regexp.MustCompile(`\s+`)
	punctPattern = regexp.MustCompile(`[^\p{L}\p{N}\s'$%.!?-]`)
)

// StripHTML returns the visible text of an HTML fragment.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

// CleanText strips markup and URLs, drops symbol noise and collapses whitespace.
// Sentence punctuation and case are kept since the scorer reads both.
func CleanText(s string) string {
	s = StripHTML(s)
	s = urlPattern.ReplaceAllString(s, " ")
	s = punctPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

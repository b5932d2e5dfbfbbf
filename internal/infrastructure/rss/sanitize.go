package rss

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText reduces an HTML fragment to plain text with collapsed
// whitespace. Plain input passes through trimmed; on parse failure the
// raw input is returned rather than dropped.
func CleanText(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" || !strings.ContainsRune(trimmed, '<') {
		return trimmed
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return trimmed
	}
	doc.Find("script, style").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}

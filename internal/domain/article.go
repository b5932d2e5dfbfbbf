package domain

import (
	"sort"
	"strings"
	"time"
)

// NoTitle substitutes for articles published without one.
const NoTitle = "(no title)"

// rawDateLayouts covers the formats feeds commonly emit when the
// normalized timestamp is absent.
var rawDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Article is a single feed entry as returned by the reader.
type Article struct {
	Title        string
	Link         string
	Published    *time.Time // normalized publish date; wins over PublishedRaw
	PublishedRaw string     // raw date string as it appeared in the feed
	Content      string     // full or encoded body
	Snippet      string     // short content variant
	Description  string
}

// EffectiveTime resolves the timestamp used for ordering and watermark
// comparison: the normalized date, else the parsed raw date, else the
// epoch so undated articles sort last and never count as new.
func (a Article) EffectiveTime() time.Time {
	if a.Published != nil {
		return *a.Published
	}
	if raw := strings.TrimSpace(a.PublishedRaw); raw != "" {
		for _, layout := range rawDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Unix(0, 0).UTC()
}

// Body returns the first non-empty content field, falling back to the title.
func (a Article) Body() string {
	for _, candidate := range []string{a.Content, a.Snippet, a.Description} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return a.Title
}

// SortNewestFirst orders articles by effective timestamp, newest first.
// The sort is stable so same-timestamp articles keep their feed order.
func SortNewestFirst(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].EffectiveTime().After(articles[j].EffectiveTime())
	})
}

// FilterSince keeps articles published strictly after since. Ties are
// dropped: an article stamped exactly at the watermark belongs to the run
// that set it.
func FilterSince(articles []Article, since time.Time) []Article {
	kept := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.EffectiveTime().After(since) {
			kept = append(kept, a)
		}
	}
	return kept
}

// Truncate bounds the slice to the first max articles.
func Truncate(articles []Article, max int) []Article {
	if max > 0 && len(articles) > max {
		return articles[:max]
	}
	return articles
}

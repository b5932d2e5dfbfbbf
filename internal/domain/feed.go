package domain

import "time"

// Feed is a configured RSS/Atom source with its processing settings.
type Feed struct {
	ID            string
	URL           string
	Name          string
	Enabled       bool
	Prompt        string     // overrides the default summarization prompt when set
	LastProcessed *time.Time // watermark; advanced only after a successful bundle send
}

// DisplayName returns the configured name, falling back to the ID.
func (f Feed) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}

// MergeFeeds overlays an externally managed feed list onto the configured
// one. External entries win by ID, configured feeds absent from the
// external list are kept, and external feeds with new IDs are appended in
// their own order. External definitions do not carry watermarks, so the
// configured watermark survives an override.
func MergeFeeds(configured, external []Feed) []Feed {
	if len(external) == 0 {
		return configured
	}

	byID := make(map[string]Feed, len(external))
	for _, f := range external {
		byID[f.ID] = f
	}

	merged := make([]Feed, 0, len(configured)+len(external))
	seen := make(map[string]struct{}, len(configured))
	for _, f := range configured {
		if ext, ok := byID[f.ID]; ok {
			if ext.LastProcessed == nil {
				ext.LastProcessed = f.LastProcessed
			}
			merged = append(merged, ext)
		} else {
			merged = append(merged, f)
		}
		seen[f.ID] = struct{}{}
	}

	for _, f := range external {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		merged = append(merged, f)
	}

	return merged
}

// EnabledFeeds returns the feeds flagged for processing.
func EnabledFeeds(feeds []Feed) []Feed {
	enabled := make([]Feed, 0, len(feeds))
	for _, f := range feeds {
		if f.Enabled {
			enabled = append(enabled, f)
		}
	}
	return enabled
}

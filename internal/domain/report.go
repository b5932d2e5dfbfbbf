package domain

import "time"

// Summary is one successfully summarized article.
type Summary struct {
	FeedID    string
	FeedName  string
	Title     string
	Link      string
	Text      string
	Published *time.Time
	Source    string
}

// Bundle consolidates every summary produced for one feed in one run so
// they are delivered as a single message. A bundle is only built when at
// least one summary exists; empty feeds never notify.
type Bundle struct {
	FeedID    string
	FeedName  string
	Summaries []Summary
}

// RunReport aggregates the outcome of one batch sweep. It is returned to
// the caller (and serialized for logs or HTTP bodies), never persisted.
type RunReport struct {
	SuccessCount   int `json:"success_count"`
	FailureCount   int `json:"failure_count"`
	TotalSummaries int `json:"total_summaries"`
}

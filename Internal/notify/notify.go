package notify

import (
	"context"
	"errors"
	"time"

	"github.com/fazecat/lexipulse/Internal/sentiment"
)

// ItemResult is the score one article received during a cycle.
type ItemResult struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Score float64         `json:"score"`
	Label sentiment.Label `json:"label"`
}

// Report describes one finished analysis cycle.
type Report struct {
	ID         string    `json:"id"`
	Ticker     string    `json:"ticker"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Fetched    int `json:"fetched"`
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Filtered   int `json:"filtered"`
	Malformed  int `json:"malformed"`

	Items    []ItemResult         `json:"items,omitempty"`
	Entries  []sentiment.LogEntry `json:"entries,omitempty"`
	TopTerms []sentiment.Term     `json:"top_terms,omitempty"`
}

// Overall is the mean over every processed item, if there were any.
func (r Report) Overall(th sentiment.Thresholds) (sentiment.LogEntry, bool) {
	scores := make([]float64, len(r.Items))
	for i, item := range r.Items {
		scores[i] = item.Score
	}
	return sentiment.Summarize(r.FinishedAt, scores, r.Source, th)
}

type Notifier interface {
	Notify(ctx context.Context, r Report) error
}

// Multi fans a report out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, r Report) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every report.
type Nop struct{}

func (Nop) Notify(context.Context, Report) error { return nil }

package newsscraping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMalformedRecord = errors.New("malformed news record")

// Record is one news item as delivered by a Source. ID must be stable across
// fetches; it is what the seen set remembers.
type Record struct {
	ID          string
	Title       string
	Summary     string
	URL         string
	PublishedAt time.Time
	Content     string
}

// Validate reports ErrMalformedRecord for records without an id or without
// any text to score.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("%w: %s has no title or summary", ErrMalformedRecord, r.ID)
	}
	return nil
}

// MatchesKeyword reports whether keyword occurs in the title or summary,
// ignoring case. An empty keyword matches everything.
func (r Record) MatchesKeyword(keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), keyword) ||
		strings.Contains(strings.ToLower(r.Summary), keyword)
}

// Query narrows a fetch. Zero values mean no bound.
type Query struct {
	Since          time.Time
	Until          time.Time
	Limit          int
	IncludeContent bool
}

func (q Query) accepts(published time.Time) bool {
	if published.IsZero() {
		return q.Since.IsZero() && q.Until.IsZero()
	}
	if !q.Since.IsZero() && published.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && published.After(q.Until) {
		return false
	}
	return true
}

// Source supplies news records for one ticker, newest first.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]Record, error)
	Name() string
}

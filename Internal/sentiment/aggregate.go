package sentiment

import (
	"sort"
	"time"
)

const (
	SourceLive       = "live"
	SourceHistorical = "historical"
)

// LogEntry is one row of the sentiment log. Entries are never modified after
// they are written.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
	Count     int       `json:"count"`
	Label     Label     `json:"label"`
	Source    string    `json:"source"`
}

// DatedScore is a scored item tagged with its publication time.
type DatedScore struct {
	Date  time.Time
	Score float64
}

// Summarize averages scores into a single entry. It reports false when
// there is nothing to summarize.
func Summarize(ts time.Time, scores []float64, source string, th Thresholds) (LogEntry, bool) {
	if len(scores) == 0 {
		return LogEntry{}, false
	}
	var total float64
	for _, s := range scores {
		total += s
	}
	mean := total / float64(len(scores))
	return LogEntry{
		Timestamp: ts,
		Score:     mean,
		Count:     len(scores),
		Label:     th.Classify(mean),
		Source:    source,
	}, true
}

// GroupByDay emits one entry per calendar date, oldest first, stamped at noon
// of that date in the items' own location.
func GroupByDay(items []DatedScore, source string, th Thresholds) []LogEntry {
	type day struct {
		noon   time.Time
		scores []float64
	}
	days := make(map[string]*day)
	for _, item := range items {
		key := item.Date.Format(time.DateOnly)
		d, ok := days[key]
		if !ok {
			y, m, dd := item.Date.Date()
			d = &day{noon: time.Date(y, m, dd, 12, 0, 0, 0, item.Date.Location())}
			days[key] = d
		}
		d.scores = append(d.scores, item.Score)
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]LogEntry, 0, len(keys))
	for _, k := range keys {
		d := days[k]
		if entry, ok := Summarize(d.noon, d.scores, source, th); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

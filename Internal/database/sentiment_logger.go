package datafeed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fazecat/lexipulse/Internal/sentiment"
	"github.com/fazecat/lexipulse/Internal/utils/formatting"
)

var logHeader = []string{"timestamp", "score", "num_articles", "sentiment", "source"}

// appendLogCSV appends entries to the CSV log, writing the header only when
// the file is new. The returned func truncates the file back to its previous
// size.
func appendLogCSV(path string, entries []sentiment.LogEntry) (func(), error) {
	if len(entries) == 0 {
		return func() {}, nil
	}

	var prevSize int64
	isNew := true
	if info, err := os.Stat(path); err == nil {
		prevSize = info.Size()
		isNew = prevSize == 0
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	undo := func() {
		if prevSize == 0 && isNew {
			os.Remove(path)
			return
		}
		os.Truncate(path, prevSize)
	}

	w := csv.NewWriter(f)
	if isNew {
		w.Write(logHeader)
	}
	for _, e := range entries {
		w.Write([]string{
			e.Timestamp.Format(time.RFC3339),
			formatting.FormatScore(e.Score),
			strconv.Itoa(e.Count),
			string(e.Label),
			e.Source,
		})
	}
	w.Flush()

	if err := w.Error(); err != nil {
		f.Close()
		undo()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		undo()
		return nil, err
	}
	if err := f.Close(); err != nil {
		undo()
		return nil, err
	}
	return undo, nil
}

// readLogCSV parses the CSV log. A missing file is an empty history.
func readLogCSV(path string) ([]sentiment.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open sentiment log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(logHeader)

	var entries []sentiment.LogEntry
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sentiment log line %d: %w", line, err)
		}
		if line == 1 && rec[0] == logHeader[0] {
			continue
		}

		e, err := parseLogRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("sentiment log line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseLogRecord(rec []string) (sentiment.LogEntry, error) {
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return sentiment.LogEntry{}, err
	}
	score, err := formatting.ParseScore(rec[1])
	if err != nil {
		return sentiment.LogEntry{}, err
	}
	count, err := strconv.Atoi(rec[2])
	if err != nil {
		return sentiment.LogEntry{}, err
	}
	label, ok := sentiment.ParseLabel(rec[3])
	if !ok {
		return sentiment.LogEntry{}, fmt.Errorf("unknown sentiment %q", rec[3])
	}
	return sentiment.LogEntry{
		Timestamp: ts,
		Score:     score,
		Count:     count,
		Label:     label,
		Source:    rec[4],
	}, nil
}

type LogStats struct {
	TotalEntries  int             `json:"total_entries"`
	TotalArticles int             `json:"total_articles"`
	Positive      int             `json:"positive"`
	Negative      int             `json:"negative"`
	Neutral       int             `json:"neutral"`
	AverageScore  decimal.Decimal `json:"average_score"`
	PositiveRate  float64         `json:"positive_rate"`
}

// Stats summarizes entries logged within lookbackDays of now. The average is
// weighted by article count.
func Stats(entries []sentiment.LogEntry, lookbackDays int, now time.Time) LogStats {
	stats := LogStats{AverageScore: decimal.Zero}

	cutoff := now.AddDate(0, 0, -lookbackDays)
	weighted := decimal.Zero
	for _, e := range entries {
		if lookbackDays > 0 && e.Timestamp.Before(cutoff) {
			continue
		}
		stats.TotalEntries++
		stats.TotalArticles += e.Count
		weighted = weighted.Add(decimal.NewFromFloat(e.Score).Mul(decimal.NewFromInt(int64(e.Count))))

		switch e.Label {
		case sentiment.Positive:
			stats.Positive++
		case sentiment.Negative:
			stats.Negative++
		default:
			stats.Neutral++
		}
	}

	if stats.TotalArticles > 0 {
		stats.AverageScore = weighted.Div(decimal.NewFromInt(int64(stats.TotalArticles))).Round(4)
	}
	if stats.TotalEntries > 0 {
		stats.PositiveRate = float64(stats.Positive) / float64(stats.TotalEntries) * 100
	}
	return stats
}

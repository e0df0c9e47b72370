package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	newsscraping "github.com/fazecat/lexipulse/Internal/news_scraping"
	"github.com/fazecat/lexipulse/Internal/notify"
	"github.com/fazecat/lexipulse/Internal/sentiment"
	"github.com/fazecat/lexipulse/Internal/utils/config"
)

func historicalRecords() []newsscraping.Record {
	return []newsscraping.Record{
		{ID: "h3", Title: "Boeing steady", PublishedAt: time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)},
		{ID: "h1", Title: "Boeing gain", PublishedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "h0", Title: "Boeing undated"},
		{ID: "h2", Title: "Boeing loss", PublishedAt: time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)},
	}
}

func TestRunHistorical_GroupsByDay(t *testing.T) {
	store := &memStore{}
	source := &fakeSource{records: historicalRecords()}
	s, _ := openTestSession(t, store, source, nil)
	before := s.Lexicon.Snapshot()

	report, err := s.RunHistorical(context.Background(), HistoricalOptions{Days: 30, MaxArticles: 100})
	require.NoError(t, err)

	require.Len(t, source.queries, 1)
	q := source.queries[0]
	assert.True(t, q.Since.Equal(fixedNow.AddDate(0, 0, -30)))
	assert.True(t, q.Until.Equal(fixedNow))
	assert.Equal(t, 100, q.Limit)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Malformed)
	require.Len(t, report.Entries, 2)

	day1, day2 := report.Entries[0], report.Entries[1]
	assert.True(t, day1.Timestamp.Equal(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2, day1.Count)
	assert.InDelta(t, 0, day1.Score, 1e-12)
	assert.True(t, day2.Timestamp.Equal(time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, day2.Count)
	assert.Equal(t, sentiment.SourceHistorical, day2.Source)

	assert.Equal(t, before, s.Lexicon.Snapshot(), "analyze mode must not learn")
	for _, id := range []string{"h1", "h2", "h3"} {
		assert.False(t, s.Seen.IsNew(id), id)
	}
	require.Len(t, store.commits, 1)
	assert.Len(t, store.entries, 2)
}

func TestRunHistorical_LearningMode(t *testing.T) {
	store := &memStore{}
	source := &fakeSource{records: historicalRecords()}
	s, _ := openTestSession(t, store, source, nil)

	_, err := s.RunHistorical(context.Background(), HistoricalOptions{Days: 30, MaxArticles: 100, LearningMode: true})
	require.NoError(t, err)
	assert.Greater(t, s.Lexicon.Get("gain"), 1.0)
	assert.NotZero(t, s.Lexicon.Get("boeing"))
}

func TestRunHistorical_FullContent(t *testing.T) {
	store := &memStore{}
	source := &fakeSource{records: []newsscraping.Record{
		{ID: "c1", Title: "Boeing update", URL: "https://news.example.com/c1", PublishedAt: fixedNow.Add(-time.Hour)},
		{ID: "c2", Title: "Boeing update", Content: "strong profit growth", PublishedAt: fixedNow.Add(-time.Hour)},
	}}
	body := &fakeContent{body: "strong profit growth"}
	s, _ := openTestSession(t, store, source, nil)
	s.content = body

	report, err := s.RunHistorical(context.Background(), HistoricalOptions{Days: 1, MaxArticles: 10, FullContent: true})
	require.NoError(t, err)

	assert.Equal(t, 1, body.calls)
	assert.True(t, source.queries[0].IncludeContent)
	require.Len(t, report.Items, 2)

	// body: 3 matches over 3 tokens, weighted by 0.5 across 2.5 sources
	want := (3 / 1.7320508075688772 * 0.5) / 2.5
	assert.InDelta(t, want, report.Items[0].Score, 1e-9)
	assert.InDelta(t, want, report.Items[1].Score, 1e-9)
}

func TestRun_FlushesOnCancel(t *testing.T) {
	store := &memStore{}
	source := &fakeSource{records: liveRecords()}
	s, n := openTestSession(t, store, source, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n.onReport = cancel

	require.NoError(t, s.Run(ctx))

	require.Len(t, store.commits, 2)
	assert.Len(t, store.commits[0].Entries, 1)
	assert.Empty(t, store.commits[1].Entries)
	assert.Equal(t, s.Lexicon.Snapshot(), store.lexicon)
}

func TestRun_ScheduledBackfill(t *testing.T) {
	store := &memStore{}
	source := &fakeSource{records: historicalRecords()}
	s, n := openTestSession(t, store, source, func(c *config.Config) {
		c.Historical.Schedule = "@every 1s"
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n.onReport = func() {
		if last := n.reports[len(n.reports)-1]; last.Source == sentiment.SourceHistorical {
			cancel()
		}
	}

	require.NoError(t, s.Run(ctx))
	require.ErrorIs(t, ctx.Err(), context.Canceled, "backfill never fired")

	var sources []string
	for _, r := range n.reports {
		sources = append(sources, r.Source)
	}
	assert.Equal(t, sentiment.SourceLive, sources[0])
	assert.Contains(t, sources, sentiment.SourceHistorical)
}

func TestRun_RejectsBadSchedule(t *testing.T) {
	s, _ := openTestSession(t, &memStore{}, nil, func(c *config.Config) {
		c.Historical.Schedule = "not a schedule"
	})
	err := s.Run(context.Background())
	assert.ErrorContains(t, err, "invalid historical schedule")
}

var _ notify.Notifier = (*captureNotifier)(nil)

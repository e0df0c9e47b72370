package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	datafeed "github.com/fazecat/lexipulse/Internal/database"
	newsscraping "github.com/fazecat/lexipulse/Internal/news_scraping"
	"github.com/fazecat/lexipulse/Internal/notify"
	"github.com/fazecat/lexipulse/Internal/sentiment"
	"github.com/fazecat/lexipulse/Internal/utils/config"
)

type memStore struct {
	mu         sync.Mutex
	lexicon    map[string]float64
	seen       []string
	entries    []sentiment.LogEntry
	commits    []datafeed.Snapshot
	loadErr    error
	commitErr  error
}

func (m *memStore) LoadLexicon(ctx context.Context) (map[string]float64, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.lexicon == nil {
		return nil, datafeed.ErrNotFound
	}
	return m.lexicon, nil
}

func (m *memStore) LoadSeen(ctx context.Context) ([]string, error) { return m.seen, nil }

func (m *memStore) Commit(ctx context.Context, snap datafeed.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.lexicon = snap.Lexicon
	m.seen = snap.Seen
	m.entries = append(m.entries, snap.Entries...)
	m.commits = append(m.commits, snap)
	return nil
}

func (m *memStore) History(ctx context.Context, limit int) ([]sentiment.LogEntry, error) {
	return m.entries, nil
}

func (m *memStore) Ping(ctx context.Context) error { return nil }
func (m *memStore) Close() error                   { return nil }

type fakeSource struct {
	records []newsscraping.Record
	err     error
	queries []newsscraping.Query
}

func (f *fakeSource) Fetch(ctx context.Context, q newsscraping.Query) ([]newsscraping.Record, error) {
	f.queries = append(f.queries, q)
	return f.records, f.err
}

func (f *fakeSource) Name() string { return "fake" }

type fakeContent struct {
	body  string
	calls int
}

func (f *fakeContent) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.body, nil
}

type captureNotifier struct {
	reports  []notify.Report
	onReport func()
}

func (c *captureNotifier) Notify(ctx context.Context, r notify.Report) error {
	c.reports = append(c.reports, r)
	if c.onReport != nil {
		c.onReport()
	}
	return nil
}

var fixedNow = time.Date(2025, 5, 6, 15, 0, 0, 0, time.UTC)

func liveRecords() []newsscraping.Record {
	return []newsscraping.Record{
		{ID: "https://news.example.com/1", Title: "Boeing reports strong profit", Summary: "Shares surge", PublishedAt: fixedNow},
		{ID: "", Title: "No identifier"},
		{ID: "https://news.example.com/2", Title: "Airbus wins order", Summary: "Rival gains", PublishedAt: fixedNow},
		{ID: "https://news.example.com/old", Title: "Boeing recall", PublishedAt: fixedNow},
	}
}

func openTestSession(t *testing.T, store *memStore, source newsscraping.Source, mutate func(*config.Config)) (*Session, *captureNotifier) {
	t.Helper()
	cfg := config.Default()
	cfg.Analyzer.Keyword = "boeing"
	if mutate != nil {
		mutate(cfg)
	}
	n := &captureNotifier{}
	s, err := Open(context.Background(), cfg, Deps{Store: store, Source: source, Notifier: n})
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s, n
}

func TestOpen_FallsBackToSeed(t *testing.T) {
	tests := []struct {
		name  string
		store *memStore
	}{
		{"nothing saved", &memStore{}},
		{"unreadable", &memStore{loadErr: errors.New("disk on fire")}},
		{"corrupt", &memStore{lexicon: map[string]float64{"Not A Word": 1}}},
		{"empty", &memStore{lexicon: map[string]float64{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := openTestSession(t, tt.store, nil, nil)
			assert.Equal(t, sentiment.SeedLexicon().Len(), s.Lexicon.Len())
			assert.Equal(t, 1.0, s.Lexicon.Get("gain"))
		})
	}
}

func TestOpen_UsesSavedState(t *testing.T) {
	store := &memStore{
		lexicon: map[string]float64{"rally": 0.7},
		seen:    []string{"https://news.example.com/old"},
	}
	s, _ := openTestSession(t, store, nil, nil)
	assert.Equal(t, 1, s.Lexicon.Len())
	assert.Equal(t, 0.7, s.Lexicon.Get("rally"))
	assert.False(t, s.Seen.IsNew("https://news.example.com/old"))
}

func TestRunCycle_ScoresLearnsAndCommits(t *testing.T) {
	store := &memStore{seen: []string{"https://news.example.com/old"}}
	source := &fakeSource{records: liveRecords()}
	s, n := openTestSession(t, store, source, nil)

	report, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Fetched)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Malformed)
	assert.Equal(t, 1, report.Filtered)
	assert.Equal(t, 1, report.Duplicates)
	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Items, 1)

	// title: 2 matches over 4 tokens, summary: 1 match over 2 tokens
	combined := report.Items[0].Score
	assert.InDelta(t, (1.5*1.0+1/1.4142135623730951)/2, combined, 1e-9)
	assert.Equal(t, sentiment.Positive, report.Items[0].Label)

	assert.InDelta(t, 0.05*combined, s.Lexicon.Get("boeing"), 1e-12)
	assert.InDelta(t, 1+0.05*combined, s.Lexicon.Get("profit"), 1e-12)
	assert.False(t, s.Seen.IsNew("https://news.example.com/1"))

	require.Len(t, store.commits, 1)
	assert.Equal(t, []string{"https://news.example.com/1"}, store.commits[0].Added)
	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, sentiment.SourceLive, entry.Source)
	assert.Equal(t, 1, entry.Count)
	assert.True(t, entry.Timestamp.Equal(fixedNow))
	assert.Equal(t, s.Lexicon.Snapshot(), store.lexicon)
	assert.Contains(t, store.seen, "https://news.example.com/1")

	require.Len(t, n.reports, 1)
	assert.Len(t, n.reports[0].TopTerms, topTermCount)
}

func TestRunCycle_RepeatPollIsIdempotent(t *testing.T) {
	store := &memStore{}
	source := &fakeSource{records: liveRecords()}
	s, _ := openTestSession(t, store, source, nil)

	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	before := s.Lexicon.Snapshot()

	report, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 2, report.Duplicates)
	assert.Len(t, store.commits, 1)
	assert.Equal(t, before, s.Lexicon.Snapshot())
}

func TestRunCycle_CommitFailureRollsBack(t *testing.T) {
	store := &memStore{}
	source := &fakeSource{records: liveRecords()}
	s, n := openTestSession(t, store, source, nil)
	before := s.Lexicon.Snapshot()

	store.commitErr = errors.New("disk full")
	_, err := s.RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")

	assert.Equal(t, before, s.Lexicon.Snapshot())
	assert.True(t, s.Seen.IsNew("https://news.example.com/1"))
	assert.Empty(t, n.reports)

	store.commitErr = nil
	report, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
}

func TestRunCycle_SourceFailureIsAnEmptyBatch(t *testing.T) {
	store := &memStore{}
	source := &fakeSource{err: errors.New("feed down")}
	s, n := openTestSession(t, store, source, nil)

	report, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Fetched)
	assert.Empty(t, store.commits)
	require.Len(t, n.reports, 1)
}

func TestRunCycle_AveragingPolicy(t *testing.T) {
	store := &memStore{lexicon: map[string]float64{"gain": 1}}
	source := &fakeSource{records: []newsscraping.Record{
		{ID: "a", Title: "gain", Summary: "foo bar"},
	}}
	s, _ := openTestSession(t, store, source, func(c *config.Config) {
		c.Analyzer.Keyword = ""
		c.Analyzer.Policy = string(sentiment.PolicyAveraging)
	})

	report, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	combined := report.Items[0].Score
	assert.InDelta(t, 0.75, combined, 1e-12)
	assert.InDelta(t, combined/2, s.Lexicon.Get("foo"), 1e-12)
	assert.InDelta(t, combined/2, s.Lexicon.Get("bar"), 1e-12)
	assert.Equal(t, 1.0, s.Lexicon.Get("gain"))
}

func TestRunCycle_UncasedLettersDoNotWedge(t *testing.T) {
	for _, policy := range []sentiment.Policy{sentiment.PolicyGradient, sentiment.PolicyAveraging} {
		t.Run(string(policy), func(t *testing.T) {
			store := &memStore{}
			source := &fakeSource{records: []newsscraping.Record{
				{ID: "https://news.example.com/1", Title: "Boeing reports strong profit", PublishedAt: fixedNow},
				{ID: "https://news.example.com/2", Title: "Boeing 𝐁𝐔𝐘 rating", Summary: "𝐒𝐓𝐑𝐎𝐍𝐆 demand", PublishedAt: fixedNow},
			}}
			s, _ := openTestSession(t, store, source, func(c *config.Config) {
				c.Analyzer.Policy = string(policy)
			})

			report, err := s.RunCycle(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, report.Processed)
			require.Len(t, store.commits, 1)
			assert.False(t, s.Seen.IsNew("https://news.example.com/2"))
			for word := range s.Lexicon.Snapshot() {
				assert.True(t, sentiment.ValidWord(word), word)
			}

			report, err = s.RunCycle(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, report.Processed)
			assert.Equal(t, 2, report.Duplicates)
		})
	}
}

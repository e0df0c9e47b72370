package datafeed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazecat/lexipulse/Internal/sentiment"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Lexicon: map[string]float64{
			"good":     1,
			"NOT_good": -0.5,
			"rally":    0.123456789,
		},
		Seen: []string{"https://example.com/a", "https://example.com/b"},
		Entries: []sentiment.LogEntry{
			{
				Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
				Score:     0.2 / 3,
				Count:     3,
				Label:     sentiment.Positive,
				Source:    sentiment.SourceHistorical,
			},
		},
	}
}

func TestFileStore_EmptyDirectory(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "BA")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.LoadLexicon(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))

	seen, err := store.LoadSeen(ctx)
	require.NoError(t, err)
	assert.Empty(t, seen)

	history, err := store.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestFileStore_EmptyLexiconIsNotFound(t *testing.T) {
	for _, body := range []string{"null", "{}", " {} \n"} {
		dir := t.TempDir()
		store, err := NewFileStore(dir, "BA")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(store.lexiconPath(), []byte(body), 0644))

		weights, err := store.LoadLexicon(context.Background())
		assert.True(t, errors.Is(err, ErrNotFound), body)
		assert.Nil(t, weights)
	}
}

func TestFileStore_CommitRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "BA")
	require.NoError(t, err)
	ctx := context.Background()

	snap := sampleSnapshot()
	require.NoError(t, store.Commit(ctx, snap))

	lex, err := store.LoadLexicon(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Lexicon, lex)

	seen, err := store.LoadSeen(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, snap.Seen, seen)

	history, err := store.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Timestamp.Equal(snap.Entries[0].Timestamp))
	assert.Equal(t, 0.0667, history[0].Score)
	assert.Equal(t, 3, history[0].Count)
	assert.Equal(t, sentiment.Positive, history[0].Label)
	assert.Equal(t, sentiment.SourceHistorical, history[0].Source)

	for _, name := range []string{"sentiment_dictionary_BA.json", "seen_links_BA.json", "sentiment_log_BA.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestFileStore_HeaderWrittenOnce(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "BA")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Commit(ctx, sampleSnapshot()))
	require.NoError(t, store.Commit(ctx, sampleSnapshot()))

	data, err := os.ReadFile(store.LogPath())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "timestamp,score,num_articles,sentiment,source"))
	assert.Contains(t, string(data), "2025-01-01T12:00:00Z,0.0667,3,positive,historical")

	history, err := store.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestFileStore_FailedCommitKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "BA")
	require.NoError(t, err)
	ctx := context.Background()

	first := sampleSnapshot()
	require.NoError(t, store.Commit(ctx, first))

	// A non-empty directory where the seen file belongs makes the final
	// rename fail after the lexicon has already been swapped in.
	seenPath := filepath.Join(dir, "seen_links_BA.json")
	require.NoError(t, os.Remove(seenPath))
	require.NoError(t, os.MkdirAll(filepath.Join(seenPath, "blocker"), 0755))

	second := sampleSnapshot()
	second.Lexicon = map[string]float64{"good": 2}
	err = store.Commit(ctx, second)
	require.Error(t, err)

	lex, err := store.LoadLexicon(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Lexicon, lex)

	history, err := store.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestFileStore_TickersAreIsolated(t *testing.T) {
	dir := t.TempDir()
	ba, err := NewFileStore(dir, "BA")
	require.NoError(t, err)
	aapl, err := NewFileStore(dir, "AAPL")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ba.Commit(ctx, sampleSnapshot()))

	_, err = aapl.LoadLexicon(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))
}

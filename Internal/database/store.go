package datafeed

import (
	"context"
	"errors"
	"fmt"

	"github.com/fazecat/lexipulse/Internal/sentiment"
	"github.com/fazecat/lexipulse/Internal/utils/config"
)

// ErrNotFound is returned when no persisted lexicon exists yet.
var ErrNotFound = errors.New("not found")

// Snapshot is everything one analysis cycle persists. Added lists the ids in
// Seen that are new since the previous commit; nil means the caller does not
// know, and the whole of Seen is written.
type Snapshot struct {
	Lexicon map[string]float64
	Seen    []string
	Added   []string
	Entries []sentiment.LogEntry
}

// NewSeen returns the ids an incremental store has to insert.
func (s Snapshot) NewSeen() []string {
	if s.Added != nil {
		return s.Added
	}
	return s.Seen
}

// Store persists one ticker's lexicon, seen items and sentiment log.
// Commit writes a whole Snapshot or, on error, leaves the previous state in
// place.
type Store interface {
	LoadLexicon(ctx context.Context) (map[string]float64, error)
	LoadSeen(ctx context.Context) ([]string, error)
	Commit(ctx context.Context, snap Snapshot) error
	History(ctx context.Context, limit int) ([]sentiment.LogEntry, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Storage.Kind.
func Open(cfg *config.Config) (Store, error) {
	ticker := cfg.Analyzer.Ticker
	switch cfg.Storage.Kind {
	case "file", "":
		return NewFileStore(cfg.Storage.Dir, ticker)
	case "postgres":
		return OpenPostgres(cfg.Database.DSN(), ticker)
	case "sqlite":
		return OpenSQLite(cfg.Storage.SQLitePath, ticker)
	}
	return nil, fmt.Errorf("unknown storage kind %q", cfg.Storage.Kind)
}

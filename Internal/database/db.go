package datafeed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fazecat/lexipulse/Internal/sentiment"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlTimeLayout is fixed width so logged_at sorts lexically.
const sqlTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLStore keeps every ticker in the same three tables, keyed by ticker.
type SQLStore struct {
	db     *sql.DB
	ticker string
}

func OpenPostgres(dsn, ticker string) (*SQLStore, error) {
	return openSQL("postgres", dsn, ticker)
}

func OpenSQLite(path, ticker string) (*SQLStore, error) {
	return openSQL("sqlite", path, ticker)
}

func openSQL(driver, dsn, ticker string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, ticker: ticker}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initializeSchema creates the lexicon, seen and log tables if they don't exist
func (s *SQLStore) initializeSchema() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS lexicon (
		ticker TEXT NOT NULL,
		word TEXT NOT NULL,
		weight DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (ticker, word)
	);

	CREATE TABLE IF NOT EXISTS seen_items (
		ticker TEXT NOT NULL,
		item_id TEXT NOT NULL,
		PRIMARY KEY (ticker, item_id)
	);

	CREATE TABLE IF NOT EXISTS sentiment_log (
		ticker TEXT NOT NULL,
		logged_at TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		num_articles INTEGER NOT NULL,
		sentiment TEXT NOT NULL,
		source TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sentiment_log_ticker ON sentiment_log(ticker, logged_at);
	`

	_, err := s.db.Exec(schemaSQL)
	return err
}

func (s *SQLStore) LoadLexicon(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, weight FROM lexicon WHERE ticker = $1`, s.ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query lexicon: %w", err)
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var word string
		var weight float64
		if err := rows.Scan(&word, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan lexicon row: %w", err)
		}
		weights[word] = weight
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}
	if len(weights) == 0 {
		return nil, ErrNotFound
	}
	return weights, nil
}

func (s *SQLStore) LoadSeen(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id FROM seen_items WHERE ticker = $1 ORDER BY item_id`, s.ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan seen item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Commit replaces the ticker's lexicon, inserts the snapshot's new seen ids
// and appends the log entries in one transaction.
func (s *SQLStore) Commit(ctx context.Context, snap Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM lexicon WHERE ticker = $1`, s.ticker); err != nil {
		return fmt.Errorf("failed to clear lexicon: %w", err)
	}
	for word, weight := range snap.Lexicon {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO lexicon (ticker, word, weight) VALUES ($1, $2, $3)`,
			s.ticker, word, weight); err != nil {
			return fmt.Errorf("failed to save term %q: %w", word, err)
		}
	}

	for _, id := range snap.NewSeen() {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO seen_items (ticker, item_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			s.ticker, id); err != nil {
			return fmt.Errorf("failed to save seen item: %w", err)
		}
	}

	for _, e := range snap.Entries {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO sentiment_log (ticker, logged_at, score, num_articles, sentiment, source)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.ticker, e.Timestamp.UTC().Format(sqlTimeLayout), e.Score, e.Count,
			string(e.Label), e.Source); err != nil {
			return fmt.Errorf("failed to log sentiment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// History returns up to limit of the most recent entries, oldest first.
// limit <= 0 returns everything.
func (s *SQLStore) History(ctx context.Context, limit int) ([]sentiment.LogEntry, error) {
	query := `SELECT logged_at, score, num_articles, sentiment, source
		FROM sentiment_log WHERE ticker = $1 ORDER BY logged_at DESC`
	args := []interface{}{s.ticker}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sentiment history: %w", err)
	}
	defer rows.Close()

	var entries []sentiment.LogEntry
	for rows.Next() {
		var (
			loggedAt, label, source string
			e                       sentiment.LogEntry
		)
		if err := rows.Scan(&loggedAt, &e.Score, &e.Count, &label, &source); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment row: %w", err)
		}
		ts, err := time.Parse(sqlTimeLayout, loggedAt)
		if err != nil {
			return nil, fmt.Errorf("bad logged_at %q: %w", loggedAt, err)
		}
		e.Timestamp = ts
		e.Label = sentiment.Label(label)
		e.Source = source
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("database connection is nil")
	}
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

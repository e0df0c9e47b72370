package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	datafeed "github.com/fazecat/lexipulse/Internal/database"
	"github.com/fazecat/lexipulse/Internal/logging"
	newsscraping "github.com/fazecat/lexipulse/Internal/news_scraping"
	"github.com/fazecat/lexipulse/Internal/notify"
	"github.com/fazecat/lexipulse/Internal/sentiment"
	"github.com/fazecat/lexipulse/Internal/tracker"
	"github.com/fazecat/lexipulse/Internal/utils/config"
)

const topTermCount = 10

// ContentFetcher returns the body text of an article page.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Deps are the collaborators a Session drives. Content and Notifier may be nil.
type Deps struct {
	Store    datafeed.Store
	Source   newsscraping.Source
	Content  ContentFetcher
	Notifier notify.Notifier
}

// Session owns one ticker's lexicon and seen set. Every mutation goes
// through a cycle, and cycles never overlap.
type Session struct {
	Ticker  string
	Lexicon *sentiment.Lexicon
	Seen    *tracker.Seen
	Scorer  *sentiment.Scorer
	Learner sentiment.Learner

	store    datafeed.Store
	source   newsscraping.Source
	content  ContentFetcher
	notifier notify.Notifier
	cfg      *config.Config
	location *time.Location
	log      *log.Logger
	now      func() time.Time

	mu sync.Mutex
}

// Open loads persisted state for cfg's ticker. A missing or unreadable
// lexicon is replaced by the seed lexicon.
func Open(ctx context.Context, cfg *config.Config, deps Deps) (*Session, error) {
	if deps.Store == nil {
		return nil, errors.New("pipeline: a store is required")
	}
	logger := logging.WithPrefix("pipeline " + cfg.Analyzer.Ticker)

	lexicon, err := loadLexicon(ctx, deps.Store, logger)
	if err != nil {
		return nil, err
	}

	ids, err := deps.Store.LoadSeen(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen items: %w", err)
	}

	learner, err := sentiment.NewLearner(sentiment.Policy(cfg.Analyzer.Policy), cfg.LearnerParams())
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Historical.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	s := &Session{
		Ticker:   cfg.Analyzer.Ticker,
		Lexicon:  lexicon,
		Seen:     tracker.Load(ids),
		Scorer:   sentiment.NewScorer(lexicon, cfg.Weights(), cfg.Thresholds()),
		Learner:  learner,
		store:    deps.Store,
		source:   deps.Source,
		content:  deps.Content,
		notifier: notifier,
		cfg:      cfg,
		location: loc,
		log:      logger,
		now:      time.Now,
	}
	logger.Info("session opened",
		"terms", lexicon.Len(), "seen", s.Seen.Len(), "policy", learner.Policy())
	return s, nil
}

func loadLexicon(ctx context.Context, store datafeed.Store, logger *log.Logger) (*sentiment.Lexicon, error) {
	weights, err := store.LoadLexicon(ctx)
	switch {
	case errors.Is(err, datafeed.ErrNotFound):
		logger.Info("no saved lexicon, starting from seed terms")
		return sentiment.SeedLexicon(), nil
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("could not load lexicon, starting from seed terms", "err", err)
		return sentiment.SeedLexicon(), nil
	case len(weights) == 0:
		logger.Warn("saved lexicon is empty, starting from seed terms")
		return sentiment.SeedLexicon(), nil
	}

	lexicon, err := sentiment.NewLexicon(weights)
	if err != nil {
		logger.Warn("saved lexicon is corrupt, starting from seed terms", "err", err)
		return sentiment.SeedLexicon(), nil
	}
	return lexicon, nil
}

// Flush persists the current lexicon and seen set without logging anything.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Commit(ctx, datafeed.Snapshot{
		Lexicon: s.Lexicon.Snapshot(),
		Seen:    s.Seen.IDs(),
	})
	if err != nil {
		return fmt.Errorf("flush %s: %w", s.Ticker, err)
	}
	return nil
}

// History returns the most recent log entries from the store.
func (s *Session) History(ctx context.Context, limit int) ([]sentiment.LogEntry, error) {
	return s.store.History(ctx, limit)
}

// HistoricalOptions returns the configured historical run.
func (s *Session) HistoricalOptions() HistoricalOptions {
	h := s.cfg.Historical
	return HistoricalOptions{
		Days:         h.Days,
		MaxArticles:  h.MaxArticles,
		FullContent:  h.FullContent,
		LearningMode: h.LearningMode,
	}
}

type checkpoint struct {
	lexicon map[string]float64
	seen    []string
}

func (s *Session) checkpoint() checkpoint {
	return checkpoint{lexicon: s.Lexicon.Snapshot(), seen: s.Seen.Snapshot()}
}

func (s *Session) rollback(cp checkpoint) {
	s.Lexicon.Restore(cp.lexicon)
	s.Seen.Restore(cp.seen)
}

func (s *Session) notify(ctx context.Context, report notify.Report) {
	if err := s.notifier.Notify(ctx, report); err != nil {
		s.log.Warn("cycle report not delivered", "cycle", report.ID, "err", err)
	}
}

// Ping checks that the backing store is reachable.
func (s *Session) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

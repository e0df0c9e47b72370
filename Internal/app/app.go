package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	datafeed "github.com/fazecat/lexipulse/Internal/database"
	"github.com/fazecat/lexipulse/Internal/logging"
	newsscraping "github.com/fazecat/lexipulse/Internal/news_scraping"
	"github.com/fazecat/lexipulse/Internal/notify"
	"github.com/fazecat/lexipulse/Internal/pipeline"
	"github.com/fazecat/lexipulse/Internal/utils/config"
)

// App holds a session together with the resources opened for it.
type App struct {
	Session *pipeline.Session

	store  datafeed.Store
	closer func()
}

// Open wires storage, the news source, the article fetcher and the
// notifiers described by cfg into a session.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := datafeed.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	source, limiter, err := NewSource(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	notifier, closeNotifier, err := NewNotifier(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	session, err := pipeline.Open(ctx, cfg, pipeline.Deps{
		Store:    store,
		Source:   source,
		Content:  newsscraping.NewContentFetcher(SourceTimeout(cfg), limiter),
		Notifier: notifier,
	})
	if err != nil {
		closeNotifier()
		store.Close()
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	return &App{Session: session, store: store, closer: closeNotifier}, nil
}

// Close releases the notifiers and the store. Flush the session first.
func (a *App) Close() error {
	a.closer()
	return a.store.Close()
}

func SourceTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Source.TimeoutSeconds) * time.Second
}

// NewSource returns the configured news source and the limiter it shares
// with the article fetcher.
func NewSource(cfg *config.Config) (newsscraping.Source, *rate.Limiter, error) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rpm := cfg.Source.RequestsPerMinute; rpm > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}

	switch cfg.Source.Kind {
	case "alpaca":
		src, err := newsscraping.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Analyzer.Ticker, limiter)
		if err != nil {
			return nil, nil, err
		}
		return src, limiter, nil
	default:
		return newsscraping.NewRSSSource(cfg.Source.RSSURLTemplate, cfg.Analyzer.Ticker, limiter, SourceTimeout(cfg)), limiter, nil
	}
}

// NewNotifier fans reports out to the console and, when enabled, NATS.
func NewNotifier(cfg *config.Config) (notify.Multi, func(), error) {
	var notifiers notify.Multi
	closeAll := func() {}

	if cfg.Notifications.Console {
		notifiers = append(notifiers, notify.NewConsole(os.Stdout, cfg.Thresholds()))
	}
	if cfg.Notifications.NATS {
		nc, err := notify.ConnectNATS(cfg.NATSURL, cfg.Notifications.NATSSubject, logging.WithPrefix("nats"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		notifiers = append(notifiers, nc)
		closeAll = nc.Close
	}
	return notifiers, closeAll, nil
}

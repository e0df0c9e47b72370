package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ============================================================================
// POLLING LOOP
// ============================================================================

// Run polls until ctx is cancelled: one live cycle immediately, then one per
// polling interval, plus a historical backfill whenever the configured cron
// schedule fires. A failed cycle is logged and the loop carries on. On
// cancellation the session is flushed before Run returns.
func (s *Session) Run(ctx context.Context) error {
	backfill, stop, err := s.startScheduler()
	if err != nil {
		return err
	}
	defer stop()

	s.log.Info("polling started", "interval", s.cfg.PollingInterval(), "keyword", s.cfg.Analyzer.Keyword)
	s.runLive(ctx)

	ticker := time.NewTicker(s.cfg.PollingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopped, saving data")
			return s.Flush(context.WithoutCancel(ctx))
		case <-ticker.C:
			s.runLive(ctx)
		case <-backfill:
			s.runBackfill(ctx)
		}
	}
}

func (s *Session) runLive(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunCycle(ctx); err != nil {
		s.log.Error("live cycle failed", "err", err)
	}
}

func (s *Session) runBackfill(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunHistorical(ctx, s.HistoricalOptions()); err != nil {
		s.log.Error("scheduled backfill failed", "err", err)
	}
}

// startScheduler only signals the loop; the cron goroutine never touches
// session state. A nil channel is returned when no schedule is configured.
func (s *Session) startScheduler() (<-chan struct{}, func(), error) {
	spec := s.cfg.Historical.Schedule
	if spec == "" {
		return nil, func() {}, nil
	}

	trigger := make(chan struct{}, 1)
	c := cron.New(cron.WithLocation(s.location))
	_, err := c.AddFunc(spec, func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invalid historical schedule %q: %w", spec, err)
	}
	c.Start()
	s.log.Info("backfill scheduled", "schedule", spec, "timezone", s.location)

	return trigger, func() { <-c.Stop().Done() }, nil
}

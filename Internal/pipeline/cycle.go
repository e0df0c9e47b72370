package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	datafeed "github.com/fazecat/lexipulse/Internal/database"
	newsscraping "github.com/fazecat/lexipulse/Internal/news_scraping"
	"github.com/fazecat/lexipulse/Internal/notify"
	"github.com/fazecat/lexipulse/Internal/sentiment"
)

// HistoricalOptions controls a backfill over already published news.
type HistoricalOptions struct {
	Days         int
	MaxArticles  int
	FullContent  bool
	LearningMode bool
}

// RunCycle fetches the latest batch, scores and learns from every new item,
// logs the batch mean and persists everything. On error the in-memory state
// is rolled back to what it was before the cycle.
func (s *Session) RunCycle(ctx context.Context) (notify.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.newReport(sentiment.SourceLive)
	cp := s.checkpoint()

	records := s.fetch(ctx, newsscraping.Query{})
	report.Fetched = len(records)

	keyword := s.cfg.Analyzer.Keyword
	var scores []float64
	var added []string
	for _, rec := range records {
		if !s.accept(rec, keyword, &report) {
			continue
		}

		scored := s.Scorer.ScoreArticle(rec.Title, rec.Summary, "")
		sample := sentiment.Sample{
			Text:    rec.Title + " " + rec.Summary,
			Score:   scored.Combined,
			Unknown: scored.Unknown(),
		}
		if err := s.Learner.Learn(sample, s.Lexicon); err != nil {
			s.rollback(cp)
			return report, fmt.Errorf("learn from %s: %w", rec.ID, err)
		}
		s.Seen.MarkSeen(rec.ID)
		added = append(added, rec.ID)

		scores = append(scores, scored.Combined)
		report.Items = append(report.Items, notify.ItemResult{
			ID:    rec.ID,
			Title: rec.Title,
			Score: scored.Combined,
			Label: scored.Label,
		})
	}
	report.Processed = len(scores)

	entry, ok := sentiment.Summarize(s.now(), scores, sentiment.SourceLive, s.Scorer.Thresholds())
	if ok {
		report.Entries = []sentiment.LogEntry{entry}
		if err := s.commit(ctx, report.Entries, added); err != nil {
			s.rollback(cp)
			return report, err
		}
	}

	s.finish(ctx, &report)
	return report, nil
}

// RunHistorical scores news published over the last opts.Days days, oldest
// first, and logs one entry per calendar day. The lexicon only learns when
// opts.LearningMode is set.
func (s *Session) RunHistorical(ctx context.Context, opts HistoricalOptions) (notify.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.newReport(sentiment.SourceHistorical)
	cp := s.checkpoint()

	now := s.now()
	records := s.fetch(ctx, newsscraping.Query{
		Since:          now.AddDate(0, 0, -opts.Days),
		Until:          now,
		Limit:          opts.MaxArticles,
		IncludeContent: opts.FullContent,
	})
	report.Fetched = len(records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.Before(records[j].PublishedAt)
	})

	keyword := s.cfg.Analyzer.Keyword
	var dated []sentiment.DatedScore
	var added []string
	for _, rec := range records {
		if rec.PublishedAt.IsZero() {
			report.Malformed++
			s.log.Debug("skipping undated record", "id", rec.ID)
			continue
		}
		if !s.accept(rec, keyword, &report) {
			continue
		}

		content := ""
		if opts.FullContent {
			content = s.articleBody(ctx, rec)
		}

		scored := s.Scorer.ScoreArticle(rec.Title, rec.Summary, content)
		if opts.LearningMode {
			text := rec.Title + " " + rec.Summary
			if content != "" {
				text += " " + content
			}
			sample := sentiment.Sample{Text: text, Score: scored.Combined, Unknown: scored.Unknown()}
			if err := s.Learner.Learn(sample, s.Lexicon); err != nil {
				s.rollback(cp)
				return report, fmt.Errorf("learn from %s: %w", rec.ID, err)
			}
		}
		s.Seen.MarkSeen(rec.ID)
		added = append(added, rec.ID)

		dated = append(dated, sentiment.DatedScore{Date: rec.PublishedAt.In(s.location), Score: scored.Combined})
		report.Items = append(report.Items, notify.ItemResult{
			ID:    rec.ID,
			Title: rec.Title,
			Score: scored.Combined,
			Label: scored.Label,
		})
	}
	report.Processed = len(dated)

	if len(dated) > 0 {
		report.Entries = sentiment.GroupByDay(dated, sentiment.SourceHistorical, s.Scorer.Thresholds())
		if err := s.commit(ctx, report.Entries, added); err != nil {
			s.rollback(cp)
			return report, err
		}
	}

	s.finish(ctx, &report)
	return report, nil
}

// fetch never fails the cycle: a source error is an empty batch.
func (s *Session) fetch(ctx context.Context, q newsscraping.Query) []newsscraping.Record {
	if s.source == nil {
		return nil
	}
	records, err := s.source.Fetch(ctx, q)
	if err != nil {
		s.log.Warn("news fetch failed", "source", s.source.Name(), "err", err)
		return nil
	}
	return records
}

// accept applies validation, the keyword filter and dedup, counting every
// rejection on the report.
func (s *Session) accept(rec newsscraping.Record, keyword string, report *notify.Report) bool {
	if err := rec.Validate(); err != nil {
		report.Malformed++
		s.log.Debug("skipping record", "err", err)
		return false
	}
	if !rec.MatchesKeyword(keyword) {
		report.Filtered++
		return false
	}
	if !s.Seen.IsNew(rec.ID) {
		report.Duplicates++
		return false
	}
	return true
}

func (s *Session) articleBody(ctx context.Context, rec newsscraping.Record) string {
	if strings.TrimSpace(rec.Content) != "" {
		return rec.Content
	}
	if s.content == nil || rec.URL == "" {
		return ""
	}
	body, err := s.content.Fetch(ctx, rec.URL)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("article body unavailable", "url", rec.URL, "err", err)
		}
		return ""
	}
	return body
}

func (s *Session) commit(ctx context.Context, entries []sentiment.LogEntry, added []string) error {
	err := s.store.Commit(ctx, datafeed.Snapshot{
		Lexicon: s.Lexicon.Snapshot(),
		Seen:    s.Seen.IDs(),
		Added:   added,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("persist %s cycle: %w", s.Ticker, err)
	}
	return nil
}

func (s *Session) newReport(source string) notify.Report {
	return notify.Report{
		ID:        uuid.NewString(),
		Ticker:    s.Ticker,
		Source:    source,
		StartedAt: s.now(),
	}
}

func (s *Session) finish(ctx context.Context, report *notify.Report) {
	report.FinishedAt = s.now()
	report.TopTerms = s.Lexicon.Top(topTermCount)
	s.log.Info("cycle complete",
		"source", report.Source,
		"fetched", report.Fetched,
		"processed", report.Processed,
		"duplicates", report.Duplicates,
		"malformed", report.Malformed)
	s.notify(ctx, *report)
}

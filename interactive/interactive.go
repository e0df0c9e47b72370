package interactive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	datafeed "github.com/fazecat/lexipulse/Internal/database"
	"github.com/fazecat/lexipulse/Internal/notify"
	"github.com/fazecat/lexipulse/Internal/pipeline"
	"github.com/fazecat/lexipulse/Internal/sentiment"
	"github.com/fazecat/lexipulse/Internal/utils/config"
	"github.com/fazecat/lexipulse/Internal/utils/formatting"
)

const (
	topTermsShown  = 15
	historyShown   = 10
	statsLookback  = 30
	separatorWidth = 80
)

// Menu is the numbered console front end over one session.
type Menu struct {
	session *pipeline.Session
	cfg     *config.Config
	reader  *bufio.Reader
	out     io.Writer
	now     func() time.Time
}

func NewMenu(session *pipeline.Session, cfg *config.Config, in io.Reader, out io.Writer) *Menu {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Menu{
		session: session,
		cfg:     cfg,
		reader:  bufio.NewReader(in),
		out:     out,
		now:     time.Now,
	}
}

// Run shows the menu until the user exits, input ends or ctx is cancelled.
// The session is flushed on the way out.
func (m *Menu) Run(ctx context.Context) error {
	defer func() {
		if err := m.session.Flush(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintf(m.out, "❌ Failed to save data: %v\n", err)
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprintf(m.out, "\n--- LexiPulse Menu (%s) ---\n", m.session.Ticker)
		fmt.Fprintln(m.out, "1. Score a Headline")
		fmt.Fprintln(m.out, "2. Look Up a Word")
		fmt.Fprintln(m.out, "3. Top Sentiment Terms")
		fmt.Fprintln(m.out, "4. Run Live Cycle")
		fmt.Fprintln(m.out, "5. Run Historical Backfill")
		fmt.Fprintln(m.out, "6. Sentiment History")
		fmt.Fprintln(m.out, "7. Configure Settings")
		fmt.Fprintln(m.out, "8. Exit")
		fmt.Fprint(m.out, "Enter choice (1-8): ")

		choice, err := m.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			fmt.Fprint(m.out, "Headline: ")
			text, err := m.readLine()
			if err != nil {
				return nil
			}
			m.ScoreHeadline(text)
		case "2":
			fmt.Fprint(m.out, "Word: ")
			word, err := m.readLine()
			if err != nil {
				return nil
			}
			m.LookupWord(word)
		case "3":
			m.ShowTopTerms(topTermsShown)
		case "4":
			m.runLive(ctx)
		case "5":
			m.runHistorical(ctx)
		case "6":
			m.ShowHistory(ctx, statsLookback)
		case "7":
			if err := config.ConfigureInteractive(m.cfg, m.reader, m.out); err != nil && !errors.Is(err, io.EOF) {
				fmt.Fprintf(m.out, "❌ Configuration failed: %v\n", err)
			}
		case "8":
			fmt.Fprintln(m.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Try again.")
		}
	}
}

// ScoreHeadline scores text as a headline without learning from it.
func (m *Menu) ScoreHeadline(text string) sentiment.Result {
	result := m.session.Scorer.Score(text)
	label := m.session.Scorer.Thresholds().Classify(result.Normalized)

	fmt.Fprintln(m.out, formatting.Separator(separatorWidth))
	fmt.Fprintf(m.out, " %s\n", text)
	fmt.Fprintf(m.out, " Sentiment: %s (Score: %s)\n",
		notify.LabelStyle(label).Render(string(label)), formatting.FormatScore(result.Normalized))
	fmt.Fprintf(m.out, " Tokens: %d  Matched: %d  Unknown: %d\n",
		result.TokenCount, len(result.Matched), len(result.Unknown))
	for _, t := range result.Matched {
		fmt.Fprintf(m.out, "   %-18s %s\n", t.Word, formatting.FormatScore(t.Weight))
	}
	fmt.Fprintln(m.out, formatting.Separator(separatorWidth))
	return result
}

func (m *Menu) LookupWord(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	weight, ok := m.session.Lexicon.Lookup(word)
	if !ok {
		fmt.Fprintf(m.out, "'%s' is not in the %s dictionary\n", word, m.session.Ticker)
		return
	}
	fmt.Fprintf(m.out, "%s: %s\n", word, formatting.FormatScore(weight))
}

func (m *Menu) ShowTopTerms(n int) {
	terms := m.session.Lexicon.Top(n)
	fmt.Fprintf(m.out, "\nTop %d of %d terms:\n", len(terms), m.session.Lexicon.Len())
	for _, t := range terms {
		label := m.session.Scorer.Thresholds().Classify(t.Weight)
		fmt.Fprintf(m.out, "  %-18s %s\n", t.Word, notify.LabelStyle(label).Render(formatting.FormatScore(t.Weight)))
	}
}

// ShowHistory prints the latest log entries and the stats over lookbackDays.
func (m *Menu) ShowHistory(ctx context.Context, lookbackDays int) {
	entries, err := m.session.History(ctx, 0)
	if err != nil {
		fmt.Fprintf(m.out, "❌ Could not read history: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(m.out, "No sentiment history yet.")
		return
	}

	fmt.Fprintln(m.out, formatting.Separator(separatorWidth))
	fmt.Fprintf(m.out, " SENTIMENT HISTORY FOR %s\n", m.session.Ticker)
	fmt.Fprintln(m.out, formatting.Separator(separatorWidth))

	start := len(entries) - historyShown
	if start < 0 {
		start = 0
	}
	for _, e := range entries[start:] {
		fmt.Fprintf(m.out, " %s  %-10s %8s  %3d articles  %s\n",
			e.Timestamp.Format("2006-01-02 15:04"), e.Source, formatting.FormatScore(e.Score),
			e.Count, notify.LabelStyle(e.Label).Render(string(e.Label)))
	}

	stats := datafeed.Stats(entries, lookbackDays, m.now())
	fmt.Fprintf(m.out, "\nLast %d days: %d entries, %d articles\n", lookbackDays, stats.TotalEntries, stats.TotalArticles)
	fmt.Fprintf(m.out, "Average score: %s\n", stats.AverageScore.StringFixed(4))
	fmt.Fprintf(m.out, "Positive %d | Negative %d | Neutral %d (%.1f%% positive)\n",
		stats.Positive, stats.Negative, stats.Neutral, stats.PositiveRate)
}

func (m *Menu) runLive(ctx context.Context) {
	fmt.Fprintf(m.out, "Fetching latest news for %s...\n", m.session.Ticker)
	report, err := m.session.RunCycle(ctx)
	if err != nil {
		fmt.Fprintf(m.out, "❌ Live cycle failed: %v\n", err)
		return
	}
	fmt.Fprintf(m.out, "✅ Processed %d new articles (%d already seen)\n", report.Processed, report.Duplicates)
}

func (m *Menu) runHistorical(ctx context.Context) {
	opts := m.session.HistoricalOptions()
	fmt.Fprintf(m.out, "Days to analyze [%d]: ", opts.Days)
	answer, err := m.readLine()
	if err != nil {
		return
	}
	if answer != "" {
		days, err := strconv.Atoi(answer)
		if err != nil || days <= 0 {
			fmt.Fprintln(m.out, "Invalid number of days.")
			return
		}
		opts.Days = days
	}

	fmt.Fprintf(m.out, "Running historical analysis over %d days...\n", opts.Days)
	report, err := m.session.RunHistorical(ctx, opts)
	if err != nil {
		fmt.Fprintf(m.out, "❌ Historical analysis failed: %v\n", err)
		return
	}
	fmt.Fprintf(m.out, "✅ Scored %d articles across %d days\n", report.Processed, len(report.Entries))
}

func (m *Menu) readLine() (string, error) {
	line, err := m.reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

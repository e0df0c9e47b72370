package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fazecat/lexipulse/Internal/sentiment"
	"github.com/fazecat/lexipulse/Internal/utils/formatting"
)

var (
	positiveColor = lipgloss.Color("#2DA44E")
	negativeColor = lipgloss.Color("#CF222E")
	neutralColor  = lipgloss.Color("#6E7681")
	accentColor   = lipgloss.Color("#0969DA")

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(neutralColor)

	termStyle = lipgloss.NewStyle().
			Width(18)
)

// LabelStyle colors a label the way the console report does.
func LabelStyle(label sentiment.Label) lipgloss.Style {
	switch label {
	case sentiment.Positive:
		return lipgloss.NewStyle().Foreground(positiveColor).Bold(true)
	case sentiment.Negative:
		return lipgloss.NewStyle().Foreground(negativeColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(neutralColor).Bold(true)
	}
}

// Console prints a human readable cycle summary.
type Console struct {
	w          io.Writer
	thresholds sentiment.Thresholds
}

func NewConsole(w io.Writer, th sentiment.Thresholds) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w, thresholds: th}
}

func (c *Console) Notify(ctx context.Context, r Report) error {
	_, err := io.WriteString(c.w, c.Render(r))
	return err
}

func (c *Console) Render(r Report) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("📰 %s %s cycle", r.Ticker, r.Source)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("fetched %d · new %d · seen %d · filtered %d · malformed %d",
		r.Fetched, r.Processed, r.Duplicates, r.Filtered, r.Malformed)))
	b.WriteString("\n")

	for _, item := range r.Items {
		fmt.Fprintf(&b, "  %s %s %s\n",
			LabelStyle(item.Label).Render(fmt.Sprintf("%-8s", item.Label)),
			formatting.FormatScore(item.Score),
			item.Title)
	}

	for _, e := range r.Entries {
		if r.Source == sentiment.SourceLive {
			continue
		}
		fmt.Fprintf(&b, "  📅 %s %s %s (%d articles)\n",
			e.Timestamp.Format("2006-01-02"),
			LabelStyle(e.Label).Render(string(e.Label)),
			formatting.FormatScore(e.Score),
			e.Count)
	}

	if overall, ok := r.Overall(c.thresholds); ok {
		fmt.Fprintf(&b, "\n>> Overall Sentiment: %s (%s) from %d articles\n",
			LabelStyle(overall.Label).Render(string(overall.Label)),
			formatting.FormatScore(overall.Score),
			overall.Count)
	} else {
		b.WriteString("No new relevant articles found.\n")
	}

	if len(r.TopTerms) > 0 {
		b.WriteString("\nTop sentiment terms in dictionary:\n")
		for _, term := range r.TopTerms {
			fmt.Fprintf(&b, "  %s %s\n", termStyle.Render(term.Word), formatting.FormatScore(term.Weight))
		}
	}
	b.WriteString(formatting.Separator(60))
	b.WriteString("\n")
	return b.String()
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	datafeed "github.com/fazecat/lexipulse/Internal/database"
	"github.com/fazecat/lexipulse/Internal/logging"
	"github.com/fazecat/lexipulse/Internal/notify"
	"github.com/fazecat/lexipulse/Internal/sentiment"
	"github.com/fazecat/lexipulse/Internal/utils/config"
	"github.com/fazecat/lexipulse/Internal/utils/formatting"
)

// news_cli scores headlines given as arguments, or one per line on stdin,
// against a ticker's saved lexicon. Nothing is learned or written.
func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	ticker := flag.String("ticker", "", "ticker whose lexicon is used")
	seedOnly := flag.Bool("seed", false, "ignore the saved lexicon and use the seed terms")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *ticker != "" {
		cfg.Analyzer.Ticker = strings.ToUpper(*ticker)
	}
	logging.Init(cfg.Logging.Level, nil)

	lexicon := sentiment.SeedLexicon()
	if !*seedOnly {
		lexicon = loadLexicon(context.Background(), cfg)
	}
	scorer := sentiment.NewScorer(lexicon, cfg.Weights(), cfg.Thresholds())

	headlines := flag.Args()
	if len(headlines) == 0 {
		headlines = readLines(os.Stdin)
	}
	printScores(os.Stdout, cfg.Analyzer.Ticker, scorer, headlines)
}

func loadLexicon(ctx context.Context, cfg *config.Config) *sentiment.Lexicon {
	store, err := datafeed.Open(cfg)
	if err != nil {
		logging.Warn("storage unavailable, using seed terms", "err", err)
		return sentiment.SeedLexicon()
	}
	defer store.Close()

	weights, err := store.LoadLexicon(ctx)
	if err != nil {
		logging.Info("no saved lexicon, using seed terms", "ticker", cfg.Analyzer.Ticker, "err", err)
		return sentiment.SeedLexicon()
	}
	lexicon, err := sentiment.NewLexicon(weights)
	if err != nil {
		logging.Warn("saved lexicon is corrupt, using seed terms", "err", err)
		return sentiment.SeedLexicon()
	}
	return lexicon
}

func readLines(r io.Reader) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func printScores(w io.Writer, ticker string, scorer *sentiment.Scorer, headlines []string) {
	fmt.Fprintln(w, "\n"+formatting.Separator(80))
	fmt.Fprintf(w, "HEADLINE SENTIMENT (%s lexicon)\n", ticker)
	fmt.Fprintln(w, formatting.Separator(80))

	var scores []float64
	for _, headline := range headlines {
		result := scorer.Score(headline)
		label := scorer.Thresholds().Classify(result.Normalized)
		scores = append(scores, result.Normalized)

		fmt.Fprintf(w, "\n %s\n", headline)
		fmt.Fprintf(w, " Sentiment: %s (Score: %s)\n",
			notify.LabelStyle(label).Render(string(label)), formatting.FormatScore(result.Normalized))
		if len(result.Matched) > 0 {
			words := make([]string, 0, len(result.Matched))
			for _, t := range result.Matched {
				words = append(words, fmt.Sprintf("%s=%s", t.Word, formatting.FormatScore(t.Weight)))
			}
			fmt.Fprintf(w, " Matched: %s\n", strings.Join(words, ", "))
		}
	}

	fmt.Fprintln(w, "\n"+formatting.Separator(80))
	if overall, ok := sentiment.Summarize(time.Time{}, scores, sentiment.SourceLive, scorer.Thresholds()); ok {
		fmt.Fprintf(w, "Overall: %s (%s) from %d headlines\n",
			formatting.FormatScore(overall.Score), overall.Label, overall.Count)
	} else {
		fmt.Fprintln(w, "No headlines to score.")
	}
	fmt.Fprintln(w, formatting.Separator(80))
}

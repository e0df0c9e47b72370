package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fazecat/lexipulse/Internal/app"
	"github.com/fazecat/lexipulse/Internal/logging"
	"github.com/fazecat/lexipulse/Internal/utils/config"
	"github.com/fazecat/lexipulse/interactive"
)

type options struct {
	configPath   string
	ticker       string
	keyword      string
	learningRate float64
	interval     int
	policy       string
	historical   bool
	days         int
	maxArticles  int
	fullContent  bool
	learningMode bool
	interactive  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config.yaml")
	flag.StringVar(&opts.ticker, "ticker", "", "stock ticker to analyze")
	flag.StringVar(&opts.keyword, "keyword", "", "only process articles mentioning this keyword")
	flag.Float64Var(&opts.learningRate, "learning-rate", 0, "lexicon learning rate")
	flag.IntVar(&opts.interval, "interval", 0, "polling interval in seconds")
	flag.StringVar(&opts.policy, "policy", "", "learning policy (gradient or averaging)")
	flag.BoolVar(&opts.historical, "historical", false, "run one historical analysis and exit")
	flag.IntVar(&opts.days, "days", 0, "days of history to analyze")
	flag.IntVar(&opts.maxArticles, "max-articles", 0, "maximum historical articles")
	flag.BoolVar(&opts.fullContent, "full-content", false, "fetch full article bodies in historical mode")
	flag.BoolVar(&opts.learningMode, "learning-mode", false, "update the lexicon during historical analysis")
	flag.BoolVar(&opts.interactive, "interactive", false, "start the interactive menu")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Init(cfg.Logging.Level, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	session := a.Session

	switch {
	case opts.interactive:
		return interactive.NewMenu(session, cfg, os.Stdin, os.Stdout).Run(ctx)
	case opts.historical:
		_, err := session.RunHistorical(ctx, session.HistoricalOptions())
		return err
	default:
		fmt.Printf("Monitoring %s news every %s. Press Ctrl+C to stop.\n", cfg.Analyzer.Ticker, cfg.PollingInterval())
		return session.Run(ctx)
	}
}

// applyFlags layers explicitly set command line flags over the loaded config.
func applyFlags(cfg *config.Config, opts options) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ticker":
			cfg.Analyzer.Ticker = strings.ToUpper(opts.ticker)
		case "keyword":
			cfg.Analyzer.Keyword = opts.keyword
		case "learning-rate":
			cfg.Analyzer.LearningRate = opts.learningRate
		case "interval":
			cfg.Analyzer.PollingIntervalSeconds = opts.interval
		case "policy":
			cfg.Analyzer.Policy = opts.policy
		case "days":
			cfg.Historical.Days = opts.days
		case "max-articles":
			cfg.Historical.MaxArticles = opts.maxArticles
		case "full-content":
			cfg.Historical.FullContent = opts.fullContent
		case "learning-mode":
			cfg.Historical.LearningMode = opts.learningMode
		}
	})
}

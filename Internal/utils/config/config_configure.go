package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fazecat/lexipulse/Internal/sentiment"
)

// ConfigureInteractive walks the user through the analyzer settings, writing
// prompts to out. Changes are validated before they are saved; an invalid
// edit is rolled back.
func ConfigureInteractive(cfg *Config, reader *bufio.Reader, out io.Writer) error {
	for {
		fmt.Fprintln(out, "\n⚙️  Configuration Menu:")
		fmt.Fprintln(out, "1. View Current Configuration")
		fmt.Fprintln(out, "2. Configure Thresholds")
		fmt.Fprintln(out, "3. Configure Learning")
		fmt.Fprintln(out, "4. Configure Polling")
		fmt.Fprintln(out, "5. Save & Exit")
		fmt.Fprintln(out, "6. Exit Without Saving")
		fmt.Fprint(out, "Select option: ")

		choice, err := reader.ReadString('\n')
		if err != nil {
			return err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			DisplayConfiguration(out, cfg)
		case "2":
			edit(out, cfg, func() { configureThresholds(out, cfg, reader) })
		case "3":
			edit(out, cfg, func() { configureLearning(out, cfg, reader) })
		case "4":
			edit(out, cfg, func() { configurePolling(out, cfg, reader) })
		case "5":
			if err := SaveConfig(cfg); err != nil {
				fmt.Fprintf(out, "❌ Error saving config: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "✅ Configuration saved. Thresholds, weights and learning settings take effect after a restart.")
			return nil
		case "6":
			return nil
		default:
			fmt.Fprintln(out, "❌ Invalid option")
		}
	}
}

func edit(out io.Writer, cfg *Config, apply func()) {
	before := cfg.Analyzer
	apply()
	if err := cfg.Validate(); err != nil {
		cfg.Analyzer = before
		fmt.Fprintf(out, "❌ %v (changes discarded)\n", err)
		return
	}
	fmt.Fprintln(out, "✅ Updated")
}

// DisplayConfiguration shows current configuration
func DisplayConfiguration(out io.Writer, cfg *Config) {
	a := cfg.Analyzer
	fmt.Fprintln(out, "\n📋 Current Configuration:")
	fmt.Fprintln(out, "\n=== Analyzer ===")
	fmt.Fprintf(out, "Ticker: %s\n", a.Ticker)
	fmt.Fprintf(out, "Keyword: %q\n", a.Keyword)
	fmt.Fprintf(out, "Policy: %s\n", a.Policy)
	fmt.Fprintf(out, "  • Learning Rate: %.4f\n", a.LearningRate)
	fmt.Fprintf(out, "  • Min Learn Score: %.4f\n", a.MinLearnScore)
	fmt.Fprintf(out, "  • Min Word Length: %d\n", a.MinWordLength)
	fmt.Fprintf(out, "  • Positive Threshold: %.4f\n", a.PositiveThreshold)
	fmt.Fprintf(out, "  • Negative Threshold: %.4f\n", a.NegativeThreshold)
	fmt.Fprintf(out, "  • Title Weight: %.2f\n", a.TitleWeight)
	fmt.Fprintf(out, "  • Content Weight: %.2f\n", a.ContentWeight)
	fmt.Fprintf(out, "  • Polling Interval: %ds\n", a.PollingIntervalSeconds)

	fmt.Fprintln(out, "\n=== Sources & Storage ===")
	fmt.Fprintf(out, "Source: %s\n", cfg.Source.Kind)
	fmt.Fprintf(out, "Storage: %s\n", cfg.Storage.Kind)
	fmt.Fprintf(out, "Historical: %d days, max %d articles, full content %v, learning %v\n",
		cfg.Historical.Days, cfg.Historical.MaxArticles, cfg.Historical.FullContent, cfg.Historical.LearningMode)
}

func configureThresholds(out io.Writer, cfg *Config, reader *bufio.Reader) {
	fmt.Fprintln(out, "\n📊 Configure Thresholds:")
	promptFloat(out, reader, "Positive threshold", &cfg.Analyzer.PositiveThreshold)
	promptFloat(out, reader, "Negative threshold", &cfg.Analyzer.NegativeThreshold)
}

func configureLearning(out io.Writer, cfg *Config, reader *bufio.Reader) {
	fmt.Fprintln(out, "\n🧠 Configure Learning:")
	fmt.Fprintf(out, "Current policy: %s\n", cfg.Analyzer.Policy)
	fmt.Fprintf(out, "New policy (%s/%s): ", sentiment.PolicyGradient, sentiment.PolicyAveraging)
	input, _ := reader.ReadString('\n')
	if p := strings.TrimSpace(input); p != "" {
		cfg.Analyzer.Policy = p
	}

	promptFloat(out, reader, "Learning rate", &cfg.Analyzer.LearningRate)
	promptFloat(out, reader, "Min learn score", &cfg.Analyzer.MinLearnScore)
	promptInt(out, reader, "Min word length", &cfg.Analyzer.MinWordLength)
}

func configurePolling(out io.Writer, cfg *Config, reader *bufio.Reader) {
	fmt.Fprintln(out, "\n⏱️  Configure Polling:")
	promptInt(out, reader, "Polling interval (seconds)", &cfg.Analyzer.PollingIntervalSeconds)

	fmt.Fprintf(out, "Current keyword: %q\n", cfg.Analyzer.Keyword)
	fmt.Fprint(out, "New keyword (\"-\" clears): ")
	input, _ := reader.ReadString('\n')
	switch kw := strings.TrimSpace(input); kw {
	case "":
	case "-":
		cfg.Analyzer.Keyword = ""
	default:
		cfg.Analyzer.Keyword = kw
	}
}

func promptFloat(out io.Writer, reader *bufio.Reader, label string, dst *float64) {
	fmt.Fprintf(out, "Current %s: %.4f\n", strings.ToLower(label), *dst)
	fmt.Fprintf(out, "New %s: ", strings.ToLower(label))
	input, _ := reader.ReadString('\n')
	if val, err := strconv.ParseFloat(strings.TrimSpace(input), 64); err == nil {
		*dst = val
	}
}

func promptInt(out io.Writer, reader *bufio.Reader, label string, dst *int) {
	fmt.Fprintf(out, "Current %s: %d\n", strings.ToLower(label), *dst)
	fmt.Fprintf(out, "New %s: ", strings.ToLower(label))
	input, _ := reader.ReadString('\n')
	if val, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
		*dst = val
	}
}

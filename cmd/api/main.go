package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/fazecat/lexipulse/Internal/app"
	"github.com/fazecat/lexipulse/Internal/logging"
	"github.com/fazecat/lexipulse/Internal/utils/config"
	"github.com/fazecat/lexipulse/cmd/api/internal"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	ticker := flag.String("ticker", "", "stock ticker to serve")
	poll := flag.Bool("poll", true, "keep polling news while serving")
	flag.Parse()

	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")

	if err := run(*configPath, *ticker, *poll); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, ticker string, poll bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if ticker != "" {
		cfg.Analyzer.Ticker = strings.ToUpper(ticker)
	}
	logging.Init(cfg.Logging.Level, nil)
	logger := logging.WithPrefix("api")

	jwtManager, err := internal.NewJWTManager(cfg.JWTKey, time.Duration(cfg.API.TokenHours)*time.Hour)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	api := &internal.API{Session: a.Session, JWTManager: jwtManager}
	server := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting API server", "addr", cfg.API.Addr, "ticker", cfg.Analyzer.Ticker)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down API server")
		return server.Shutdown(shutdownCtx)
	})
	if poll {
		g.Go(func() error {
			return a.Session.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if !poll {
		return a.Session.Flush(context.Background())
	}
	return nil
}

package newsscraping

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"golang.org/x/time/rate"

	"github.com/fazecat/lexipulse/Internal/utils"
)

// newsClient is the part of marketdata.Client used here.
type newsClient interface {
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

// AlpacaSource pulls ticker news from the Alpaca market data API.
type AlpacaSource struct {
	client  newsClient
	ticker  string
	limiter *rate.Limiter
	retry   utils.RetryConfig
}

func NewAlpacaSource(apiKey, apiSecret, ticker string, limiter *rate.Limiter) (*AlpacaSource, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("ALPACA_API_KEY or ALPACA_API_SECRET not set")
	}
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return newAlpacaSource(client, ticker, limiter), nil
}

func newAlpacaSource(client newsClient, ticker string, limiter *rate.Limiter) *AlpacaSource {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &AlpacaSource{
		client:  client,
		ticker:  ticker,
		limiter: limiter,
		retry:   utils.DefaultRetryConfig(),
	}
}

func (s *AlpacaSource) Name() string { return "alpaca" }

func (s *AlpacaSource) Fetch(ctx context.Context, q Query) ([]Record, error) {
	req := marketdata.GetNewsRequest{
		Symbols:        []string{s.ticker},
		Start:          q.Since,
		End:            q.Until,
		IncludeContent: q.IncludeContent,
	}
	if q.Limit > 0 {
		req.TotalLimit = q.Limit
	}

	var news []marketdata.News
	err := utils.RetryWithBackoff(ctx, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return utils.Permanent(err)
		}
		var err error
		news, err = s.client.GetNews(req)
		return err
	}, s.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alpaca news for %s: %w", s.ticker, err)
	}

	records := make([]Record, 0, len(news))
	for _, n := range news {
		rec := Record{
			ID:          newsID(n),
			Title:       n.Headline,
			Summary:     n.Summary,
			URL:         n.URL,
			PublishedAt: n.CreatedAt,
			Content:     n.Content,
		}
		if !q.accepts(rec.PublishedAt) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// newsID prefers the article URL so records from different sources dedup
// against each other.
func newsID(n marketdata.News) string {
	if n.URL != "" {
		return n.URL
	}
	if n.ID != 0 {
		return fmt.Sprintf("alpaca:%d", n.ID)
	}
	return ""
}

var (
	_ Source = (*AlpacaSource)(nil)
	_ Source = (*RSSSource)(nil)
)

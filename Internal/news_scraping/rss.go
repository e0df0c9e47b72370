package newsscraping

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/fazecat/lexipulse/Internal/utils"
	"github.com/fazecat/lexipulse/Internal/utils/formatting"
)

// RSSSource reads a per-ticker headline feed. The URL template takes the
// ticker as its only verb.
type RSSSource struct {
	feedURL string
	client  *http.Client
	limiter *rate.Limiter
	retry   utils.RetryConfig
	now     func() time.Time
}

func NewRSSSource(urlTemplate, ticker string, limiter *rate.Limiter, timeout time.Duration) *RSSSource {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &RSSSource{
		feedURL: fmt.Sprintf(urlTemplate, url.QueryEscape(ticker)),
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		retry:   utils.DefaultRetryConfig(),
		now:     time.Now,
	}
}

func (s *RSSSource) Name() string { return "rss" }

func (s *RSSSource) Fetch(ctx context.Context, q Query) ([]Record, error) {
	var feed *gofeed.Feed
	err := utils.RetryWithBackoff(ctx, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return utils.Permanent(err)
		}
		var err error
		feed, err = s.fetchFeed(ctx)
		return err
	}, s.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.feedURL, err)
	}

	now := s.now()
	records := make([]Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		rec := convertFeedItem(item, now)
		if !q.accepts(rec.PublishedAt) {
			continue
		}
		records = append(records, rec)
		if q.Limit > 0 && len(records) >= q.Limit {
			break
		}
	}
	return records, nil
}

func (s *RSSSource) fetchFeed(ctx context.Context) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, utils.Permanent(err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; lexipulse/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, utils.Permanent(fmt.Errorf("HTTP error: %s", resp.Status))
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("failed to parse feed: %w", err))
	}
	return feed, nil
}

// convertFeedItem keys the record by its link, falling back to the GUID.
func convertFeedItem(item *gofeed.Item, fetched time.Time) Record {
	id := strings.TrimSpace(item.Link)
	if id == "" {
		id = strings.TrimSpace(item.GUID)
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	case item.Published != "":
		published = formatting.ParseDate(item.Published, fetched)
	}

	return Record{
		ID:          id,
		Title:       strings.TrimSpace(item.Title),
		Summary:     strings.TrimSpace(item.Description),
		URL:         item.Link,
		PublishedAt: published,
		Content:     item.Content,
	}
}

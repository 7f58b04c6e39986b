// Package pagespeed implements the performance-audit adapter for the Google
// PageSpeed Insights API.  Findings are additive report content; they never
// feed back into opportunity scoring.
package pagespeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// Strategy selects the audited device profile.
type Strategy string

const (
	StrategyMobile  Strategy = "mobile"
	StrategyDesktop Strategy = "desktop"
)

// PageResult holds the extracted metrics for one page on one strategy.
// Failed audits carry Error and zero metrics so one broken page never sinks
// the batch.
type PageResult struct {
	URL              string   `json:"url"`
	Device           Strategy `json:"device"`
	PerformanceScore float64  `json:"performance_score"` // [0,100]
	LCPSeconds       float64  `json:"lcp"`
	FIDMillis        float64  `json:"fid"`
	CLS              float64  `json:"cls"`
	Error            string   `json:"error,omitempty"`
}

// Client calls the PageSpeed Insights runPagespeed endpoint.
type Client struct {
	httpClient *http.Client
	cfg        config.PageSpeedConfig
	logger     logging.Logger
}

// ClientConfig holds configuration for constructing the client.
type ClientConfig struct {
	Config     config.PageSpeedConfig
	Logger     logging.Logger
	HTTPClient *http.Client
}

// NewClient constructs a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("pagespeed Client requires Logger")
	}
	if cfg.Config.BaseURL == "" {
		return nil, errors.NewValidation("pagespeed Client requires a base URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Config.Timeout
		if timeout <= 0 {
			timeout = time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{httpClient: httpClient, cfg: cfg.Config, logger: cfg.Logger}, nil
}

// Wire shapes for the Insights response, trimmed to the consumed fields.

type insightsResponse struct {
	LighthouseResult lighthouseResult `json:"lighthouseResult"`
}

type lighthouseResult struct {
	Categories categories        `json:"categories"`
	Audits     map[string]metric `json:"audits"`
}

type categories struct {
	Performance performanceCategory `json:"performance"`
}

type performanceCategory struct {
	Score *float64 `json:"score"`
}

type metric struct {
	NumericValue float64 `json:"numericValue"`
}

// Audit runs one page through one strategy.
func (c *Client) Audit(ctx context.Context, pageURL string, strategy Strategy) (PageResult, error) {
	result := PageResult{URL: pageURL, Device: strategy}

	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", string(strategy))
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return result, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to build pagespeed request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "pagespeed request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, errors.Newf(errors.ErrCodeProviderUnavailable, "pagespeed returned status %d", resp.StatusCode)
	}

	var body insightsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return result, errors.Wrap(err, errors.ErrCodeProviderParseError, "failed to decode pagespeed response")
	}

	lr := body.LighthouseResult
	if lr.Categories.Performance.Score != nil {
		result.PerformanceScore = *lr.Categories.Performance.Score * 100
	}
	result.LCPSeconds = lr.Audits["largest-contentful-paint"].NumericValue / 1000
	result.FIDMillis = lr.Audits["max-potential-fid"].NumericValue
	result.CLS = lr.Audits["cumulative-layout-shift"].NumericValue

	return result, nil
}

// AuditPages audits every page on both strategies.  Per-page failures are
// recorded in the result rather than returned; the output is sorted by URL
// then device for stable reports.
func (c *Client) AuditPages(ctx context.Context, pageURLs []string) []PageResult {
	type slot struct {
		url      string
		strategy Strategy
	}

	slots := make([]slot, 0, len(pageURLs)*2)
	for _, u := range pageURLs {
		slots = append(slots, slot{u, StrategyMobile}, slot{u, StrategyDesktop})
	}

	results := make([]PageResult, len(slots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, s := range slots {
		i, s := i, s
		g.Go(func() error {
			res, err := c.Audit(gctx, s.url, s.strategy)
			if err != nil {
				c.logger.Warn("page audit failed",
					logging.String("url", s.url),
					logging.String("strategy", string(s.strategy)),
					logging.Err(err),
				)
				res = PageResult{URL: s.url, Device: s.strategy, Error: err.Error()}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in the results

	sort.Slice(results, func(i, j int) bool {
		if results[i].URL != results[j].URL {
			return results[i].URL < results[j].URL
		}
		return results[i].Device < results[j].Device
	})

	return results
}

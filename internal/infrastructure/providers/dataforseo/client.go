// Package dataforseo implements the keyword-data ingestion adapter for the
// DataForSEO Labs API.  It is the only place provider wire formats appear;
// everything it emits is the canonical raw record consumed by the
// normalizer.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rankscope/rankscope/internal/config"
	rediscache "github.com/rankscope/rankscope/internal/infrastructure/database/redis"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// statusOK is the DataForSEO task-level success code.
const statusOK = 20000

// Client calls the DataForSEO Labs live endpoints.  Responses are cached in
// Redis so repeated collections of the same domain do not bill twice.
type Client struct {
	httpClient *http.Client
	cfg        config.DataForSEOConfig
	location   config.LocationConfig
	cache      rediscache.Cache
	logger     logging.Logger

	mu        sync.Mutex
	totalCost float64
	lastCall  time.Time
}

// ClientConfig holds configuration for constructing the client.  Cache is
// optional; HTTPClient defaults to a client with the configured timeout.
type ClientConfig struct {
	Config     config.DataForSEOConfig
	Location   config.LocationConfig
	Cache      rediscache.Cache
	Logger     logging.Logger
	HTTPClient *http.Client
}

// NewClient constructs a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("dataforseo Client requires Logger")
	}
	if cfg.Config.Login == "" || cfg.Config.Password == "" {
		return nil, errors.NewValidation("dataforseo Client requires credentials")
	}
	if cfg.Config.BaseURL == "" {
		return nil, errors.NewValidation("dataforseo Client requires a base URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Config.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		cfg:        cfg.Config,
		location:   cfg.Location,
		cache:      cfg.Cache,
		logger:     cfg.Logger,
	}, nil
}

// TotalCost returns the accumulated API cost in USD for this client's
// lifetime, summed from task-level cost fields.
func (c *Client) TotalCost() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCost
}

// apiResponse is the common DataForSEO envelope.
type apiResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []task `json:"tasks"`
}

type task struct {
	StatusCode    int             `json:"status_code"`
	StatusMessage string          `json:"status_message"`
	Cost          float64         `json:"cost"`
	Result        json.RawMessage `json:"result"`
}

// call posts one task payload to endpoint and returns the first task's raw
// result.  A configured request delay is honored between live calls.
func (c *Client) call(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	c.throttle(ctx)

	body, err := json.Marshal([]any{payload})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode provider payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to build provider request")
	}
	req.SetBasicAuth(c.cfg.Login, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "dataforseo request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Newf(errors.ErrCodeProviderAuthFailed, "dataforseo rejected credentials (%d)", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New(errors.ErrCodeProviderRateLimited, "dataforseo rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf(errors.ErrCodeProviderUnavailable, "dataforseo returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to read provider response")
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "failed to decode provider envelope")
	}
	if envelope.StatusCode != statusOK {
		return nil, errors.Newf(errors.ErrCodeProviderUnavailable,
			"dataforseo error %d: %s", envelope.StatusCode, envelope.StatusMessage)
	}
	if len(envelope.Tasks) == 0 {
		return nil, errors.New(errors.ErrCodeProviderParseError, "dataforseo response carries no tasks")
	}

	t := envelope.Tasks[0]
	if t.StatusCode != statusOK {
		return nil, errors.Newf(errors.ErrCodeProviderUnavailable,
			"dataforseo task error %d: %s", t.StatusCode, t.StatusMessage)
	}

	c.mu.Lock()
	c.totalCost += t.Cost
	c.mu.Unlock()

	c.logger.Debug("dataforseo call completed",
		logging.String("endpoint", endpoint),
		logging.Float64("cost", t.Cost),
	)

	return t.Result, nil
}

// throttle enforces the configured minimum delay between live calls.
func (c *Client) throttle(ctx context.Context) {
	if c.cfg.RequestDelay <= 0 {
		return
	}

	c.mu.Lock()
	wait := c.cfg.RequestDelay - time.Since(c.lastCall)
	c.lastCall = time.Now()
	c.mu.Unlock()

	if wait <= 0 {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func (c *Client) cacheKey(parts ...string) string {
	key := "dataforseo"
	for _, p := range parts {
		key += ":" + p
	}
	return fmt.Sprintf("%s:%s:%s", key, c.location.Country, c.location.LanguageCode)
}

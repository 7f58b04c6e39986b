// Package google ingests Search Console and Analytics (GA4) data for the
// target property.  Both feeds are additive report content; like the audit
// collectors they never influence opportunity scoring.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// tokenURL is the OAuth endpoint the refresh-token grant runs against.
const tokenURL = "https://oauth2.googleapis.com/token"

const (
	scopeWebmasters = "https://www.googleapis.com/auth/webmasters.readonly"
	scopeAnalytics  = "https://www.googleapis.com/auth/analytics.readonly"
)

// Client calls the Search Console and Analytics Data APIs with a
// refresh-token-authorized HTTP client.
type Client struct {
	httpClient *http.Client
	cfg        config.GoogleConfig
	logger     logging.Logger
}

// ClientConfig holds configuration for constructing the client.  HTTPClient
// replaces the OAuth-authorized transport; tests inject it.
type ClientConfig struct {
	Config     config.GoogleConfig
	Logger     logging.Logger
	HTTPClient *http.Client
}

// NewClient constructs a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("google Client requires Logger")
	}
	if cfg.Config.GSCBaseURL == "" || cfg.Config.GA4BaseURL == "" {
		return nil, errors.NewValidation("google Client requires base URLs")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.Config.ClientID == "" || cfg.Config.ClientSecret == "" || cfg.Config.RefreshToken == "" {
			return nil, errors.NewValidation("google Client requires OAuth client credentials and a refresh token")
		}

		timeout := cfg.Config.Timeout
		if timeout <= 0 {
			timeout = time.Minute
		}
		oc := &oauth2.Config{
			ClientID:     cfg.Config.ClientID,
			ClientSecret: cfg.Config.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
			Scopes:       []string{scopeWebmasters, scopeAnalytics},
		}
		base := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
		httpClient = oc.Client(base, &oauth2.Token{RefreshToken: cfg.Config.RefreshToken})
	}

	return &Client{httpClient: httpClient, cfg: cfg.Config, logger: cfg.Logger}, nil
}

// post sends one JSON payload and decodes the response body into out.
// Permission failures carry the auth-failed code so callers can distinguish
// an inaccessible property from an outage.
func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode google api payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to build google api request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderUnavailable, "google api request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Newf(errors.ErrCodeProviderAuthFailed, "google api denied access (%d)", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeProviderRateLimited, "google api rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		return errors.Newf(errors.ErrCodeProviderUnavailable, "google api returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderParseError, "failed to decode google api response")
	}
	return nil
}

// round1 rounds to one decimal, matching how the report presents rates.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/collectors/geo"
	"github.com/rankscope/rankscope/internal/infrastructure/collectors/signals"
	"github.com/rankscope/rankscope/internal/infrastructure/collectors/sitemap"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/internal/infrastructure/providers/google"
	"github.com/rankscope/rankscope/internal/infrastructure/providers/pagespeed"
	"github.com/rankscope/rankscope/pkg/errors"
)

// performanceAuditor runs PageSpeed audits over the configured page set and
// serializes the results for report embedding.
type performanceAuditor struct {
	client *pagespeed.Client
	urls   []string
}

// newPerformanceAuditor returns nil when the PageSpeed API key or audit page
// set is not configured.
func newPerformanceAuditor(cfg *config.Config, logger logging.Logger) (*performanceAuditor, error) {
	if cfg.Providers.PageSpeed.APIKey == "" || len(cfg.Audit.Pages) == 0 {
		return nil, nil
	}

	client, err := pagespeed.NewClient(pagespeed.ClientConfig{
		Config: cfg.Providers.PageSpeed,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(cfg.Audit.Pages))
	for _, page := range cfg.Audit.Pages {
		urls = append(urls, page.URL)
	}
	return &performanceAuditor{client: client, urls: urls}, nil
}

func (a *performanceAuditor) Audit(ctx context.Context) (json.RawMessage, error) {
	results := a.client.AuditPages(ctx, a.urls)
	blob, err := json.Marshal(results)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode performance audit")
	}
	return blob, nil
}

// geoFindings is the serialized shape of the structured-data audit: per-page
// JSON-LD coverage plus the sitemap inventory.
type geoFindings struct {
	Pages   []geo.PageFinding `json:"pages"`
	Sitemap *sitemap.Summary  `json:"sitemap,omitempty"`
}

// geoAuditor checks JSON-LD structured data on the audit pages and summarizes
// the sitemap.  Sitemap failures degrade to a pages-only result.
type geoAuditor struct {
	collector  *geo.Collector
	sitemaps   *sitemap.Collector
	pages      []config.AuditPageConfig
	sitemapURL string
	logger     logging.Logger
}

// newGEOAuditor returns nil when no audit pages are configured.
func newGEOAuditor(cfg *config.Config, logger logging.Logger) (*geoAuditor, error) {
	if len(cfg.Audit.Pages) == 0 && cfg.Audit.SitemapURL == "" {
		return nil, nil
	}

	collector, err := geo.NewCollector(geo.CollectorConfig{Logger: logger})
	if err != nil {
		return nil, err
	}
	sitemaps, err := sitemap.NewCollector(sitemap.CollectorConfig{Logger: logger})
	if err != nil {
		return nil, err
	}
	return &geoAuditor{
		collector:  collector,
		sitemaps:   sitemaps,
		pages:      cfg.Audit.Pages,
		sitemapURL: cfg.Audit.SitemapURL,
		logger:     logger,
	}, nil
}

func (a *geoAuditor) Audit(ctx context.Context) (json.RawMessage, error) {
	findings := geoFindings{}
	if len(a.pages) > 0 {
		findings.Pages = a.collector.AuditPages(ctx, a.pages)
	}
	if a.sitemapURL != "" {
		summary, err := a.sitemaps.Summarize(ctx, a.sitemapURL, time.Now().UTC())
		if err != nil {
			a.logger.Warn("sitemap summary failed",
				logging.String("sitemap_url", a.sitemapURL),
				logging.Err(err))
		} else {
			findings.Sitemap = summary
		}
	}

	blob, err := json.Marshal(findings)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode structured-data audit")
	}
	return blob, nil
}

// signalsAuditor scans the target homepage for social profiles and local
// and international SEO markers.
type signalsAuditor struct {
	collector *signals.Collector
	domain    string
}

func newSignalsAuditor(cfg *config.Config, logger logging.Logger) (*signalsAuditor, error) {
	if cfg.Target.Domain == "" {
		return nil, nil
	}
	collector, err := signals.NewCollector(signals.CollectorConfig{Logger: logger})
	if err != nil {
		return nil, err
	}
	return &signalsAuditor{collector: collector, domain: cfg.Target.Domain}, nil
}

func (a *signalsAuditor) Audit(ctx context.Context) (json.RawMessage, error) {
	findings, err := a.collector.Collect(ctx, a.domain)
	if err != nil {
		return nil, err
	}
	blob, err := json.Marshal(findings)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode presence signals")
	}
	return blob, nil
}

// trafficFindings is the serialized shape of the owned-traffic section:
// Search Console query data plus the optional GA4 organic summary.
type trafficFindings struct {
	SearchConsole *google.GSCData `json:"search_console,omitempty"`
	Analytics     *google.GA4Data `json:"analytics,omitempty"`
}

// trafficAuditor pulls the target's own Search Console and Analytics data.
// A GA4 failure degrades to a Search-Console-only result.
type trafficAuditor struct {
	client      *google.Client
	domain      string
	ga4Property string
	logger      logging.Logger
}

// newTrafficAuditor returns nil unless OAuth credentials are configured.
func newTrafficAuditor(cfg *config.Config, logger logging.Logger) (*trafficAuditor, error) {
	g := cfg.Providers.Google
	if g.ClientID == "" || g.ClientSecret == "" || g.RefreshToken == "" {
		return nil, nil
	}
	client, err := google.NewClient(google.ClientConfig{Config: g, Logger: logger})
	if err != nil {
		return nil, err
	}
	return &trafficAuditor{
		client:      client,
		domain:      cfg.Target.Domain,
		ga4Property: g.GA4PropertyID,
		logger:      logger,
	}, nil
}

func (a *trafficAuditor) Audit(ctx context.Context) (json.RawMessage, error) {
	gsc, err := a.client.SearchConsole(ctx, a.domain, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	findings := trafficFindings{SearchConsole: gsc}
	if a.ga4Property != "" {
		ga4, err := a.client.Analytics(ctx, a.ga4Property)
		if err != nil {
			a.logger.Warn("analytics query failed",
				logging.String("property_id", a.ga4Property),
				logging.Err(err))
		} else {
			findings.Analytics = ga4
		}
	}

	blob, err := json.Marshal(findings)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode owned-traffic data")
	}
	return blob, nil
}

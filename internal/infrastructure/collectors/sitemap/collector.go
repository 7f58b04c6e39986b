// Package sitemap fetches and summarizes XML sitemaps for the audited site.
// It resolves sitemap indexes recursively, classifies URLs by page type and
// reports content freshness from lastmod stamps.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

const userAgent = "Mozilla/5.0 (compatible; RankScopeBot/1.0)"

// maxChildSitemaps bounds recursion into a sitemap index so a pathological
// index cannot fan out unbounded fetches.
const maxChildSitemaps = 50

// freshnessWindow is how recent a lastmod must be for the URL to count as
// recently updated.
const freshnessWindow = 30 * 24 * time.Hour

// PageClass is the coarse content category of a sitemap URL.
type PageClass string

const (
	ClassProduct    PageClass = "product"
	ClassCollection PageClass = "collection"
	ClassBlog       PageClass = "blog"
	ClassPage       PageClass = "page"
)

// Entry is one URL pulled out of a sitemap.
type Entry struct {
	Loc      string    `json:"loc"`
	Class    PageClass `json:"class"`
	LastMod  time.Time `json:"last_mod,omitempty"`
	HasStamp bool      `json:"has_stamp"`
}

// Summary aggregates a full sitemap crawl.
type Summary struct {
	SitemapURL string `json:"sitemap_url"`
	TotalURLs  int    `json:"total_urls"`

	// CountByClass always carries all four classes, zero-valued when absent.
	CountByClass map[PageClass]int `json:"count_by_class"`

	// FreshURLs counts entries whose lastmod falls inside the freshness
	// window relative to the caller-supplied reference time.
	FreshURLs int `json:"fresh_urls"`

	// StampedURLs counts entries that carried any lastmod at all.
	StampedURLs int `json:"stamped_urls"`

	Entries []Entry `json:"entries,omitempty"`
}

// Collector fetches sitemaps over HTTP.
type Collector struct {
	httpClient *http.Client
	logger     logging.Logger
}

// CollectorConfig holds the Collector dependencies.
type CollectorConfig struct {
	Logger  logging.Logger
	Timeout time.Duration
}

// NewCollector constructs a Collector.
func NewCollector(cfg CollectorConfig) (*Collector, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("sitemap Collector requires Logger")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Collector{
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

// ---- XML wire types ----

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapChild `xml:"sitemap"`
}

type sitemapChild struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// Summarize fetches the sitemap at sitemapURL, following one level of
// sitemap-index indirection, and aggregates the URL inventory.  The reference
// time now anchors the freshness window so repeated runs over the same
// sitemap stay comparable.
func (c *Collector) Summarize(ctx context.Context, sitemapURL string, now time.Time) (*Summary, error) {
	entries, err := c.collect(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		SitemapURL: sitemapURL,
		TotalURLs:  len(entries),
		CountByClass: map[PageClass]int{
			ClassProduct:    0,
			ClassCollection: 0,
			ClassBlog:       0,
			ClassPage:       0,
		},
		Entries: entries,
	}
	for _, e := range entries {
		summary.CountByClass[e.Class]++
		if e.HasStamp {
			summary.StampedURLs++
			if now.Sub(e.LastMod) <= freshnessWindow {
				summary.FreshURLs++
			}
		}
	}

	c.logger.Info("sitemap summarized",
		logging.String("sitemap_url", sitemapURL),
		logging.Int("total_urls", summary.TotalURLs),
		logging.Int("fresh_urls", summary.FreshURLs),
	)
	return summary, nil
}

// collect fetches one sitemap document.  A sitemap index is expanded by
// fetching each child urlset; child failures are logged and skipped so one
// broken shard does not sink the crawl.
func (c *Collector) collect(ctx context.Context, sitemapURL string) ([]Entry, error) {
	body, err := c.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		children := index.Sitemaps
		if len(children) > maxChildSitemaps {
			c.logger.Warn("sitemap index truncated",
				logging.String("sitemap_url", sitemapURL),
				logging.Int("children", len(children)),
				logging.Int("limit", maxChildSitemaps),
			)
			children = children[:maxChildSitemaps]
		}
		var entries []Entry
		for _, child := range children {
			childBody, err := c.fetch(ctx, child.Loc)
			if err != nil {
				c.logger.Warn("child sitemap fetch failed",
					logging.String("url", child.Loc),
					logging.Err(err),
				)
				continue
			}
			entries = append(entries, parseURLSet(childBody)...)
		}
		return entries, nil
	}

	entries := parseURLSet(body)
	if len(entries) == 0 {
		return nil, errors.Newf(errors.ErrCodeProviderUnavailable,
			"sitemap at %s contains no URLs", sitemapURL)
	}
	return entries, nil
}

func (c *Collector) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to build sitemap request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "sitemap fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeProviderUnavailable,
			fmt.Sprintf("sitemap fetch returned HTTP %d for %s", resp.StatusCode, rawURL))
	}
	return io.ReadAll(resp.Body)
}

func parseURLSet(body []byte) []Entry {
	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil
	}
	entries := make([]Entry, 0, len(set.URLs))
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" {
			continue
		}
		entry := Entry{Loc: loc, Class: Classify(loc)}
		if ts, ok := parseLastMod(u.LastMod); ok {
			entry.LastMod = ts
			entry.HasStamp = true
		}
		entries = append(entries, entry)
	}
	return entries
}

// Classify maps a URL onto its content class by path convention.
func Classify(rawURL string) PageClass {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "/products/"):
		return ClassProduct
	case strings.Contains(lower, "/collections/"):
		return ClassCollection
	case strings.Contains(lower, "/blogs/") || strings.Contains(lower, "/blog/"):
		return ClassBlog
	default:
		return ClassPage
	}
}

// parseLastMod accepts the date formats sitemaps carry in the wild.
func parseLastMod(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

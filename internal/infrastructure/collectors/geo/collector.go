// Package geo audits structured data (JSON-LD) on the target's key pages.
// Findings are additive report content handed to the assembler as an opaque
// blob; they never influence opportunity scoring.
package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// userAgent identifies audit requests to the crawled site.
const userAgent = "Mozilla/5.0 (compatible; RankScopeBot/1.0)"

// expectedSchemas maps a page type to the schema.org types the audit checks
// for.
var expectedSchemas = map[string][]string{
	"homepage":   {"Organization", "WebSite"},
	"product":    {"Product"},
	"collection": {"ItemList"},
	"blog":       {"Article", "BlogPosting"},
}

// PageFinding is the structured-data audit result for one page.
type PageFinding struct {
	PageType string `json:"page_type"`
	URL      string `json:"url"`

	// SchemaTypes lists every @type found in JSON-LD blocks, sorted.
	SchemaTypes []string `json:"schema_types"`

	// MissingSchemas lists expected types for the page type that no block
	// declares.
	MissingSchemas []string `json:"missing_schemas,omitempty"`

	// Schemas carries the raw JSON-LD blocks for the report appendix.
	Schemas []json.RawMessage `json:"schemas,omitempty"`

	Error string `json:"error,omitempty"`
}

// Collector fetches pages and extracts their JSON-LD blocks.
type Collector struct {
	httpClient *http.Client
	logger     logging.Logger
}

// CollectorConfig holds configuration for constructing the collector.
type CollectorConfig struct {
	Logger     logging.Logger
	HTTPClient *http.Client
}

// NewCollector constructs a Collector.
func NewCollector(cfg CollectorConfig) (*Collector, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("geo Collector requires Logger")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Collector{httpClient: httpClient, logger: cfg.Logger}, nil
}

// AuditPage extracts JSON-LD from one page and checks it against the
// expectations for its page type.
func (c *Collector) AuditPage(ctx context.Context, page config.AuditPageConfig) PageFinding {
	finding := PageFinding{PageType: page.Type, URL: page.URL}

	schemas, err := c.extract(ctx, page.URL)
	if err != nil {
		c.logger.Warn("structured data audit failed",
			logging.String("url", page.URL),
			logging.Err(err),
		)
		finding.Error = err.Error()
		return finding
	}

	typeSet := make(map[string]struct{})
	for _, block := range schemas {
		for _, t := range schemaTypes(block) {
			typeSet[t] = struct{}{}
		}
	}
	for t := range typeSet {
		finding.SchemaTypes = append(finding.SchemaTypes, t)
	}
	sort.Strings(finding.SchemaTypes)
	finding.Schemas = schemas

	// A page type passes when any one expected type is present.
	expected := expectedSchemas[strings.ToLower(page.Type)]
	found := false
	for _, want := range expected {
		if _, ok := typeSet[want]; ok {
			found = true
			break
		}
	}
	if !found {
		finding.MissingSchemas = expected
	}

	return finding
}

// AuditPages audits all configured pages concurrently and returns findings
// in page order.  Per-page failures are recorded, never fatal.
func (c *Collector) AuditPages(ctx context.Context, pages []config.AuditPageConfig) []PageFinding {
	findings := make([]PageFinding, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			findings[i] = c.AuditPage(gctx, page)
			return nil
		})
	}
	_ = g.Wait()

	return findings
}

// extract fetches a page and returns its raw JSON-LD blocks.  Blocks that
// fail to parse as JSON are skipped.
func (c *Collector) extract(ctx context.Context, pageURL string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to build page request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "page fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeProviderUnavailable, "page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "failed to parse page HTML")
	}

	var schemas []json.RawMessage
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || !json.Valid([]byte(text)) {
			return
		}
		schemas = append(schemas, json.RawMessage(text))
	})

	return schemas, nil
}

// schemaTypes pulls every @type out of one JSON-LD block, including @graph
// members and type arrays.
func schemaTypes(block json.RawMessage) []string {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(block, &node); err != nil {
		return nil
	}

	var types []string

	if raw, ok := node["@type"]; ok {
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			types = append(types, single)
		} else {
			var many []string
			if err := json.Unmarshal(raw, &many); err == nil {
				types = append(types, many...)
			}
		}
	}

	if raw, ok := node["@graph"]; ok {
		var members []json.RawMessage
		if err := json.Unmarshal(raw, &members); err == nil {
			for _, m := range members {
				types = append(types, schemaTypes(m)...)
			}
		}
	}

	return types
}

// Package signals audits a domain's homepage for social-profile links and
// local/international SEO markers.  Like the other audit collectors, its
// findings are additive report content and never feed opportunity scoring.
package signals

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

const userAgent = "Mozilla/5.0 (compatible; RankScopeBot/1.0)"

// platforms lists the social networks the audit looks for, in report order.
// Each maps to the URL fragments that identify a profile link.
var platforms = []struct {
	name     string
	patterns []string
}{
	{"facebook", []string{"facebook.com/", "fb.com/"}},
	{"instagram", []string{"instagram.com/"}},
	{"twitter", []string{"twitter.com/", "x.com/"}},
	{"tiktok", []string{"tiktok.com/@"}},
	{"youtube", []string{"youtube.com/", "youtu.be/"}},
	{"linkedin", []string{"linkedin.com/"}},
	{"pinterest", []string{"pinterest.com/"}},
	{"reddit", []string{"reddit.com/user/", "reddit.com/r/"}},
}

// phonePattern matches international and 10-digit phone numbers with common
// separators.
var phonePattern = regexp.MustCompile(`(\+\d{1,3}[- ]?)?\(?\d{3}\)?[- ]?\d{3}[- ]?\d{4}`)

// addressKeywords are the heuristic markers for a postal address on the page.
var addressKeywords = []string{
	"street", "road", "avenue", "lane", "floor", "building",
	"pincode", "zip code", "suite",
}

// SocialProfile records whether one platform was linked from the homepage.
type SocialProfile struct {
	Platform string `json:"platform"`
	URL      string `json:"url,omitempty"`
	Found    bool   `json:"found"`
}

// HreflangTag is one alternate-language declaration.
type HreflangTag struct {
	Lang string `json:"lang"`
	URL  string `json:"url"`
}

// InternationalSignals summarizes the multi-market markup on the homepage.
type InternationalSignals struct {
	HreflangTags    []HreflangTag `json:"hreflang_tags"`
	ContentLanguage string        `json:"content_language,omitempty"`
	HasSignals      bool          `json:"has_intl_signals"`
}

// LocalSignals summarizes the brick-and-mortar markers on the homepage.
type LocalSignals struct {
	PhoneFound   bool `json:"phone_found"`
	AddressFound bool `json:"address_found"`
	MapEmbed     bool `json:"map_embed"`
	HasSignals   bool `json:"has_local_signals"`
}

// Findings is the complete homepage-signal audit for one domain.
type Findings struct {
	Domain        string               `json:"domain"`
	Social        []SocialProfile      `json:"social_profiles"`
	International InternationalSignals `json:"international"`
	Local         LocalSignals         `json:"local"`
}

// Collector fetches a domain's homepage and derives its signal findings.
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
		return nil, errors.NewValidation("signals Collector requires Logger")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Collector{httpClient: httpClient, logger: cfg.Logger}, nil
}

// Collect fetches https://<domain> once and derives social, international and
// local findings from the single document.
func (c *Collector) Collect(ctx context.Context, domain string) (*Findings, error) {
	base := &url.URL{Scheme: "https", Host: domain}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to build homepage request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "homepage fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeProviderUnavailable, "homepage returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "failed to parse homepage HTML")
	}

	findings := &Findings{
		Domain:        domain,
		Social:        socialProfiles(doc, base),
		International: internationalSignals(doc),
		Local:         localSignals(doc),
	}

	c.logger.Info("homepage signals collected",
		logging.String("domain", domain),
		logging.Int("hreflang_tags", len(findings.International.HreflangTags)),
		logging.Bool("local_signals", findings.Local.HasSignals),
	)
	return findings, nil
}

// socialProfiles scans every link for known platform patterns.  The first
// matching link per platform wins; relative links resolve against the
// homepage.
func socialProfiles(doc *goquery.Document, base *url.URL) []SocialProfile {
	found := make(map[string]string)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		for _, p := range platforms {
			if _, ok := found[p.name]; ok {
				continue
			}
			for _, pattern := range p.patterns {
				if strings.Contains(href, pattern) {
					found[p.name] = resolveURL(base, href)
					break
				}
			}
		}
	})

	profiles := make([]SocialProfile, 0, len(platforms))
	for _, p := range platforms {
		profile := SocialProfile{Platform: p.name}
		if u, ok := found[p.name]; ok {
			profile.URL = u
			profile.Found = true
		}
		profiles = append(profiles, profile)
	}
	return profiles
}

func internationalSignals(doc *goquery.Document) InternationalSignals {
	var intl InternationalSignals

	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		lang, _ := s.Attr("hreflang")
		href, _ := s.Attr("href")
		intl.HreflangTags = append(intl.HreflangTags, HreflangTag{Lang: lang, URL: href})
	})

	doc.Find(`meta[http-equiv="Content-Language"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		intl.ContentLanguage, _ = s.Attr("content")
		return false
	})

	intl.HasSignals = len(intl.HreflangTags) > 0 || intl.ContentLanguage != ""
	return intl
}

func localSignals(doc *goquery.Document) LocalSignals {
	var local LocalSignals

	text := strings.ToLower(doc.Text())
	local.PhoneFound = phonePattern.MatchString(text)
	for _, keyword := range addressKeywords {
		if strings.Contains(text, keyword) {
			local.AddressFound = true
			break
		}
	}

	doc.Find("iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if strings.Contains(src, "google.com/maps") {
			local.MapEmbed = true
			return false
		}
		return true
	})

	local.HasSignals = local.PhoneFound || local.AddressFound || local.MapEmbed
	return local
}

func resolveURL(base *url.URL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

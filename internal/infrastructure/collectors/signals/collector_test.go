package signals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
)

const homepage = `<!DOCTYPE html>
<html><head>
<link rel="alternate" hreflang="en-us" href="https://example.com/" />
<link rel="alternate" hreflang="en-in" href="https://example.com/in/" />
<meta http-equiv="Content-Language" content="en" />
</head><body>
<a href="https://facebook.com/unleash">Facebook</a>
<a href="https://www.instagram.com/unleash/">Instagram</a>
<a href="/social/redirect?to=twitter.com/unleash">Twitter</a>
<a href="https://facebook.com/unleash-second">Second FB link ignored</a>
<p>Visit us at 12 Harbour Street, Suite 4.</p>
<p>Call +1 (555) 123-4567 today.</p>
<iframe src="https://www.google.com/maps/embed?pb=!1m18"></iframe>
</body></html>`

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestCollect_FullHomepage(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(homepage))
	}))
	t.Cleanup(srv.Close)

	c, err := NewCollector(CollectorConfig{Logger: logging.NewNop(), HTTPClient: srv.Client()})
	require.NoError(t, err)

	domain := strings.TrimPrefix(srv.URL, "https://")
	findings, err := c.Collect(context.Background(), domain)
	require.NoError(t, err)

	assert.Equal(t, domain, findings.Domain)

	byPlatform := make(map[string]SocialProfile)
	for _, p := range findings.Social {
		byPlatform[p.Platform] = p
	}
	assert.Len(t, findings.Social, len(platforms), "every platform reported, found or not")
	assert.True(t, byPlatform["facebook"].Found)
	assert.Equal(t, "https://facebook.com/unleash", byPlatform["facebook"].URL, "first match wins")
	assert.True(t, byPlatform["instagram"].Found)
	assert.True(t, byPlatform["twitter"].Found)
	assert.False(t, byPlatform["tiktok"].Found)
	assert.Empty(t, byPlatform["tiktok"].URL)

	assert.True(t, findings.International.HasSignals)
	assert.Len(t, findings.International.HreflangTags, 2)
	assert.Equal(t, "en", findings.International.ContentLanguage)

	assert.True(t, findings.Local.HasSignals)
	assert.True(t, findings.Local.PhoneFound)
	assert.True(t, findings.Local.AddressFound)
	assert.True(t, findings.Local.MapEmbed)
}

func TestCollect_FetchFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c, err := NewCollector(CollectorConfig{Logger: logging.NewNop(), HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.Collect(context.Background(), strings.TrimPrefix(srv.URL, "https://"))
	assert.Error(t, err)
}

func TestSocialProfiles_ResolvesRelativeLinks(t *testing.T) {
	doc := docFrom(t, `<html><body><a href="/out/youtube.com/channel">YouTube</a></body></html>`)

	profiles := socialProfiles(doc, mustURL(t, "https://example.com"))
	for _, p := range profiles {
		if p.Platform == "youtube" {
			assert.True(t, p.Found)
			assert.Equal(t, "https://example.com/out/youtube.com/channel", p.URL)
			return
		}
	}
	t.Fatal("youtube profile missing from results")
}

func TestLocalSignals_QuietPage(t *testing.T) {
	doc := docFrom(t, `<html><body><p>Just words, nothing to see.</p></body></html>`)

	local := localSignals(doc)
	assert.False(t, local.HasSignals)
	assert.False(t, local.PhoneFound)
	assert.False(t, local.AddressFound)
	assert.False(t, local.MapEmbed)
}

func TestInternationalSignals_None(t *testing.T) {
	intl := internationalSignals(docFrom(t, `<html><head></head><body></body></html>`))
	assert.False(t, intl.HasSignals)
	assert.Empty(t, intl.HreflangTags)
}

func TestNewCollector_RequiresLogger(t *testing.T) {
	_, err := NewCollector(CollectorConfig{})
	assert.Error(t, err)
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

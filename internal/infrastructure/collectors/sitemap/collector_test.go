package sitemap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
)

const urlsetBody = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc><lastmod>2026-08-20</lastmod></url>
  <url><loc>https://example.com/products/gut-chews</loc><lastmod>2026-08-28T10:30:00+00:00</lastmod></url>
  <url><loc>https://example.com/collections/dogs</loc></url>
  <url><loc>https://example.com/blogs/news/gut-health</loc><lastmod>2024-01-01</lastmod></url>
</urlset>`

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := NewCollector(CollectorConfig{Logger: logging.NewNop()})
	require.NoError(t, err)
	return c
}

func TestSummarize_URLSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(urlsetBody))
	}))
	defer srv.Close()

	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	summary, err := newTestCollector(t).Summarize(context.Background(), srv.URL+"/sitemap.xml", now)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalURLs)
	assert.Equal(t, 1, summary.CountByClass[ClassProduct])
	assert.Equal(t, 1, summary.CountByClass[ClassCollection])
	assert.Equal(t, 1, summary.CountByClass[ClassBlog])
	assert.Equal(t, 1, summary.CountByClass[ClassPage])
	assert.Equal(t, 3, summary.StampedURLs)
	assert.Equal(t, 2, summary.FreshURLs, "the 2024 blog post is stale")
}

func TestSummarize_Index(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		index := `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>` + srv.URL + `/sitemap_products.xml</loc></sitemap>
  <sitemap><loc>` + srv.URL + `/sitemap_broken.xml</loc></sitemap>
</sitemapindex>`
		_, _ = w.Write([]byte(index))
	})
	mux.HandleFunc("/sitemap_products.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(urlsetBody))
	})
	mux.HandleFunc("/sitemap_broken.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	summary, err := newTestCollector(t).Summarize(context.Background(), srv.URL+"/sitemap.xml", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalURLs, "broken shard skipped, working shard counted")
}

func TestSummarize_EmptySitemapFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`))
	}))
	defer srv.Close()

	_, err := newTestCollector(t).Summarize(context.Background(), srv.URL+"/sitemap.xml", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no URLs")
}

func TestSummarize_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestCollector(t).Summarize(context.Background(), srv.URL+"/sitemap.xml", time.Now())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want PageClass
	}{
		{"https://example.com/products/gut-chews", ClassProduct},
		{"https://example.com/collections/dogs", ClassCollection},
		{"https://example.com/blogs/news/post", ClassBlog},
		{"https://example.com/blog/post", ClassBlog},
		{"https://example.com/pages/about", ClassPage},
		{"https://example.com/", ClassPage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.url), tt.url)
	}
}

func TestParseLastMod(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
	}{
		{"2026-08-20", true},
		{"2026-08-28T10:30:00+00:00", true},
		{"2026-08-28T10:30:00Z", true},
		{"", false},
		{"yesterday", false},
	}
	for _, tt := range tests {
		_, ok := parseLastMod(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestNewCollector_RequiresLogger(t *testing.T) {
	_, err := NewCollector(CollectorConfig{})
	assert.Error(t, err)
}

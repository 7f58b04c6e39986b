package google

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// Thresholds for the trend and optimization picks, matching how the report
// separates noise from movement.
const (
	minTrendClicks      = 5
	minTrendImpressions = 100
	trendClickDelta     = 5
	trendPositionDelta  = 3.0
	lowCTRImpressions   = 500
	lowCTRPercent       = 1.0
	topListLimit        = 10
)

// GSCTotals compares the current reporting window against the one before it.
type GSCTotals struct {
	Clicks            int     `json:"clicks"`
	ClicksPrev        int     `json:"clicks_prev"`
	ClicksGrowth      float64 `json:"clicks_growth"`
	Impressions       int     `json:"impressions"`
	ImpressionsPrev   int     `json:"impressions_prev"`
	ImpressionsGrowth float64 `json:"impressions_growth"`
}

// TopQuery is one of the highest-click queries of the current window.
type TopQuery struct {
	Keyword     string  `json:"keyword"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	Position    float64 `json:"position"`
}

// TopPage is one of the highest-click pages of the current window.
type TopPage struct {
	URL         string `json:"url"`
	Clicks      int    `json:"clicks"`
	Impressions int    `json:"impressions"`
}

// QueryTrend is a query whose clicks or average position moved between
// windows.  PositionChange is positive when the rank improved.
type QueryTrend struct {
	Keyword        string  `json:"keyword"`
	Clicks         int     `json:"clicks"`
	ClickChange    int     `json:"click_change"`
	Position       float64 `json:"position"`
	PositionChange float64 `json:"position_change"`
}

// OptimizationCandidate is a page flagged for follow-up work.
type OptimizationCandidate struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
	Metric string `json:"metric"`
}

// GSCData is the assembled Search Console section of the traffic feed.
type GSCData struct {
	Property           string                  `json:"property"`
	Totals             GSCTotals               `json:"totals"`
	TopQueries         []TopQuery              `json:"top_queries"`
	TopPages           []TopPage               `json:"top_pages"`
	TrendingUp         []QueryTrend            `json:"trending_up"`
	TrendingDown       []QueryTrend            `json:"trending_down"`
	OptimizationNeeded []OptimizationCandidate `json:"optimization_needed"`
}

// Wire shapes for the Search Analytics query endpoint.

type searchAnalyticsRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
}

type searchAnalyticsResponse struct {
	Rows []searchAnalyticsRow `json:"rows"`
}

type searchAnalyticsRow struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	Position    float64  `json:"position"`
}

// SearchConsole fetches the current window and the one before it for the
// domain's property, then derives totals, trends and optimization picks.
// Without a configured property it probes the domain property first, then
// the URL-prefix variants, skipping the ones this token cannot read.
func (c *Client) SearchConsole(ctx context.Context, domain string, now time.Time) (*GSCData, error) {
	days := c.cfg.GSCDays
	if days <= 0 {
		days = 90
	}

	end := now
	startCurrent := end.AddDate(0, 0, -days)
	endPrev := startCurrent.AddDate(0, 0, -1)
	startPrev := endPrev.AddDate(0, 0, -days)

	var current, previous []searchAnalyticsRow
	property := ""
	for _, variant := range c.propertyVariants(domain) {
		cur, err := c.queryPeriod(ctx, variant, startCurrent, end)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeProviderAuthFailed) {
				c.logger.Debug("search console property not accessible",
					logging.String("property", variant))
				continue
			}
			return nil, err
		}
		prev, err := c.queryPeriod(ctx, variant, startPrev, endPrev)
		if err != nil {
			return nil, err
		}
		current, previous, property = cur, prev, variant
		break
	}
	if property == "" {
		return nil, errors.Newf(errors.ErrCodeProviderAuthFailed,
			"no accessible search console property for %s", domain)
	}

	data := buildGSCData(property, aggregate(current), aggregate(previous))

	c.logger.Info("search console data fetched",
		logging.String("property", property),
		logging.Int("clicks", data.Totals.Clicks),
		logging.Float64("clicks_growth", data.Totals.ClicksGrowth),
	)
	return data, nil
}

func (c *Client) propertyVariants(domain string) []string {
	if c.cfg.GSCProperty != "" {
		return []string{c.cfg.GSCProperty}
	}
	clean := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://"), "/")
	return []string{
		"sc-domain:" + clean,
		"https://" + clean + "/",
		"https://" + clean,
	}
}

func (c *Client) queryPeriod(ctx context.Context, property string, start, end time.Time) ([]searchAnalyticsRow, error) {
	endpoint := c.cfg.GSCBaseURL + "/sites/" + url.PathEscape(property) + "/searchAnalytics/query"
	req := searchAnalyticsRequest{
		StartDate:  start.Format("2006-01-02"),
		EndDate:    end.Format("2006-01-02"),
		Dimensions: []string{"query", "page"},
		RowLimit:   1000,
	}

	var resp searchAnalyticsResponse
	if err := c.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// periodStats accumulates one window's rows per query and per page.
type periodStats struct {
	clicks      int
	impressions int
	queries     map[string]*rowStats
	pages       map[string]*rowStats
}

type rowStats struct {
	clicks      int
	impressions int
	positionSum float64
	count       int
}

func (s *rowStats) avgPosition() float64 {
	if s.count == 0 {
		return 0
	}
	return s.positionSum / float64(s.count)
}

func aggregate(rows []searchAnalyticsRow) periodStats {
	agg := periodStats{
		queries: make(map[string]*rowStats),
		pages:   make(map[string]*rowStats),
	}
	for _, row := range rows {
		if len(row.Keys) < 2 {
			continue
		}
		agg.clicks += int(row.Clicks)
		agg.impressions += int(row.Impressions)
		accumulate(agg.queries, row.Keys[0], row)
		accumulate(agg.pages, row.Keys[1], row)
	}
	return agg
}

func accumulate(m map[string]*rowStats, key string, row searchAnalyticsRow) {
	stats, ok := m[key]
	if !ok {
		stats = &rowStats{}
		m[key] = stats
	}
	stats.clicks += int(row.Clicks)
	stats.impressions += int(row.Impressions)
	stats.positionSum += row.Position
	stats.count++
}

func buildGSCData(property string, curr, prev periodStats) *GSCData {
	data := &GSCData{
		Property: property,
		Totals: GSCTotals{
			Clicks:            curr.clicks,
			ClicksPrev:        prev.clicks,
			ClicksGrowth:      growth(curr.clicks, prev.clicks),
			Impressions:       curr.impressions,
			ImpressionsPrev:   prev.impressions,
			ImpressionsGrowth: growth(curr.impressions, prev.impressions),
		},
	}

	for keyword, stats := range curr.queries {
		if stats.clicks < minTrendClicks && stats.impressions < minTrendImpressions {
			continue
		}
		prevStats := prev.queries[keyword]
		prevClicks, prevPos := 0, 0.0
		if prevStats != nil {
			prevClicks = prevStats.clicks
			prevPos = prevStats.avgPosition()
		}

		trend := QueryTrend{
			Keyword:        keyword,
			Clicks:         stats.clicks,
			ClickChange:    stats.clicks - prevClicks,
			Position:       round1(stats.avgPosition()),
			PositionChange: round1(prevPos - stats.avgPosition()),
		}
		switch {
		case trend.ClickChange > trendClickDelta || trend.PositionChange > trendPositionDelta:
			data.TrendingUp = append(data.TrendingUp, trend)
		case trend.ClickChange < -trendClickDelta || trend.PositionChange < -trendPositionDelta:
			data.TrendingDown = append(data.TrendingDown, trend)
		}
	}
	sort.Slice(data.TrendingUp, func(i, j int) bool {
		return data.TrendingUp[i].ClickChange > data.TrendingUp[j].ClickChange
	})
	sort.Slice(data.TrendingDown, func(i, j int) bool {
		return data.TrendingDown[i].ClickChange < data.TrendingDown[j].ClickChange
	})
	data.TrendingUp = capTrends(data.TrendingUp)
	data.TrendingDown = capTrends(data.TrendingDown)

	for page, stats := range curr.pages {
		ctr := 0.0
		if stats.impressions > 0 {
			ctr = float64(stats.clicks) / float64(stats.impressions) * 100
		}
		if stats.impressions > lowCTRImpressions && ctr < lowCTRPercent {
			data.OptimizationNeeded = append(data.OptimizationNeeded, OptimizationCandidate{
				URL:    page,
				Reason: "High Impressions, Low CTR",
				Metric: formatCTR(ctr, stats.impressions),
			})
		}
		avgPos := stats.avgPosition()
		if avgPos > 10 && avgPos <= 20 && stats.impressions > minTrendImpressions {
			data.OptimizationNeeded = append(data.OptimizationNeeded, OptimizationCandidate{
				URL:    page,
				Reason: "Striking Distance (Page 2)",
				Metric: formatPosition(avgPos),
			})
		}
	}
	sort.Slice(data.OptimizationNeeded, func(i, j int) bool {
		return data.OptimizationNeeded[i].URL < data.OptimizationNeeded[j].URL
	})
	if len(data.OptimizationNeeded) > topListLimit {
		data.OptimizationNeeded = data.OptimizationNeeded[:topListLimit]
	}

	for keyword, stats := range curr.queries {
		data.TopQueries = append(data.TopQueries, TopQuery{
			Keyword:     keyword,
			Clicks:      stats.clicks,
			Impressions: stats.impressions,
			Position:    round1(stats.avgPosition()),
		})
	}
	sort.Slice(data.TopQueries, func(i, j int) bool {
		if data.TopQueries[i].Clicks != data.TopQueries[j].Clicks {
			return data.TopQueries[i].Clicks > data.TopQueries[j].Clicks
		}
		return data.TopQueries[i].Keyword < data.TopQueries[j].Keyword
	})
	if len(data.TopQueries) > topListLimit {
		data.TopQueries = data.TopQueries[:topListLimit]
	}

	for page, stats := range curr.pages {
		data.TopPages = append(data.TopPages, TopPage{
			URL:         page,
			Clicks:      stats.clicks,
			Impressions: stats.impressions,
		})
	}
	sort.Slice(data.TopPages, func(i, j int) bool {
		if data.TopPages[i].Clicks != data.TopPages[j].Clicks {
			return data.TopPages[i].Clicks > data.TopPages[j].Clicks
		}
		return data.TopPages[i].URL < data.TopPages[j].URL
	})
	if len(data.TopPages) > topListLimit {
		data.TopPages = data.TopPages[:topListLimit]
	}

	return data
}

func capTrends(trends []QueryTrend) []QueryTrend {
	if len(trends) > topListLimit {
		return trends[:topListLimit]
	}
	return trends
}

func formatCTR(ctr float64, impressions int) string {
	return fmt.Sprintf("%.1f%% CTR (%d impr)", ctr, impressions)
}

func formatPosition(pos float64) string {
	return fmt.Sprintf("Pos %.1f", pos)
}

func growth(curr, prev int) float64 {
	if prev <= 0 {
		return 0
	}
	return round1(float64(curr-prev) / float64(prev) * 100)
}

package google

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// TrafficPoint is one day of organic sessions.
type TrafficPoint struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
}

// GA4Data is the organic-search summary for one Analytics property.
// EngagementRate is a session-weighted percentage.
type GA4Data struct {
	PropertyID     string         `json:"property_id"`
	Sessions       int            `json:"sessions"`
	Users          int            `json:"users"`
	EngagementRate float64        `json:"engagement_rate"`
	TrafficTrend   []TrafficPoint `json:"traffic_trend"`
}

// Wire shapes for the Analytics Data runReport endpoint.

type runReportRequest struct {
	Dimensions      []nameRef       `json:"dimensions"`
	Metrics         []nameRef       `json:"metrics"`
	DateRanges      []dateRange     `json:"dateRanges"`
	DimensionFilter dimensionFilter `json:"dimensionFilter"`
}

type nameRef struct {
	Name string `json:"name"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type dimensionFilter struct {
	Filter fieldFilter `json:"filter"`
}

type fieldFilter struct {
	FieldName    string       `json:"fieldName"`
	StringFilter stringFilter `json:"stringFilter"`
}

type stringFilter struct {
	MatchType string `json:"matchType"`
	Value     string `json:"value"`
}

type runReportResponse struct {
	Rows []reportRow `json:"rows"`
}

type reportRow struct {
	DimensionValues []reportValue `json:"dimensionValues"`
	MetricValues    []reportValue `json:"metricValues"`
}

type reportValue struct {
	Value string `json:"value"`
}

// Analytics fetches the organic-search dailies for one GA4 property and
// aggregates them into totals and a date-sorted trend.
func (c *Client) Analytics(ctx context.Context, propertyID string) (*GA4Data, error) {
	if propertyID == "" {
		return nil, errors.NewValidation("google Analytics requires a property ID")
	}

	days := c.cfg.GA4Days
	if days <= 0 {
		days = 30
	}

	req := runReportRequest{
		Dimensions: []nameRef{{Name: "date"}},
		Metrics:    []nameRef{{Name: "sessions"}, {Name: "totalUsers"}, {Name: "engagementRate"}},
		DateRanges: []dateRange{{StartDate: fmt.Sprintf("%ddaysAgo", days), EndDate: "today"}},
		DimensionFilter: dimensionFilter{
			Filter: fieldFilter{
				FieldName:    "sessionDefaultChannelGroup",
				StringFilter: stringFilter{MatchType: "EXACT", Value: "Organic Search"},
			},
		},
	}

	endpoint := c.cfg.GA4BaseURL + "/properties/" + propertyID + ":runReport"
	var resp runReportResponse
	if err := c.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}

	data := &GA4Data{PropertyID: propertyID}
	weightedEngagement := 0.0
	for _, row := range resp.Rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 3 {
			continue
		}
		sessions, err := strconv.Atoi(row.MetricValues[0].Value)
		if err != nil {
			continue
		}
		users, _ := strconv.Atoi(row.MetricValues[1].Value)
		engagement, _ := strconv.ParseFloat(row.MetricValues[2].Value, 64)

		data.Sessions += sessions
		data.Users += users
		weightedEngagement += engagement * float64(sessions)

		data.TrafficTrend = append(data.TrafficTrend, TrafficPoint{
			Date:     formatReportDate(row.DimensionValues[0].Value),
			Sessions: sessions,
		})
	}
	if data.Sessions > 0 {
		data.EngagementRate = round1(weightedEngagement / float64(data.Sessions) * 100)
	}
	sort.Slice(data.TrafficTrend, func(i, j int) bool {
		return data.TrafficTrend[i].Date < data.TrafficTrend[j].Date
	})

	c.logger.Info("ga4 data fetched",
		logging.String("property_id", propertyID),
		logging.Int("organic_sessions", data.Sessions),
	)
	return data, nil
}

// formatReportDate converts the API's YYYYMMDD dimension into YYYY-MM-DD.
func formatReportDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}

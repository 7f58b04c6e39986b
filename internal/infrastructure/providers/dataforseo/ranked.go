package dataforseo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rankscope/rankscope/internal/domain/keyword"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// Wire shapes for dataforseo_labs/google/ranked_keywords/live.

type rankedResult struct {
	Items []rankedItem `json:"items"`
}

type rankedItem struct {
	KeywordData keywordData `json:"keyword_data"`
	RankedSERP  rankedSERP  `json:"ranked_serp_element"`
}

type keywordData struct {
	Keyword           string            `json:"keyword"`
	KeywordInfo       keywordInfo       `json:"keyword_info"`
	KeywordProperties keywordProperties `json:"keyword_properties"`
	SearchIntentInfo  searchIntentInfo  `json:"search_intent_info"`
	SERPInfo          serpInfo          `json:"serp_info"`
}

type keywordInfo struct {
	SearchVolume int     `json:"search_volume"`
	CPC          float64 `json:"cpc"`
	Competition  float64 `json:"competition"`
}

type keywordProperties struct {
	KeywordDifficulty float64 `json:"keyword_difficulty"`
}

type searchIntentInfo struct {
	MainIntent string `json:"main_intent"`
}

type serpInfo struct {
	SERPItemTypes []string `json:"serp_item_types"`
}

type rankedSERP struct {
	SERPItem serpItem `json:"serp_item"`
}

type serpItem struct {
	RankAbsolute int `json:"rank_absolute"`
}

// RankedKeywords fetches the top ranked keywords for a domain and converts
// them to canonical raw records.  Results are served from cache when a prior
// collection stored them.
func (c *Client) RankedKeywords(ctx context.Context, domain string) ([]keyword.RawRecord, error) {
	if domain == "" {
		return nil, errors.NewValidation("domain is required")
	}

	limit := c.cfg.RankedLimit
	if limit <= 0 {
		limit = 100
	}

	fetch := func(ctx context.Context) ([]rankedItem, error) {
		payload := map[string]any{
			"target":        domain,
			"location_name": c.location.Country,
			"language_code": c.location.LanguageCode,
			"limit":         limit,
			"filters":       []any{[]any{"ranked_serp_element.serp_item.rank_group", "<=", 100}},
			"order_by":      []string{"keyword_data.keyword_info.search_volume,desc"},
		}

		raw, err := c.call(ctx, "dataforseo_labs/google/ranked_keywords/live", payload)
		if err != nil {
			return nil, err
		}

		var results []rankedResult
		if err := json.Unmarshal(raw, &results); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "failed to decode ranked keywords result")
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0].Items, nil
	}

	var items []rankedItem
	if c.cache != nil {
		err := c.cache.GetOrSet(ctx, c.cacheKey("ranked", domain), &items, 24*time.Hour,
			func(ctx context.Context) (interface{}, error) { return fetch(ctx) })
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		items, err = fetch(ctx)
		if err != nil {
			return nil, err
		}
	}

	records := make([]keyword.RawRecord, 0, len(items))
	for _, item := range items {
		records = append(records, toRawRecord(item))
	}

	c.logger.Info("ranked keywords collected",
		logging.String("domain", domain),
		logging.Int("records", len(records)),
	)
	return records, nil
}

// toRawRecord maps one provider item onto the canonical raw record.  The
// difficulty comes from keyword_properties when present, otherwise from the
// [0,1] competition index scaled to [0,100].
func toRawRecord(item rankedItem) keyword.RawRecord {
	kd := item.KeywordData

	difficulty := kd.KeywordProperties.KeywordDifficulty
	if difficulty == 0 && kd.KeywordInfo.Competition > 0 {
		difficulty = kd.KeywordInfo.Competition * 100
	}

	return keyword.RawRecord{
		Keyword:      kd.Keyword,
		SearchVolume: kd.KeywordInfo.SearchVolume,
		Difficulty:   difficulty,
		CPC:          kd.KeywordInfo.CPC,
		Intent:       kd.SearchIntentInfo.MainIntent,
		SERPFeatures: kd.SERPInfo.SERPItemTypes,
		RankPosition: item.RankedSERP.SERPItem.RankAbsolute,
	}
}

// Wire shapes for dataforseo_labs/google/search_intent/live.

type intentResult struct {
	Items []intentItem `json:"items"`
}

type intentItem struct {
	Keyword       string        `json:"keyword"`
	KeywordIntent keywordIntent `json:"keyword_intent"`
}

type keywordIntent struct {
	Label string `json:"label"`
}

// SearchIntent classifies keywords, returning a keyword → intent label map.
// Keywords the provider does not classify are absent from the result.
func (c *Client) SearchIntent(ctx context.Context, keywords []string) (map[string]string, error) {
	if len(keywords) == 0 {
		return map[string]string{}, nil
	}
	// Provider limit per call.
	if len(keywords) > 1000 {
		keywords = keywords[:1000]
	}

	payload := map[string]any{
		"keywords":      keywords,
		"language_code": c.location.LanguageCode,
	}

	raw, err := c.call(ctx, "dataforseo_labs/google/search_intent/live", payload)
	if err != nil {
		return nil, err
	}

	var results []intentResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "failed to decode search intent result")
	}

	intents := make(map[string]string)
	for _, res := range results {
		for _, item := range res.Items {
			if item.Keyword != "" && item.KeywordIntent.Label != "" {
				intents[item.Keyword] = item.KeywordIntent.Label
			}
		}
	}
	return intents, nil
}

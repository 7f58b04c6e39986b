// Package collection orchestrates keyword data acquisition: it pulls ranked
// keywords from the provider for the target and every competitor, normalizes
// them into domain sets and persists the resulting snapshots.
package collection

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	kwdomain "github.com/rankscope/rankscope/internal/domain/keyword"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// RankedSource yields the raw ranked-keyword records for one domain.
type RankedSource interface {
	RankedKeywords(ctx context.Context, domain string) ([]kwdomain.RawRecord, error)
}

// IntentSource classifies keywords whose ranked records carried no intent
// label, returning a keyword → intent-label map.
type IntentSource interface {
	SearchIntent(ctx context.Context, keywords []string) (map[string]string, error)
}

// DomainResult is the collection outcome for one domain.
type DomainResult struct {
	Domain     string `json:"domain"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Records    int    `json:"records"`
	Dropped    int    `json:"dropped"`
	Error      string `json:"error,omitempty"`
}

// CollectRequest names the domains to collect.
type CollectRequest struct {
	TargetDomain string
	Competitors  []string

	// CollectedAt stamps every snapshot of this batch; supplied by the
	// caller so one batch shares one timestamp.
	CollectedAt time.Time
}

// CollectResult summarizes one collection batch.
type CollectResult struct {
	Results []DomainResult `json:"results"`
	Failed  int            `json:"failed"`
}

// Service collects and persists keyword snapshots.
type Service interface {
	Collect(ctx context.Context, req CollectRequest) (*CollectResult, error)
}

// ServiceConfig holds the Service dependencies.
type ServiceConfig struct {
	Source   RankedSource
	Provider string // provider name recorded on snapshots
	Repo     kwdomain.SnapshotRepository
	Logger   logging.Logger

	// Intent optionally backfills intent labels for records the ranked
	// endpoint returned without one.  Backfill failures are non-fatal.
	Intent IntentSource

	// Concurrency bounds the parallel per-domain collections.
	Concurrency int
}

type serviceImpl struct {
	source      RankedSource
	provider    string
	repo        kwdomain.SnapshotRepository
	logger      logging.Logger
	intent      IntentSource
	concurrency int
}

// NewService creates a collection Service.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Source == nil {
		return nil, errors.NewValidation("collection Service requires RankedSource")
	}
	if cfg.Repo == nil {
		return nil, errors.NewValidation("collection Service requires SnapshotRepository")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("collection Service requires Logger")
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "dataforseo"
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	return &serviceImpl{
		source:      cfg.Source,
		provider:    provider,
		repo:        cfg.Repo,
		logger:      cfg.Logger,
		intent:      cfg.Intent,
		concurrency: concurrency,
	}, nil
}

// Collect gathers snapshots for the target and all competitors.  Competitor
// failures are recorded per-domain and do not abort the batch; a failed
// target collection is fatal because no analysis can run without it.
func (s *serviceImpl) Collect(ctx context.Context, req CollectRequest) (*CollectResult, error) {
	if req.TargetDomain == "" {
		return nil, errors.New(errors.ErrCodeInvalidRunConfig, "target domain is required")
	}
	collectedAt := req.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now().UTC()
	}

	domains := append([]string{req.TargetDomain}, req.Competitors...)

	var mu sync.Mutex
	results := make([]DomainResult, 0, len(domains))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, domain := range domains {
		domain := domain
		g.Go(func() error {
			res := s.collectDomain(gctx, domain, collectedAt)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	sort.Slice(results, func(i, j int) bool { return results[i].Domain < results[j].Domain })

	out := &CollectResult{Results: results}
	for _, res := range results {
		if res.Error != "" {
			out.Failed++
			if res.Domain == req.TargetDomain {
				return nil, errors.Newf(errors.ErrCodeInvalidRunConfig,
					"target domain collection failed: %s", res.Error)
			}
		}
	}

	s.logger.Info("collection batch finished",
		logging.String("target", req.TargetDomain),
		logging.Int("domains", len(domains)),
		logging.Int("failed", out.Failed),
	)
	return out, nil
}

func (s *serviceImpl) collectDomain(ctx context.Context, domain string, collectedAt time.Time) DomainResult {
	res := DomainResult{Domain: domain}

	raw, err := s.source.RankedKeywords(ctx, domain)
	if err != nil {
		s.logger.Warn("ranked keyword fetch failed",
			logging.String("domain", domain),
			logging.Err(err),
		)
		res.Error = err.Error()
		return res
	}

	normalized := kwdomain.NormalizeDomain(domain, raw)
	for _, recErr := range normalized.RecordErrors {
		s.logger.Debug("record dropped", logging.String("domain", domain), logging.Err(recErr))
	}
	s.backfillIntent(ctx, normalized.Set)

	snapshot := kwdomain.NewSnapshot(normalized, s.provider, collectedAt)
	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.logger.Error("snapshot save failed",
			logging.String("domain", domain),
			logging.Err(err),
		)
		res.Error = err.Error()
		return res
	}

	res.SnapshotID = snapshot.ID.String()
	res.Records = len(snapshot.Records)
	res.Dropped = snapshot.DroppedRecords
	return res
}

// backfillIntent classifies records whose intent the ranked endpoint left
// unknown.  Lookup failures leave the records as they are.
func (s *serviceImpl) backfillIntent(ctx context.Context, set *kw.DomainSet) {
	if s.intent == nil || set == nil {
		return
	}

	var missing []string
	for keyword, rec := range set.Records {
		if rec.Intent == kw.IntentUnknown || rec.Intent == "" {
			missing = append(missing, keyword)
		}
	}
	if len(missing) == 0 {
		return
	}
	sort.Strings(missing)

	labels, err := s.intent.SearchIntent(ctx, missing)
	if err != nil {
		s.logger.Warn("intent backfill failed",
			logging.String("domain", set.Domain),
			logging.Int("keywords", len(missing)),
			logging.Err(err),
		)
		return
	}

	for keyword, label := range labels {
		rec, ok := set.Records[keyword]
		if !ok {
			continue
		}
		if intent := kw.ParseIntent(label); intent != kw.IntentUnknown {
			rec.Intent = intent
			set.Records[keyword] = rec
		}
	}
}

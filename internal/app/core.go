// Package app wires configuration into the concrete service graph shared by
// the CLI, API server, and worker binaries.
package app

import (
	"context"

	"github.com/rankscope/rankscope/internal/application/analysis"
	"github.com/rankscope/rankscope/internal/application/collection"
	"github.com/rankscope/rankscope/internal/application/reporting"
	"github.com/rankscope/rankscope/internal/application/runs"
	"github.com/rankscope/rankscope/internal/config"
	kwdomain "github.com/rankscope/rankscope/internal/domain/keyword"
	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/internal/infrastructure/database/postgres"
	"github.com/rankscope/rankscope/internal/infrastructure/database/postgres/repositories"
	redisdb "github.com/rankscope/rankscope/internal/infrastructure/database/redis"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/prometheus"
	"github.com/rankscope/rankscope/internal/infrastructure/providers/dataforseo"
	miniostore "github.com/rankscope/rankscope/internal/infrastructure/storage/minio"
	"github.com/rankscope/rankscope/pkg/errors"
)

// Core is the wired service graph.  Optional collaborators (keyword provider,
// object storage) are nil when their configuration is absent; consumers must
// check before use.
type Core struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *prometheus.Metrics

	Postgres *postgres.Connection
	Redis    *redisdb.Client
	Cache    redisdb.Cache
	MinIO    *miniostore.Client

	Runs      run.Repository
	Snapshots kwdomain.SnapshotRepository

	Keywords     *dataforseo.Client
	Collector    collection.Service
	Reports      miniostore.ReportStore
	Orchestrator *runs.Orchestrator
}

// Options tunes Build.
type Options struct {
	// Migrate applies pending database migrations before wiring repositories.
	Migrate bool
}

// Build constructs the Core from configuration.  Postgres and Redis are
// required; DataForSEO and MinIO are skipped with a warning when their
// credentials are not configured, degrading the corresponding features.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (*Core, error) {
	if cfg == nil {
		return nil, errors.NewValidation("app Build requires configuration")
	}
	if logger == nil {
		return nil, errors.NewValidation("app Build requires a logger")
	}

	core := &Core{
		Config:  cfg,
		Logger:  logger,
		Metrics: prometheus.NewMetrics(),
	}

	if opts.Migrate {
		if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
			return nil, err
		}
	}

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	core.Postgres = conn

	runRepo, err := repositories.NewRunRepository(conn.Pool(), logger)
	if err != nil {
		core.Close()
		return nil, err
	}
	core.Runs = runRepo

	snapRepo, err := repositories.NewSnapshotRepository(conn.Pool(), logger)
	if err != nil {
		core.Close()
		return nil, err
	}
	core.Snapshots = snapRepo

	redisClient, err := redisdb.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		core.Close()
		return nil, err
	}
	core.Redis = redisClient

	cache, err := redisdb.NewCache(redisClient, logger)
	if err != nil {
		core.Close()
		return nil, err
	}
	core.Cache = cache

	if err := core.buildKeywordPipeline(logger); err != nil {
		core.Close()
		return nil, err
	}

	if err := core.buildReportStore(ctx, logger); err != nil {
		core.Close()
		return nil, err
	}

	if err := core.buildOrchestrator(logger); err != nil {
		core.Close()
		return nil, err
	}

	return core, nil
}

func (c *Core) buildKeywordPipeline(logger logging.Logger) error {
	dfs := c.Config.Providers.DataForSEO
	if dfs.Login == "" || dfs.Password == "" {
		logger.Warn("dataforseo credentials not configured, keyword collection disabled")
		return nil
	}

	client, err := dataforseo.NewClient(dataforseo.ClientConfig{
		Config:   dfs,
		Location: c.Config.Location,
		Cache:    c.Cache,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	c.Keywords = client

	collector, err := collection.NewService(collection.ServiceConfig{
		Source: client,
		Intent: client,
		Repo:   c.Snapshots,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	c.Collector = collector
	return nil
}

func (c *Core) buildReportStore(ctx context.Context, logger logging.Logger) error {
	if c.Config.MinIO.Endpoint == "" {
		logger.Warn("minio endpoint not configured, report artifacts disabled")
		return nil
	}

	client, err := miniostore.NewClient(ctx, c.Config.MinIO, logger)
	if err != nil {
		return err
	}
	c.MinIO = client

	store, err := miniostore.NewReportStore(client, logger)
	if err != nil {
		return err
	}
	c.Reports = store
	return nil
}

func (c *Core) buildOrchestrator(logger logging.Logger) error {
	engine, err := analysis.NewService(analysis.ServiceConfig{
		Gaps:     gapOptions(c.Config.Analysis),
		Scoring:  scoringPolicy(c.Config.Analysis),
		Capacity: roadmapCapacity(c.Config.Analysis.Roadmap),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	assembler, err := reporting.NewAssembler(reporting.AssemblerConfig{Logger: logger})
	if err != nil {
		return err
	}
	renderer, err := reporting.NewHTMLRenderer(reporting.RendererConfig{Logger: logger})
	if err != nil {
		return err
	}

	orchCfg := runs.OrchestratorConfig{
		Runs:       c.Runs,
		Snapshots:  c.Snapshots,
		Engine:     engine,
		Assembler:  assembler,
		Renderer:   renderer,
		TargetName: c.Config.Target.Name,
		Logger:     logger,
	}
	if c.Reports != nil {
		orchCfg.Artifacts = c.Reports
	}

	if perf, err := newPerformanceAuditor(c.Config, logger); err != nil {
		return err
	} else if perf != nil {
		orchCfg.Performance = perf
	}
	if geoAud, err := newGEOAuditor(c.Config, logger); err != nil {
		return err
	} else if geoAud != nil {
		orchCfg.GEO = geoAud
	}
	if sig, err := newSignalsAuditor(c.Config, logger); err != nil {
		return err
	} else if sig != nil {
		orchCfg.Signals = sig
	}
	if traffic, err := newTrafficAuditor(c.Config, logger); err != nil {
		return err
	} else if traffic != nil {
		orchCfg.Traffic = traffic
	}

	if c.Config.Report.ExportDir != "" {
		exporter, err := reporting.NewCSVExporter(reporting.CSVExporterConfig{
			Dir:    c.Config.Report.ExportDir,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		orchCfg.Exports = exporter
	}

	orch, err := runs.NewOrchestrator(orchCfg)
	if err != nil {
		return err
	}
	c.Orchestrator = orch
	return nil
}

// HealthChecks returns readiness probes for the wired backing services.
func (c *Core) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"postgres": c.Postgres.HealthCheck,
		"redis":    c.Redis.HealthCheck,
	}
	if c.MinIO != nil {
		checks["minio"] = c.MinIO.HealthCheck
	}
	return checks
}

// Close releases all connections.  Safe on a partially built Core.
func (c *Core) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}

func gapOptions(cfg config.AnalysisConfig) analysis.GapOptions {
	opts := analysis.DefaultGapOptions()
	if cfg.StrikingDistance > 0 {
		opts.StrikingDistance = cfg.StrikingDistance
	}
	// Negative passes through as the no-cap sentinel; only zero keeps the
	// default.
	if cfg.MaxGapCandidates != 0 {
		opts.MaxCandidates = cfg.MaxGapCandidates
	}
	return opts
}

func scoringPolicy(cfg config.AnalysisConfig) analysis.ScoringPolicy {
	policy := analysis.DefaultScoringPolicy()
	if cfg.VolumeCeiling > 0 {
		policy.VolumeCeiling = cfg.VolumeCeiling
	}
	if cfg.Weights.Volume+cfg.Weights.Attainability+cfg.Weights.Commercial > 0 {
		policy.VolumeWeight = cfg.Weights.Volume
		policy.AttainabilityWeight = cfg.Weights.Attainability
		policy.CommercialWeight = cfg.Weights.Commercial
	}
	return policy
}

func roadmapCapacity(cfg config.RoadmapCapacityConfig) analysis.RoadmapCapacity {
	out := analysis.DefaultRoadmapCapacity()
	if cfg.Day30 > 0 {
		out.Day30 = cfg.Day30
	}
	if cfg.Day60 > 0 {
		out.Day60 = cfg.Day60
	}
	if cfg.Day90 > 0 {
		out.Day90 = cfg.Day90
	}
	return out
}

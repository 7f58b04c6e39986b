// Package config provides configuration loading, defaults, and validation for
// RankScope.
package config

import "time"

// Default value constants.  The analysis defaults are part of the engine's
// documented contract and also serve callers that construct an
// AnalysisConfig programmatically.
const (
	DefaultVolumeCeiling    = 10000
	DefaultStrikingDistance = 10
	DefaultMaxGapCandidates = 100

	DefaultWeightVolume        = 0.40
	DefaultWeightAttainability = 0.35
	DefaultWeightCommercial    = 0.25

	DefaultRoadmapDay30 = 10
	DefaultRoadmapDay60 = 15
	DefaultRoadmapDay90 = 20

	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "rankscope"
	DefaultDBSSLMode  = "disable"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 24 * time.Hour
	DefaultRedisKeyPrefix = "rankscope:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "rankscope-workers"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "rankscope-reports"

	DefaultDataForSEOBaseURL = "https://api.dataforseo.com/v3"
	DefaultPageSpeedBaseURL  = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	DefaultGSCBaseURL        = "https://searchconsole.googleapis.com/webmasters/v3"
	DefaultGA4BaseURL        = "https://analyticsdata.googleapis.com/v1beta"
	DefaultGSCDays           = 90
	DefaultGA4Days           = 30
	DefaultProviderTimeout   = 60 * time.Second
	DefaultRequestDelay      = 3 * time.Second
	DefaultRankedLimit       = 1000

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultScoringWeights returns the documented default weighting.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Volume:        DefaultWeightVolume,
		Attainability: DefaultWeightAttainability,
		Commercial:    DefaultWeightCommercial,
	}
}

// DefaultAnalysisConfig returns a fully-populated AnalysisConfig, used by
// ApplyDefaults and by tests that exercise the engine directly.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		VolumeCeiling:    DefaultVolumeCeiling,
		StrikingDistance: DefaultStrikingDistance,
		MaxGapCandidates: DefaultMaxGapCandidates,
		Weights:          DefaultScoringWeights(),
		Roadmap: RoadmapCapacityConfig{
			Day30: DefaultRoadmapDay30,
			Day60: DefaultRoadmapDay60,
			Day90: DefaultRoadmapDay90,
		},
	}
}

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Analysis
	if cfg.Analysis.VolumeCeiling == 0 {
		cfg.Analysis.VolumeCeiling = DefaultVolumeCeiling
	}
	if cfg.Analysis.StrikingDistance == 0 {
		cfg.Analysis.StrikingDistance = DefaultStrikingDistance
	}
	if cfg.Analysis.MaxGapCandidates == 0 {
		cfg.Analysis.MaxGapCandidates = DefaultMaxGapCandidates
	}
	w := &cfg.Analysis.Weights
	if w.Volume == 0 && w.Attainability == 0 && w.Commercial == 0 {
		*w = DefaultScoringWeights()
	}
	r := &cfg.Analysis.Roadmap
	if r.Day30 == 0 {
		r.Day30 = DefaultRoadmapDay30
	}
	if r.Day60 == 0 {
		r.Day60 = DefaultRoadmapDay60
	}
	if r.Day90 == 0 {
		r.Day90 = DefaultRoadmapDay90
	}

	// Providers
	if cfg.Providers.DataForSEO.BaseURL == "" {
		cfg.Providers.DataForSEO.BaseURL = DefaultDataForSEOBaseURL
	}
	if cfg.Providers.DataForSEO.Timeout == 0 {
		cfg.Providers.DataForSEO.Timeout = DefaultProviderTimeout
	}
	if cfg.Providers.DataForSEO.RequestDelay == 0 {
		cfg.Providers.DataForSEO.RequestDelay = DefaultRequestDelay
	}
	if cfg.Providers.DataForSEO.RankedLimit == 0 {
		cfg.Providers.DataForSEO.RankedLimit = DefaultRankedLimit
	}
	if cfg.Providers.PageSpeed.BaseURL == "" {
		cfg.Providers.PageSpeed.BaseURL = DefaultPageSpeedBaseURL
	}
	if cfg.Providers.PageSpeed.Timeout == 0 {
		cfg.Providers.PageSpeed.Timeout = DefaultProviderTimeout
	}
	if cfg.Providers.PageSpeed.RequestDelay == 0 {
		cfg.Providers.PageSpeed.RequestDelay = DefaultRequestDelay
	}
	if cfg.Providers.Google.GSCBaseURL == "" {
		cfg.Providers.Google.GSCBaseURL = DefaultGSCBaseURL
	}
	if cfg.Providers.Google.GA4BaseURL == "" {
		cfg.Providers.Google.GA4BaseURL = DefaultGA4BaseURL
	}
	if cfg.Providers.Google.GSCDays == 0 {
		cfg.Providers.Google.GSCDays = DefaultGSCDays
	}
	if cfg.Providers.Google.GA4Days == 0 {
		cfg.Providers.Google.GA4Days = DefaultGA4Days
	}
	if cfg.Providers.Google.Timeout == 0 {
		cfg.Providers.Google.Timeout = DefaultProviderTimeout
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "rankscope"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// MinIO
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = 7 * 24 * time.Hour
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

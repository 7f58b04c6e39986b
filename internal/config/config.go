// Package config defines all configuration structures for RankScope.
// No I/O or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// TargetConfig identifies the brand under analysis.
type TargetConfig struct {
	Domain   string `mapstructure:"domain"`
	Name     string `mapstructure:"name"`
	Industry string `mapstructure:"industry"`
}

// CompetitorConfig identifies one competitor domain.
type CompetitorConfig struct {
	Domain string `mapstructure:"domain"`
	Name   string `mapstructure:"name"`
}

// LocationConfig holds the search market the keyword data is collected for.
type LocationConfig struct {
	Country      string `mapstructure:"country"`
	LanguageCode string `mapstructure:"language_code"`
}

// ScoringWeights are the opportunity-score component weights.  They are a
// tunable policy, not constants; alternative weightings substitute without
// touching gap or categorization logic.
type ScoringWeights struct {
	Volume        float64 `mapstructure:"volume"`
	Attainability float64 `mapstructure:"attainability"`
	Commercial    float64 `mapstructure:"commercial"`
}

// RoadmapCapacityConfig bounds each roadmap window.
type RoadmapCapacityConfig struct {
	Day30 int `mapstructure:"day_30"`
	Day60 int `mapstructure:"day_60"`
	Day90 int `mapstructure:"day_90"`
}

// AnalysisConfig holds the gap engine tunables.
type AnalysisConfig struct {
	// VolumeCeiling is the search volume at which the volume sub-score
	// saturates at 1.0.
	VolumeCeiling int `mapstructure:"volume_ceiling"`

	// StrikingDistance is the rank-position margin beyond which a keyword the
	// target already ranks for still counts as a gap.
	StrikingDistance int `mapstructure:"striking_distance"`

	// MaxGapCandidates caps the number of deduplicated gap candidates carried
	// into scoring, selected by search volume.  Zero keeps the engine default;
	// a negative value removes the cap.
	MaxGapCandidates int `mapstructure:"max_gap_candidates"`

	Weights ScoringWeights        `mapstructure:"weights"`
	Roadmap RoadmapCapacityConfig `mapstructure:"roadmap"`
}

// DataForSEOConfig holds keyword data provider credentials and tunables.
type DataForSEOConfig struct {
	Login        string        `mapstructure:"login"`
	Password     string        `mapstructure:"password"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	// RankedLimit is the maximum ranked keywords requested per domain.
	RankedLimit int `mapstructure:"ranked_limit"`
}

// PageSpeedConfig holds performance-audit provider parameters.
type PageSpeedConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
}

// GoogleConfig holds Search Console / GA4 ingestion parameters.  The client
// authenticates with a pre-provisioned OAuth refresh token; all three
// credential fields must be set for the integration to activate.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`

	// GSCProperty overrides the Search Console property; when empty the
	// client probes the standard variants derived from the target domain.
	GSCProperty string `mapstructure:"gsc_property"`

	// GA4PropertyID is the numeric Analytics property; empty skips GA4.
	GA4PropertyID string `mapstructure:"ga4_property_id"`

	GSCBaseURL string `mapstructure:"gsc_base_url"`
	GA4BaseURL string `mapstructure:"ga4_base_url"`

	// GSCDays and GA4Days are the reporting windows.
	GSCDays int `mapstructure:"gsc_days"`
	GA4Days int `mapstructure:"ga4_days"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// ProvidersConfig groups all external data providers.
type ProvidersConfig struct {
	DataForSEO DataForSEOConfig `mapstructure:"dataforseo"`
	PageSpeed  PageSpeedConfig  `mapstructure:"pagespeed"`
	Google     GoogleConfig     `mapstructure:"google"`
}

// AuditPageConfig names one page included in the performance and GEO audits.
type AuditPageConfig struct {
	Type string `mapstructure:"type"` // "homepage" | "product" | "collection" | "blog"
	URL  string `mapstructure:"url"`
}

// AuditConfig holds the audited page set and sitemap location.
type AuditConfig struct {
	SitemapURL string            `mapstructure:"sitemap_url"`
	Pages      []AuditPageConfig `mapstructure:"pages"`
}

// ReportConfig holds report delivery tunables beyond object storage.
type ReportConfig struct {
	// ExportDir, when set, receives CSV exports of each run's opportunity
	// list and roadmap alongside the stored HTML report.
	ExportDir string `mapstructure:"export_dir"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis cache connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
}

// MinIOConfig holds S3-compatible object-storage parameters for rendered
// report artifacts.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// Config is the root configuration structure for RankScope.  Every
// infrastructure component and application service reads its settings from
// the relevant sub-struct.
type Config struct {
	Target      TargetConfig       `mapstructure:"target"`
	Competitors []CompetitorConfig `mapstructure:"competitors"`
	Location    LocationConfig     `mapstructure:"location"`
	Analysis    AnalysisConfig     `mapstructure:"analysis"`
	Providers   ProvidersConfig    `mapstructure:"providers"`
	Audit       AuditConfig        `mapstructure:"audit"`
	Report      ReportConfig       `mapstructure:"report"`
	Server      ServerConfig       `mapstructure:"server"`
	Database    DatabaseConfig     `mapstructure:"database"`
	Redis       RedisConfig        `mapstructure:"redis"`
	Kafka       KafkaConfig        `mapstructure:"kafka"`
	MinIO       MinIOConfig        `mapstructure:"minio"`
	Log         LogConfig          `mapstructure:"log"`
}

// CompetitorDomains returns the configured competitor domains in declaration
// order.
func (c *Config) CompetitorDomains() []string {
	out := make([]string, 0, len(c.Competitors))
	for _, comp := range c.Competitors {
		out = append(out, comp.Domain)
	}
	return out
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Target.Domain == "" {
		return fmt.Errorf("config: target.domain is required")
	}
	if c.Target.Name == "" {
		return fmt.Errorf("config: target.name is required")
	}
	if len(c.Competitors) == 0 {
		return fmt.Errorf("config: at least one competitor must be configured")
	}
	for i, comp := range c.Competitors {
		if comp.Domain == "" {
			return fmt.Errorf("config: competitors[%d].domain is required", i)
		}
	}
	if c.Location.Country == "" {
		return fmt.Errorf("config: location.country is required")
	}
	if c.Location.LanguageCode == "" {
		return fmt.Errorf("config: location.language_code is required")
	}

	// Analysis
	if c.Analysis.VolumeCeiling < 1 {
		return fmt.Errorf("config: analysis.volume_ceiling must be >= 1, got %d", c.Analysis.VolumeCeiling)
	}
	if c.Analysis.StrikingDistance < 0 {
		return fmt.Errorf("config: analysis.striking_distance must be >= 0, got %d", c.Analysis.StrikingDistance)
	}
	w := c.Analysis.Weights
	if w.Volume < 0 || w.Attainability < 0 || w.Commercial < 0 {
		return fmt.Errorf("config: analysis.weights must be non-negative")
	}
	if w.Volume+w.Attainability+w.Commercial <= 0 {
		return fmt.Errorf("config: analysis.weights must not all be zero")
	}
	r := c.Analysis.Roadmap
	if r.Day30 < 1 || r.Day60 < 1 || r.Day90 < 1 {
		return fmt.Errorf("config: analysis.roadmap capacities must be >= 1")
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// MinIO
	if c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required")
	}
	if c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

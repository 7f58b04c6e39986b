package config

import (
	"strings"
	"testing"
)

// validConfig returns a Config that passes Validate, for mutation testing.
func validConfig() *Config {
	cfg := &Config{
		Target: TargetConfig{Domain: "unleashwellness.co", Name: "Unleash Wellness", Industry: "Pet wellness"},
		Competitors: []CompetitorConfig{
			{Domain: "competitor-a.com", Name: "Competitor A"},
			{Domain: "competitor-b.com", Name: "Competitor B"},
		},
		Location: LocationConfig{Country: "United States", LanguageCode: "en"},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantFrag string
	}{
		{"missing target domain", func(c *Config) { c.Target.Domain = "" }, "target.domain"},
		{"missing target name", func(c *Config) { c.Target.Name = "" }, "target.name"},
		{"zero competitors", func(c *Config) { c.Competitors = nil }, "competitor"},
		{"competitor without domain", func(c *Config) { c.Competitors[1].Domain = "" }, "competitors[1]"},
		{"missing country", func(c *Config) { c.Location.Country = "" }, "location.country"},
		{"zero volume ceiling", func(c *Config) { c.Analysis.VolumeCeiling = -5 }, "volume_ceiling"},
		{"negative striking distance", func(c *Config) { c.Analysis.StrikingDistance = -1 }, "striking_distance"},
		{"negative weight", func(c *Config) { c.Analysis.Weights.Volume = -0.1 }, "weights"},
		{"all-zero weights", func(c *Config) { c.Analysis.Weights = ScoringWeights{} }, "weights"},
		{"zero roadmap capacity", func(c *Config) { c.Analysis.Roadmap.Day30 = 0 }, "roadmap"},
		{"bad server port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad server mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"missing redis addr", func(c *Config) { c.Redis.Addr = "" }, "redis.addr"},
		{"no kafka brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"missing minio bucket", func(c *Config) { c.MinIO.Bucket = "" }, "minio.bucket"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "text" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantFrag) {
				t.Errorf("error %q does not mention %q", err, tt.wantFrag)
			}
		})
	}
}

func TestCompetitorDomains_Order(t *testing.T) {
	cfg := validConfig()
	got := cfg.CompetitorDomains()
	if len(got) != 2 || got[0] != "competitor-a.com" || got[1] != "competitor-b.com" {
		t.Errorf("unexpected domains %v", got)
	}
}

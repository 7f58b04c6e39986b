// Package cli implements the rankscope command tree.  Heavy collaborators
// (database, providers, object storage) are built lazily through a DepsBuilder
// once the configuration is loaded, so `--help` and flag errors never open
// connections.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rankscope/rankscope/internal/application/collection"
	"github.com/rankscope/rankscope/internal/application/runs"
	"github.com/rankscope/rankscope/internal/config"
	kwdomain "github.com/rankscope/rankscope/internal/domain/keyword"
	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ReportLinker hands out download links for stored report artifacts.
type ReportLinker interface {
	PresignDownload(ctx context.Context, objectKey string) (string, error)
}

// Deps aggregates everything the subcommands need.
type Deps struct {
	Config       *config.Config
	Logger       logging.Logger
	Collector    collection.Service
	Orchestrator *runs.Orchestrator
	Runs         run.Repository
	Snapshots    kwdomain.SnapshotRepository
	Reports      ReportLinker

	// Close releases connections when the command finishes.  May be nil.
	Close func()
}

// DepsBuilder constructs the command dependencies from loaded configuration.
type DepsBuilder func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Deps, error)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Verbose    bool
}

type depsContextKey struct{}

// NewRootCommand creates the root command and mounts the subcommands.
func NewRootCommand(build DepsBuilder) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "rankscope",
		Short:   "RankScope — keyword gap and opportunity scoring for competitive SEO",
		Long:    "RankScope collects ranked-keyword inventories for a target brand and its\ncompetitors, computes keyword gaps, scores opportunities, and builds a\n30/60/90-day action roadmap.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initDeps(cmd, opts, build)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if deps, err := depsFrom(cmd); err == nil && deps.Close != nil {
				deps.Close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./rankscope.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newCollectCmd(),
		newAnalyzeCmd(),
		newReportCmd(),
		newStatusCmd(),
	)
	return cmd
}

func initDeps(cmd *cobra.Command, opts *RootOptions, build DepsBuilder) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:       level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	deps, err := build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	deps.Config = cfg
	deps.Logger = logger

	cmd.SetContext(context.WithValue(cmd.Context(), depsContextKey{}, deps))
	return nil
}

func loadConfig(explicit string) (*config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}

	searchPaths := []string{"./rankscope.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".rankscope", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/rankscope/config.yaml")

	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

func depsFrom(cmd *cobra.Command) (*Deps, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.NewValidation("command context is nil")
	}
	deps, ok := ctx.Value(depsContextKey{}).(*Deps)
	if !ok || deps == nil {
		return nil, errors.NewValidation("command dependencies not initialized")
	}
	return deps, nil
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

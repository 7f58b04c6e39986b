// Command rankscope is the RankScope CLI: collect ranked keywords, run the
// gap analysis, and fetch report links from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rankscope/rankscope/internal/app"
	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/internal/interfaces/cli"
)

func main() {
	root := cli.NewRootCommand(buildDeps)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, logger logging.Logger) (*cli.Deps, error) {
	core, err := app.Build(ctx, cfg, logger, app.Options{Migrate: true})
	if err != nil {
		return nil, err
	}

	deps := &cli.Deps{
		Config:       cfg,
		Logger:       logger,
		Collector:    core.Collector,
		Orchestrator: core.Orchestrator,
		Runs:         core.Runs,
		Snapshots:    core.Snapshots,
		Close:        core.Close,
	}
	if core.Reports != nil {
		deps.Reports = core.Reports
	}
	return deps, nil
}

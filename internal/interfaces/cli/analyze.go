package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rankscope/rankscope/pkg/errors"
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run a keyword gap analysis over the latest snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFrom(cmd)
			if err != nil {
				return err
			}
			if deps.Orchestrator == nil {
				return errors.NewValidation("analysis orchestrator is not configured")
			}

			cfg := deps.Config
			r, err := deps.Orchestrator.Request(cmd.Context(), cfg.Target.Domain, cfg.CompetitorDomains(), time.Now().UTC())
			if err != nil {
				return err
			}

			done, err := deps.Orchestrator.Execute(cmd.Context(), r.ID)
			if err != nil {
				return err
			}
			return printJSON(cmd, done)
		},
	}
}

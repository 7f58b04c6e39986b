package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rankscope/rankscope/internal/application/collection"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Collect ranked-keyword snapshots for the target and all competitors",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFrom(cmd)
			if err != nil {
				return err
			}
			if deps.Collector == nil {
				return errors.NewValidation("collection service is not configured")
			}

			result, err := deps.Collector.Collect(cmd.Context(), collection.CollectRequest{
				TargetDomain: deps.Config.Target.Domain,
				Competitors:  deps.Config.CompetitorDomains(),
				CollectedAt:  time.Now().UTC(),
			})
			if err != nil {
				return err
			}

			deps.Logger.Info("collection finished",
				logging.Int("domains", len(result.Results)),
				logging.Int("failed", result.Failed),
			)
			return printJSON(cmd, result)
		},
	}
}

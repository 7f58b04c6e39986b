package cli

import (
	"github.com/spf13/cobra"

	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

func newReportCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the report location for a completed analysis run",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFrom(cmd)
			if err != nil {
				return err
			}
			if deps.Runs == nil {
				return errors.NewValidation("run repository is not configured")
			}
			if runID == "" {
				return errors.NewValidation("--run-id is required")
			}

			r, err := deps.Runs.GetByID(cmd.Context(), common.ID(runID))
			if err != nil {
				return err
			}
			if r.Status != run.StatusCompleted {
				return errors.Newf(errors.ErrCodeConflict, "run %s is %s, not completed", runID, r.Status)
			}
			if r.ReportObjectKey == "" {
				return errors.Newf(errors.ErrCodeReportNotFound, "run %s has no stored report", runID)
			}

			out := map[string]string{
				"run_id":            r.ID.String(),
				"report_object_key": r.ReportObjectKey,
			}
			if deps.Reports != nil {
				link, err := deps.Reports.PresignDownload(cmd.Context(), r.ReportObjectKey)
				if err != nil {
					return err
				}
				out["download_url"] = link
			}
			return printJSON(cmd, out)
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "analysis run ID")
	return cmd
}

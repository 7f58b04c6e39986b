package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

type domainStatus struct {
	Domain      string     `json:"domain"`
	HasSnapshot bool       `json:"has_snapshot"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	Keywords    int        `json:"keywords,omitempty"`
}

type statusReport struct {
	Target      string         `json:"target"`
	Domains     []domainStatus `json:"domains"`
	RecentRuns  interface{}    `json:"recent_runs"`
	ReadyForRun bool           `json:"ready_for_run"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show data availability for the configured domains and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFrom(cmd)
			if err != nil {
				return err
			}
			if deps.Snapshots == nil || deps.Runs == nil {
				return errors.NewValidation("storage is not configured")
			}

			cfg := deps.Config
			domains := append([]string{cfg.Target.Domain}, cfg.CompetitorDomains()...)

			report := statusReport{Target: cfg.Target.Domain}
			competitorsReady := 0
			for _, domain := range domains {
				ds := domainStatus{Domain: domain}
				snap, err := deps.Snapshots.GetLatest(cmd.Context(), domain)
				if err == nil {
					ds.HasSnapshot = true
					collectedAt := snap.CollectedAt
					ds.CollectedAt = &collectedAt
					ds.Keywords = len(snap.Records)
					if domain != cfg.Target.Domain {
						competitorsReady++
					}
				} else if !errors.IsNotFound(err) {
					return err
				}
				report.Domains = append(report.Domains, ds)
			}
			report.ReadyForRun = report.Domains[0].HasSnapshot && competitorsReady > 0

			recent, _, err := deps.Runs.List(cmd.Context(), common.Pagination{Page: 1, PageSize: 5})
			if err != nil {
				return err
			}
			report.RecentRuns = recent

			return printJSON(cmd, report)
		},
	}
}

package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// CSVExporter writes a run's opportunity list and roadmap as CSV files so
// the numbers can travel into spreadsheets without the HTML report.
type CSVExporter struct {
	dir    string
	logger logging.Logger
}

// CSVExporterConfig holds configuration for constructing the exporter.
type CSVExporterConfig struct {
	// Dir receives the export files; created on first export.
	Dir    string
	Logger logging.Logger
}

// NewCSVExporter constructs a CSVExporter.
func NewCSVExporter(cfg CSVExporterConfig) (*CSVExporter, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("CSVExporter requires Logger")
	}
	if cfg.Dir == "" {
		return nil, errors.NewValidation("CSVExporter requires a directory")
	}
	return &CSVExporter{dir: cfg.Dir, logger: cfg.Logger}, nil
}

// Export writes the opportunity and roadmap CSVs for one report into a
// per-run subdirectory and returns the written paths.
func (e *CSVExporter) Export(data *ReportData) ([]string, error) {
	if data == nil {
		return nil, errors.NewValidation("export requires report data")
	}

	runDir := filepath.Join(e.dir, data.RunID.String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create export directory")
	}

	paths := make([]string, 0, 2)
	for _, file := range []struct {
		name  string
		write func(w io.Writer, data *ReportData) error
	}{
		{"opportunities.csv", writeOpportunitiesCSV},
		{"roadmap.csv", writeRoadmapCSV},
	} {
		path := filepath.Join(runDir, file.name)
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to create %s", file.name)
		}
		err = file.write(f, data)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to write %s", file.name)
		}
		paths = append(paths, path)
	}

	e.logger.Info("report data exported",
		logging.String("run_id", data.RunID.String()),
		logging.Int("files", len(paths)),
	)
	return paths, nil
}

func writeOpportunitiesCSV(w io.Writer, data *ReportData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"keyword", "score", "category", "search_volume", "difficulty", "cpc",
		"intent", "target_rank", "best_competitor", "best_competitor_rank", "rationale",
	}); err != nil {
		return err
	}

	for _, opp := range data.Opportunities {
		targetRank := ""
		if opp.TargetHasIt {
			targetRank = strconv.Itoa(opp.TargetRank)
		}
		record := []string{
			opp.Keyword,
			fmt.Sprintf("%.2f", opp.Score),
			string(opp.Category),
			strconv.Itoa(opp.SearchVolume),
			fmt.Sprintf("%.1f", opp.Difficulty),
			fmt.Sprintf("%.2f", opp.CPC),
			string(opp.Intent),
			targetRank,
			opp.BestCompetitorDomain,
			strconv.Itoa(opp.BestCompetitorRank),
			strings.Join(opp.RationaleTags, "|"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeRoadmapCSV(w io.Writer, data *ReportData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"window", "rank_in_window", "keyword", "score", "category"}); err != nil {
		return err
	}

	for _, slot := range data.Roadmap {
		for i, opp := range slot.Opportunities {
			record := []string{
				string(slot.Window),
				strconv.Itoa(i + 1),
				opp.Keyword,
				fmt.Sprintf("%.2f", opp.Score),
				string(opp.Category),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

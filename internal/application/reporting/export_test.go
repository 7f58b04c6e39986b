package reporting

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
)

func TestCSVExporter_WritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	exporter, err := NewCSVExporter(CSVExporterConfig{Dir: dir, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("NewCSVExporter: %v", err)
	}

	asm, _ := NewAssembler(AssemblerConfig{Logger: logging.NewNop()})
	data, err := asm.Assemble(context.Background(), &AssembleRequest{
		Result:      sampleResult(),
		Competitors: []string{"rival.com", "other.com"},
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	paths, err := exporter.Export(data)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d files, want 2", len(paths))
	}
	for _, p := range paths {
		if !strings.Contains(p, data.RunID.String()) {
			t.Errorf("export path %q not under the run directory", p)
		}
	}

	opps := readCSV(t, filepath.Join(dir, data.RunID.String(), "opportunities.csv"))
	if len(opps) != 3 {
		t.Fatalf("opportunities.csv has %d rows, want header + 2", len(opps))
	}
	if opps[0][0] != "keyword" {
		t.Errorf("header row wrong: %v", opps[0])
	}
	if opps[1][0] != "running shoes for trail" || opps[1][1] != "60.85" {
		t.Errorf("first opportunity row wrong: %v", opps[1])
	}
	if opps[1][7] != "" {
		t.Errorf("target rank should be empty for an unranked target, got %q", opps[1][7])
	}

	roadmap := readCSV(t, filepath.Join(dir, data.RunID.String(), "roadmap.csv"))
	if len(roadmap) < 2 {
		t.Fatalf("roadmap.csv has %d rows, want header plus slots", len(roadmap))
	}
	if roadmap[1][1] != "1" {
		t.Errorf("window ranks should start at 1, got %q", roadmap[1][1])
	}
}

func TestCSVExporter_Validation(t *testing.T) {
	if _, err := NewCSVExporter(CSVExporterConfig{Dir: t.TempDir()}); err == nil {
		t.Error("expected error for missing logger")
	}
	if _, err := NewCSVExporter(CSVExporterConfig{Logger: logging.NewNop()}); err == nil {
		t.Error("expected error for missing directory")
	}

	exporter, _ := NewCSVExporter(CSVExporterConfig{Dir: t.TempDir(), Logger: logging.NewNop()})
	if _, err := exporter.Export(nil); err == nil {
		t.Error("expected error for nil report data")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

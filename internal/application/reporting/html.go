package reporting

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/rankscope/rankscope/internal/application/analysis"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// Renderer turns assembled report data into a delivery format.
type Renderer interface {
	// RenderHTML writes the HTML report for data to w.
	RenderHTML(ctx context.Context, data *ReportData, w io.Writer) error
}

type htmlRenderer struct {
	tmpl   *template.Template
	logger logging.Logger
}

// RendererConfig holds configuration for constructing the HTML renderer.
type RendererConfig struct {
	Logger logging.Logger
}

// NewHTMLRenderer constructs a Renderer backed by the built-in template.
func NewHTMLRenderer(cfg RendererConfig) (Renderer, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("HTML Renderer requires Logger")
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"categoryLabel": categoryLabel,
		"windowLabel":   windowLabel,
		"rankLabel":     rankLabel,
	}).Parse(reportTemplate)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to parse report template")
	}

	return &htmlRenderer{tmpl: tmpl, logger: cfg.Logger}, nil
}

// RenderHTML writes the HTML report for data to w.
func (r *htmlRenderer) RenderHTML(ctx context.Context, data *ReportData, w io.Writer) error {
	if data == nil {
		return errors.NewValidation("report data must not be nil")
	}

	if err := r.tmpl.Execute(w, data); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to render report")
	}

	r.logger.Info("report rendered",
		logging.String("run_id", data.RunID.String()),
		logging.String("target", data.TargetDomain),
	)
	return nil
}

// categoryLabel maps a category to its display name.
func categoryLabel(c analysis.Category) string {
	switch c {
	case analysis.CategoryQuickWin:
		return "Quick Win"
	case analysis.CategoryProductGap:
		return "Product Gap"
	case analysis.CategoryContentGap:
		return "Content Gap"
	case analysis.CategoryHighOpportunity:
		return "High Opportunity"
	case analysis.CategoryLowPriority:
		return "Low Priority"
	default:
		return strings.ReplaceAll(string(c), "_", " ")
	}
}

// windowLabel maps a roadmap window to its display name.
func windowLabel(w analysis.Window) string {
	switch w {
	case analysis.WindowDay30:
		return "First 30 Days"
	case analysis.WindowDay60:
		return "Days 31-60"
	case analysis.WindowDay90:
		return "Days 61-90"
	default:
		return string(w)
	}
}

// rankLabel renders a rank position, with 0 meaning not ranked.
func rankLabel(pos int) string {
	if pos <= 0 {
		return "—"
	}
	return fmt.Sprintf("#%d", pos)
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Keyword Opportunity Report — {{.TargetDomain}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2933; }
h1, h2 { color: #102a43; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #d9e2ec; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f0f4f8; }
.badge { display: inline-block; padding: 0.1rem 0.5rem; border-radius: 0.75rem; background: #e0e8f0; font-size: 0.85em; }
.summary { display: flex; gap: 2rem; flex-wrap: wrap; }
.summary div { background: #f0f4f8; padding: 0.75rem 1.25rem; border-radius: 0.5rem; }
</style>
</head>
<body>
<h1>Keyword Opportunity Report</h1>
<p>
Target: <strong>{{if .TargetName}}{{.TargetName}} ({{.TargetDomain}}){{else}}{{.TargetDomain}}{{end}}</strong><br>
Competitors: {{range $i, $c := .Competitors}}{{if $i}}, {{end}}{{$c}}{{end}}<br>
Generated: {{.GeneratedAt.Format "2006-01-02 15:04 UTC"}}
</p>

{{if .NoGapsFound}}
<p><strong>No keyword gaps found.</strong> The target currently covers every keyword its competitors rank for.</p>
{{else}}
<h2>Summary</h2>
<div class="summary">
{{range $cat, $count := .CategoryCounts}}
<div><strong>{{$count}}</strong> {{categoryLabel $cat}}</div>
{{end}}
</div>

<h2>30 / 60 / 90 Day Roadmap</h2>
{{range .Roadmap}}
<h3>{{windowLabel .Window}}</h3>
{{if .Opportunities}}
<table>
<tr><th>Keyword</th><th>Score</th><th>Category</th><th>Volume</th><th>Difficulty</th><th>Best Competitor</th></tr>
{{range .Opportunities}}
<tr>
<td>{{.Keyword}}</td>
<td>{{printf "%.2f" .Score}}</td>
<td><span class="badge">{{categoryLabel .Category}}</span></td>
<td>{{.SearchVolume}}</td>
<td>{{printf "%.0f" .Difficulty}}</td>
<td>{{.BestCompetitorDomain}} ({{rankLabel .BestCompetitorRank}})</td>
</tr>
{{end}}
</table>
{{else}}
<p>No opportunities scheduled for this window.</p>
{{end}}
{{end}}

<h2>All Opportunities</h2>
<table>
<tr><th>#</th><th>Keyword</th><th>Score</th><th>Category</th><th>Intent</th><th>Volume</th><th>CPC</th><th>Your Rank</th><th>Best Competitor</th></tr>
{{range $i, $o := .Opportunities}}
<tr>
<td>{{$i}}</td>
<td>{{$o.Keyword}}</td>
<td>{{printf "%.2f" $o.Score}}</td>
<td>{{categoryLabel $o.Category}}</td>
<td>{{$o.Intent}}</td>
<td>{{$o.SearchVolume}}</td>
<td>{{printf "%.2f" $o.CPC}}</td>
<td>{{rankLabel $o.TargetRank}}</td>
<td>{{$o.BestCompetitorDomain}} ({{rankLabel $o.BestCompetitorRank}})</td>
</tr>
{{end}}
</table>
{{end}}

{{if .EmptyCompetitors}}
<p><em>Competitors with no keyword data this run: {{range $i, $c := .EmptyCompetitors}}{{if $i}}, {{end}}{{$c}}{{end}}.</em></p>
{{end}}
</body>
</html>
`

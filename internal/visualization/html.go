package visualization

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/nvandessel/schedsim/internal/aadrr"
	"github.com/nvandessel/schedsim/internal/compare"
	"github.com/nvandessel/schedsim/internal/metrics"
	"github.com/nvandessel/schedsim/internal/models"
	"github.com/nvandessel/schedsim/internal/report"
)

// Report is everything the HTML page and the JSON endpoint show.
type Report struct {
	Title      string              `json:"title"`
	Source     string              `json:"source"`
	Result     *aadrr.Result       `json:"result"`
	Summary    metrics.Summary     `json:"summary"`
	Comparison *compare.Comparison `json:"comparison,omitempty"`
	Best       compare.Best        `json:"best"`
	Labels     report.Labels       `json:"-"`
}

// htmlTemplateData holds data passed to the page template.
// GanttSVG and ComparisonSVG are generated here with every label escaped.
type htmlTemplateData struct {
	Report
	GanttSVG      template.HTML
	ComparisonSVG template.HTML
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th { background: #f0f0f0; }
td:first-child, th:first-child { text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Source}}<p>{{.Source}}</p>{{end}}

<h2>{{.Labels.Timeline}}</h2>
{{.GanttSVG}}

<h2>{{.Labels.Metrics}}</h2>
<table>
<tr><th>{{.Labels.Process}}</th><th>{{.Labels.Arrival}}</th><th>{{.Labels.Burst}}</th><th>{{.Labels.Completion}}</th><th>{{.Labels.Turnaround}}</th><th>{{.Labels.Waiting}}</th><th>{{.Labels.Response}}</th></tr>
{{range .Summary.Rows}}<tr><td>{{.PID}}</td><td>{{.Arrival}}</td><td>{{.Burst}}</td><td>{{.Completion}}</td><td>{{.Turnaround}}</td><td>{{.Waiting}}</td><td>{{.Response}}</td></tr>
{{end}}<tr><th>{{.Labels.Average}}</th><td></td><td></td><td></td><td>{{printf "%.2f" .Summary.AvgTurnaround}}</td><td>{{printf "%.2f" .Summary.AvgWaiting}}</td><td>{{printf "%.2f" .Summary.AvgResponse}}</td></tr>
</table>

{{if .Result}}
<h2>{{.Labels.DecisionLog}}</h2>
<table>
<tr><th>{{.Labels.Cycle}}</th><th>{{.Labels.Time}}</th><th>{{.Labels.Quantum}}</th><th>{{.Labels.Ranked}}</th></tr>
{{range .Result.DecisionLog}}<tr><td>{{.Cycle}}</td><td>{{.StartTime}}</td><td>{{.Quantum}}</td><td>{{range $i, $p := .RankedPIDs}}{{if $i}} &gt; {{end}}{{$p}}{{end}}</td></tr>
{{end}}</table>
{{end}}

{{if .Comparison}}
<h2>{{.Labels.Comparison}}</h2>
{{.ComparisonSVG}}
<ul>
<li>{{.Labels.BestTurnaround}}: {{.Best.Turnaround}}</li>
<li>{{.Labels.BestWaiting}}: {{.Best.Waiting}}</li>
<li>{{.Labels.BestResponse}}: {{.Best.Response}}</li>
<li>{{.Labels.MostBalanced}}: {{.Best.Balanced}}</li>
</ul>
{{end}}
</body>
</html>
`))

// RenderHTML produces a self-contained HTML page with the Gantt chart, the
// metrics table, the decision log and, when present, the comparison chart.
func RenderHTML(rep Report) ([]byte, error) {
	if rep.Labels == (report.Labels{}) {
		rep.Labels = report.English
	}
	if rep.Title == "" {
		rep.Title = "AADRR " + rep.Labels.Timeline
	}

	data := htmlTemplateData{Report: rep}
	if rep.Result != nil {
		data.GanttSVG = template.HTML(RenderGanttSVG(rep.Result.Timeline)) // #nosec G203
	}
	if rep.Comparison != nil {
		data.ComparisonSVG = template.HTML(RenderComparisonSVG(rep.Comparison)) // #nosec G203
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildReport runs AADRR and the default comparison over procs and collects
// the outputs into a Report.
func BuildReport(ctx context.Context, procs []models.Process, opts compare.Options, labels report.Labels) (*Report, error) {
	cfg := aadrr.DefaultConfig()
	cfg.BurstWeight = opts.BurstWeight
	cfg.PriorityWeight = opts.PriorityWeight
	eng, err := aadrr.NewEngine(procs, cfg)
	if err != nil {
		return nil, err
	}
	res, err := eng.Run()
	if err != nil {
		return nil, err
	}
	summary, err := metrics.Compute(procs, res.Schedule())
	if err != nil {
		return nil, err
	}

	cmp, err := compare.Run(ctx, procs, compare.DefaultSchedulers(opts)...)
	if err != nil {
		return nil, err
	}

	return &Report{
		Result:     res,
		Summary:    summary,
		Comparison: cmp,
		Best:       cmp.Best(),
		Labels:     labels,
	}, nil
}

package server

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/labstack/echo/v4"
)

const (
	templateIndex     = "index"
	templateDashboard = "dashboard"
)

type indexData struct {
	Months    int
	MaxMonths int
}

type dashboardData struct {
	Months    int
	MaxMonths int
	Error     string

	Report     *pipeline.Report
	RawPreview ingest.Table
	Normalized []ingest.Point
	ChartHTML  string
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"money": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"score": func(v float64) string {
		return fmt.Sprintf("%.4f", v)
	},
	"cell": func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return row[i]
	},
}

const layoutTemplate = `
{{define "head"}}<!doctype html>
<html><head>
<meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Revenue Forecasting</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Arial;margin:0;padding:20px;background:#f7f8fa;color:#1d2330}
h1{margin-top:0}
section{background:#fff;border-radius:8px;padding:16px;margin-bottom:16px;box-shadow:0 1px 3px rgba(0,0,0,.08)}
table{border-collapse:collapse;font-size:13px}
th,td{padding:4px 10px;border-bottom:1px solid #e3e6ec;text-align:right}
th{background:#f0f2f6}
.scroll{max-height:320px;overflow:auto}
.error{background:#fdecea;color:#8a1c12;border:1px solid #f5c2bd}
iframe{width:100%;height:1800px;border:0}
pre{white-space:pre-wrap}
</style>
</head><body>
<h1>Revenue Forecasting</h1>
<p>Upload an Excel file with <code>Date</code> and <code>Revenue</code> columns to forecast future revenue.</p>{{end}}

{{define "form"}}<section>
<form method="post" action="/forecast" enctype="multipart/form-data">
<input type="file" name="file" accept=".xlsx" required>
<label>Months to forecast: <output id="months-out">{{.Months}}</output>
<input type="range" name="months" min="1" max="{{.MaxMonths}}" value="{{.Months}}" oninput="document.getElementById('months-out').value=this.value">
</label>
<button type="submit">Forecast</button>
</form>
</section>{{end}}

{{define "index"}}{{template "head"}}
{{template "form" .}}
</body></html>{{end}}

{{define "dashboard"}}{{template "head"}}
{{template "form" .}}
{{if .Error}}<section class="error"><strong>Error:</strong> {{.Error}}</section>
{{else}}{{with .Report}}
<section><h2>Uploaded Data</h2><div class="scroll"><table>
<tr>{{range $.RawPreview.Header}}<th>{{.}}</th>{{end}}</tr>
{{range $row := $.RawPreview.Rows}}<tr>{{range $i, $h := $.RawPreview.Header}}<td>{{cell $row $i}}</td>{{end}}</tr>
{{end}}</table></div>
<p>{{.Dataset.Stats.ValidRows}} of {{.Dataset.Stats.Rows}} rows used, {{.Dataset.Stats.NullRows}} empty, {{.Dataset.Stats.InvalidRows}} unparseable.</p></section>

<section><h2>Normalized Data</h2><div class="scroll"><table>
<tr><th>ds</th><th>y</th></tr>
{{range $.Normalized}}<tr><td>{{date .Timestamp}}</td><td>{{money .Value}}</td></tr>
{{end}}</table></div></section>

<section><h2>Forecast Results ({{.Days}} days)</h2>
<table><tr><th>MSE</th><th>MAPE</th><th>R2</th></tr>
<tr><td>{{money .Forecast.Scores.MSE}}</td><td>{{score .Forecast.Scores.MAPE}}</td><td>{{score .Forecast.Scores.R2}}</td></tr></table>
<div class="scroll"><table>
<tr><th>ds</th><th>yhat</th><th>yhat_lower</th><th>yhat_upper</th></tr>
{{range .Tail}}<tr><td>{{date .Timestamp}}</td><td>{{money .Estimate}}</td><td>{{money .Lower}}</td><td>{{money .Upper}}</td></tr>
{{end}}</table></div></section>

<section><h2>Forecast Plot</h2><iframe srcdoc="{{$.ChartHTML}}"></iframe></section>

<section><h2>AI Forecast Commentary</h2>
{{if .CommentarySkipped}}<p>No forecast horizon to comment on.</p>{{else}}<pre>{{.Commentary}}</pre>{{end}}
</section>

<section><h2>Model</h2><pre>{{.Forecast.Summary}}</pre></section>
{{end}}{{end}}
</body></html>{{end}}
`

// templateRenderer implements echo.Renderer
type templateRenderer struct {
	templates *template.Template
}

func newTemplateRenderer() *templateRenderer {
	return &templateRenderer{
		templates: template.Must(template.New("layout").Funcs(templateFuncs).Parse(layoutTemplate)),
	}
}

func (t *templateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// Package render draws multi-year answers as self-contained HTML chart
// pages.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

// Kind selects the chart style.
type Kind string

const (
	Line  Kind = "line"
	Bar   Kind = "bar"
	Share Kind = "share" // line chart of percentages
)

// Point is one year's value.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series is one plotted entity.
type Series struct {
	Name   string  `json:"name"`
	Unit   string  `json:"unit,omitempty"`
	Points []Point `json:"points"`
}

// Chart is everything the renderer needs to draw one answer.
type Chart struct {
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title"`
	Years  []int    `json:"years"`
	Series []Series `json:"series"`
	// Notes are free-text rows shown under the chart, e.g. catalog names.
	Notes []string `json:"notes,omitempty"`
}

// Renderer turns a chart into a file and returns its path.
type Renderer interface {
	Render(ctx context.Context, question string, chart Chart) (string, error)
}

// FilePrefix starts every rendered file name.
const FilePrefix = "qa-cakg-"

// HTMLRenderer writes {Dir}/qa-cakg-{question}.html. The question text is
// used verbatim in the file name.
type HTMLRenderer struct {
	Dir string
}

// NewHTMLRenderer creates a renderer writing into dir.
func NewHTMLRenderer(dir string) *HTMLRenderer {
	return &HTMLRenderer{Dir: dir}
}

// Path returns where the chart for question is written.
func (h *HTMLRenderer) Path(question string) string {
	return filepath.ToSlash(filepath.Join(h.Dir, FilePrefix+question+".html"))
}

// Render writes the chart page.
func (h *HTMLRenderer) Render(ctx context.Context, question string, chart Chart) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if chart.Kind == "" {
		chart.Kind = Line
	}
	if chart.Title == "" {
		chart.Title = question
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, chart); err != nil {
		return "", fmt.Errorf("render: execute template: %w", err)
	}
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return "", fmt.Errorf("render: mkdir %s: %w", h.Dir, err)
	}
	path := h.Path(question)
	if err := os.WriteFile(filepath.FromSlash(path), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("render: write %s: %w", path, err)
	}
	return path, nil
}

var page = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
</head>
<body>
<h1>{{.Title}}</h1>
<canvas id="chart"></canvas>
<table>
<thead><tr><th></th>{{range .Years}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Series}}
<tr><td>{{.Name}}{{if .Unit}}（{{.Unit}}）{{end}}</td>{{range .Points}}<td data-year="{{.Year}}">{{.Value}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- if .Notes}}
<ul>{{range .Notes}}<li>{{.}}</li>{{end}}</ul>
{{- end}}
<script>
const chart = {{.}};
const datasets = chart.series.map(s => ({
  label: s.unit ? s.name + "（" + s.unit + "）" : s.name,
  data: chart.years.map(y => {
    const p = s.points.find(p => p.year === y);
    return p ? p.value : null;
  }),
}));
new Chart(document.getElementById("chart"), {
  type: chart.kind === "bar" ? "bar" : "line",
  data: { labels: chart.years, datasets },
  options: { spanGaps: true },
});
</script>
</body>
</html>
`))

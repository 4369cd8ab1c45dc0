// Package export renders a single task into a printable report: the
// normalized task's description HTML, metadata and comments through an
// HTML template, then into a PDF via headless Chrome.
package export

import (
	"bytes"
	"html/template"
	"time"

	"taskboard/api/internal/task"
)

// Result is a generated export artifact.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Report is the template input for one task.
type Report struct {
	Task        task.Task
	ProjectKey  string
	GeneratedAt time.Time
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 2em; color: #111; }
h1 { font-size: 1.4em; margin-bottom: 0; }
.key { color: #666; font-size: 0.9em; }
table.meta { border-collapse: collapse; margin: 1em 0; }
table.meta td { border: 1px solid #ddd; padding: 4px 10px; font-size: 0.9em; }
.section { margin-top: 1.5em; border-top: 1px solid #ddd; padding-top: 0.5em; }
.comment { margin: 0.8em 0; padding: 0.5em; background: #f6f6f6; border-radius: 4px; }
.comment .byline { color: #666; font-size: 0.8em; }
</style>
</head>
<body>
<p class="key">{{.ProjectKey}} / {{.Task.ID}}</p>
<h1>{{.Task.Title}}</h1>
<table class="meta">
<tr><td>Status</td><td>{{.Task.Status}}</td></tr>
<tr><td>Priority</td><td>{{.Task.Priority}}</td></tr>
<tr><td>Assignee</td><td>{{.Task.Assignee}}</td></tr>
<tr><td>Started</td><td>{{.Task.StartDate}}</td></tr>
{{if .Task.DueDate}}<tr><td>Due</td><td>{{.Task.DueDate}}</td></tr>{{end}}
{{if .Task.ResolutionDate}}<tr><td>Resolved</td><td>{{.Task.ResolutionDate}}</td></tr>{{end}}
<tr><td>Department</td><td>{{.Task.Department}}</td></tr>
<tr><td>Category</td><td>{{.Task.BICategory}}</td></tr>
<tr><td>Story points</td><td>{{.Task.StoryPoints}}</td></tr>
</table>
<div class="section">{{safeHTML .Task.DescriptionHTML}}</div>
{{if .Task.Comments}}
<div class="section">
<h2>Comments</h2>
{{range .Task.Comments}}
<div class="comment">
<p class="byline">{{.Author}} — {{.CreatedDisplay}}</p>
{{safeHTML .BodyHTML}}
</div>
{{end}}
</div>
{{end}}
<p class="key">Generated {{formatDate .GeneratedAt "2006-01-02 15:04"}}</p>
</body>
</html>`

// RenderHTML renders the report template. Description and comment bodies
// are already escaped by the rich-document renderer.
func RenderHTML(report Report) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TaskReport renders a task report and converts it to PDF.
func TaskReport(report Report) (*Result, error) {
	html, err := RenderHTML(report)
	if err != nil {
		return nil, err
	}
	return renderPDF(html, report.Task.ID)
}

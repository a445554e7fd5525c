package report

import "html/template"

type pageData struct {
	Title string
	Body  template.HTML
}

// goldmark drops raw HTML from its input unless html.WithUnsafe is set.
func htmlSafe(s string) template.HTML {
	return template.HTML(s)
}

const styles = `
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 1100px; margin: 2rem auto; padding: 0 1rem; color: #1a1a2e; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ddd; padding: .4rem .7rem; text-align: left; }
img { max-width: 100%; border: 1px solid #ddd; }
.PASS { color: #137333; } .NEEDS_REVIEW { color: #e94560; }
`

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>` + styles + `</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

type indexData struct {
	Entries []indexRow
}

type indexRow struct {
	Timestamp  string
	RunID      string
	Page       string
	Viewport   string
	Status     string
	IssueCount int
	HTMLPath   string
	JSONPath   string
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Design compliance runs</title>
<style>` + styles + `</style>
</head>
<body>
<h1>Design compliance runs</h1>
{{if .Entries}}
<table>
<tr><th>Checked at</th><th>Page</th><th>Viewport</th><th>Status</th><th>Issues</th><th>Report</th></tr>
{{range .Entries}}<tr>
<td>{{.Timestamp}}</td><td>{{.Page}}</td><td>{{.Viewport}}</td>
<td class="{{.Status}}">{{.Status}}</td><td>{{.IssueCount}}</td>
<td><a href="{{.HTMLPath}}">html</a> · <a href="{{.JSONPath}}">json</a></td>
</tr>
{{end}}</table>
{{else}}
<p>No reports yet.</p>
{{end}}
</body>
</html>
`))

package email

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

// Detail is one labelled row in the highlighted block.
type Detail struct {
	Label string
	Value string
}

// Action renders as a call-to-action button.
type Action struct {
	URL   string
	Label string
}

// Layout is the content of one branded email.
type Layout struct {
	Title      string
	Greeting   string
	Paragraphs []string
	Details    []Detail
	Action     *Action
	Data       []Detail
	Year       int
}

var layoutTemplate = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: #f3f4f6; margin: 0; padding: 20px; }
.container { max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 20px; overflow: hidden; }
.header { background: linear-gradient(135deg, #ec4899 0%, #a855f7 100%); padding: 32px 20px; text-align: center; color: #ffffff; }
.content { padding: 32px 30px; color: #4b5563; font-size: 16px; line-height: 1.6; }
.details { background-color: #fdf2f8; border-left: 4px solid #ec4899; padding: 16px; margin: 20px 0; border-radius: 8px; }
.label { font-weight: 600; color: #ec4899; }
.action { text-align: center; margin: 30px 0; }
.action a { display: inline-block; padding: 15px 40px; background: #ec4899; color: #ffffff; text-decoration: none; border-radius: 50px; font-weight: bold; }
.additional-data { background: #f9fafb; padding: 12px 16px; border-radius: 8px; font-size: 14px; }
.footer { background: #f9fafb; padding: 20px; text-align: center; color: #9ca3af; font-size: 14px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>{{.Title}}</h1></div>
<div class="content">
{{- if .Greeting}}
<p>{{.Greeting}}</p>
{{- end}}
{{- range .Paragraphs}}
<p>{{.}}</p>
{{- end}}
{{- if .Details}}
<div class="details">
{{- range .Details}}
<div><span class="label">{{.Label}}:</span> <span>{{.Value}}</span></div>
{{- end}}
</div>
{{- end}}
{{- with .Action}}
<div class="action"><a href="{{.URL}}">{{.Label}}</a></div>
{{- end}}
{{- if .Data}}
<div class="additional-data">
{{- range .Data}}
<div class="additional-data-item"><span class="additional-data-key">{{.Label}}:</span> <span class="additional-data-value">{{.Value}}</span></div>
{{- end}}
</div>
{{- end}}
</div>
<div class="footer"><p>&copy; {{.Year}} Pareja App</p></div>
</div>
</body>
</html>
`))

// Render executes the layout. Values are HTML-escaped.
func Render(layout Layout) (string, error) {
	var buf bytes.Buffer
	if err := layoutTemplate.Execute(&buf, layout); err != nil {
		return "", fmt.Errorf("render email layout: %w", err)
	}
	return buf.String(), nil
}

// Paragraphs splits body on newlines, dropping blank lines.
func Paragraphs(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, strings.TrimRight(line, "\r"))
	}
	return out
}

// DataRows converts a key/value map into rows sorted by key.
func DataRows(data map[string]string) []Detail {
	if len(data) == 0 {
		return nil
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Detail, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Detail{Label: k, Value: data[k]})
	}
	return rows
}

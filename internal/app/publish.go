package app

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"menu-spinner/internal/planner"
	"menu-spinner/internal/shopping"
)

var postTmpl = template.Must(template.New("post").Parse(`<h2>Menu</h2>
<ul>
{{- range .Menu.Items}}
<li><strong>{{.Name}}</strong>{{if .Description}}: {{.Description}}{{end}}</li>
{{- end}}
</ul>
<h2>Shopping List</h2>
<ul>
{{- range .List.Items}}
<li>{{.Name}}{{if .Amount}}: {{.Amount}}{{end}}</li>
{{- end}}
</ul>
<p><em>Generated on {{.Date}}</em></p>`))

func postTitle(now time.Time) string {
	return "Menu for " + now.Format("2006-01-02")
}

// renderPost builds the Ghost post body for a menu and its shopping list.
func renderPost(m planner.Menu, list shopping.List, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := postTmpl.Execute(&buf, map[string]any{
		"Menu": m,
		"List": list,
		"Date": now.Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render post: %w", err)
	}
	return buf.String(), nil
}

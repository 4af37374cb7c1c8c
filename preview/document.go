package preview

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/hupe1980/layoutgen/core"
)

var documentTmpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { margin: 0;{{with .BackgroundColor}} background-color: {{.}};{{end}}{{with .BackgroundImage}} background-image: {{.}};{{end}} }
</style>
</head>
<body>{{.HTML}}</body>
</html>`))

// Document wraps layout markup in a standalone page whose body carries the
// editor's background so the screenshot matches the insertion target.
// The markup must already be sanitised.
func Document(html string, ec core.EditorContext) (string, error) {
	var buf bytes.Buffer
	err := documentTmpl.Execute(&buf, struct {
		BackgroundColor template.CSS
		BackgroundImage template.CSS
		HTML            template.HTML
	}{
		BackgroundColor: cssValue(ec.Body.BackgroundColor),
		BackgroundImage: cssValue(ec.Body.BackgroundImage),
		HTML:            template.HTML(html), //nolint:gosec // sanitised by the layout generator
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// cssValue admits computed style values such as "rgb(0, 0, 0)" or
// `url("a.png")` and drops anything that could leave the declaration.
func cssValue(v string) template.CSS {
	if strings.ContainsAny(v, "<>{};\\") {
		return ""
	}
	return template.CSS(v) //nolint:gosec // filtered above
}

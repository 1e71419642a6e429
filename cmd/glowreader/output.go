package main

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/bryanwahyu/glowreader/internal/render"
)

const barWidth = 24

func printGroup(w io.Writer, g render.Group) {
	switch g.Kind {
	case render.KindConcerns:
		fmt.Fprintln(w, "Your Skin Concerns at a Glance!")
		for _, c := range g.Concerns {
			fmt.Fprintf(w, "  %-15s %s %3d%%\n", c.Name, render.Bar(c.Percentage, barWidth), c.Percentage)
		}
	case render.KindError:
		fmt.Fprintln(w, "✖ "+render.PlainText(g.HTML))
	default:
		fmt.Fprintln(w, render.PlainText(g.HTML))
	}
	fmt.Fprintln(w)
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>GlowReader</title>
</head>
<body>
{{if .Image}}<img class="result-photo" src="{{.Image}}" alt="Uploaded photo">{{end}}
<div id="result">{{.Body}}</div>
</body>
</html>
`))

func writeHTML(path string, p render.Presentation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pageTmpl.Execute(f, struct {
		Image template.URL
		Body  template.HTML
	}{
		// data URL of our own upload
		Image: template.URL(p.ImageDataURL),
		// groups are sanitized by render
		Body: template.HTML(p.HTML()),
	})
}

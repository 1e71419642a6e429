package render

import (
	"html/template"
	"strings"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

var concernsTmpl = template.Must(template.New("concerns").Parse(
	`<h2 class="concerns-title">Your Skin Concerns at a Glance!</h2>` +
		`<div class="concerns">{{range .}}` +
		`<div class="concern">` +
		`<label><span class="concern-name">{{.Name}}</span><span class="concern-value">{{.Percentage}}%</span></label>` +
		`<progress value="{{.Percentage}}" max="100"></progress>` +
		`</div>{{end}}</div>`))

func concernsHTML(c analysis.Concerns) string {
	var b strings.Builder
	if err := concernsTmpl.Execute(&b, c); err != nil {
		return ""
	}
	return b.String()
}

// Bar draws a text progress bar of width cells for a percentage. Values
// outside [0,100] are clamped for drawing only.
func Bar(pct, width int) string {
	if width <= 0 {
		return ""
	}
	filled := pct * width / 100
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// FieldSets lists the recognized form fields per mode.
var FieldSets = map[analysis.Mode][]string{
	analysis.ModeSkinAnalyzer: {"skinType", "skinProblem", "ageGroup", "lifestyleFactor"},
	analysis.ModeMakeupArtist: {"eventType", "dressType", "dressColor", "userStylePreference"},
}

// fieldAliases maps older form field names onto the current ones.
var fieldAliases = map[string]string{
	"concern": "skinProblem",
}

var templateFiles = map[analysis.Mode]string{
	analysis.ModeSkinAnalyzer: "templates/skin_analyzer.tmpl",
	analysis.ModeMakeupArtist: "templates/makeup_artist.tmpl",
}

// Builder fills the per-mode template with the submitted fields.
type Builder struct {
	templates map[analysis.Mode]*template.Template
}

// NewBuilder parses the embedded templates.
func NewBuilder() (*Builder, error) {
	b := &Builder{templates: make(map[analysis.Mode]*template.Template, len(templateFiles))}
	for mode, file := range templateFiles {
		t, err := template.New(string(mode)).Option("missingkey=zero").ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse prompt template %s: %w", file, err)
		}
		b.templates[mode] = t.Lookup(file[strings.LastIndex(file, "/")+1:])
	}
	return b, nil
}

// MustNewBuilder is NewBuilder for package-level wiring; the templates are compiled in.
func MustNewBuilder() *Builder {
	b, err := NewBuilder()
	if err != nil {
		panic(err)
	}
	return b
}

// Build substitutes the recognized fields verbatim. Unknown fields are ignored.
func (b *Builder) Build(mode analysis.Mode, fields map[string]string) (string, error) {
	t, ok := b.templates[mode]
	if !ok || t == nil {
		return "", &analysis.InvalidModeError{Mode: string(mode)}
	}

	data := make(map[string]string, len(FieldSets[mode]))
	for _, name := range FieldSets[mode] {
		data[name] = ""
	}
	for k, v := range fields {
		if alias, ok := fieldAliases[k]; ok {
			if _, set := fields[alias]; set {
				continue
			}
			k = alias
		}
		if _, ok := data[k]; ok {
			data[k] = v
		}
	}

	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", mode, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

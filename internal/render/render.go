// Package render turns an analysis result into ordered, individually revealable
// HTML groups: an optional concerns breakdown followed by the markdown analysis
// split at its section boundaries.
package render

import (
	"errors"
	"html"
	"strings"
	"time"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

const (
	DefaultStagger        = 200 * time.Millisecond
	DefaultConcernsOffset = 100 * time.Millisecond
)

type Kind string

const (
	KindConcerns Kind = "concerns"
	KindMarkdown Kind = "markdown"
	KindError    Kind = "error"
	// KindReplay holds HTML that was already rendered and wrapped earlier.
	KindReplay Kind = "replay"
)

// Options controls reveal timing. Zero durations fall back to the defaults;
// Instant turns every delay off.
type Options struct {
	Stagger        time.Duration
	ConcernsOffset time.Duration
	Instant        bool
}

func (o Options) withDefaults() Options {
	if o.Stagger <= 0 {
		o.Stagger = DefaultStagger
	}
	if o.ConcernsOffset <= 0 {
		o.ConcernsOffset = DefaultConcernsOffset
	}
	return o
}

// Group is one revealable unit of output.
type Group struct {
	Kind     Kind
	HTML     string
	Delay    time.Duration
	Visible  bool
	Concerns analysis.Concerns
}

type Presentation struct {
	Groups       []Group
	ImageDataURL string
	Replayed     bool
}

// HTML concatenates the groups into the markup stored in history.
func (p Presentation) HTML() string {
	var b strings.Builder
	for _, g := range p.Groups {
		if g.Kind == KindReplay {
			b.WriteString(g.HTML)
			continue
		}
		b.WriteString(`<section class="result-group result-group--`)
		b.WriteString(string(g.Kind))
		b.WriteString(`">`)
		b.WriteString(g.HTML)
		b.WriteString("</section>")
	}
	return b.String()
}

// Err returns the message of an error presentation, or "".
func (p Presentation) Err() string {
	if len(p.Groups) == 1 && p.Groups[0].Kind == KindError {
		return PlainText(p.Groups[0].HTML)
	}
	return ""
}

// Render builds the presentation for a successful result.
func Render(res analysis.Result, opts Options) Presentation {
	if strings.TrimSpace(res.AnalysisText) == "" {
		return RenderError(&analysis.EmptyResultError{}, opts)
	}
	opts = opts.withDefaults()

	var groups []Group
	offset := time.Duration(0)
	if len(res.SkinConcerns) > 0 {
		groups = append(groups, Group{
			Kind:     KindConcerns,
			HTML:     concernsHTML(res.SkinConcerns),
			Concerns: res.SkinConcerns,
		})
		offset = opts.ConcernsOffset
	}

	for i, chunk := range splitMarkdown([]byte(res.AnalysisText)) {
		g := Group{Kind: KindMarkdown, HTML: chunk}
		if !opts.Instant {
			g.Delay = time.Duration(i)*opts.Stagger + offset
		}
		groups = append(groups, g)
	}
	return Presentation{Groups: groups}
}

// RenderError builds a presentation holding exactly one error group.
func RenderError(err error, _ Options) Presentation {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	var empty *analysis.EmptyResultError
	body := `<p class="error">An error occurred during analysis: ` + html.EscapeString(msg) +
		`. Please try again, and ensure your photo is clear!</p>`
	if errors.As(err, &empty) {
		body = `<p class="error">` + html.EscapeString(msg) + `</p>`
	}
	return Presentation{Groups: []Group{{Kind: KindError, HTML: body}}}
}

// Replay shows stored HTML at once, with no staggering.
func Replay(renderedHTML, imageDataURL string) Presentation {
	return Presentation{
		Groups:       []Group{{Kind: KindReplay, HTML: renderedHTML, Visible: true}},
		ImageDataURL: imageDataURL,
		Replayed:     true,
	}
}

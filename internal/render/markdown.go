package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	md  = goldmark.New(goldmark.WithExtensions(extension.GFM))
	ugc = bluemonday.UGCPolicy()
)

// startsGroup reports whether a top-level block opens a new section.
// Level 2 headings stay with the block before them.
func startsGroup(n ast.Node) bool {
	switch b := n.(type) {
	case *ast.Heading:
		switch b.Level {
		case 1, 3, 4, 5:
			return true
		}
	case *ast.ThematicBreak:
		return true
	}
	return false
}

// splitMarkdown renders src and partitions its top-level blocks into sanitized HTML chunks.
func splitMarkdown(src []byte) []string {
	doc := md.Parser().Parse(text.NewReader(src))

	var (
		out   []string
		cur   bytes.Buffer
		count int
	)
	flush := func() {
		if count == 0 {
			return
		}
		out = append(out, ugc.Sanitize(cur.String()))
		cur.Reset()
		count = 0
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if startsGroup(n) {
			flush()
		}
		if err := md.Renderer().Render(&cur, src, n); err != nil {
			// renderer only fails on writer errors; a bytes.Buffer has none
			continue
		}
		count++
	}
	flush()
	return out
}

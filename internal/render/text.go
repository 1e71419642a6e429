package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()

	blockEnd = strings.NewReplacer(
		"</p>", "</p>\n\n",
		"</h1>", "</h1>\n\n", "</h2>", "</h2>\n\n", "</h3>", "</h3>\n\n",
		"</h4>", "</h4>\n\n", "</h5>", "</h5>\n\n", "</h6>", "</h6>\n\n",
		"</li>", "</li>\n",
		"<li>", "<li>• ",
		"<br>", "<br>\n", "<br/>", "<br/>\n",
		"<hr>", "<hr>\n---\n", "<hr/>", "<hr/>\n---\n",
		"</section>", "</section>\n",
		"</div>", "</div>\n",
		"</span><span", "</span> <span",
		"</tr>", "</tr>\n",
	)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// PlainText strips markup for terminal output.
func PlainText(h string) string {
	s := strict.Sanitize(blockEnd.Replace(h))
	s = html.UnescapeString(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

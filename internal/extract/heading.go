package extract

import (
	"strconv"
	"strings"

	"github.com/nerdneilsfield/go-docmark/pkg/ooxml"
)

// headingLevel classifies a paragraph by its style. Both the raw style id
// and the resolved style name are tried, since producers disagree on which
// of the two carries the "Heading N" convention.
func (x *extraction) headingLevel(p *ooxml.Paragraph) (int, bool) {
	if p.Properties == nil || p.Properties.Style == nil {
		return 0, false
	}
	id := p.Properties.Style.Val
	if id == "" {
		return 0, false
	}
	if level, ok := parseHeadingStyle(id); ok {
		return level, true
	}
	if name := x.pkg.StyleName(id); name != "" {
		if level, ok := parseHeadingStyle(name); ok {
			return level, true
		}
	}
	return 0, false
}

// parseHeadingStyle recognizes "Heading N" / "heading N" / "HeadingN" styles
// plus the Title and Subtitle styles. Levels are clamped to [1,6].
func parseHeadingStyle(style string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(style))
	switch s {
	case "title":
		return 1, true
	case "subtitle":
		return 2, true
	}
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 1 {
		return 0, false
	}
	if n > 6 {
		n = 6
	}
	return n, true
}

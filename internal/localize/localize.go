// Package localize promotes language-specific structural markers to
// headings after extraction.
package localize

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/nerdneilsfield/go-docmark/pkg/ast"
)

// LanguageKorean enables the Korean legal-document heading rules.
const LanguageKorean = "ko"

// Korean statute headings: 편 (part), 장 (chapter), 절 (section), 조
// (article), each numbered with an optional hyphenated suffix such as
// 제3-2조. The patterns anchor at the start of the trimmed text; first
// match wins.
var koreanHeadings = []struct {
	pattern *regexp.Regexp
	level   int
}{
	{regexp.MustCompile(`^제\d+(?:-\d+)?편`), 1},
	{regexp.MustCompile(`^제\d+(?:-\d+)?장`), 2},
	{regexp.MustCompile(`^제\d+(?:-\d+)?절`), 3},
	{regexp.MustCompile(`^제\d+(?:-\d+)?조`), 4},
}

// Localizer rewrites top-level blocks that match a language's heading
// conventions.
type Localizer struct {
	logger *zap.Logger
}

// New creates a Localizer. A nil logger is replaced with a nop logger.
func New(logger *zap.Logger) *Localizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Localizer{logger: logger}
}

// Apply mutates doc in place according to the rules for language. Unknown
// languages are a no-op. Only top-level paragraphs and raw text are
// considered; list items, table cells and existing headings are left alone.
func (l *Localizer) Apply(doc *ast.Document, language string) {
	if language != LanguageKorean {
		return
	}
	promoted := 0
	for i, block := range doc.Blocks {
		switch b := block.(type) {
		case *ast.Paragraph:
			if level, ok := koreanHeadingLevel(ast.PlainText(b.Content)); ok {
				doc.Blocks[i] = &ast.Heading{Level: level, Content: b.Content}
				promoted++
			}
		case *ast.RawText:
			if level, ok := koreanHeadingLevel(b.Text); ok {
				doc.Blocks[i] = &ast.Heading{
					Level:   level,
					Content: []ast.InlineRun{{Text: b.Text}},
				}
				promoted++
			}
		}
	}
	if promoted > 0 {
		l.logger.Debug("promoted localized headings",
			zap.String("language", language),
			zap.Int("count", promoted))
	}
}

// koreanHeadingLevel matches text against the statute heading patterns.
// The text is NFC-normalized and trimmed before matching, so decomposed
// Hangul from some producers still matches.
func koreanHeadingLevel(text string) (int, bool) {
	t := strings.TrimSpace(norm.NFC.String(text))
	if t == "" {
		return 0, false
	}
	for _, h := range koreanHeadings {
		if h.pattern.MatchString(t) {
			return h.level, true
		}
	}
	return 0, false
}

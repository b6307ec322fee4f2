// Package render serializes a document tree into Markdown, exporting or
// inlining image assets as configured.
package render

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-docmark/pkg/ast"
)

// ImageMode selects how image blocks are materialized.
type ImageMode int

const (
	// ImageInline embeds assets as base64 data URIs.
	ImageInline ImageMode = iota
	// ImageExtract writes assets under Config.ImageDir and references them
	// by relative path.
	ImageExtract
	// ImageSkip drops image blocks from the output.
	ImageSkip
)

// Config controls rendering behavior.
type Config struct {
	ImageMode ImageMode
	ImageDir  string
}

// MarkdownRenderer serializes an ast.Document into Markdown text.
type MarkdownRenderer struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a MarkdownRenderer. A nil logger is replaced with a nop logger.
func New(cfg Config, logger *zap.Logger) *MarkdownRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkdownRenderer{cfg: cfg, logger: logger}
}

// Render serializes the document. Top-level blocks are separated by one
// blank line and trailing whitespace is trimmed; the caller owns the final
// newline. Writing exported assets happens as a side effect when the image
// mode asks for it.
func (r *MarkdownRenderer) Render(doc *ast.Document) (string, error) {
	st := &renderState{doc: doc, exported: make(map[string]string)}

	var parts []string
	for _, block := range doc.Blocks {
		text, emit, err := r.block(st, block)
		if err != nil {
			return "", err
		}
		if emit {
			parts = append(parts, text)
		}
	}

	if len(doc.Footnotes) > 0 {
		parts = append(parts, "---")
		defs := make([]string, len(doc.Footnotes))
		for i, text := range doc.Footnotes {
			defs[i] = fmt.Sprintf("[^%d]: %s", i+1, strings.TrimSpace(text))
		}
		parts = append(parts, strings.Join(defs, "\n\n"))
	}

	return strings.TrimRight(strings.Join(parts, "\n\n"), " \t\n"), nil
}

// renderState carries per-call bookkeeping so a renderer instance stays
// reusable across documents.
type renderState struct {
	doc      *ast.Document
	exported map[string]string
}

// block renders a single block. emit is false when the block produces no
// output at all (a skipped image), as opposed to an intentionally blank
// line (an empty paragraph).
func (r *MarkdownRenderer) block(st *renderState, block ast.Block) (text string, emit bool, err error) {
	switch b := block.(type) {
	case *ast.Heading:
		line := strings.ReplaceAll(renderInline(b.Content), "\n", " ")
		return strings.Repeat("#", b.Level) + " " + line, true, nil
	case *ast.Paragraph:
		return renderInline(b.Content), true, nil
	case *ast.List:
		lines, err := r.listLines(st, b, 0)
		if err != nil {
			return "", false, err
		}
		return strings.Join(lines, "\n"), true, nil
	case *ast.Table:
		text, err := r.table(st, b)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	case *ast.Image:
		return r.imageMarkup(st, b)
	case *ast.ThematicBreak:
		return "---", true, nil
	case *ast.RawText:
		return b.Text, true, nil
	default:
		return "", false, fmt.Errorf("unsupported block type %T", block)
	}
}

// listLines renders a list as indented lines. level is the rendering depth;
// each level adds two spaces. Ordered counters are per level, so a sub-list
// under one item never disturbs its parent's numbering.
func (r *MarkdownRenderer) listLines(st *renderState, l *ast.List, level int) ([]string, error) {
	indent := strings.Repeat("  ", level)
	var lines []string
	for i := range l.Items {
		item := &l.Items[i]
		marker := "- "
		if l.Ordered {
			marker = fmt.Sprintf("%d. ", i+1)
		}
		markerOpen := true
		for _, block := range item.Blocks {
			if sub, ok := block.(*ast.List); ok {
				if markerOpen {
					lines = append(lines, strings.TrimRight(indent+marker, " "))
					markerOpen = false
				}
				subLines, err := r.listLines(st, sub, level+1)
				if err != nil {
					return nil, err
				}
				lines = append(lines, subLines...)
				continue
			}
			text, emit, err := r.block(st, block)
			if err != nil {
				return nil, err
			}
			if !emit {
				continue
			}
			for _, line := range strings.Split(text, "\n") {
				if markerOpen {
					lines = append(lines, indent+marker+line)
					markerOpen = false
				} else {
					lines = append(lines, indent+"  "+line)
				}
			}
		}
		if markerOpen {
			lines = append(lines, strings.TrimRight(indent+marker, " "))
		}
	}
	return lines, nil
}

// imageMarkup returns the ![alt](path) markup for an image, resolving path
// per the configured mode. A missing asset degrades to an empty path rather
// than failing, since a substituted extractor may not register media.
func (r *MarkdownRenderer) imageMarkup(st *renderState, img *ast.Image) (string, bool, error) {
	if r.cfg.ImageMode == ImageSkip {
		return "", false, nil
	}

	asset := st.doc.Media[img.RelationshipID]
	if asset == nil {
		r.logger.Warn("image has no registered media asset",
			zap.String("relationship_id", img.RelationshipID))
		return fmt.Sprintf("![%s]()", img.AltText), true, nil
	}

	var path string
	switch r.cfg.ImageMode {
	case ImageInline:
		path = "data:" + asset.ContentType + ";base64," +
			base64.StdEncoding.EncodeToString(asset.Data)
	case ImageExtract:
		exported, err := r.exportAsset(st, asset)
		if err != nil {
			return "", false, err
		}
		path = exported
	}
	return fmt.Sprintf("![%s](%s)", img.AltText, path), true, nil
}

// exportAsset writes the asset under the configured directory once per
// conversion and returns the reference path. Filenames derive from the
// relationship id, so repeated conversions produce identical references.
func (r *MarkdownRenderer) exportAsset(st *renderState, asset *ast.MediaAsset) (string, error) {
	if path, ok := st.exported[asset.RelationshipID]; ok {
		return path, nil
	}

	dir := r.cfg.ImageDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}
	name := asset.RelationshipID + asset.Extension
	if err := os.WriteFile(filepath.Join(dir, name), asset.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image %s: %w", name, err)
	}

	path := filepath.ToSlash(filepath.Join(dir, name))
	st.exported[asset.RelationshipID] = path
	r.logger.Debug("exported image asset",
		zap.String("relationship_id", asset.RelationshipID),
		zap.String("path", path))
	return path, nil
}

// renderInline serializes runs using HTML-style wrappers in a fixed order,
// strong outside em outside u outside del. Emphasis markers made of
// asterisks or underscores are avoided because they collide with literal
// punctuation in prose.
func renderInline(runs []ast.InlineRun) string {
	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(renderRun(run))
	}
	return sb.String()
}

func renderRun(run ast.InlineRun) string {
	text := run.Text
	if text == "" {
		return ""
	}
	if run.Strikethrough {
		text = "<del>" + text + "</del>"
	}
	if run.Underline {
		text = "<u>" + text + "</u>"
	}
	if run.Italic {
		text = "<em>" + text + "</em>"
	}
	if run.Bold {
		text = "<strong>" + text + "</strong>"
	}
	if run.Link != "" {
		text = "[" + text + "](" + run.Link + ")"
	}
	return text
}

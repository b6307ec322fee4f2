// Package extract walks the parsed body of a package and builds the
// structural document tree.
package extract

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-docmark/pkg/ast"
	"github.com/nerdneilsfield/go-docmark/pkg/ooxml"
)

// ErrUnresolvedRelationship reports an image reference whose relationship id
// has no entry in the package relationship table.
var ErrUnresolvedRelationship = errors.New("unresolved relationship")

// Extractor builds an ast.Document from a parsed package.
type Extractor struct {
	logger *zap.Logger
}

// New creates an Extractor. A nil logger is replaced with a nop logger.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract converts the package body into a document tree. It fails only when
// an image's backing media cannot be resolved or the numbering part is
// malformed; everything else is normalized to a default.
func (e *Extractor) Extract(pkg *ooxml.Package) (*ast.Document, error) {
	numbering, err := pkg.Numbering()
	if err != nil {
		return nil, err
	}

	x := &extraction{
		pkg:           pkg,
		numbering:     numbering,
		logger:        e.logger,
		media:         make(map[string]*ast.MediaAsset),
		footnoteIndex: make(map[string]int),
	}

	blocks, err := x.blocks(pkg.Body)
	if err != nil {
		return nil, err
	}

	return &ast.Document{
		Blocks:    blocks,
		Media:     x.media,
		Footnotes: x.footnotes,
	}, nil
}

// extraction carries the per-call state; nothing here outlives one Extract.
type extraction struct {
	pkg           *ooxml.Package
	numbering     *ooxml.Numbering
	logger        *zap.Logger
	media         map[string]*ast.MediaAsset
	footnoteIndex map[string]int
	footnotes     []string
}

// blocks converts an ordered element sequence. It is reused for table cell
// content, so nested tables and in-cell lists work the same as at top level.
func (x *extraction) blocks(elements []ooxml.BodyElement) ([]ast.Block, error) {
	var out []ast.Block
	var lb *listBuilder

	flushList := func() {
		if lb != nil {
			out = append(out, lb.root)
			lb = nil
		}
	}

	for _, el := range elements {
		switch el := el.(type) {
		case *ooxml.Paragraph:
			if level, ok := x.headingLevel(el); ok {
				flushList()
				hb, err := x.headingBlocks(el, level)
				if err != nil {
					return nil, err
				}
				out = append(out, hb...)
				continue
			}
			if ref := numberingRef(el); ref != nil {
				itemBlocks, err := x.paragraphBlocks(el)
				if err != nil {
					return nil, err
				}
				numID, depth, ordered := x.resolveNumbering(ref)
				if lb == nil || lb.numID != numID {
					flushList()
					lb = newListBuilder(numID, depth, ordered)
				}
				lb.add(depth, ordered, itemBlocks)
				continue
			}
			flushList()
			pb, err := x.paragraphBlocks(el)
			if err != nil {
				return nil, err
			}
			out = append(out, pb...)
		case *ooxml.Table:
			flushList()
			tbl, err := x.table(el)
			if err != nil {
				return nil, err
			}
			out = append(out, tbl)
		case *ooxml.Bookmark:
			flushList()
			out = append(out, &ast.RawText{
				Text: fmt.Sprintf("<a id=%q></a>", escapeHTMLAttr(el.Name)),
			})
		case *ooxml.Unknown:
			flushList()
			if text := strings.TrimSpace(el.Text); text != "" {
				x.logger.Debug("unrecognized body element kept as raw text",
					zap.String("element", el.Name))
				out = append(out, &ast.RawText{Text: text})
			}
		}
	}
	flushList()
	return out, nil
}

// inlineSink receives the pieces of a paragraph in source order.
type inlineSink struct {
	run       func(ast.InlineRun)
	pageBreak func()
	image     func(*ast.Image)
}

// paragraphBlocks converts one non-heading paragraph. Page breaks split it
// around a thematic break; images become sibling blocks. A paragraph with no
// content yields a single empty Paragraph so vertical spacing survives.
func (x *extraction) paragraphBlocks(p *ooxml.Paragraph) ([]ast.Block, error) {
	var out []ast.Block
	var cur []ast.InlineRun

	flush := func() {
		if len(cur) > 0 {
			out = append(out, &ast.Paragraph{Content: cur})
			cur = nil
		}
	}

	err := x.walkInline(p, inlineSink{
		run: func(r ast.InlineRun) { cur = ast.AppendRun(cur, r) },
		pageBreak: func() {
			flush()
			out = append(out, &ast.ThematicBreak{})
		},
		image: func(img *ast.Image) {
			flush()
			out = append(out, img)
		},
	})
	if err != nil {
		return nil, err
	}
	flush()
	if len(out) == 0 {
		out = append(out, &ast.Paragraph{})
	}
	return out, nil
}

// headingBlocks converts a style-classified heading paragraph. Breaks inside
// a heading degrade to line breaks; images move after the heading. Headings
// whose visible text is empty (e.g. TOC field shells) are dropped.
func (x *extraction) headingBlocks(p *ooxml.Paragraph, level int) ([]ast.Block, error) {
	var runs []ast.InlineRun
	var images []ast.Block

	err := x.walkInline(p, inlineSink{
		run: func(r ast.InlineRun) { runs = ast.AppendRun(runs, r) },
		pageBreak: func() {
			runs = ast.AppendRun(runs, ast.InlineRun{Text: "\n"})
		},
		image: func(img *ast.Image) { images = append(images, img) },
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(ast.PlainText(runs)) == "" {
		return images, nil
	}
	return append([]ast.Block{&ast.Heading{Level: level, Content: runs}}, images...), nil
}

// walkInline feeds the paragraph's ordered inline content into sink,
// tracking field-code state across runs and resolving hyperlink targets.
func (x *extraction) walkInline(p *ooxml.Paragraph, sink inlineSink) error {
	fieldState := fieldNone
	for _, child := range p.Children {
		switch c := child.(type) {
		case *ooxml.Run:
			if err := x.walkRun(c, "", &fieldState, sink); err != nil {
				return err
			}
		case *ooxml.Hyperlink:
			target := x.pkg.Relationships[c.ID]
			if target == "" && c.ID != "" {
				x.logger.Warn("hyperlink relationship not found, keeping text only",
					zap.String("id", c.ID))
			}
			for i := range c.Runs {
				if err := x.walkRun(&c.Runs[i], target, &fieldState, sink); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Field-code states: text between a begin and a separate marker is the field
// instruction and stays invisible; text after separate is the cached visible
// result.
const (
	fieldNone = iota
	fieldInstruction
	fieldResult
)

func (x *extraction) walkRun(r *ooxml.Run, link string, fieldState *int, sink inlineSink) error {
	bold, italic, underline, strike := runFlags(r.Properties)
	emit := func(text string) {
		sink.run(ast.InlineRun{
			Text:          text,
			Bold:          bold,
			Italic:        italic,
			Underline:     underline,
			Strikethrough: strike,
			Link:          link,
		})
	}

	for _, child := range r.Children {
		switch c := child.(type) {
		case *ooxml.FieldChar:
			switch c.Type {
			case "begin":
				*fieldState = fieldInstruction
			case "separate":
				*fieldState = fieldResult
			case "end":
				*fieldState = fieldNone
			}
		case *ooxml.RunText:
			if *fieldState == fieldInstruction {
				continue
			}
			emit(c.Text)
		case *ooxml.Tab:
			emit("\t")
		case *ooxml.Break:
			if c.Type == "page" {
				sink.pageBreak()
			} else {
				emit("\n")
			}
		case *ooxml.CarriageReturn:
			emit("\n")
		case *ooxml.Drawing:
			img, err := x.image(c)
			if err != nil {
				return err
			}
			if img != nil {
				sink.image(img)
			}
		case *ooxml.FootnoteRef:
			sink.run(ast.InlineRun{Text: x.footnoteMarker(c.ID)})
		}
	}
	return nil
}

func runFlags(props *ooxml.RunProps) (bold, italic, underline, strike bool) {
	if props == nil {
		return false, false, false, false
	}
	return props.Bold.Enabled(), props.Italic.Enabled(),
		props.Underline.Enabled(), props.Strike.Enabled()
}

// image resolves a drawing to an Image block, registering the media asset on
// first reference. A drawing without an embedded picture yields nil.
func (x *extraction) image(d *ooxml.Drawing) (*ast.Image, error) {
	relID := d.EmbedID()
	if relID == "" {
		return nil, nil
	}

	alt := d.AltText()
	if alt == "" {
		alt = "image"
	}

	if _, ok := x.media[relID]; ok {
		return &ast.Image{RelationshipID: relID, AltText: alt}, nil
	}

	target, ok := x.pkg.Relationships[relID]
	if !ok {
		return nil, fmt.Errorf("image relationship %q: %w", relID, ErrUnresolvedRelationship)
	}
	data, err := x.pkg.MediaPart(target)
	if err != nil {
		return nil, fmt.Errorf("image relationship %q: %w", relID, err)
	}

	ext := strings.ToLower(path.Ext(target))
	if ext == "" {
		ext = ".png"
	}
	x.media[relID] = &ast.MediaAsset{
		RelationshipID: relID,
		Data:           data,
		Extension:      ext,
		ContentType:    contentTypeForExtension(ext),
	}
	x.logger.Debug("registered media asset",
		zap.String("relationship_id", relID),
		zap.String("target", target),
		zap.Int("bytes", len(data)))

	return &ast.Image{RelationshipID: relID, AltText: alt}, nil
}

func contentTypeForExtension(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

// footnoteMarker returns the [^n] marker for a footnote id, assigning n in
// first-reference order.
func (x *extraction) footnoteMarker(id string) string {
	idx, ok := x.footnoteIndex[id]
	if !ok {
		idx = len(x.footnotes)
		x.footnoteIndex[id] = idx
		text, defined := x.pkg.Footnotes[id]
		if !defined {
			x.logger.Warn("footnote reference without definition",
				zap.String("id", id))
		}
		x.footnotes = append(x.footnotes, text)
	}
	return fmt.Sprintf("[^%d]", idx+1)
}

func numberingRef(p *ooxml.Paragraph) *ooxml.NumberingRef {
	if p.Properties == nil {
		return nil
	}
	return p.Properties.NumPr
}

// resolveNumbering maps a numbering reference to (instance id, nesting
// depth, orderedness). A reference that cannot be resolved against the
// numbering table degrades to an unordered list at depth 0.
func (x *extraction) resolveNumbering(ref *ooxml.NumberingRef) (numID, depth int, ordered bool) {
	numID = -1
	if ref.ID != nil {
		numID = ref.ID.Val
	}
	if ref.Level != nil && ref.Level.Val > 0 {
		depth = ref.Level.Val
	}
	lvl, ok := x.numbering.Lookup(numID, depth)
	if !ok {
		return numID, 0, false
	}
	return numID, depth, !lvl.Bullet()
}

// table converts a w:tbl. Grid spans become ColSpan; a cell continuing a
// vertical merge keeps its grid position but carries no content.
func (x *extraction) table(t *ooxml.Table) (*ast.Table, error) {
	rows := make([]ast.TableRow, 0, len(t.Rows))
	for i := range t.Rows {
		row := &t.Rows[i]
		cells := make([]ast.TableCell, 0, len(row.Cells))
		for j := range row.Cells {
			cell := &row.Cells[j]
			span := cell.GridSpan()
			if cell.VMergeContinue() {
				cells = append(cells, ast.TableCell{ColSpan: span})
				continue
			}
			blocks, err := x.blocks(cell.Elements)
			if err != nil {
				return nil, err
			}
			cells = append(cells, ast.TableCell{Blocks: blocks, ColSpan: span})
		}
		rows = append(rows, ast.TableRow{Cells: cells})
	}
	return &ast.Table{Rows: rows}, nil
}

func escapeHTMLAttr(value string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return r.Replace(value)
}

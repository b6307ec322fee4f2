// Package ast defines the structural document tree produced by extraction
// and consumed by rendering. The node set is closed: extractors only emit
// the types below, and renderers are expected to handle all of them.
package ast

// Document is the extracted form of one source document: an ordered block
// sequence plus the media assets referenced by image nodes, keyed by
// relationship id. A Document is built once per conversion and discarded
// after rendering; nothing in it is shared across conversions.
type Document struct {
	Blocks []Block

	// Media maps a relationship id to its decoded payload. Every Image
	// block in Blocks has a corresponding entry here.
	Media map[string]*MediaAsset

	// Footnotes holds definition texts in first-reference order, so entry
	// i is the definition for marker [^i+1]. An entry may be empty when
	// the source referenced a footnote without defining it.
	Footnotes []string
}

// MediaAsset owns the binary payload of one embedded media part.
type MediaAsset struct {
	RelationshipID string
	Data           []byte
	Extension      string // including the dot, e.g. ".png"
	ContentType    string
}

// Block is one structural content unit. Implementations are the fixed set
// of node types in this package; the unexported method keeps the set closed.
type Block interface {
	blockNode()
}

// Heading is a section heading with level 1..6.
type Heading struct {
	Level   int
	Content []InlineRun
}

// Paragraph is a plain text block. Content may be empty: an empty source
// paragraph is preserved so rendering keeps the vertical spacing.
type Paragraph struct {
	Content []InlineRun
}

// List groups consecutive items that share one numbering definition.
type List struct {
	Ordered bool
	Items   []ListItem
	// Depth is the nesting depth of the list itself, 0 for top level.
	Depth int
}

// ListItem holds the blocks making up one item. The first block carries the
// item text; further blocks are nested content such as sub-lists.
type ListItem struct {
	Blocks []Block
}

// Table is a grid of rows; the first row is treated as the header.
type Table struct {
	Rows []TableRow
}

// TableRow is an ordered cell sequence.
type TableRow struct {
	Cells []TableCell
}

// TableCell holds block content (cells may contain nested tables) and the
// number of grid columns it spans.
type TableCell struct {
	Blocks  []Block
	ColSpan int
}

// Image references a media asset by relationship id.
type Image struct {
	RelationshipID string
	AltText        string
}

// ThematicBreak is a horizontal rule, produced from page breaks.
type ThematicBreak struct{}

// RawText carries the visible text of an element that did not classify as
// any other block type.
type RawText struct {
	Text string
}

func (*Heading) blockNode()       {}
func (*Paragraph) blockNode()     {}
func (*List) blockNode()          {}
func (*Table) blockNode()         {}
func (*Image) blockNode()         {}
func (*ThematicBreak) blockNode() {}
func (*RawText) blockNode()       {}

// InlineRun is a contiguous text span with uniform character formatting.
// Link, when non-empty, is the resolved hyperlink target of the span.
type InlineRun struct {
	Text          string
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Link          string
}

// SameFormat reports whether two runs carry identical formatting flags and
// link target, i.e. whether their texts may be merged into one run.
func (r InlineRun) SameFormat(o InlineRun) bool {
	return r.Bold == o.Bold &&
		r.Italic == o.Italic &&
		r.Underline == o.Underline &&
		r.Strikethrough == o.Strikethrough &&
		r.Link == o.Link
}

// AppendRun appends run to runs, merging it into the previous run when the
// formatting matches. Runs with empty text are dropped.
func AppendRun(runs []InlineRun, run InlineRun) []InlineRun {
	if run.Text == "" {
		return runs
	}
	if n := len(runs); n > 0 && runs[n-1].SameFormat(run) {
		runs[n-1].Text += run.Text
		return runs
	}
	return append(runs, run)
}

// PlainText concatenates the texts of runs without any formatting.
func PlainText(runs []InlineRun) string {
	var n int
	for _, r := range runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

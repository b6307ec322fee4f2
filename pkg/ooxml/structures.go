package ooxml

import (
	"encoding/xml"
	"strings"
)

// OOXML namespaces used for attribute matching.
const (
	WordprocessingMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	RelationshipsNamespace    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// BodyElement is one ordered element of the document body (or of a table
// cell, which holds the same content model).
type BodyElement interface {
	bodyElement()
}

func (*Paragraph) bodyElement() {}
func (*Table) bodyElement()     {}
func (*Bookmark) bodyElement()  {}
func (*Unknown) bodyElement()   {}

// Body preserves the source order of paragraphs and tables. The stock
// struct-tag decoding would split them into per-type slices, so decoding is
// done token by token. Structured document tags (w:sdt) are unwrapped in
// place; elements with no dedicated model are kept as Unknown so their
// visible text is not lost.
type Body struct {
	Elements []BodyElement
}

// UnmarshalXML implements xml.Unmarshaler.
func (b *Body) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p Paragraph
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &p)
			case "tbl":
				var tbl Table
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &tbl)
			case "sdt":
				var s sdt
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				if s.Content != nil {
					b.Elements = append(b.Elements, s.Content.Elements...)
				}
			case "bookmarkStart":
				var bm Bookmark
				if err := d.DecodeElement(&bm, &t); err != nil {
					return err
				}
				if bm.Name != "" {
					b.Elements = append(b.Elements, &bm)
				}
			case "sectPr", "bookmarkEnd", "proofErr":
				if err := d.Skip(); err != nil {
					return err
				}
			default:
				text, err := collectCharData(d)
				if err != nil {
					return err
				}
				b.Elements = append(b.Elements, &Unknown{Name: t.Name.Local, Text: text})
			}
		case xml.EndElement:
			return nil
		}
	}
}

// sdt models a structured document tag just deep enough to reach its content.
type sdt struct {
	Content *Body `xml:"sdtContent"`
}

// Bookmark is a named anchor in the body.
type Bookmark struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Unknown preserves the element name and concatenated character data of a
// body element without a dedicated model.
type Unknown struct {
	Name string
	Text string
}

// Paragraph is a w:p element. Children keeps runs and hyperlinks in source
// order.
type Paragraph struct {
	Properties *ParagraphProps
	Children   []ParagraphChild
}

// ParagraphChild is a run or a hyperlink.
type ParagraphChild interface {
	paragraphChild()
}

func (*Run) paragraphChild()       {}
func (*Hyperlink) paragraphChild() {}

// UnmarshalXML implements xml.Unmarshaler.
func (p *Paragraph) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				p.Properties = &ParagraphProps{}
				if err := d.DecodeElement(p.Properties, &t); err != nil {
					return err
				}
			case "r":
				var r Run
				if err := d.DecodeElement(&r, &t); err != nil {
					return err
				}
				p.Children = append(p.Children, &r)
			case "hyperlink":
				var h Hyperlink
				if err := d.DecodeElement(&h, &t); err != nil {
					return err
				}
				p.Children = append(p.Children, &h)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Text returns the concatenated visible text of the paragraph.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			sb.WriteString(c.Text())
		case *Hyperlink:
			for i := range c.Runs {
				sb.WriteString(c.Runs[i].Text())
			}
		}
	}
	return sb.String()
}

// ParagraphProps is the w:pPr subset the converter consults.
type ParagraphProps struct {
	Style *StyleRef     `xml:"pStyle"`
	NumPr *NumberingRef `xml:"numPr"`
}

// StyleRef references a style by id.
type StyleRef struct {
	Val string `xml:"val,attr"`
}

// NumberingRef ties a paragraph to a numbering definition.
type NumberingRef struct {
	Level *IntVal `xml:"ilvl"`
	ID    *IntVal `xml:"numId"`
}

// IntVal is a w:val integer attribute holder.
type IntVal struct {
	Val int `xml:"val,attr"`
}

// StrVal is a w:val string attribute holder.
type StrVal struct {
	Val string `xml:"val,attr"`
}

// Hyperlink is a w:hyperlink element; ID resolves through the relationship
// table to the link target.
type Hyperlink struct {
	ID   string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	Runs []Run  `xml:"r"`
}

// Run is a w:r element. Children keeps text, breaks, tabs, drawings, field
// characters and note references in source order.
type Run struct {
	Properties *RunProps
	Children   []RunChild
}

// RunChild is one ordered piece of run content.
type RunChild interface {
	runChild()
}

func (*RunText) runChild()        {}
func (*Tab) runChild()            {}
func (*Break) runChild()          {}
func (*CarriageReturn) runChild() {}
func (*Drawing) runChild()        {}
func (*FieldChar) runChild()      {}
func (*FootnoteRef) runChild()    {}

// UnmarshalXML implements xml.Unmarshaler.
func (r *Run) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				r.Properties = &RunProps{}
				if err := d.DecodeElement(r.Properties, &t); err != nil {
					return err
				}
			case "t":
				var rt RunText
				if err := d.DecodeElement(&rt, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &rt)
			case "tab":
				var tab Tab
				if err := d.DecodeElement(&tab, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &tab)
			case "br":
				var br Break
				if err := d.DecodeElement(&br, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &br)
			case "cr":
				var cr CarriageReturn
				if err := d.DecodeElement(&cr, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &cr)
			case "drawing":
				var dr Drawing
				if err := d.DecodeElement(&dr, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &dr)
			case "fldChar":
				var fc FieldChar
				if err := d.DecodeElement(&fc, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &fc)
			case "footnoteReference":
				var fr FootnoteRef
				if err := d.DecodeElement(&fr, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &fr)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Text returns the run's visible text with tabs and line breaks expanded.
// Page breaks are not included; callers that care about them walk Children.
func (r *Run) Text() string {
	var sb strings.Builder
	for _, child := range r.Children {
		switch c := child.(type) {
		case *RunText:
			sb.WriteString(c.Text)
		case *Tab:
			sb.WriteByte('\t')
		case *Break:
			if c.Type != "page" {
				sb.WriteByte('\n')
			}
		case *CarriageReturn:
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// RunProps is the w:rPr subset the converter consults.
type RunProps struct {
	Bold      *Toggle `xml:"b"`
	Italic    *Toggle `xml:"i"`
	Underline *Toggle `xml:"u"`
	Strike    *Toggle `xml:"strike"`
}

// Toggle is an OOXML on/off property. Presence means on unless the val
// attribute turns it off.
type Toggle struct {
	Val string `xml:"val,attr"`
}

// Enabled reports whether the toggle is present and not negated.
func (t *Toggle) Enabled() bool {
	if t == nil {
		return false
	}
	switch t.Val {
	case "0", "false", "none":
		return false
	}
	return true
}

// RunText is a w:t element.
type RunText struct {
	Space string `xml:"http://www.w3.org/XML/1998/namespace space,attr"`
	Text  string `xml:",chardata"`
}

// Tab is a w:tab element.
type Tab struct{}

// Break is a w:br element; Type is "page" for page breaks, empty for line
// breaks.
type Break struct {
	Type string `xml:"type,attr"`
}

// CarriageReturn is a w:cr element.
type CarriageReturn struct{}

// FieldChar marks the begin/separate/end boundaries of a field code.
type FieldChar struct {
	Type string `xml:"fldCharType,attr"`
}

// FootnoteRef is a w:footnoteReference element.
type FootnoteRef struct {
	ID string `xml:"id,attr"`
}

// Drawing is a w:drawing element, modeled just deep enough to reach the
// image relationship id and the alternative text.
type Drawing struct {
	Inline *DrawingContent `xml:"inline"`
	Anchor *DrawingContent `xml:"anchor"`
}

// DrawingContent is the shared shape of wp:inline and wp:anchor.
type DrawingContent struct {
	DocProps *DocProps `xml:"docPr"`
	Graphic  *Graphic  `xml:"graphic"`
}

// DocProps carries the drawing's name and description.
type DocProps struct {
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
}

// Graphic is an a:graphic element.
type Graphic struct {
	Data *GraphicData `xml:"graphicData"`
}

// GraphicData is an a:graphicData element.
type GraphicData struct {
	Pic *Pic `xml:"pic"`
}

// Pic is a pic:pic element.
type Pic struct {
	BlipFill *BlipFill `xml:"blipFill"`
}

// BlipFill is a pic:blipFill element.
type BlipFill struct {
	Blip *Blip `xml:"blip"`
}

// Blip references the image part through r:embed.
type Blip struct {
	Embed string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships embed,attr"`
}

// EmbedID returns the relationship id of the embedded image, or "" when the
// drawing holds none.
func (d *Drawing) EmbedID() string {
	for _, c := range []*DrawingContent{d.Inline, d.Anchor} {
		if c == nil || c.Graphic == nil || c.Graphic.Data == nil {
			continue
		}
		pic := c.Graphic.Data.Pic
		if pic == nil || pic.BlipFill == nil || pic.BlipFill.Blip == nil {
			continue
		}
		if id := pic.BlipFill.Blip.Embed; id != "" {
			return id
		}
	}
	return ""
}

// AltText returns the drawing's description, falling back to its name.
func (d *Drawing) AltText() string {
	for _, c := range []*DrawingContent{d.Inline, d.Anchor} {
		if c == nil || c.DocProps == nil {
			continue
		}
		if c.DocProps.Descr != "" {
			return c.DocProps.Descr
		}
		if c.DocProps.Name != "" {
			return c.DocProps.Name
		}
	}
	return ""
}

// Table is a w:tbl element.
type Table struct {
	Rows []TableRow `xml:"tr"`
}

// TableRow is a w:tr element.
type TableRow struct {
	Cells []TableCell `xml:"tc"`
}

// TableCell is a w:tc element. Cells hold the body content model, so
// Elements may contain paragraphs and nested tables in source order.
type TableCell struct {
	Properties *TableCellProps
	Elements   []BodyElement
}

// UnmarshalXML implements xml.Unmarshaler.
func (c *TableCell) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				c.Properties = &TableCellProps{}
				if err := d.DecodeElement(c.Properties, &t); err != nil {
					return err
				}
			case "p":
				var p Paragraph
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				c.Elements = append(c.Elements, &p)
			case "tbl":
				var tbl Table
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				c.Elements = append(c.Elements, &tbl)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// GridSpan returns the number of grid columns the cell spans, at least 1.
func (c *TableCell) GridSpan() int {
	if c.Properties != nil && c.Properties.GridSpan != nil && c.Properties.GridSpan.Val > 1 {
		return c.Properties.GridSpan.Val
	}
	return 1
}

// VMergeContinue reports whether the cell continues a vertical merge started
// in a row above.
func (c *TableCell) VMergeContinue() bool {
	if c.Properties == nil || c.Properties.VMerge == nil {
		return false
	}
	return c.Properties.VMerge.Val != "restart"
}

// TableCellProps is the w:tcPr subset the converter consults.
type TableCellProps struct {
	GridSpan *IntVal `xml:"gridSpan"`
	VMerge   *VMerge `xml:"vMerge"`
}

// VMerge marks vertical cell merging; an empty val means continuation.
type VMerge struct {
	Val string `xml:"val,attr"`
}

// collectCharData consumes the remainder of the current element and returns
// its concatenated character data.
func collectCharData(d *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	return sb.String(), nil
}

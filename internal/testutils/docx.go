// Package testutils builds minimal .docx archives for tests.
package testutils

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wordNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`

// DocxOption adds optional parts to a built archive.
type DocxOption func(*docxParts)

type docxParts struct {
	relationships []relationship
	styles        []styleEntry
	footnotes     []footnoteEntry
	numbering     string
	raw           map[string][]byte
}

type relationship struct {
	id     string
	target string
}

type styleEntry struct {
	id   string
	name string
}

type footnoteEntry struct {
	id   string
	text string
}

// WithRelationship adds an entry to word/_rels/document.xml.rels.
func WithRelationship(id, target string) DocxOption {
	return func(p *docxParts) {
		p.relationships = append(p.relationships, relationship{id: id, target: target})
	}
}

// WithMedia stores data under word/media/name and relates it to id.
func WithMedia(id, name string, data []byte) DocxOption {
	return func(p *docxParts) {
		p.relationships = append(p.relationships, relationship{id: id, target: "media/" + name})
		p.raw["word/media/"+name] = data
	}
}

// WithStyle adds a style id to display name mapping to word/styles.xml.
func WithStyle(id, name string) DocxOption {
	return func(p *docxParts) {
		p.styles = append(p.styles, styleEntry{id: id, name: name})
	}
}

// WithFootnote adds a single-paragraph footnote to word/footnotes.xml.
func WithFootnote(id, text string) DocxOption {
	return func(p *docxParts) {
		p.footnotes = append(p.footnotes, footnoteEntry{id: id, text: text})
	}
}

// WithNumbering sets the inner XML of word/numbering.xml, i.e. the
// abstractNum and num elements.
func WithNumbering(inner string) DocxOption {
	return func(p *docxParts) {
		p.numbering = inner
	}
}

// WithRawPart stores an arbitrary part, overriding any generated one.
func WithRawPart(name string, data []byte) DocxOption {
	return func(p *docxParts) {
		p.raw[name] = data
	}
}

// OrderedListNumbering returns a numbering part with one decimal instance
// under the given id, covering levels 0 through 2.
func OrderedListNumbering(numID int) DocxOption {
	return listNumbering(numID, "decimal")
}

// BulletListNumbering returns a numbering part with one bullet instance
// under the given id, covering levels 0 through 2.
func BulletListNumbering(numID int) DocxOption {
	return listNumbering(numID, "bullet")
}

func listNumbering(numID int, format string) DocxOption {
	var levels strings.Builder
	for lvl := 0; lvl < 3; lvl++ {
		fmt.Fprintf(&levels,
			`<w:lvl w:ilvl="%d"><w:numFmt w:val="%s"/><w:start w:val="1"/></w:lvl>`,
			lvl, format)
	}
	inner := fmt.Sprintf(
		`<w:abstractNum w:abstractNumId="%d">%s</w:abstractNum>`+
			`<w:num w:numId="%d"><w:abstractNumId w:val="%d"/></w:num>`,
		numID*100, levels.String(), numID, numID*100)
	return WithNumbering(inner)
}

// DocxBytes builds an in-memory .docx archive around the given body XML.
func DocxBytes(t *testing.T, bodyXML string, opts ...DocxOption) []byte {
	t.Helper()

	parts := &docxParts{raw: make(map[string][]byte)}
	for _, opt := range opts {
		opt(parts)
	}

	files := map[string][]byte{
		"word/document.xml": []byte(`<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document ` + wordNamespaces + `><w:body>` + bodyXML + `</w:body></w:document>`),
	}

	if len(parts.relationships) > 0 {
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
		for _, rel := range parts.relationships {
			fmt.Fprintf(&sb, `<Relationship Id=%q Type="image" Target=%q/>`, rel.id, rel.target)
		}
		sb.WriteString(`</Relationships>`)
		files["word/_rels/document.xml.rels"] = []byte(sb.String())
	}

	if len(parts.styles) > 0 {
		var sb strings.Builder
		sb.WriteString(`<w:styles ` + wordNamespaces + `>`)
		for _, st := range parts.styles {
			fmt.Fprintf(&sb,
				`<w:style w:type="paragraph" w:styleId=%q><w:name w:val=%q/></w:style>`,
				st.id, st.name)
		}
		sb.WriteString(`</w:styles>`)
		files["word/styles.xml"] = []byte(sb.String())
	}

	if len(parts.footnotes) > 0 {
		var sb strings.Builder
		sb.WriteString(`<w:footnotes ` + wordNamespaces + `>`)
		sb.WriteString(`<w:footnote w:type="separator" w:id="-1"><w:p/></w:footnote>`)
		for _, fn := range parts.footnotes {
			fmt.Fprintf(&sb,
				`<w:footnote w:id=%q><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:footnote>`,
				fn.id, fn.text)
		}
		sb.WriteString(`</w:footnotes>`)
		files["word/footnotes.xml"] = []byte(sb.String())
	}

	if parts.numbering != "" {
		files["word/numbering.xml"] = []byte(
			`<w:numbering ` + wordNamespaces + `>` + parts.numbering + `</w:numbering>`)
	}

	for name, data := range parts.raw {
		files[name] = data
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("docx zip entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("docx zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("docx zip close: %v", err)
	}
	return buf.Bytes()
}

// DocxFile writes a built archive to a temp file and returns its path.
func DocxFile(t *testing.T, bodyXML string, opts ...DocxOption) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	if err := os.WriteFile(path, DocxBytes(t, bodyXML, opts...), 0o600); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return path
}

// Para returns a plain paragraph with one text run.
func Para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

// StyledPara returns a paragraph carrying a paragraph style.
func StyledPara(styleID, text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="` + styleID + `"/></w:pPr>` +
		`<w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

// ListPara returns a paragraph carrying numbering properties.
func ListPara(numID, ilvl int, text string) string {
	return fmt.Sprintf(
		`<w:p><w:pPr><w:numPr><w:ilvl w:val="%d"/><w:numId w:val="%d"/></w:numPr></w:pPr>`+
			`<w:r><w:t>%s</w:t></w:r></w:p>`, ilvl, numID, text)
}

// ImageRun returns a run holding an inline drawing that references relID.
func ImageRun(relID, alt string) string {
	return `<w:r><w:drawing><wp:inline><wp:docPr id="1" name="pic" descr="` + alt + `"/>` +
		`<a:graphic><a:graphicData><pic:pic><pic:blipFill><a:blip r:embed="` + relID + `"/>` +
		`</pic:blipFill></pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`
}

// Package ooxml opens WordprocessingML packages and exposes the parsed parts
// the conversion pipeline consumes: the ordered document body, the
// relationship table, numbering definitions, style names, footnote texts and
// media payloads. It deliberately models only the subset of OOXML the
// converter needs.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrPartMissing reports a package part that could not be found.
var ErrPartMissing = errors.New("part not found in package")

const documentPart = "word/document.xml"

// Package is the decoded view of one .docx archive. All parts are read into
// memory at open time; the archive handle is not retained, so a Package
// needs no explicit closing.
type Package struct {
	// Body holds the document body elements in source order.
	Body []BodyElement
	// Relationships maps a relationship id to its target, e.g.
	// "rId4" -> "media/image1.png".
	Relationships map[string]string
	// Footnotes maps a footnote id to its plain text.
	Footnotes map[string]string

	styleNames   map[string]string
	numberingRaw []byte
	numbering    *Numbering
	numberingErr error
	parts        map[string][]byte
}

// Open reads and parses the package at path.
func Open(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a package from its raw bytes.
func Parse(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package archive: %w", err)
	}

	pkg := &Package{
		Relationships: make(map[string]string),
		Footnotes:     make(map[string]string),
		styleNames:    make(map[string]string),
		parts:         make(map[string][]byte),
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		part, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		pkg.parts[f.Name] = part
	}

	doc, ok := pkg.parts[documentPart]
	if !ok {
		return nil, fmt.Errorf("%s: %w", documentPart, ErrPartMissing)
	}
	var wd wordDocument
	if err := xml.Unmarshal(doc, &wd); err != nil {
		return nil, fmt.Errorf("parse %s: %w", documentPart, err)
	}
	pkg.Body = wd.Body.Elements

	if rels, ok := pkg.parts["word/_rels/document.xml.rels"]; ok {
		var r relationships
		if err := xml.Unmarshal(rels, &r); err != nil {
			return nil, fmt.Errorf("parse document relationships: %w", err)
		}
		for _, rel := range r.Relationships {
			pkg.Relationships[rel.ID] = rel.Target
		}
	}

	// Optional parts. Styles and footnotes only enrich the output, so a
	// malformed part degrades to absence instead of failing the open.
	if styles, ok := pkg.parts["word/styles.xml"]; ok {
		var s stylesPart
		if xml.Unmarshal(styles, &s) == nil {
			for _, st := range s.Styles {
				if st.Name != nil && st.Name.Val != "" {
					pkg.styleNames[st.ID] = st.Name.Val
				}
			}
		}
	}
	if notes, ok := pkg.parts["word/footnotes.xml"]; ok {
		var fn footnotesPart
		if xml.Unmarshal(notes, &fn) == nil {
			for _, note := range fn.Notes {
				if note.Type == "separator" || note.Type == "continuationSeparator" {
					continue
				}
				pkg.Footnotes[note.ID] = footnoteText(note)
			}
		}
	}

	pkg.numberingRaw = pkg.parts["word/numbering.xml"]

	return pkg, nil
}

// StyleName resolves a style id to its display name, or "" when unknown.
func (p *Package) StyleName(id string) string {
	return p.styleNames[id]
}

// Numbering decodes word/numbering.xml into a lookup table. The decode runs
// once per Package; an absent part yields an empty table, a malformed part
// an error.
func (p *Package) Numbering() (*Numbering, error) {
	if p.numbering == nil && p.numberingErr == nil {
		p.numbering, p.numberingErr = parseNumbering(p.numberingRaw)
	}
	return p.numbering, p.numberingErr
}

// MediaPart returns the payload of a media part by relationship target.
// Targets are usually relative to the word/ directory.
func (p *Package) MediaPart(target string) ([]byte, error) {
	candidates := []string{target}
	if !strings.HasPrefix(target, "word/") {
		candidates = append([]string{"word/" + target}, candidates...)
	}
	for _, name := range candidates {
		if data, ok := p.parts[name]; ok {
			return data, nil
		}
	}
	return nil, fmt.Errorf("media part %q: %w", target, ErrPartMissing)
}

type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    Body     `xml:"body"`
}

type relationships struct {
	Relationships []relationship `xml:"Relationship"`
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type stylesPart struct {
	Styles []style `xml:"style"`
}

type style struct {
	ID   string  `xml:"styleId,attr"`
	Name *StrVal `xml:"name"`
}

type footnotesPart struct {
	Notes []footnote `xml:"footnote"`
}

type footnote struct {
	ID         string      `xml:"id,attr"`
	Type       string      `xml:"type,attr"`
	Paragraphs []Paragraph `xml:"p"`
}

func footnoteText(fn footnote) string {
	parts := make([]string, 0, len(fn.Paragraphs))
	for i := range fn.Paragraphs {
		if text := strings.TrimSpace(fn.Paragraphs[i].Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

package ooxml

import (
	"encoding/xml"
	"fmt"
)

// Numbering is the immutable lookup table built from word/numbering.xml.
// It resolves a (numId, ilvl) pair to the level definition of the abstract
// numbering the instance points at.
type Numbering struct {
	instances map[int]int
	levels    map[int]map[int]Level
}

// Level describes one indentation level of an abstract numbering.
type Level struct {
	// Format is the w:numFmt value, e.g. "decimal" or "bullet".
	Format string
	// Start is the first counter value, defaulting to 1.
	Start int
	// Text is the w:lvlText template, e.g. "%1.".
	Text string
}

// Bullet reports whether the level renders as an unordered marker.
func (l Level) Bullet() bool {
	return l.Format == "bullet" || l.Format == "none" || l.Format == ""
}

// Lookup resolves a numbering instance and indentation level to its
// definition.
func (n *Numbering) Lookup(numID, ilvl int) (Level, bool) {
	absID, ok := n.instances[numID]
	if !ok {
		return Level{}, false
	}
	levels, ok := n.levels[absID]
	if !ok {
		return Level{}, false
	}
	lvl, ok := levels[ilvl]
	return lvl, ok
}

type numberingPart struct {
	XMLName      xml.Name      `xml:"numbering"`
	AbstractNums []abstractNum `xml:"abstractNum"`
	Instances    []numInstance `xml:"num"`
}

type abstractNum struct {
	ID     int        `xml:"abstractNumId,attr"`
	Levels []levelDef `xml:"lvl"`
}

type levelDef struct {
	Level  int     `xml:"ilvl,attr"`
	Start  *IntVal `xml:"start"`
	Format *StrVal `xml:"numFmt"`
	Text   *StrVal `xml:"lvlText"`
}

type numInstance struct {
	ID         int     `xml:"numId,attr"`
	AbstractID *IntVal `xml:"abstractNumId"`
}

func parseNumbering(raw []byte) (*Numbering, error) {
	n := &Numbering{
		instances: make(map[int]int),
		levels:    make(map[int]map[int]Level),
	}
	if len(raw) == 0 {
		return n, nil
	}

	var part numberingPart
	if err := xml.Unmarshal(raw, &part); err != nil {
		return nil, fmt.Errorf("parse word/numbering.xml: %w", err)
	}

	for _, abs := range part.AbstractNums {
		levels := make(map[int]Level, len(abs.Levels))
		for _, def := range abs.Levels {
			lvl := Level{Format: "decimal", Start: 1}
			if def.Format != nil {
				lvl.Format = def.Format.Val
			}
			if def.Start != nil {
				lvl.Start = def.Start.Val
			}
			if def.Text != nil {
				lvl.Text = def.Text.Val
			}
			levels[def.Level] = lvl
		}
		n.levels[abs.ID] = levels
	}
	for _, inst := range part.Instances {
		if inst.AbstractID != nil {
			n.instances[inst.ID] = inst.AbstractID.Val
		}
	}
	return n, nil
}

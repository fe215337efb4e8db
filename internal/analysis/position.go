package analysis

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Position is a zero-based line and column. Columns count UTF-16 code units,
// the unit editors use on the wire.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, col. %d)", p.Line, p.Column)
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Span is the half-open range [Start, End).
type Span struct {
	Start Position
	End   Position
}

// Contains reports whether pos lies in [Start, End).
func (s Span) Contains(pos Position) bool {
	return !pos.Before(s.Start) && pos.Before(s.End)
}

// Within reports whether s lies entirely inside o.
func (s Span) Within(o Span) bool {
	return !s.Start.Before(o.Start) && !o.End.Before(s.End)
}

// lineIndex maps tree-sitter points (byte columns) to Positions.
type lineIndex struct {
	lines []string
}

func newLineIndex(text string) *lineIndex {
	return &lineIndex{lines: strings.Split(text, "\n")}
}

// position converts a tree-sitter point to a Position, counting the UTF-16
// code units of the line prefix.
func (li *lineIndex) position(pt sitter.Point) Position {
	row := int(pt.Row)
	if row >= len(li.lines) {
		row = len(li.lines) - 1
	}
	line := li.lines[row]
	col := int(pt.Column)
	if col > len(line) {
		col = len(line)
	}

	units := 0
	for _, r := range line[:col] {
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return Position{Line: row, Column: units}
}

func (li *lineIndex) span(n *sitter.Node) Span {
	return Span{Start: li.position(n.StartPoint()), End: li.position(n.EndPoint())}
}

// Package layout flattens region trees into width-fitted terminal rows and
// shares a fixed row budget between sources.
package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Kind identifies the role of a display line for styling.
type Kind uint8

const (
	KindSourceTitle Kind = iota
	KindTitle
	KindText
	KindRunCut
	KindSourceCut
	KindBlank
)

func (k Kind) String() string {
	switch k {
	case KindSourceTitle:
		return "source-title"
	case KindTitle:
		return "title"
	case KindText:
		return "text"
	case KindRunCut:
		return "run-cut"
	case KindSourceCut:
		return "source-cut"
	case KindBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// Glyphs and sizes used when building lines.
const (
	TextPrefix      = "⫼ "
	TitlePrefix     = "└── "
	RunCutPrefix    = "+-------------------------------------"
	SourceCutPrefix = "+====================================="
	Ellipsis        = "..."

	TabStop       = 8
	IndentStep    = 4
	BaseThreshold = 3
)

// DisplayLine is one laid-out terminal row. Active selects the heavy style:
// open titles, the source title, and text on the trailing spine.
type DisplayLine struct {
	Indent int
	Kind   Kind
	Active bool
	Prefix string
	Text   []string
}

// String renders the line without styling.
func (l DisplayLine) String() string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", l.Indent))
	b.WriteString(l.Prefix)
	for _, f := range l.Text {
		b.WriteString(f)
	}
	return b.String()
}

// Width returns the line's width in terminal cells.
func (l DisplayLine) Width() int {
	w := l.Indent + runewidth.StringWidth(l.Prefix)
	for _, f := range l.Text {
		w += runewidth.StringWidth(f)
	}
	return w
}

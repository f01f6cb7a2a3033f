package layout

import (
	"github.com/dkoosis/muxfold/pkg/region"
)

// Engine lays out Content trees for a terminal of a given width.
type Engine struct {
	Width int
	// FoldClosed renders closed regions as their title line only.
	FoldClosed bool
}

// Describe lays out one source: its title line followed by its content,
// with the top level on the trailing spine.
func (e Engine) Describe(title string, c *region.Content, extra int) []DisplayLine {
	b := builder{engine: e, content: c, extra: extra}
	b.add(DisplayLine{Kind: KindSourceTitle, Active: true, Text: []string{title}})
	b.nodes(c.Top(), 0, true)
	return b.lines
}

// Layout flattens c into display lines. extra is added to the threshold of
// the plain run on the trailing spine; spine says whether c's top level
// is itself on that spine.
func (e Engine) Layout(c *region.Content, extra int, spine bool) []DisplayLine {
	b := builder{engine: e, content: c, extra: extra}
	b.nodes(c.Top(), 0, spine)
	return b.lines
}

type builder struct {
	engine  Engine
	content *region.Content
	extra   int
	lines   []DisplayLine
}

func (b *builder) add(l DisplayLine) {
	b.lines = append(b.lines, Fit(l, b.engine.Width))
}

func (b *builder) nodes(ids []region.NodeID, indent int, spine bool) {
	for i, id := range ids {
		n := b.content.Node(id)
		last := spine && i == len(ids)-1
		switch n.Kind {
		case region.KindRun:
			b.run(n.Lines, indent, last)
		case region.KindEncapsulation:
			b.encapsulation(n, indent, last)
		}
	}
}

// run emits a plain run, keeping at most threshold rows: the first line,
// a cut marker, and the last threshold-2 lines.
func (b *builder) run(lines []string, indent int, spine bool) {
	threshold := BaseThreshold
	if spine {
		threshold += b.extra
	}

	if len(lines) <= threshold {
		for _, l := range lines {
			b.text(l, indent, spine)
		}
		return
	}

	b.text(lines[0], indent, spine)
	b.add(DisplayLine{Indent: indent, Kind: KindRunCut, Active: spine, Prefix: RunCutPrefix})
	for _, l := range lines[len(lines)-(threshold-2):] {
		b.text(l, indent, spine)
	}
}

func (b *builder) text(s string, indent int, spine bool) {
	b.add(DisplayLine{Indent: indent, Kind: KindText, Active: spine, Prefix: TextPrefix, Text: []string{s}})
}

func (b *builder) encapsulation(n *region.Node, indent int, spine bool) {
	enc := &n.Encap
	text := []string{enc.StartTitle}
	if closed, ok := enc.State.(region.Closed); ok && closed.EndTitle != "" {
		text = append(text, " ", closed.EndTitle)
	}
	open := enc.IsOpen()
	b.add(DisplayLine{Indent: indent, Kind: KindTitle, Active: open, Prefix: TitlePrefix, Text: text})

	if !open && b.engine.FoldClosed {
		return
	}
	b.nodes(n.Children, indent+IndentStep, spine)
}

// ReduceToCount keeps the title line and the last rows of lines, with a
// whole-source cut marker between them, so that exactly n rows remain.
// Sources shorter than n are padded with blank rows.
func ReduceToCount(lines []DisplayLine, n int) []DisplayLine {
	if n <= 0 || len(lines) == 0 {
		return nil
	}
	out := make([]DisplayLine, 0, n)
	out = append(out, lines[0])
	if n == 1 {
		return out
	}
	out = append(out, DisplayLine{Kind: KindSourceCut, Prefix: SourceCutPrefix})

	rest := lines[1:]
	keep := n - 2
	if keep > len(rest) {
		keep = len(rest)
	}
	out = append(out, rest[len(rest)-keep:]...)
	for len(out) < n {
		out = append(out, DisplayLine{Kind: KindBlank})
	}
	return out
}

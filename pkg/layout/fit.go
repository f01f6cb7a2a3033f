package layout

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Fit makes l fit in width cells. Tabs are expanded to multiples of
// TabStop counted from the start of the text, escape sequences in the
// text are stripped, and overflowing text is cut so that the text plus
// Ellipsis fills the available width exactly. Lines are never wrapped.
func Fit(l DisplayLine, width int) DisplayLine {
	frags := expandTabs(sanitize(l.Text))

	if width < 0 {
		width = 0
	}
	if l.Indent > width {
		l.Indent = width
	}
	room := width - l.Indent
	if runewidth.StringWidth(l.Prefix) > room {
		l.Prefix = runewidth.Truncate(l.Prefix, room, "")
	}
	avail := room - runewidth.StringWidth(l.Prefix)

	total := 0
	for _, f := range frags {
		total += runewidth.StringWidth(f)
	}
	if total <= avail {
		l.Text = frags
		return l
	}

	cut := avail - runewidth.StringWidth(Ellipsis)
	if cut < 0 {
		// Not even the ellipsis fits in full.
		if avail <= 0 {
			l.Text = nil
		} else {
			l.Text = []string{runewidth.Truncate(Ellipsis, avail, "")}
		}
		return l
	}

	out := make([]string, 0, len(frags)+1)
	used := 0
	for _, f := range frags {
		w := runewidth.StringWidth(f)
		if used+w > cut {
			out = append(out, runewidth.Truncate(f, cut-used, ""))
			break
		}
		out = append(out, f)
		used += w
	}
	l.Text = append(out, Ellipsis)
	return l
}

func sanitize(frags []string) []string {
	out := make([]string, len(frags))
	for i, f := range frags {
		if strings.ContainsRune(f, '\x1b') {
			f = ansi.Strip(f)
		}
		out[i] = f
	}
	return out
}

func expandTabs(frags []string) []string {
	col := 0
	out := make([]string, 0, len(frags))
	for _, f := range frags {
		if !strings.ContainsRune(f, '\t') {
			out = append(out, f)
			col += runewidth.StringWidth(f)
			continue
		}
		var b strings.Builder
		for _, r := range f {
			if r == '\t' {
				n := TabStop - col%TabStop
				b.WriteString(strings.Repeat(" ", n))
				col += n
				continue
			}
			b.WriteRune(r)
			col += runewidth.RuneWidth(r)
		}
		out = append(out, b.String())
	}
	return out
}

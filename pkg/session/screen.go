package session

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/dkoosis/muxfold/pkg/layout"
)

// styles holds the two text weights used on screen. Prefixes are always
// bold; heavy is bold cyan.
type styles struct {
	heavy       lipgloss.Style
	prefix      lipgloss.Style
	heavyPrefix lipgloss.Style
}

func newStyles(w io.Writer, profile termenv.Profile) styles {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	r.SetColorProfile(profile)
	heavy := r.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	return styles{
		heavy:       heavy,
		prefix:      r.NewStyle().Bold(true),
		heavyPrefix: heavy,
	}
}

// render styles one display line. Text and cut lines on the trailing spine
// get a heavy prefix; the source title and open titles get heavy text.
func (st styles) render(l layout.DisplayLine) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", l.Indent))

	if l.Prefix != "" {
		ps := st.prefix
		if l.Active && (l.Kind == layout.KindText || l.Kind == layout.KindRunCut) {
			ps = st.heavyPrefix
		}
		b.WriteString(ps.Render(l.Prefix))
	}

	text := strings.Join(l.Text, "")
	if text != "" && l.Active && (l.Kind == layout.KindSourceTitle || l.Kind == layout.KindTitle) {
		text = st.heavy.Render(text)
	}
	b.WriteString(text)
	return b.String()
}

// screen is the single point of terminal output while the dashboard is
// live. Every frame repaints from the home position.
type screen struct {
	w      *bufio.Writer
	styles styles
	alt    bool
}

func newScreen(out io.Writer, profile termenv.Profile, alt bool) *screen {
	return &screen{
		w:      bufio.NewWriterSize(out, 64*1024),
		styles: newStyles(out, profile),
		alt:    alt,
	}
}

// Begin enters the alternate screen when asked, hides the cursor and
// clears the screen.
func (s *screen) Begin() error {
	if s.alt {
		_, _ = s.w.WriteString(ansi.SetAltScreenSaveCursorMode)
	}
	_, _ = s.w.WriteString(ansi.HideCursor)
	_, _ = s.w.WriteString(ansi.EraseEntireScreen)
	return s.w.Flush()
}

// Frame paints rows from the top of the screen. Each row is clipped to
// width and erased to its right; everything below the last row is erased.
func (s *screen) Frame(frame layout.Frame, width int) error {
	_, _ = s.w.WriteString(ansi.CursorHomePosition)

	total := frame.Rows()
	n := 0
	for _, pane := range frame {
		for _, l := range pane {
			n++
			_, _ = s.w.WriteString(ansi.Truncate(s.styles.render(l), width, ""))
			_, _ = s.w.WriteString(ansi.EraseLineRight)
			if n < total {
				_, _ = s.w.WriteString("\n")
			}
		}
	}
	_, _ = s.w.WriteString(ansi.EraseScreenBelow)
	return s.w.Flush()
}

// End shows the cursor again and leaves the alternate screen.
func (s *screen) End() error {
	_, _ = s.w.WriteString("\n")
	_, _ = s.w.WriteString(ansi.ShowCursor)
	if s.alt {
		_, _ = s.w.WriteString(ansi.ResetAltScreenSaveCursorMode)
	}
	return s.w.Flush()
}

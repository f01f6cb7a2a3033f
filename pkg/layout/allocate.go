package layout

import (
	"github.com/dkoosis/muxfold/pkg/region"
)

// MostEqualDivide returns the share of total for slot idx when total is
// split across n slots as evenly as possible. Earlier slots get the
// remainder.
func MostEqualDivide(total, n, idx int) int {
	if n <= 0 {
		return 0
	}
	d := total / n
	if idx < total%n {
		d++
	}
	return d
}

// Pane is one source as seen by the allocator.
type Pane struct {
	Title   string
	Content *region.Content
}

// Frame is the laid-out content of every pane, in pane order.
type Frame [][]DisplayLine

// Rows returns the number of rows in the frame.
func (f Frame) Rows() int {
	n := 0
	for _, p := range f {
		n += len(p)
	}
	return n
}

// Allocate lays out all panes to fill rows. Panes are first laid out with
// no slack. If that overflows, each pane is cut to its equal share; if it
// underflows, the spare rows are shared out as extra lines for each pane's
// trailing run and the panes are laid out again.
func (e Engine) Allocate(panes []Pane, rows int) Frame {
	if rows < 0 {
		rows = 0
	}
	frame := make(Frame, len(panes))
	for i, p := range panes {
		frame[i] = e.Describe(p.Title, p.Content, 0)
	}

	total := frame.Rows()
	n := len(panes)
	switch {
	case total > rows:
		for i := range frame {
			frame[i] = ReduceToCount(frame[i], MostEqualDivide(rows, n, i))
		}
	case total < rows:
		spare := rows - total
		for i, p := range panes {
			frame[i] = e.Describe(p.Title, p.Content, MostEqualDivide(spare, n, i))
		}
	}
	return frame
}

package region

import (
	"fmt"
	"io"
	"strings"
)

// Replay writes the tree back as the literal lines it was built from:
// start line, children, then the end line when the region was closed.
// Dropped end lines are not reproduced.
func Replay(w io.Writer, c *Content) error {
	ew := &errWriter{w: w}
	for _, id := range c.Top() {
		replayNode(ew, c, id)
	}
	return ew.err
}

func replayNode(w *errWriter, c *Content, id NodeID) {
	n := c.Node(id)
	switch n.Kind {
	case KindRun:
		for _, line := range n.Lines {
			w.println(line)
		}
	case KindEncapsulation:
		w.println(n.Encap.StartLine)
		for _, child := range n.Children {
			replayNode(w, c, child)
		}
		if closed, ok := n.Encap.State.(Closed); ok {
			w.println(closed.EndLine)
		}
	}
}

// Trace writes a structural dump of the tree, four spaces of indent per
// nesting level.
func Trace(w io.Writer, c *Content) error {
	ew := &errWriter{w: w}
	for _, id := range c.Top() {
		traceNode(ew, c, id, 0)
	}
	return ew.err
}

func traceNode(w *errWriter, c *Content, id NodeID, depth int) {
	pad := strings.Repeat(" ", depth*4)
	n := c.Node(id)
	switch n.Kind {
	case KindRun:
		for _, line := range n.Lines {
			w.println(pad + "Line: " + line)
		}
	case KindEncapsulation:
		w.println(fmt.Sprintf("%sStartLine: %s", pad, n.Encap.StartLine))
		w.println(fmt.Sprintf("%sStartTitle: %s", pad, n.Encap.StartTitle))
		for _, child := range n.Children {
			traceNode(w, c, child, depth+1)
		}
		switch st := n.Encap.State.(type) {
		case Closed:
			w.println(fmt.Sprintf("%sEndLine: %q", pad, st.EndLine))
			w.println(fmt.Sprintf("%sEndTitle: %q", pad, st.EndTitle))
		case Open:
			w.println(pad + "EndLine: <open>")
			w.println(pad + "EndTitle: <open>")
		}
	}
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) println(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s+"\n")
}

package region

// Action reports what Append did with a line.
type Action uint8

const (
	// Appended means the line joined a plain run.
	Appended Action = iota
	// Opened means the line started a new region.
	Opened
	// ClosedRegion means the line ended the innermost open region.
	ClosedRegion
	// Discarded means the line was an end line with nothing open.
	Discarded
)

func (a Action) String() string {
	switch a {
	case Appended:
		return "appended"
	case Opened:
		return "opened"
	case ClosedRegion:
		return "closed"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Append classifies line against m and inserts it into the tree.
func (c *Content) Append(line string, m *Matchers) Action {
	match, ok := m.Classify(line)
	if !ok {
		c.appendLine(line)
		return Appended
	}

	switch match.Side {
	case SideStart:
		c.openRegion(match, line)
		return Opened
	default:
		if c.closeRegion(match, line) {
			return ClosedRegion
		}
		return Discarded
	}
}

// appendLine adds line to the trailing run of the innermost open region,
// starting a new run when the last element there is a closed region.
func (c *Content) appendLine(line string) {
	parent := c.innermost()
	if kids := c.childrenOf(parent); len(kids) > 0 {
		last := &c.nodes[kids[len(kids)-1]]
		if last.Kind == KindRun {
			last.Lines = append(last.Lines, line)
			return
		}
	}
	c.attach(parent, Node{Kind: KindRun, Lines: []string{line}})
}

func (c *Content) openRegion(match Match, line string) {
	id := c.attach(c.innermost(), Node{
		Kind: KindEncapsulation,
		Encap: Encapsulation{
			PairID:     match.Pair,
			StartTitle: match.Title,
			StartLine:  line,
			State:      Open{},
		},
	})
	c.open = append(c.open, id)
}

// closeRegion closes the innermost open region regardless of which pair
// opened it.
func (c *Content) closeRegion(match Match, line string) bool {
	if len(c.open) == 0 {
		return false
	}
	id := c.open[len(c.open)-1]
	c.open = c.open[:len(c.open)-1]
	c.nodes[id].Encap.State = Closed{EndTitle: match.Title, EndLine: line}
	return true
}

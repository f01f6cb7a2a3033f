package region

// NodeID indexes a node in a Content arena.
type NodeID int

// NoNode is the parent of top-level nodes.
const NoNode NodeID = -1

// Kind tags a node as a plain run of lines or an encapsulation.
type Kind uint8

const (
	KindRun Kind = iota
	KindEncapsulation
)

// State is either Open or Closed.
type State interface {
	isState()
}

// Open regions still accept content.
type Open struct{}

// Closed regions carry the line that ended them.
type Closed struct {
	EndTitle string
	EndLine  string
}

func (Open) isState()   {}
func (Closed) isState() {}

// Encapsulation is a region opened by a begin line.
type Encapsulation struct {
	PairID     PairID
	StartTitle string
	StartLine  string
	State      State
}

// IsOpen reports whether the region can still receive content.
func (e *Encapsulation) IsOpen() bool {
	_, open := e.State.(Open)
	return open
}

// Node is one element of a Content tree. Lines is set for runs; Encap and
// Children for encapsulations.
type Node struct {
	Kind     Kind
	Parent   NodeID
	Lines    []string
	Encap    Encapsulation
	Children []NodeID
}

// Content is the tree of output for one source, stored as an arena.
// open holds the path from the outermost to the innermost open region;
// each entry is the last child of the entry before it.
type Content struct {
	nodes []Node
	top   []NodeID
	open  []NodeID
}

// NewContent returns an empty tree.
func NewContent() *Content {
	return &Content{}
}

// Top returns the top-level nodes in insertion order.
func (c *Content) Top() []NodeID { return c.top }

// Node returns the node for id. Callers must not modify it.
func (c *Content) Node(id NodeID) *Node { return &c.nodes[id] }

// Len returns the number of nodes in the tree.
func (c *Content) Len() int { return len(c.nodes) }

// Empty reports whether nothing has been added.
func (c *Content) Empty() bool { return len(c.top) == 0 }

// OpenDepth returns how many regions are currently open.
func (c *Content) OpenDepth() int { return len(c.open) }

// innermost returns the region that receives new content, or NoNode for
// the top level.
func (c *Content) innermost() NodeID {
	if len(c.open) == 0 {
		return NoNode
	}
	return c.open[len(c.open)-1]
}

func (c *Content) childrenOf(parent NodeID) []NodeID {
	if parent == NoNode {
		return c.top
	}
	return c.nodes[parent].Children
}

func (c *Content) attach(parent NodeID, n Node) NodeID {
	id := NodeID(len(c.nodes))
	n.Parent = parent
	c.nodes = append(c.nodes, n)
	if parent == NoNode {
		c.top = append(c.top, id)
	} else {
		p := &c.nodes[parent]
		p.Children = append(p.Children, id)
	}
	return id
}

package rbtree

type Color uint8

const (
	Red   Color = 0
	Black Color = 1
)

func (c Color) String() string {
	switch c {
	case Red:
		return "RED"
	case Black:
		return "BLACK"
	default:
		return "UNKNOWN"
	}
}

// nilIndex marks an absent child, an absent parent or an empty root.
const nilIndex int32 = -1

type node struct {
	key    int64
	left   int32
	right  int32
	parent int32
	gen    uint32
	color  Color
	live   bool
}

// Handle refers to a node returned by Search. The handle goes stale once the
// slot it points to is released by Remove.
//
// Remove may copy a successor key into the slot of the node it matched and
// release the successor instead, so a live handle can observe a different
// key after a Remove of its own key.
type Handle struct {
	index int32
	gen   uint32
}

// Node is an externally built node. Adopt copies the subtree rooted at a Node
// into a new Tree.
type Node struct {
	Key    int64
	Color  Color
	Left   *Node
	Right  *Node
	Parent *Node
}

// NewNode returns an unlinked red node, the same state Insert allocates.
func NewNode(key int64) *Node {
	return &Node{Key: key, Color: Red}
}

// SetLeft links child as n's left child and points child back at n.
func (n *Node) SetLeft(child *Node) {
	n.Left = child
	if child != nil {
		child.Parent = n
	}
}

// SetRight links child as n's right child and points child back at n.
func (n *Node) SetRight(child *Node) {
	n.Right = child
	if child != nil {
		child.Parent = n
	}
}

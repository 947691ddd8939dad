package rbtree

import "github.com/pkg/errors"

// Tree is a red-black tree of int64 keys.
type Tree struct {
	nodes []node
	free  []int32
	root  int32
	size  int
}

// New constructs an empty tree.
func New() *Tree {
	return &Tree{root: nilIndex}
}

// NewWithKey constructs a tree holding a single key.
func NewWithKey(key int64) *Tree {
	t := New()
	t.Insert(key)
	return t
}

// Adopt builds a tree whose root is a copy of n and whose shape, keys and
// colors are copied from n's subtree. The root is recolored black; the rest
// of the subtree is trusted to already satisfy the red-black rules, which
// Validate can confirm.
//
// A nil node yields an empty tree. A node that still has a parent is
// rejected with ErrInvalidRootAdoption and no tree is built.
func Adopt(n *Node) (*Tree, error) {
	t := New()
	if n == nil {
		return t, nil
	}
	if n.Parent != nil {
		return nil, ErrInvalidRootAdoption
	}
	if err := checkAcyclic(n); err != nil {
		return nil, err
	}
	t.root = t.adopt(n, nilIndex)
	t.nodes[t.root].color = Black
	return t, nil
}

func checkAcyclic(root *Node) error {
	seen := make(map[*Node]struct{})
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n]; ok {
			return errors.Wrapf(ErrInvalidRootAdoption, "node with key %d reached twice", n.Key)
		}
		seen[n] = struct{}{}
		if n.Left != nil {
			stack = append(stack, n.Left)
		}
		if n.Right != nil {
			stack = append(stack, n.Right)
		}
	}
	return nil
}

func (t *Tree) adopt(n *Node, parent int32) int32 {
	i := t.alloc(n.Key)
	t.nodes[i].color = n.Color
	t.nodes[i].parent = parent
	t.size++
	if n.Left != nil {
		l := t.adopt(n.Left, i)
		t.nodes[i].left = l
	}
	if n.Right != nil {
		r := t.adopt(n.Right, i)
		t.nodes[i].right = r
	}
	return i
}

// Len returns the number of keys in the tree, duplicates included.
func (t *Tree) Len() int { return t.size }

// Search returns a handle to a node holding key.
//
// Complexity: O(log n)
func (t *Tree) Search(key int64) (Handle, bool) {
	i := t.search(key)
	if i == nilIndex {
		return Handle{}, false
	}
	return Handle{index: i, gen: t.nodes[i].gen}, true
}

// Contains reports whether at least one copy of key is stored.
func (t *Tree) Contains(key int64) bool {
	return t.search(key) != nilIndex
}

// Key returns the key currently stored in the node h refers to. It reports
// false when h is the zero Handle or its node has been released.
func (t *Tree) Key(h Handle) (int64, bool) {
	if h.index < 0 || int(h.index) >= len(t.nodes) {
		return 0, false
	}
	n := &t.nodes[h.index]
	if !n.live || n.gen != h.gen {
		return 0, false
	}
	return n.key, true
}

// Insert adds key to the tree. Duplicates are kept and placed to the right of
// the equal key.
//
// Complexity: O(log n)
func (t *Tree) Insert(key int64) {
	parent := nilIndex
	cur := t.root
	for cur != nilIndex {
		parent = cur
		if key < t.nodes[cur].key {
			cur = t.nodes[cur].left
		} else {
			cur = t.nodes[cur].right
		}
	}

	z := t.alloc(key)
	t.nodes[z].parent = parent
	switch {
	case parent == nilIndex:
		t.root = z
	case key < t.nodes[parent].key:
		t.nodes[parent].left = z
	default:
		t.nodes[parent].right = z
	}
	t.size++
	t.insertFixup(z)
}

// Remove deletes one node holding key and reports whether one was found.
// With duplicates present, the copy removed is the first one the search path
// reaches.
//
// Complexity: O(log n)
func (t *Tree) Remove(key int64) bool {
	z := t.search(key)
	if z == nilIndex {
		return false
	}

	if t.nodes[z].left != nilIndex && t.nodes[z].right != nilIndex {
		succ := t.minimum(t.nodes[z].right)
		t.nodes[z].key = t.nodes[succ].key
		z = succ
	}

	child := t.nodes[z].left
	if child == nilIndex {
		child = t.nodes[z].right
	}

	// The fixup walks sibling and parent links around z, so z stays linked
	// until it is done.
	if t.nodes[z].color == Black {
		t.deleteFixup(z)
	}
	t.transplant(z, child)
	t.release(z)
	t.size--

	if t.root != nilIndex {
		t.nodes[t.root].color = Black
	}
	return true
}

/******************** Internal helpers ********************/

func (t *Tree) search(key int64) int32 {
	n := t.root
	for n != nilIndex {
		switch k := t.nodes[n].key; {
		case key == k:
			return n
		case key < k:
			n = t.nodes[n].left
		default:
			n = t.nodes[n].right
		}
	}
	return nilIndex
}

func (t *Tree) minimum(n int32) int32 {
	for t.nodes[n].left != nilIndex {
		n = t.nodes[n].left
	}
	return n
}

// colorOf is the only place an absent node is given a color.
func (t *Tree) colorOf(n int32) Color {
	if n == nilIndex {
		return Black
	}
	return t.nodes[n].color
}

// transplant puts v in the slot u occupies under u's parent. v may be absent.
func (t *Tree) transplant(u, v int32) {
	p := t.nodes[u].parent
	switch {
	case p == nilIndex:
		t.root = v
	case u == t.nodes[p].left:
		t.nodes[p].left = v
	default:
		t.nodes[p].right = v
	}
	if v != nilIndex {
		t.nodes[v].parent = p
	}
}

func (t *Tree) alloc(key int64) int32 {
	var i int32
	if n := len(t.free); n > 0 {
		i = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		i = int32(len(t.nodes))
		t.nodes = append(t.nodes, node{})
	}
	gen := t.nodes[i].gen
	t.nodes[i] = node{
		key:    key,
		left:   nilIndex,
		right:  nilIndex,
		parent: nilIndex,
		gen:    gen,
		color:  Red,
		live:   true,
	}
	return i
}

func (t *Tree) release(i int32) {
	t.nodes[i] = node{
		left:   nilIndex,
		right:  nilIndex,
		parent: nilIndex,
		gen:    t.nodes[i].gen + 1,
	}
	t.free = append(t.free, i)
}

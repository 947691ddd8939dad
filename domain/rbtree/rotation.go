package rbtree

import "fmt"

// rotateLeft lifts x's right child y into x's place and makes x the left
// child of y. x must have a right child.
func (t *Tree) rotateLeft(x int32) {
	if debug && t.nodes[x].right == nilIndex {
		panic(fmt.Sprintf("rbtree: rotateLeft at key %d without right child", t.nodes[x].key))
	}

	y := t.nodes[x].right
	t.nodes[x].right = t.nodes[y].left
	if t.nodes[y].left != nilIndex {
		t.nodes[t.nodes[y].left].parent = x
	}
	t.transplant(x, y)
	t.nodes[y].left = x
	t.nodes[x].parent = y

	if debug {
		t.checkRotation(y, x, t.nodes[x].right)
	}
}

// rotateRight lifts x's left child y into x's place and makes x the right
// child of y. x must have a left child.
func (t *Tree) rotateRight(x int32) {
	if debug && t.nodes[x].left == nilIndex {
		panic(fmt.Sprintf("rbtree: rotateRight at key %d without left child", t.nodes[x].key))
	}

	y := t.nodes[x].left
	t.nodes[x].left = t.nodes[y].right
	if t.nodes[y].right != nilIndex {
		t.nodes[t.nodes[y].right].parent = x
	}
	t.transplant(x, y)
	t.nodes[y].right = x
	t.nodes[x].parent = y

	if debug {
		t.checkRotation(y, x, t.nodes[x].left)
	}
}

// checkRotation verifies the links a rotation rewrote: top's slot under its
// parent, down hanging under top, and moved hanging under down.
func (t *Tree) checkRotation(top, down, moved int32) {
	p := t.nodes[top].parent
	switch {
	case p == nilIndex:
		if t.root != top {
			panic(fmt.Sprintf("rbtree: rotation left parentless key %d off the root", t.nodes[top].key))
		}
	case t.nodes[p].left != top && t.nodes[p].right != top:
		panic(fmt.Sprintf("rbtree: rotation lost key %d under its parent", t.nodes[top].key))
	}
	if t.nodes[down].parent != top {
		panic(fmt.Sprintf("rbtree: rotated key %d does not point at its new parent", t.nodes[down].key))
	}
	if moved != nilIndex && t.nodes[moved].parent != down {
		panic(fmt.Sprintf("rbtree: moved subtree at key %d does not point at its new parent", t.nodes[moved].key))
	}
}

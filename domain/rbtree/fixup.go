package rbtree

// insertFixup restores the no red-red rule after z was linked in red.
func (t *Tree) insertFixup(z int32) {
	for z != t.root && t.colorOf(t.nodes[z].parent) == Red {
		// A red parent is never the root, so the grandparent exists.
		p := t.nodes[z].parent
		g := t.nodes[p].parent

		if p == t.nodes[g].left {
			uncle := t.nodes[g].right
			if t.colorOf(uncle) == Red {
				t.nodes[p].color = Black
				t.nodes[uncle].color = Black
				t.nodes[g].color = Red
				z = g
				continue
			}
			if z == t.nodes[p].right {
				z = p
				t.rotateLeft(z)
				p = t.nodes[z].parent
			}
			t.nodes[p].color = Black
			t.nodes[g].color = Red
			t.rotateRight(g)
		} else {
			uncle := t.nodes[g].left
			if t.colorOf(uncle) == Red {
				t.nodes[p].color = Black
				t.nodes[uncle].color = Black
				t.nodes[g].color = Red
				z = g
				continue
			}
			if z == t.nodes[p].left {
				z = p
				t.rotateRight(z)
				p = t.nodes[z].parent
			}
			t.nodes[p].color = Black
			t.nodes[g].color = Red
			t.rotateLeft(g)
		}
	}
	t.nodes[t.root].color = Black
}

// deleteFixup runs while x is still linked, before a black node is spliced
// out. It rebalances as if the paths through x were already one black short.
func (t *Tree) deleteFixup(x int32) {
	for x != t.root && t.colorOf(x) == Black {
		p := t.nodes[x].parent

		if x == t.nodes[p].left {
			sibling := t.nodes[p].right
			if t.colorOf(sibling) == Red {
				t.nodes[sibling].color = Black
				t.nodes[p].color = Red
				t.rotateLeft(p)
				sibling = t.nodes[p].right
			}

			near, far := t.nodes[sibling].left, t.nodes[sibling].right
			switch {
			case t.colorOf(near) == Black && t.colorOf(far) == Black:
				t.nodes[sibling].color = Red
				x = p
			default:
				if t.colorOf(far) == Black {
					t.nodes[near].color = Black
					t.nodes[sibling].color = Red
					t.rotateRight(sibling)
					sibling = t.nodes[p].right
				}
				t.nodes[sibling].color = t.nodes[p].color
				t.nodes[p].color = Black
				t.nodes[t.nodes[sibling].right].color = Black
				t.rotateLeft(p)
				x = t.root
			}
		} else {
			sibling := t.nodes[p].left
			if t.colorOf(sibling) == Red {
				t.nodes[sibling].color = Black
				t.nodes[p].color = Red
				t.rotateRight(p)
				sibling = t.nodes[p].left
			}

			near, far := t.nodes[sibling].right, t.nodes[sibling].left
			switch {
			case t.colorOf(near) == Black && t.colorOf(far) == Black:
				t.nodes[sibling].color = Red
				x = p
			default:
				if t.colorOf(far) == Black {
					t.nodes[near].color = Black
					t.nodes[sibling].color = Red
					t.rotateLeft(sibling)
					sibling = t.nodes[p].left
				}
				t.nodes[sibling].color = t.nodes[p].color
				t.nodes[p].color = Black
				t.nodes[t.nodes[sibling].left].color = Black
				t.rotateRight(p)
				x = t.root
			}
		}
	}
	t.nodes[x].color = Black
}

package rbtree

import "fmt"

// Keys returns every stored key in ascending order. Equal keys appear once
// per copy.
//
// Complexity: O(n)
func (t *Tree) Keys() []int64 {
	keys := make([]int64, 0, t.size)
	stack := make([]int32, 0, 64)
	n := t.root
	for n != nilIndex || len(stack) > 0 {
		for n != nilIndex {
			stack = append(stack, n)
			n = t.nodes[n].left
		}
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		keys = append(keys, t.nodes[n].key)
		n = t.nodes[n].right
	}
	return keys
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Height() int {
	return t.height(t.root)
}

func (t *Tree) height(n int32) int {
	if n == nilIndex {
		return 0
	}
	return 1 + max(t.height(t.nodes[n].left), t.height(t.nodes[n].right))
}

// BlackHeight returns the number of black nodes on the leftmost path from the
// root, the root included. In a valid tree every path has this count.
func (t *Tree) BlackHeight() int {
	bh := 0
	for n := t.root; n != nilIndex; n = t.nodes[n].left {
		if t.nodes[n].color == Black {
			bh++
		}
	}
	return bh
}

// Validate checks every red-black invariant and the parent links, returning
// an *InvariantError for the first violation found.
//
// Complexity: O(n)
func (t *Tree) Validate() error {
	if t.root == nilIndex {
		if t.size != 0 {
			return &InvariantError{Invariant: InvariantSize, Detail: fmt.Sprintf("empty tree reports %d keys", t.size)}
		}
		return nil
	}
	r := &t.nodes[t.root]
	if r.parent != nilIndex {
		return &InvariantError{Invariant: InvariantParentLink, Key: r.key, Detail: "root has a parent"}
	}
	if r.color != Black {
		return &InvariantError{Invariant: InvariantRootBlack, Key: r.key, Detail: "root is red"}
	}

	count := 0
	if _, err := t.validate(t.root, bound{}, bound{}, &count); err != nil {
		return err
	}
	if count != t.size {
		return &InvariantError{Invariant: InvariantSize, Key: r.key, Detail: fmt.Sprintf("reached %d nodes, tree reports %d", count, t.size)}
	}
	return nil
}

type bound struct {
	key int64
	set bool
}

// validate returns the black height below n, n excluded and absent children
// counted as black. Keys must satisfy lo <= key <= hi: ties are inserted to
// the right, but rotations can lift a later copy above an earlier one.
func (t *Tree) validate(n int32, lo, hi bound, count *int) (int, error) {
	if n == nilIndex {
		return 0, nil
	}
	*count++
	nd := &t.nodes[n]

	if !nd.live {
		return 0, &InvariantError{Invariant: InvariantParentLink, Key: nd.key, Detail: "released slot is still linked"}
	}
	if (lo.set && nd.key < lo.key) || (hi.set && nd.key > hi.key) {
		return 0, &InvariantError{Invariant: InvariantOrder, Key: nd.key, Detail: "key outside the range of its subtree"}
	}
	for _, c := range [2]int32{nd.left, nd.right} {
		if c == nilIndex {
			continue
		}
		if t.nodes[c].parent != n {
			return 0, &InvariantError{Invariant: InvariantParentLink, Key: t.nodes[c].key, Detail: fmt.Sprintf("child of %d points at another parent", nd.key)}
		}
		if nd.color == Red && t.nodes[c].color == Red {
			return 0, &InvariantError{Invariant: InvariantNoRedRed, Key: nd.key, Detail: fmt.Sprintf("red child %d", t.nodes[c].key)}
		}
	}

	lbh, err := t.validate(nd.left, lo, bound{key: nd.key, set: true}, count)
	if err != nil {
		return 0, err
	}
	rbh, err := t.validate(nd.right, bound{key: nd.key, set: true}, hi, count)
	if err != nil {
		return 0, err
	}
	if t.colorOf(nd.left) == Black {
		lbh++
	}
	if t.colorOf(nd.right) == Black {
		rbh++
	}
	if lbh != rbh {
		return 0, &InvariantError{Invariant: InvariantBlackHeight, Key: nd.key, Detail: fmt.Sprintf("left %d, right %d", lbh, rbh)}
	}
	return lbh, nil
}

package rbtree

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidRootAdoption is returned by Adopt when the supplied node still has
// a parent, or when its subtree reaches the same node twice.
var ErrInvalidRootAdoption = errors.New("rbtree: node cannot be adopted as root")

// InvariantError reports the first red-black invariant Validate found broken.
type InvariantError struct {
	Invariant string
	Key       int64
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rbtree: %s violated at key %d: %s", e.Invariant, e.Key, e.Detail)
}

const (
	InvariantOrder       = "ordering"
	InvariantRootBlack   = "black root"
	InvariantNoRedRed    = "no red-red"
	InvariantBlackHeight = "black height"
	InvariantParentLink  = "parent link"
	InvariantSize        = "size"
)

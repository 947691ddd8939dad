//go:build rbtreedebug

package rbtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotateWithoutPivotPanics(t *testing.T) {
	tree := NewWithKey(1)
	assert.Panics(t, func() { tree.rotateLeft(tree.root) })
	assert.Panics(t, func() { tree.rotateRight(tree.root) })
}

//go:build !rbtreedebug

package rbtree

const debug = false

// Package rbtree implements a red-black tree over int64 keys.
//
// Nodes live in an arena addressed by int32 indices. Parent and child links
// are indices into that arena, an absent child is nilIndex, and removed slots
// are recycled through a free list. Equal keys are allowed and are placed to
// the right of the key they tie with, so the tree behaves as a sorted
// multiset.
//
// A Tree is not safe for concurrent use. Callers that share one across
// goroutines must serialize every call.
package rbtree

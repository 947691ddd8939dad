// Package wal is the entry log of tree mutations. Every insert and remove is
// framed with its sequence number and a CRC and appended to the active
// segment before the tree is touched; Replay rebuilds the tree from the
// segments left after the last snapshot.
package wal

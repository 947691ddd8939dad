// Package service owns the key set: one red-black tree guarded by a mutex,
// with every mutation sequenced, written to the WAL and queued in the
// outbox. It is the only write path into the tree and is independent of the
// gRPC transport.
package service

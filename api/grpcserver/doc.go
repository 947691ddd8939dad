// Package grpcserver exposes the key set service as rbset.v1.KeySet and
// provides a matching client.
package grpcserver

// Package snapshot persists the tree's keys together with the sequence
// number they reflect. A snapshot lets startup skip the WAL records it
// already covers and lets the WAL drop segments it no longer needs.
package snapshot

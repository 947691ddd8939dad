// Package outbox keeps tree mutation events on disk until they have been
// published, so a crash between a mutation and its publication does not lose
// the event.
package outbox

// Package broadcaster implements the background job that publishes queued
// key set events from the outbox to Kafka and tracks each delivery attempt.
package broadcaster

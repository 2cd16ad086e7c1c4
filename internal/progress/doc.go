// Package progress carries job telemetry from a worker goroutine to a
// consumer.
//
// A Channel delivers zero or more progress events followed by exactly one
// terminal event (success, failure or cancelled), after which the underlying
// Go channel is closed. Fractions are clamped to [0,1] and never move
// backwards. Sends never block the producer; when the consumer falls behind,
// the oldest pending updates are discarded so the latest one is kept.
package progress

// Package services defines shared utilities consumed by the provisioning and
// transcode workers.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (missing binaries, probe errors, encoder exits, cancellation) so the
//     consumer can decide how to present them.
//
// Use these helpers when wiring new worker logic so error handling and
// observability stay uniform.
package services

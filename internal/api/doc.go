// Package api is the consumer-facing surface of discompressor. A presentation
// layer (the bundled CLI, or any other front end) drives everything through
// Service and never touches the engine or provisioner directly.
//
// # Operations
//
// LocateBinaries: find an encoder/prober pair, install directory first.
//
// DownloadSize / Provision: size the release archive, then download and
// install it with a progress stream.
//
// StartTranscode: begin a target-size transcode and return the job handle.
// Every finished job is recorded in the history store when one is attached.
//
// Probe / History / Dependencies: read-only views rendered by status
// commands.
//
// # Design Notes
//
// DTOs use camelCase JSON tags so a non-Go consumer can decode them.
// Timestamps use RFC3339 with milliseconds.
package api

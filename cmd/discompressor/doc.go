// Package main hosts the discompressor CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// work to internal/api: compressing a file to a target size, installing the
// ffmpeg release, probing inputs, and listing transcode history. Keep this
// package thin; behavior belongs in the internal packages.
package main

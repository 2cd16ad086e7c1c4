// Package ffprobe wraps the prober executable.
//
// Duration issues the minimal duration-only query used before every
// transcode; Inspect decodes the full JSON report for the probe command.
package ffprobe

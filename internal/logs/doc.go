// Package logs reads the discompressor log file for the CLI: the last N
// lines, optionally filtered to one transcode, and follow mode that polls
// for appended lines until the context ends.
package logs

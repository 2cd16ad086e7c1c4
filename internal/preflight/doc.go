// Package preflight provides readiness checks for the filesystem paths and
// external executables discompressor depends on.
//
// The CLI "status" command renders every result. "compress" and "install"
// run RunAll first and stop early when a required directory is unusable, so
// a doomed download or encode never starts.
package preflight

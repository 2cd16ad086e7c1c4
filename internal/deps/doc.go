// Package deps locates the external ffmpeg and ffprobe executables.
//
// Locator implements the lookup order used before every transcode: a local
// install directory first, then PATH. CheckBinaries backs the status command.
package deps

// Package provision downloads an ffmpeg release archive and installs its
// encoder and prober executables into the local install directory.
//
// A run moves through NotInstalled, Downloading, Extracting and finally
// Installed or Failed. Progress is reported on a progress.Channel as byte
// transfers during the download, followed by exactly one terminal event.
// The install directory is only populated once both executables have been
// found in the extracted archive, and all scratch files live in a temporary
// directory that is removed when the run ends.
package provision

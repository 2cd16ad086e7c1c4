package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// BinaryPaths names the encoder and prober executables. Either both fields
// are set or the value is the zero value.
type BinaryPaths struct {
	Encoder string
	Prober  string
}

// Complete reports whether both executables are known.
func (p BinaryPaths) Complete() bool {
	return p.Encoder != "" && p.Prober != ""
}

// Locator finds a usable encoder/prober pair. It has no side effects and is
// safe to call repeatedly.
type Locator struct {
	InstallDir  string
	EncoderName string
	ProberName  string
}

// NewLocator builds a locator with platform default executable names.
func NewLocator(installDir string) Locator {
	return Locator{
		InstallDir:  installDir,
		EncoderName: ExecutableName("ffmpeg"),
		ProberName:  ExecutableName("ffprobe"),
	}
}

// Locate prefers a local install holding both executables, then falls back
// to PATH (returning bare names). A pair where only one half resolves is
// reported as absent.
func (l Locator) Locate() (BinaryPaths, bool) {
	encoder, prober := l.names()

	if dir := strings.TrimSpace(l.InstallDir); dir != "" {
		encoderPath := filepath.Join(dir, encoder)
		proberPath := filepath.Join(dir, prober)
		if isExecutableFile(encoderPath) && isExecutableFile(proberPath) {
			if abs, err := filepath.Abs(encoderPath); err == nil {
				encoderPath = abs
			}
			if abs, err := filepath.Abs(proberPath); err == nil {
				proberPath = abs
			}
			return BinaryPaths{Encoder: encoderPath, Prober: proberPath}, true
		}
	}

	if _, err := exec.LookPath(encoder); err != nil {
		return BinaryPaths{}, false
	}
	if _, err := exec.LookPath(prober); err != nil {
		return BinaryPaths{}, false
	}
	return BinaryPaths{Encoder: encoder, Prober: prober}, true
}

// InstalledLocally reports whether the install directory alone satisfies Locate.
func (l Locator) InstalledLocally() bool {
	encoder, prober := l.names()
	dir := strings.TrimSpace(l.InstallDir)
	if dir == "" {
		return false
	}
	return isExecutableFile(filepath.Join(dir, encoder)) && isExecutableFile(filepath.Join(dir, prober))
}

func (l Locator) names() (string, string) {
	encoder := strings.TrimSpace(l.EncoderName)
	if encoder == "" {
		encoder = ExecutableName("ffmpeg")
	}
	prober := strings.TrimSpace(l.ProberName)
	if prober == "" {
		prober = ExecutableName("ffprobe")
	}
	return encoder, prober
}

// ExecutableName appends ".exe" on Windows.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(base), ".exe") {
		return base + ".exe"
	}
	return base
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

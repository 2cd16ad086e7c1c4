package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"discompressor/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The install directory is not created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InstallDir = filepath.Join(base, "share", "ffmpeg_bin")
	cfgVal.Paths.DataDir = filepath.Join(base, "share")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.FFmpeg.ReleaseURL = "http://127.0.0.1:1/ffmpeg-release.zip"
	if err := os.MkdirAll(cfgVal.Paths.TempDir, 0o755); err != nil {
		t.Fatalf("mkdir temp dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithReleaseURL points provisioning at a test server.
func WithReleaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FFmpeg.ReleaseURL = url
	}
}

// WithInstalledBinaries writes encoder and prober scripts into the install
// directory. Tests using it are skipped on Windows.
func WithInstalledBinaries(encoderScript, proberScript string) ConfigOption {
	return func(b *configBuilder) {
		SkipOnWindows(b.t)
		dir := b.cfg.Paths.InstallDir
		WriteScript(b.t, filepath.Join(dir, b.cfg.EncoderBinary()), encoderScript)
		WriteScript(b.t, filepath.Join(dir, b.cfg.ProberBinary()), proberScript)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// makes them the only entries on PATH. If names is empty, ffmpeg and ffprobe
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		SkipOnWindows(b.t)
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0\n")
		}
		b.t.Setenv("PATH", binDir)
	}
}

// WithEmptyPath hides any system ffmpeg from lookups.
func WithEmptyPath() ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "empty-path")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir empty path dir: %v", err)
		}
		b.t.Setenv("PATH", dir)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// SkipOnWindows skips tests that depend on /bin/sh scripts.
func SkipOnWindows(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

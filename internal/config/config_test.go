package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"discompressor/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("USERPROFILE", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantInstall := filepath.Join(tempHome, ".local", "share", "discompressor", "ffmpeg_bin")
	if cfg.Paths.InstallDir != wantInstall {
		t.Fatalf("unexpected install dir: got %q want %q", cfg.Paths.InstallDir, wantInstall)
	}
	if cfg.FFmpeg.ReleaseURL != config.Default().FFmpeg.ReleaseURL {
		t.Fatalf("unexpected release url: %q", cfg.FFmpeg.ReleaseURL)
	}
	if cfg.FFmpeg.ChunkSizeKiB != 64 {
		t.Fatalf("unexpected chunk size: %d", cfg.FFmpeg.ChunkSizeKiB)
	}
	if cfg.Encoding.OutputExtension != ".mp4" {
		t.Fatalf("unexpected output extension: %q", cfg.Encoding.OutputExtension)
	}
	if got := cfg.Encoding.PresetSizesMB; len(got) != 3 || got[0] != 10 || got[1] != 50 || got[2] != 500 {
		t.Fatalf("unexpected preset sizes: %v", got)
	}
	if cfg.Encoding.EncodeTimeoutSeconds != 0 {
		t.Fatalf("expected no encode timeout by default, got %d", cfg.Encoding.EncodeTimeoutSeconds)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.InstallDir); !os.IsNotExist(err) {
		t.Fatalf("install dir should not be created by EnsureDirectories, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "discompressor.toml")

	type payload struct {
		Paths struct {
			InstallDir string `toml:"install_dir"`
		} `toml:"paths"`
		FFmpeg struct {
			ReleaseURL   string `toml:"release_url"`
			ChunkSizeKiB int    `toml:"chunk_size_kib"`
		} `toml:"ffmpeg"`
		Encoding struct {
			OutputExtension string `toml:"output_extension"`
			PresetSizesMB   []int  `toml:"preset_sizes_mb"`
		} `toml:"encoding"`
	}
	custom := payload{}
	custom.Paths.InstallDir = filepath.Join(tempDir, "bin")
	custom.FFmpeg.ReleaseURL = "https://example.com/ffmpeg.tar.gz"
	custom.FFmpeg.ChunkSizeKiB = 128
	custom.Encoding.OutputExtension = "MKV"
	custom.Encoding.PresetSizesMB = []int{50, 8, 50}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.InstallDir != filepath.Join(tempDir, "bin") {
		t.Fatalf("unexpected install dir %q", cfg.Paths.InstallDir)
	}
	if cfg.FFmpeg.ReleaseURL != "https://example.com/ffmpeg.tar.gz" {
		t.Fatalf("expected release url override, got %q", cfg.FFmpeg.ReleaseURL)
	}
	if cfg.FFmpeg.ChunkSizeKiB != 128 {
		t.Fatalf("expected chunk size 128, got %d", cfg.FFmpeg.ChunkSizeKiB)
	}
	if cfg.Encoding.OutputExtension != ".mkv" {
		t.Fatalf("expected normalized extension .mkv, got %q", cfg.Encoding.OutputExtension)
	}
	if got := cfg.Encoding.PresetSizesMB; len(got) != 2 || got[0] != 8 || got[1] != 50 {
		t.Fatalf("expected sorted unique preset sizes, got %v", got)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "discompressor.toml")
	if err := os.WriteFile(configPath, []byte("[ffmpeg]\nrelease_uri = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected parse error for unknown key")
	}
}

func TestReleaseURLEnvOverride(t *testing.T) {
	t.Setenv("DISCOMPRESSOR_RELEASE_URL", "https://mirror.example.com/ffmpeg.zip")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFmpeg.ReleaseURL != "https://mirror.example.com/ffmpeg.zip" {
		t.Fatalf("expected env override, got %q", cfg.FFmpeg.ReleaseURL)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "release_url") {
		t.Fatalf("sample config missing release_url: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.FFmpeg.EncoderName != "ffmpeg" {
		t.Fatalf("unexpected encoder name in sample: %q", cfg.FFmpeg.EncoderName)
	}
	if runtime.GOOS != "windows" && !strings.Contains(cfg.Paths.InstallDir, "discompressor") {
		t.Fatalf("expected install dir to contain discompressor, got %q", cfg.Paths.InstallDir)
	}
}

func TestBinaryNames(t *testing.T) {
	cfg := config.Default()
	encoder, prober := cfg.EncoderBinary(), cfg.ProberBinary()
	if runtime.GOOS == "windows" {
		if encoder != "ffmpeg.exe" || prober != "ffprobe.exe" {
			t.Fatalf("unexpected windows names %q %q", encoder, prober)
		}
		return
	}
	if encoder != "ffmpeg" || prober != "ffprobe" {
		t.Fatalf("unexpected names %q %q", encoder, prober)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"non-http release url", func(c *config.Config) { c.FFmpeg.ReleaseURL = "ftp://example.com/x.zip" }},
		{"zero download timeout", func(c *config.Config) { c.FFmpeg.DownloadTimeoutSeconds = 0 }},
		{"zero chunk size", func(c *config.Config) { c.FFmpeg.ChunkSizeKiB = 0 }},
		{"encoder path", func(c *config.Config) { c.FFmpeg.EncoderName = "/usr/bin/ffmpeg" }},
		{"negative preset", func(c *config.Config) { c.Encoding.PresetSizesMB = []int{10, -1} }},
		{"zero probe timeout", func(c *config.Config) { c.Encoding.ProbeTimeoutSeconds = 0 }},
		{"negative encode timeout", func(c *config.Config) { c.Encoding.EncodeTimeoutSeconds = -5 }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"empty install dir", func(c *config.Config) { c.Paths.InstallDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

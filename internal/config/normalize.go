package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeEncoding()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InstallDir) == "" {
		c.Paths.InstallDir = defaultInstallDir
	}
	if c.Paths.InstallDir, err = expandPath(c.Paths.InstallDir); err != nil {
		return fmt.Errorf("paths.install_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir()
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.ReleaseURL = strings.TrimSpace(c.FFmpeg.ReleaseURL)
	if value, ok := os.LookupEnv("DISCOMPRESSOR_RELEASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.FFmpeg.ReleaseURL = strings.TrimSpace(value)
	}
	if c.FFmpeg.ReleaseURL == "" {
		c.FFmpeg.ReleaseURL = defaultReleaseURL
	}
	c.FFmpeg.EncoderName = strings.TrimSpace(c.FFmpeg.EncoderName)
	if c.FFmpeg.EncoderName == "" {
		c.FFmpeg.EncoderName = defaultEncoderName
	}
	c.FFmpeg.ProberName = strings.TrimSpace(c.FFmpeg.ProberName)
	if c.FFmpeg.ProberName == "" {
		c.FFmpeg.ProberName = defaultProberName
	}
	if c.FFmpeg.DownloadTimeoutSeconds <= 0 {
		c.FFmpeg.DownloadTimeoutSeconds = defaultDownloadTimeoutSeconds
	}
	if c.FFmpeg.ChunkSizeKiB <= 0 {
		c.FFmpeg.ChunkSizeKiB = defaultChunkSizeKiB
	}
}

func (c *Config) normalizeEncoding() {
	ext := strings.TrimSpace(c.Encoding.OutputExtension)
	if ext == "" {
		ext = defaultOutputExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Encoding.OutputExtension = strings.ToLower(ext)

	if len(c.Encoding.PresetSizesMB) == 0 {
		c.Encoding.PresetSizesMB = append([]int(nil), defaultPresetSizesMB...)
	} else {
		sizes := slices.Clone(c.Encoding.PresetSizesMB)
		slices.Sort(sizes)
		c.Encoding.PresetSizesMB = slices.Compact(sizes)
	}
	if c.Encoding.ProbeTimeoutSeconds <= 0 {
		c.Encoding.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
	if c.Encoding.EncodeTimeoutSeconds < 0 {
		c.Encoding.EncodeTimeoutSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

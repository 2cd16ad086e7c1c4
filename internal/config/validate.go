package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InstallDir) == "" {
		return errors.New("paths.install_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	parsed, err := url.Parse(c.FFmpeg.ReleaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("ffmpeg.release_url must be an http(s) URL, got %q", c.FFmpeg.ReleaseURL)
	}
	if strings.ContainsAny(c.FFmpeg.EncoderName, `/\`) {
		return errors.New("ffmpeg.encoder_name must be a file name, not a path")
	}
	if strings.ContainsAny(c.FFmpeg.ProberName, `/\`) {
		return errors.New("ffmpeg.prober_name must be a file name, not a path")
	}
	return ensurePositiveMap(map[string]int{
		"ffmpeg.download_timeout_seconds": c.FFmpeg.DownloadTimeoutSeconds,
		"ffmpeg.chunk_size_kib":           c.FFmpeg.ChunkSizeKiB,
	})
}

func (c *Config) validateEncoding() error {
	for _, size := range c.Encoding.PresetSizesMB {
		if size <= 0 {
			return fmt.Errorf("encoding.preset_sizes_mb entries must be positive, got %d", size)
		}
	}
	if c.Encoding.ProbeTimeoutSeconds <= 0 {
		return errors.New("encoding.probe_timeout_seconds must be positive")
	}
	if c.Encoding.EncodeTimeoutSeconds < 0 {
		return errors.New("encoding.encode_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigPath             = "~/.config/discompressor/config.toml"
	defaultInstallDir             = "~/.local/share/discompressor/ffmpeg_bin"
	defaultDataDir                = "~/.local/share/discompressor"
	defaultLogDir                 = "~/.local/share/discompressor/logs"
	defaultReleaseURL             = "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip"
	defaultEncoderName            = "ffmpeg"
	defaultProberName             = "ffprobe"
	defaultDownloadTimeoutSeconds = 600
	defaultChunkSizeKiB           = 64
	defaultOutputExtension        = ".mp4"
	defaultProbeTimeoutSeconds    = 30
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

var defaultPresetSizesMB = []int{10, 50, 500}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InstallDir: defaultInstallDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			TempDir:    defaultTempDir(),
		},
		FFmpeg: FFmpeg{
			ReleaseURL:             defaultReleaseURL,
			EncoderName:            defaultEncoderName,
			ProberName:             defaultProberName,
			DownloadTimeoutSeconds: defaultDownloadTimeoutSeconds,
			ChunkSizeKiB:           defaultChunkSizeKiB,
		},
		Encoding: Encoding{
			OutputExtension:     defaultOutputExtension,
			PresetSizesMB:       append([]int(nil), defaultPresetSizesMB...),
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
		},
	}
}

func defaultTempDir() string {
	return filepath.Clean(os.TempDir())
}

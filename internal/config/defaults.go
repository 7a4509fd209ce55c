package config

import "runtime"

const (
	defaultConfigPath     = "~/.config/mediasweep/config.toml"
	defaultLogDir         = "~/.local/share/mediasweep/logs"
	defaultReportDir      = "~/.local/share/mediasweep/reports"
	defaultHistoryDB      = "~/.local/share/mediasweep/history.db"
	defaultSevenZip       = "7z"
	defaultFFmpeg         = "ffmpeg"
	defaultFFprobe        = "ffprobe"
	defaultTimeoutSeconds = 1800
	defaultCodec          = "opus"
	defaultMetadataMode   = "retain"
	defaultPlacement      = "keep"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			ReportDir: defaultReportDir,
			HistoryDB: defaultHistoryDB,
		},
		Tools: Tools{
			SevenZip: defaultSevenZip,
			FFmpeg:   defaultFFmpeg,
			FFprobe:  defaultFFprobe,
		},
		Workers: Workers{
			Count:          defaultWorkerCount(),
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Convert: Convert{
			Codec:     defaultCodec,
			Metadata:  defaultMetadataMode,
			Placement: defaultPlacement,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultWorkerCount() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

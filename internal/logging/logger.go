package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediasweep/internal/config"
)

// LogFileName is the JSON log written inside the configured log directory.
const LogFileName = "mediasweep.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives records. Nil means stderr.
	Writer io.Writer
	// Color enables ANSI level colours on console output.
	Color bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	handler, err := newHandler(opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

func newHandler(opts Options) (slog.Handler, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return newConsoleHandler(w, levelVar, opts.Color), nil
	case "json":
		return newJSONHandler(w, levelVar), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig builds the CLI logger: console records on stderr in the
// configured format, plus every record as JSON in <log_dir>/mediasweep.log.
// verbose lowers both to debug.
func NewFromConfig(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	level, format, logDir := "info", "console", ""
	if cfg != nil {
		level, format, logDir = cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir
	}
	if verbose {
		level = "debug"
	}

	console, err := newHandler(Options{Level: level, Format: format, Color: isTerminal(os.Stderr)})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(logDir) == "" {
		return slog.New(console), nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", logDir, err)
	}
	path := filepath.Join(logDir, LogFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	fileHandler, _ := newHandler(Options{Level: level, Format: "json", Writer: file})
	return slog.New(newFanoutHandler(console, fileHandler)), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newJSONHandler emits one object per record with a "ts" key and a lowercase
// level. Debug output carries the caller.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl.Level() <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}

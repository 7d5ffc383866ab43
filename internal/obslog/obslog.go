// Package obslog initializes the process-wide structured logger the core
// packages log through.
package obslog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// OutputConfig describes one destination the logger writes to.
type OutputConfig struct {
	Type       string `mapstructure:"type"` // "console" | "stdout" | "file"
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Config is the `log:` section of EngineConfig.
type Config struct {
	Level   string         `mapstructure:"level"`
	Format  string         `mapstructure:"format"` // "json" | "text"
	Outputs []OutputConfig `mapstructure:"outputs"`
}

// Init builds a slog.Logger from cfg and installs it as the process default.
// Every core package logs through slog.Default() rather than taking a
// logger dependency directly, matching the teacher's internal/log.Init
// global-logger convention.
func Init(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("obslog: invalid log level: %w", err)
	}

	var writers []io.Writer
	for i, output := range cfg.Outputs {
		writer, err := createWriter(output)
		if err != nil {
			return fmt.Errorf("obslog: failed to create output[%d] (%s): %w", i, output.Type, err)
		}
		if writer != nil {
			writers = append(writers, writer)
		}
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	multiWriter := io.MultiWriter(writers...)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(multiWriter, opts)
	case "text":
		handler = slog.NewTextHandler(multiWriter, opts)
	default:
		return fmt.Errorf("obslog: unsupported log format: %s (must be json or text)", cfg.Format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level: %s", levelStr)
	}
}

func createWriter(output OutputConfig) (io.Writer, error) {
	switch strings.ToLower(output.Type) {
	case "console", "stdout", "":
		return os.Stdout, nil
	case "file":
		if output.Path == "" {
			return nil, fmt.Errorf("file output requires 'path' field")
		}
		return &lumberjack.Logger{
			Filename:   output.Path,
			MaxSize:    output.MaxSizeMB,
			MaxBackups: output.MaxBackups,
			MaxAge:     output.MaxAgeDays,
			Compress:   output.Compress,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported output type: %s", output.Type)
	}
}

// Package engineconfig loads the static configuration an Engine and its
// default Pool are built from.
package engineconfig

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/fiberline/fiberline/internal/obslog"
)

// ExecutorConfig holds the worker count for an Engine's default Pool.
// PoolSize is decoded and defaulted here, but nothing passes it on to the
// engine: an Engine sizes its lazily-created Pool with its own fixed
// default of 8 workers.
type ExecutorConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

// SchedulerConfig carries the process-wide scheduling flags spec.md §6
// exposes on the engine layer.
type SchedulerConfig struct {
	SerializeExecution bool `mapstructure:"serialize_execution"`
}

// InterceptorsConfig toggles the demonstration interceptors shipped with
// this repo.
type InterceptorsConfig struct {
	Audit   bool `mapstructure:"audit"`
	Tracing bool `mapstructure:"tracing"`
}

// EngineConfig is the top-level configuration document, equivalent to the
// teacher's GlobalConfig: one root mapping, decoded by viper/mapstructure,
// overridable by FIBERLINE_-prefixed environment variables.
type EngineConfig struct {
	EngineID     string             `mapstructure:"engine_id"`
	Executor     ExecutorConfig     `mapstructure:"executor"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Interceptors InterceptorsConfig `mapstructure:"interceptors"`
	Log          obslog.Config      `mapstructure:"log"`
}

// defaults applied after decode for any field the file/env left zero.
func defaults(cfg *EngineConfig) {
	if cfg.EngineID == "" {
		cfg.EngineID = "default"
	}
	if cfg.Executor.PoolSize == 0 {
		cfg.Executor.PoolSize = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Load reads path (a YAML, JSON or TOML file — whatever its extension
// names) into an EngineConfig, with FIBERLINE_-prefixed environment
// variables taking precedence, mirroring the teacher's
// internal/otus/config.Load viper wiring.
func Load(path string) (*EngineConfig, error) {
	v := viper.New()

	dir := filepath.Dir(path)
	filename := filepath.Base(path)
	fileExt := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, fileExt)

	v.SetConfigName(nameWithoutExt)
	v.SetConfigType(strings.TrimPrefix(fileExt, "."))
	v.AddConfigPath(dir)

	v.SetEnvPrefix("FIBERLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("engineconfig: failed to read config file %s: %w", path, err)
	}

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("engineconfig: failed to unmarshal config: %w", err)
	}

	defaults(&cfg)
	return &cfg, nil
}

// Default returns an EngineConfig populated with defaults only, for callers
// that have no configuration file (tests, `fiberline run` without --config).
func Default() *EngineConfig {
	cfg := &EngineConfig{}
	defaults(cfg)
	return cfg
}

// Package config contains all knobs and defaults used to configure the pstack command line
// tool.
package config

import (
	"errors"
	"fmt"
	"net"
)

const (
	DefaultArenaInitialCapacity = 1024

	DefaultBenchDepth    = 10_000
	DefaultBenchVersions = 64
	DefaultBenchWorkers  = 8
)

// LogConfig defines configurations for log specific settings.
type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string
}

// ArenaConfig defines how reference-counted arenas are built.
type ArenaConfig struct {
	// ConcurrentSafe guards the arena with a mutex so it can be shared between goroutines.
	ConcurrentSafe bool

	// InitialCapacity is the number of node slots preallocated by the arena.
	InitialCapacity int
}

// BenchConfig defines the shape of the workload run by the bench command.
type BenchConfig struct {
	// Depth is the number of nodes in the chain every version shares.
	Depth int

	// Versions is the number of stacks derived from the shared chain.
	Versions int

	// Workers bounds the number of goroutines reading versions at once.
	Workers int

	// MetricsAddr is the host:port address to serve prometheus metrics on during the run.
	// Metrics are not served when empty.
	MetricsAddr string
}

type Config struct {
	Log   LogConfig
	Arena ArenaConfig
	Bench BenchConfig
}

// Verify returns an error if any setting is out of range.
func (cfg *Config) Verify() error {
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return errors.New("config 'log.format' must be one of ['text', 'json']")
	}

	if cfg.Log.Level != "none" &&
		cfg.Log.Level != "debug" &&
		cfg.Log.Level != "info" &&
		cfg.Log.Level != "warn" &&
		cfg.Log.Level != "error" {
		return errors.New("config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error']")
	}

	if cfg.Arena.InitialCapacity < 0 {
		return fmt.Errorf("config 'arena.initialCapacity' (%d) cannot be negative", cfg.Arena.InitialCapacity)
	}

	if cfg.Bench.Depth < 0 {
		return fmt.Errorf("config 'bench.depth' (%d) cannot be negative", cfg.Bench.Depth)
	}

	if cfg.Bench.Versions < 1 {
		return fmt.Errorf("config 'bench.versions' (%d) must be at least 1", cfg.Bench.Versions)
	}

	if cfg.Bench.Workers < 1 {
		return fmt.Errorf("config 'bench.workers' (%d) must be at least 1", cfg.Bench.Workers)
	}

	if cfg.Bench.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.Bench.MetricsAddr); err != nil {
			return fmt.Errorf("config 'bench.metricsAddr' is not a valid host:port address: %w", err)
		}
	}

	return nil
}

// DefaultConfig returns the configuration used when no flag, environment variable or config
// file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Arena: ArenaConfig{
			ConcurrentSafe:  false,
			InitialCapacity: DefaultArenaInitialCapacity,
		},
		Bench: BenchConfig{
			Depth:    DefaultBenchDepth,
			Versions: DefaultBenchVersions,
			Workers:  DefaultBenchWorkers,
		},
	}
}

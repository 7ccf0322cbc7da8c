// Package config holds the extraction settings shared by the CLI and the
// batch runner.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sarchlab/isasem/solver"
)

// Config holds extraction settings.
type Config struct {
	// MaxSteps bounds the statements executed per extraction.
	// Default: 100000. 0 means no limit.
	MaxSteps int `json:"max_steps"`

	// TimeLimitMS bounds the wall-clock time per extraction in
	// milliseconds. Default: 30000. 0 means no limit.
	TimeLimitMS int `json:"time_limit_ms"`

	// PathSatExceptions names routines extracted without path-satisfiability
	// pruning. Default: empty.
	PathSatExceptions []string `json:"path_sat_exceptions"`

	// Solver is the solver backend, "gini" or "none". Default: "gini".
	Solver string `json:"solver"`

	// SolverLog is the file receiving solver query logs. Empty discards
	// them; "-" writes to stderr.
	SolverLog string `json:"solver_log"`

	// Workers is the number of parallel extractions in batch mode.
	// Default: number of CPUs.
	Workers int `json:"workers"`

	// CacheSets and CacheWays size the formula cache. CacheSets 0
	// disables it. Default: 64 x 4.
	CacheSets int `json:"cache_sets"`
	CacheWays int `json:"cache_ways"`

	// ReportDB is the SQLite file recording batch outcomes. Empty disables
	// recording.
	ReportDB string `json:"report_db"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	return &Config{
		MaxSteps:          100000,
		TimeLimitMS:       30000,
		PathSatExceptions: []string{},
		Solver:            solver.BackendGini,
		Workers:           runtime.NumCPU(),
		CacheSets:         64,
		CacheWays:         4,
	}
}

// LoadConfig loads settings from a JSON file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the settings to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be >= 0")
	}
	if c.TimeLimitMS < 0 {
		return fmt.Errorf("time_limit_ms must be >= 0")
	}
	if _, err := solver.New(c.Solver); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if c.CacheSets < 0 {
		return fmt.Errorf("cache_sets must be >= 0")
	}
	if c.CacheSets > 0 && c.CacheWays <= 0 {
		return fmt.Errorf("cache_ways must be > 0 when the cache is enabled")
	}
	seen := make(map[string]bool, len(c.PathSatExceptions))
	for _, name := range c.PathSatExceptions {
		if name == "" {
			return fmt.Errorf("path_sat_exceptions must not contain empty names")
		}
		if seen[name] {
			return fmt.Errorf("path_sat_exceptions lists %q twice", name)
		}
		seen[name] = true
	}
	return nil
}

// Clone returns a deep copy of the settings.
func (c *Config) Clone() *Config {
	out := *c
	out.PathSatExceptions = append([]string{}, c.PathSatExceptions...)
	return &out
}

// TimeLimit returns the per-extraction time limit.
func (c *Config) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitMS) * time.Millisecond
}

// CacheEnabled reports whether a formula cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.CacheSets > 0
}

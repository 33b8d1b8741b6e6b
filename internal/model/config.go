package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds every tunable of a planning run
type Config struct {
	Solver    SolverConfig    `json:"solver" yaml:"solver" mapstructure:"solver"`
	Resolve   ResolveConfig   `json:"resolve" yaml:"resolve" mapstructure:"resolve"`
	Objective ObjectiveConfig `json:"objective" yaml:"objective" mapstructure:"objective"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`
}

// SolverConfig controls the solver invocation
type SolverConfig struct {
	TimeLimit time.Duration `json:"time_limit" yaml:"time_limit" mapstructure:"time_limit"` // Wall-clock budget
	Workers   int           `json:"workers" yaml:"workers" mapstructure:"workers"`          // Parallel search workers
	Seed      int64         `json:"seed" yaml:"seed" mapstructure:"seed"`                   // Base seed, worker i uses Seed+i
	Patience  int           `json:"patience" yaml:"patience" mapstructure:"patience"`       // Non-improving perturbations before a worker stops
}

// ResolveConfig controls the attachment resolver thresholds
type ResolveConfig struct {
	FuzzyThreshold    float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`          // Raw similarity needed without affinity
	AffinityThreshold float64 `json:"affinity_threshold" yaml:"affinity_threshold" mapstructure:"affinity_threshold"` // Raw similarity needed with shared org/group
	AffinityBonus     float64 `json:"affinity_bonus" yaml:"affinity_bonus" mapstructure:"affinity_bonus"`             // Added per shared signal
	GroupThreshold    float64 `json:"group_threshold" yaml:"group_threshold" mapstructure:"group_threshold"`          // Similarity to treat text as a group/org name
	FirstNameMinimum  float64 `json:"first_name_minimum" yaml:"first_name_minimum" mapstructure:"first_name_minimum"` // First-name plausibility in the last-name tier
}

// ObjectiveConfig controls objective weights
type ObjectiveConfig struct {
	Strict  bool          `json:"strict" yaml:"strict" mapstructure:"strict"` // Derive dominating tier weights
	Weights WeightsConfig `json:"weights" yaml:"weights" mapstructure:"weights"`
}

// WeightsConfig are the fixed tier weights used when Strict is false
type WeightsConfig struct {
	Place    int64 `json:"place" yaml:"place" mapstructure:"place"`
	Group    int64 `json:"group" yaml:"group" mapstructure:"group"`
	Attach   int64 `json:"attach" yaml:"attach" mapstructure:"attach"`
	Affinity int64 `json:"affinity" yaml:"affinity" mapstructure:"affinity"`
	Org      int64 `json:"org" yaml:"org" mapstructure:"org"`
}

// CacheConfig controls the solution cache
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `json:"dir" yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`    // debug, info, warn, error
	Format string `json:"format" yaml:"format" mapstructure:"format"` // console or json
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose      bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	ColorSummary bool `json:"color_summary" yaml:"color_summary" mapstructure:"color_summary"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "bunkhouse-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".bunkhouse", "cache")
	}

	return &Config{
		Solver: SolverConfig{
			TimeLimit: 30 * time.Second,
			Workers:   4,
			Seed:      1,
			Patience:  200,
		},
		Resolve: ResolveConfig{
			FuzzyThreshold:    0.70,
			AffinityThreshold: 0.60,
			AffinityBonus:     0.15,
			GroupThreshold:    0.90,
			FirstNameMinimum:  0.40,
		},
		Objective: ObjectiveConfig{
			Strict: true,
			Weights: WeightsConfig{
				Place:    10000,
				Group:    1000,
				Attach:   800,
				Affinity: 200,
				Org:      100,
			},
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     cacheDir,
			TTL:     7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			ColorSummary: true,
		},
	}
}

package model

import "time"

// Config holds all runtime settings for crowdgen
type Config struct {
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
}

// GenerationConfig controls sampling
type GenerationConfig struct {
	Count     int           `yaml:"count" mapstructure:"count"`         // samples per domain
	Seed      int64         `yaml:"seed" mapstructure:"seed"`           // base seed, per-domain seeds derive from it
	Workers   int           `yaml:"workers" mapstructure:"workers"`     // domains generated concurrently
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`     // whole run
	Tolerance float64       `yaml:"tolerance" mapstructure:"tolerance"` // percentage points
}

// OutputConfig controls corpus files
type OutputConfig struct {
	Dir   string `yaml:"dir" mapstructure:"dir"`
	Merge string `yaml:"merge" mapstructure:"merge"` // merged corpus file, empty to skip
}

// StoreConfig controls the SQLite record store
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// ReportConfig controls console reporting
type ReportConfig struct {
	Verbose    bool `yaml:"verbose" mapstructure:"verbose"`
	IssueLimit int  `yaml:"issue_limit" mapstructure:"issue_limit"` // issues listed per domain
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Count:     1000,
			Seed:      42,
			Workers:   4,
			Timeout:   5 * time.Minute,
			Tolerance: 3.0,
		},
		Output: OutputConfig{
			Dir: "./dataset",
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "./dataset/crowdgen.db",
		},
		Report: ReportConfig{
			Verbose:    false,
			IssueLimit: 20,
		},
	}
}

// Package config loads the YAML configuration shared by the des commands.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/szibis/des/internal/baseline"
	"github.com/szibis/des/internal/compression"
	"github.com/szibis/des/internal/corpus"
	"github.com/szibis/des/internal/des"
	"github.com/szibis/des/internal/trials"
)

// Config represents the configuration file structure.
type Config struct {
	Estimator EstimatorConfig `yaml:"estimator"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Trials    TrialsConfig    `yaml:"trials"`
	Baselines BaselinesConfig `yaml:"baselines"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// ConfigFile is the path the configuration was loaded from, if any.
	ConfigFile string `yaml:"-"`
}

// EstimatorConfig holds estimator settings.
type EstimatorConfig struct {
	Name           string  `yaml:"name"`
	Threshold      int     `yaml:"threshold"`        // 0 = size from epsilon/delta and stream length
	Epsilon        float64 `yaml:"epsilon"`          // relative error tolerance
	Delta          float64 `yaml:"delta"`            // failure probability
	Seed           *uint64 `yaml:"seed"`             // nil = draw from crypto/rand
	PollInterval   int     `yaml:"poll_interval"`    // items between estimate refreshes
	ResetBeforeRun bool    `yaml:"reset_before_run"` // reset state before each run
	HashItems      bool    `yaml:"hash_items"`       // retain 64-bit xxhash digests instead of tokens
}

// CorpusConfig holds input settings.
type CorpusConfig struct {
	Path            string `yaml:"path"`
	Compression     string `yaml:"compression"` // "auto" detects from extension
	Lowercase       bool   `yaml:"lowercase"`
	KeepPunctuation bool   `yaml:"keep_punctuation"`
}

// TrialsConfig holds settings for multi-seed trial batches.
type TrialsConfig struct {
	Count       int    `yaml:"count"`
	Parallelism int    `yaml:"parallelism"` // 0 = GOMAXPROCS
	BaseSeed    uint64 `yaml:"base_seed"`
}

// BaselinesConfig selects reference counters reported next to the estimate.
type BaselinesConfig struct {
	Exact                  bool    `yaml:"exact"`
	HLL                    bool    `yaml:"hll"`
	Bloom                  bool    `yaml:"bloom"`
	BloomExpectedItems     uint    `yaml:"bloom_expected_items"`
	BloomFalsePositiveRate float64 `yaml:"bloom_false_positive_rate"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr            string   `yaml:"addr"` // empty = disabled
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{
		Baselines: BaselinesConfig{Exact: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets default values for unspecified fields.
func (c *Config) ApplyDefaults() {
	if c.Estimator.Name == "" {
		c.Estimator.Name = "des"
	}
	if c.Estimator.Epsilon == 0 {
		c.Estimator.Epsilon = des.DefaultEpsilon
	}
	if c.Estimator.Delta == 0 {
		c.Estimator.Delta = des.DefaultDelta
	}
	if c.Estimator.PollInterval == 0 {
		c.Estimator.PollInterval = des.DefaultPollInterval
	}

	if c.Corpus.Compression == "" {
		c.Corpus.Compression = "auto"
	}

	if c.Trials.Count == 0 {
		c.Trials.Count = 100
	}

	if c.Baselines.BloomExpectedItems == 0 {
		c.Baselines.BloomExpectedItems = baseline.DefaultConfig().ExpectedItems
	}
	if c.Baselines.BloomFalsePositiveRate == 0 {
		c.Baselines.BloomFalsePositiveRate = baseline.DefaultConfig().FalsePositiveRate
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Metrics.ShutdownTimeout == 0 {
		c.Metrics.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Estimator.Threshold < 0 {
		errs = append(errs, fmt.Sprintf("estimator.threshold must be >= 0, got %d", c.Estimator.Threshold))
	}
	if !inOpenUnit(c.Estimator.Epsilon) {
		errs = append(errs, fmt.Sprintf("estimator.epsilon must be between 0 and 1 (exclusive), got %v", c.Estimator.Epsilon))
	}
	if !inOpenUnit(c.Estimator.Delta) {
		errs = append(errs, fmt.Sprintf("estimator.delta must be between 0 and 1 (exclusive), got %v", c.Estimator.Delta))
	}
	if c.Estimator.PollInterval <= 0 {
		errs = append(errs, fmt.Sprintf("estimator.poll_interval must be > 0, got %d", c.Estimator.PollInterval))
	}

	if !strings.EqualFold(c.Corpus.Compression, "auto") {
		if _, err := compression.ParseType(c.Corpus.Compression); err != nil {
			errs = append(errs, fmt.Sprintf("corpus.compression is not supported: %q", c.Corpus.Compression))
		}
	}

	if c.Trials.Count <= 0 {
		errs = append(errs, fmt.Sprintf("trials.count must be > 0, got %d", c.Trials.Count))
	}
	if c.Trials.Parallelism < 0 {
		errs = append(errs, fmt.Sprintf("trials.parallelism must be >= 0, got %d", c.Trials.Parallelism))
	}

	if c.Baselines.Bloom && !inOpenUnit(c.Baselines.BloomFalsePositiveRate) {
		errs = append(errs, fmt.Sprintf("baselines.bloom_false_positive_rate must be between 0 and 1 (exclusive), got %v",
			c.Baselines.BloomFalsePositiveRate))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if c.Metrics.ShutdownTimeout < 0 {
		errs = append(errs, "metrics.shutdown_timeout must be >= 0")
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.New("configuration validation failed:\n  - " + strings.Join(errs, "\n  - "))
}

func inOpenUnit(v float64) bool {
	return v > 0 && v < 1 && !math.IsNaN(v)
}

// EstimatorOptions converts the estimator section into des options. entropy is
// used only when no seed is configured.
func (c *Config) EstimatorOptions(entropy io.Reader) []des.Option {
	opts := []des.Option{
		des.WithName(c.Estimator.Name),
		des.WithEpsilon(c.Estimator.Epsilon),
		des.WithDelta(c.Estimator.Delta),
	}
	if c.Estimator.Threshold > 0 {
		opts = append(opts, des.WithFixedThreshold(c.Estimator.Threshold))
	}
	if c.Estimator.Seed != nil {
		opts = append(opts, des.WithSeed(*c.Estimator.Seed))
	} else {
		opts = append(opts, des.WithEntropy(entropy))
	}
	return opts
}

// RunConfig returns the per-run estimator settings.
func (c *Config) RunConfig() des.RunConfig {
	return des.RunConfig{
		ResetBeforeRun: c.Estimator.ResetBeforeRun,
		PollInterval:   c.Estimator.PollInterval,
	}
}

// CorpusOptions returns the corpus loading settings.
func (c *Config) CorpusOptions() corpus.Options {
	return corpus.Options{
		Compression:     c.Corpus.Compression,
		Lowercase:       c.Corpus.Lowercase,
		KeepPunctuation: c.Corpus.KeepPunctuation,
	}
}

// TrialsConfig returns the trial batch settings. Trial seeds come from
// trials.base_seed, so the estimator seed is not used.
func (c *Config) TrialsConfig() trials.Config {
	opts := []des.Option{
		des.WithEpsilon(c.Estimator.Epsilon),
		des.WithDelta(c.Estimator.Delta),
	}
	if c.Estimator.Threshold > 0 {
		opts = append(opts, des.WithFixedThreshold(c.Estimator.Threshold))
	}
	return trials.Config{
		Count:       c.Trials.Count,
		Parallelism: c.Trials.Parallelism,
		BaseSeed:    c.Trials.BaseSeed,
		Name:        c.Estimator.Name,
		Options:     opts,
		Run:         c.RunConfig(),
	}
}

// BaselineCounters builds the enabled reference counters in a fixed order:
// exact, hll, bloom.
func (c *Config) BaselineCounters() []baseline.Counter {
	var counters []baseline.Counter
	if c.Baselines.Exact {
		counters = append(counters, baseline.NewExact())
	}
	if c.Baselines.HLL {
		counters = append(counters, baseline.NewHLL())
	}
	if c.Baselines.Bloom {
		counters = append(counters, baseline.NewBloom(baseline.Config{
			ExpectedItems:     c.Baselines.BloomExpectedItems,
			FalsePositiveRate: c.Baselines.BloomFalsePositiveRate,
		}))
	}
	return counters
}

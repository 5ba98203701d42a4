package main

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/szibis/des/internal/baseline"
	"github.com/szibis/des/internal/config"
	"github.com/szibis/des/internal/logging"
)

// flags holds command line values. They override the config file only when
// set explicitly.
type flags struct {
	configFile string
	output     string

	threshold    int
	epsilon      float64
	delta        float64
	seed         uint64
	pollInterval int
	reset        bool
	hashItems    bool

	compression string
	lowercase   bool
	punctuation bool

	count       int
	parallelism int
	baseSeed    uint64
	perTrial    bool

	baselines []string

	logLevel    string
	logFormat   string
	metricsAddr string
}

// entropy seeds estimators when no seed is configured. Replaced in tests.
var entropy io.Reader = rand.Reader

func newRootCmd() *cobra.Command {
	f := &flags{}
	var cfg *config.Config

	root := &cobra.Command{
		Use:   "des",
		Short: "Estimate distinct elements in a stream with bounded memory",
		Long: `des estimates the number of distinct tokens in a text corpus in a single
pass, keeping a bounded random sample instead of every distinct value.

The estimate command runs one estimator and reports it next to optional
baseline counters (exact, HyperLogLog, Bloom). The trials command repeats the
run across many seeds and summarizes the accuracy.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = loadConfig(cmd, f)
			if err != nil {
				return err
			}
			setupLogging(cmd, cfg)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "YAML configuration file")
	pf.StringVarP(&f.output, "output", "o", "text", "output format: text or json")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&f.logFormat, "log-format", "", "log format: json or console")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	pf.IntVarP(&f.threshold, "threshold", "t", 0, "fixed accumulator threshold (0 sizes it from epsilon, delta and corpus length)")
	pf.Float64Var(&f.epsilon, "epsilon", 0, "relative error tolerance")
	pf.Float64Var(&f.delta, "delta", 0, "failure probability")
	pf.IntVar(&f.pollInterval, "poll-interval", 0, "items between estimate refreshes")

	cfgFn := func() *config.Config { return cfg }
	root.AddCommand(
		newEstimateCmd(f, cfgFn),
		newThresholdCmd(f, cfgFn),
		newTrialsCmd(f, cfgFn),
		newValidateCmd(),
	)
	return root
}

func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configFile != "" {
		var err error
		cfg, err = config.LoadYAML(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", f.configFile, err)
		}
	}
	if err := applyFlagOverrides(cmd, f, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags over file values.
func applyFlagOverrides(cmd *cobra.Command, f *flags, cfg *config.Config) error {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("threshold") {
		cfg.Estimator.Threshold = f.threshold
	}
	if changed("epsilon") {
		cfg.Estimator.Epsilon = f.epsilon
	}
	if changed("delta") {
		cfg.Estimator.Delta = f.delta
	}
	if changed("seed") {
		seed := f.seed
		cfg.Estimator.Seed = &seed
	}
	if changed("poll-interval") {
		cfg.Estimator.PollInterval = f.pollInterval
	}
	if changed("reset") {
		cfg.Estimator.ResetBeforeRun = f.reset
	}
	if changed("hash") {
		cfg.Estimator.HashItems = f.hashItems
	}
	if changed("compression") {
		cfg.Corpus.Compression = f.compression
	}
	if changed("lowercase") {
		cfg.Corpus.Lowercase = f.lowercase
	}
	if changed("punctuation") {
		cfg.Corpus.KeepPunctuation = f.punctuation
	}
	if changed("count") {
		cfg.Trials.Count = f.count
	}
	if changed("parallelism") {
		cfg.Trials.Parallelism = f.parallelism
	}
	if changed("base-seed") {
		cfg.Trials.BaseSeed = f.baseSeed
	}
	if changed("baseline") {
		cfg.Baselines.Exact, cfg.Baselines.HLL, cfg.Baselines.Bloom = false, false, false
		for _, name := range f.baselines {
			kind, err := baseline.ParseKind(name)
			if err != nil {
				return err
			}
			switch kind {
			case baseline.KindExact:
				cfg.Baselines.Exact = true
			case baseline.KindHLL:
				cfg.Baselines.HLL = true
			case baseline.KindBloom:
				cfg.Baselines.Bloom = true
			}
		}
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	return nil
}

func setupLogging(cmd *cobra.Command, cfg *config.Config) {
	logging.SetOutput(cmd.ErrOrStderr())
	logging.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	logging.SetFormat(logging.ParseFormat(cfg.Logging.Format))
	logging.SetResource(map[string]string{
		"service.name":    "des",
		"service.version": version,
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

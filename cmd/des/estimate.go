package main

import (
	"fmt"
	"io"
	"iter"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/szibis/des/internal/baseline"
	"github.com/szibis/des/internal/config"
	"github.com/szibis/des/internal/corpus"
	"github.com/szibis/des/internal/des"
	"github.com/szibis/des/internal/health"
	"github.com/szibis/des/internal/logging"
	"github.com/szibis/des/internal/trials"
)

// estimateResult is the report of one estimator run.
type estimateResult struct {
	Corpus      string            `json:"corpus"`
	Tokens      int               `json:"tokens"`
	Estimate    int64             `json:"estimate"`
	Threshold   int               `json:"threshold"`
	Seed        uint64            `json:"seed"`
	Downsamples int64             `json:"downsamples"`
	Probability float64           `json:"probability"`
	Retained    int               `json:"retained"`
	Hashed      bool              `json:"hashed"`
	Duration    time.Duration     `json:"duration_ns"`
	Accuracy    *float64          `json:"accuracy,omitempty"`
	Baselines   []baseline.Result `json:"baselines,omitempty"`
}

func newEstimateCmd(f *flags, cfg func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate [corpus]",
		Short: "Estimate the number of distinct tokens in a corpus",
		Long: `Loads the corpus (plain or compressed text), streams its tokens through one
estimator and prints the estimate. Enabled baselines are counted over the same
tokens and, when the exact baseline is enabled, the accuracy is reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if len(args) == 1 {
				c.Corpus.Path = args[0]
			}
			return runEstimate(cmd, c, f.output)
		},
	}

	fl := cmd.Flags()
	fl.Uint64Var(&f.seed, "seed", 0, "PRNG seed (default: drawn from crypto/rand)")
	fl.BoolVar(&f.reset, "reset", false, "reset the estimator before the run")
	fl.BoolVar(&f.hashItems, "hash", false, "retain 64-bit xxhash digests instead of tokens")
	addCorpusFlags(cmd, f)
	fl.StringSliceVar(&f.baselines, "baseline", nil, "baseline counters to report: exact, hll, bloom")
	return cmd
}

func addCorpusFlags(cmd *cobra.Command, f *flags) {
	fl := cmd.Flags()
	fl.StringVar(&f.compression, "compression", "", "corpus compression: auto, none, gzip, zstd, snappy, zlib, deflate, lz4")
	fl.BoolVar(&f.lowercase, "lowercase", false, "fold tokens to lower case")
	fl.BoolVar(&f.punctuation, "punctuation", false, "count punctuation tokens")
}

// loadCorpus loads the configured corpus. Until it returns, the "corpus"
// readiness check reports not ready.
func loadCorpus(c *config.Config, checker *health.Checker) (*corpus.Corpus, error) {
	if c.Corpus.Path == "" {
		return nil, fmt.Errorf("no corpus given: pass a path or set corpus.path")
	}

	var loaded atomic.Pointer[corpus.Corpus]
	checker.Register("corpus", func() (any, error) {
		corp := loaded.Load()
		if corp == nil {
			return nil, fmt.Errorf("loading %s", c.Corpus.Path)
		}
		return map[string]any{"path": corp.Path, "tokens": corp.Len()}, nil
	})

	start := time.Now()
	corp, err := corpus.Load(c.Corpus.Path, c.CorpusOptions())
	if err != nil {
		return nil, err
	}
	loaded.Store(corp)
	logging.Info("corpus loaded", logging.F(
		"path", corp.Path,
		"tokens", corp.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	))
	return corp, nil
}

func runEstimate(cmd *cobra.Command, c *config.Config, output string) error {
	ms, err := startMetricsServer(c.Metrics.Addr, time.Duration(c.Metrics.ShutdownTimeout))
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	defer ms.Shutdown()

	corp, err := loadCorpus(c, ms.Health())
	if err != nil {
		return err
	}

	var res *estimateResult
	if c.Estimator.HashItems {
		res, err = estimate(c, des.HashStrings(corp.Seq()), corp.Len(), ms.Health())
	} else {
		res, err = estimate(c, corp.Seq(), corp.Len(), ms.Health())
	}
	if err != nil {
		return err
	}
	res.Corpus = corp.Path
	res.Hashed = c.Estimator.HashItems

	if counters := c.BaselineCounters(); len(counters) > 0 {
		res.Baselines = baseline.CountStrings(corp.Seq(), counters...)
		for _, b := range res.Baselines {
			if b.Kind == baseline.KindExact {
				acc := trials.Accuracy(res.Estimate, b.Count)
				res.Accuracy = &acc
			}
		}
	}

	if output == "json" {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printEstimate(cmd.OutOrStdout(), res)
	return nil
}

// estimate runs one estimator over seq. While it runs, the "estimator"
// readiness check serves the live snapshot.
func estimate[T comparable](c *config.Config, seq iter.Seq[T], n int, checker *health.Checker) (*estimateResult, error) {
	e, err := des.New[T](c.EstimatorOptions(entropy)...)
	if err != nil {
		return nil, err
	}
	threshold, err := e.Threshold(n)
	if err != nil {
		return nil, err
	}
	checker.Register("estimator", func() (any, error) {
		return e.Snapshot(), nil
	})

	start := time.Now()
	est, err := e.EstimateDistinctWith(seq, n, c.RunConfig())
	if err != nil {
		return nil, fmt.Errorf("estimator %s (seed %d): %w", e.Name(), e.Seed(), err)
	}

	snap := e.Snapshot()
	return &estimateResult{
		Tokens:      n,
		Estimate:    est,
		Threshold:   threshold,
		Seed:        e.Seed(),
		Downsamples: snap.Downsamples,
		Probability: snap.Probability,
		Retained:    snap.Retained,
		Duration:    time.Since(start),
	}, nil
}

func printEstimate(w io.Writer, r *estimateResult) {
	fmt.Fprintf(w, "corpus:       %s\n", r.Corpus)
	fmt.Fprintf(w, "tokens:       %d\n", r.Tokens)
	fmt.Fprintf(w, "estimate:     %d\n", r.Estimate)
	fmt.Fprintf(w, "threshold:    %d\n", r.Threshold)
	fmt.Fprintf(w, "seed:         %d\n", r.Seed)
	fmt.Fprintf(w, "downsamples:  %d\n", r.Downsamples)
	fmt.Fprintf(w, "probability:  %g\n", r.Probability)
	fmt.Fprintf(w, "retained:     %d\n", r.Retained)
	fmt.Fprintf(w, "duration:     %s\n", r.Duration)
	for _, b := range r.Baselines {
		fmt.Fprintf(w, "%-13s %d (%d bytes)\n", b.Kind+":", b.Count, b.MemoryBytes)
	}
	if r.Accuracy != nil {
		fmt.Fprintf(w, "accuracy:     %.4f\n", *r.Accuracy)
	}
}

// Package trials runs the estimator over one corpus with many seeds and
// summarizes how close the estimates land to the exact distinct count.
package trials

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/szibis/des/internal/baseline"
	"github.com/szibis/des/internal/des"
	"github.com/szibis/des/internal/logging"
)

// Config controls a batch of trials.
type Config struct {
	// Count is the number of trials. Trial i uses seed BaseSeed+i.
	Count int
	// Parallelism bounds concurrently running trials. 0 uses GOMAXPROCS.
	Parallelism int
	// BaseSeed is the seed of the first trial.
	BaseSeed uint64
	// Name labels the trial estimators in metrics and logs.
	Name string
	// Options are applied to every trial estimator before its seed.
	Options []des.Option
	// Run is passed to EstimateDistinctWith.
	Run des.RunConfig
}

// Trial is the outcome of one seeded run.
type Trial struct {
	Seed        uint64        `json:"seed"`
	Estimate    int64         `json:"estimate"`
	Downsamples int64         `json:"downsamples"`
	Accuracy    float64       `json:"accuracy"`
	Overflow    bool          `json:"overflow"`
	Duration    time.Duration `json:"duration_ns"`
}

// Report summarizes a batch of trials. Trials are ordered by seed.
type Report struct {
	Tokens          int           `json:"tokens"`
	Distinct        int64         `json:"distinct"`
	Threshold       int           `json:"threshold"`
	Trials          []Trial       `json:"trials"`
	MeanAccuracy    float64       `json:"mean_accuracy"`
	MinAccuracy     float64       `json:"min_accuracy"`
	MaxAccuracy     float64       `json:"max_accuracy"`
	MeanDownsamples float64       `json:"mean_downsamples"`
	Overflows       int           `json:"overflows"`
	MeanDuration    time.Duration `json:"mean_duration_ns"`
}

// Accuracy returns 1 - |distinct - estimate| / distinct.
func Accuracy(estimate, distinct int64) float64 {
	if distinct == 0 {
		if estimate == 0 {
			return 1
		}
		return 0
	}
	return 1 - math.Abs(float64(distinct-estimate))/float64(distinct)
}

// Validate checks the batch settings.
func (c Config) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("trial count must be greater than 0, got: %d", c.Count)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got: %d", c.Parallelism)
	}
	if c.Run.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be greater than 0, got: %d", c.Run.PollInterval)
	}
	return nil
}

// Run executes cfg.Count trials over tokens. An overflowing trial is recorded
// with a zero estimate; any other estimator error aborts the batch.
func Run(ctx context.Context, tokens []string, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, errors.New("corpus has no tokens")
	}

	exact := baseline.NewExact()
	distinct := baseline.CountStrings(slices.Values(tokens), exact)[0].Count

	probe, err := newEstimator(cfg, cfg.BaseSeed)
	if err != nil {
		return nil, err
	}
	threshold, err := probe.Threshold(len(tokens))
	if err != nil {
		return nil, err
	}

	parallelism := cfg.Parallelism
	if parallelism == 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	logging.Info("starting trials", logging.F(
		"trials", cfg.Count,
		"parallelism", parallelism,
		"tokens", len(tokens),
		"distinct", distinct,
		"threshold", threshold,
	))

	results := make([]Trial, cfg.Count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range results {
		seed := cfg.BaseSeed + uint64(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tr, err := runTrial(cfg, seed, tokens, distinct)
			if err != nil {
				return err
			}
			results[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := summarize(results)
	report.Tokens = len(tokens)
	report.Distinct = distinct
	report.Threshold = threshold

	logging.Info("trials complete", logging.F(
		"mean_accuracy", report.MeanAccuracy,
		"min_accuracy", report.MinAccuracy,
		"overflows", report.Overflows,
	))
	return report, nil
}

func newEstimator(cfg Config, seed uint64) (*des.Estimator[string], error) {
	opts := slices.Clone(cfg.Options)
	if cfg.Name != "" {
		opts = append(opts, des.WithName(cfg.Name))
	}
	opts = append(opts, des.WithSeed(seed))
	return des.New[string](opts...)
}

func runTrial(cfg Config, seed uint64, tokens []string, distinct int64) (Trial, error) {
	e, err := newEstimator(cfg, seed)
	if err != nil {
		return Trial{}, err
	}

	start := time.Now()
	est, err := e.EstimateDistinctWith(slices.Values(tokens), len(tokens), cfg.Run)
	tr := Trial{
		Seed:        seed,
		Estimate:    est,
		Downsamples: e.DownsampleCount(),
		Duration:    time.Since(start),
	}
	switch {
	case errors.Is(err, des.ErrOverflow):
		tr.Overflow = true
	case err != nil:
		return Trial{}, fmt.Errorf("trial with seed %d: %w", seed, err)
	}
	tr.Accuracy = Accuracy(tr.Estimate, distinct)
	return tr, nil
}

func summarize(trials []Trial) *Report {
	r := &Report{
		Trials:      trials,
		MinAccuracy: math.Inf(1),
		MaxAccuracy: math.Inf(-1),
	}

	var accSum, dsSum float64
	var durSum time.Duration
	for _, tr := range trials {
		accSum += tr.Accuracy
		dsSum += float64(tr.Downsamples)
		durSum += tr.Duration
		r.MinAccuracy = min(r.MinAccuracy, tr.Accuracy)
		r.MaxAccuracy = max(r.MaxAccuracy, tr.Accuracy)
		if tr.Overflow {
			r.Overflows++
		}
	}

	n := float64(len(trials))
	r.MeanAccuracy = accSum / n
	r.MeanDownsamples = dsSum / n
	r.MeanDuration = durSum / time.Duration(len(trials))
	return r
}

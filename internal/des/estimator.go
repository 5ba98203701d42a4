package des

import (
	"errors"
	"iter"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/szibis/des/internal/logging"
)

// DefaultPollInterval is the number of items between estimate refreshes.
const DefaultPollInterval = 10

// RunConfig holds per-call settings for EstimateDistinctWith.
type RunConfig struct {
	// ResetBeforeRun restores the post-construction state before consuming items.
	ResetBeforeRun bool
	// PollInterval is the number of items between estimate refreshes.
	PollInterval int
}

// DefaultRunConfig returns the settings used by EstimateDistinct.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		PollInterval: DefaultPollInterval,
	}
}

// Snapshot is a consistent view of the estimator state.
type Snapshot struct {
	Estimate    int64
	Probability float64
	Retained    int
	Downsamples int64
}

// Estimator approximates the number of distinct items in a stream.
//
// All state is guarded by one mutex, taken once per item and once per estimate
// refresh, so accessors may be called from other goroutines while a stream is
// being consumed. Concurrent runs on the same Estimator serialize per item and
// share state.
type Estimator[T comparable] struct {
	mu sync.Mutex

	name     string
	fixed    int
	hasFixed bool
	sizer    ThresholdFunc
	epsilon  float64
	delta    float64
	seed     uint64
	onSample func(DownsampleEvent)
	metrics  *estimatorMetrics

	acc         *accumulator[T]
	probability float64
	downsamples int64
	estimate    int64
	src         *rand.PCG
	rng         *rand.Rand
}

// New creates an estimator. A seed must be supplied with WithSeed or drawn
// from a reader passed to WithEntropy.
func New[T comparable](opts ...Option) (*Estimator[T], error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	seed, err := s.resolveSeed()
	if err != nil {
		return nil, err
	}

	e := &Estimator[T]{
		name:     s.name,
		fixed:    s.fixed,
		hasFixed: s.hasFixed,
		sizer:    s.sizer,
		epsilon:  s.epsilon,
		delta:    s.delta,
		seed:     seed,
		onSample: s.onSample,
		metrics:  newEstimatorMetrics(s.name),
		acc:      newAccumulator[T](),
		src:      rand.NewPCG(seed, seed),
	}
	e.rng = rand.New(e.src)
	e.probability = 1
	e.metrics.probability.Set(1)
	return e, nil
}

// Name returns the estimator name.
func (e *Estimator[T]) Name() string {
	return e.name
}

// Seed returns the seed the PRNG is (re)initialized from.
func (e *Estimator[T]) Seed() uint64 {
	return e.seed
}

// Epsilon returns the relative error tolerance.
func (e *Estimator[T]) Epsilon() float64 {
	return e.epsilon
}

// Delta returns the failure probability.
func (e *Estimator[T]) Delta() float64 {
	return e.delta
}

// Threshold resolves the capacity bound for a stream of streamSize items.
// It does not modify the estimator.
func (e *Estimator[T]) Threshold(streamSize int) (int, error) {
	if e.hasFixed {
		return e.fixed, nil
	}
	return e.sizer(streamSize, e.epsilon, e.delta)
}

// DownsampleCount returns the number of down-sample passes since the last reset.
func (e *Estimator[T]) DownsampleCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.downsamples
}

// Estimate returns the last published estimate.
// While a run is in progress the value may lag by up to PollInterval-1 items.
func (e *Estimator[T]) Estimate() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.estimate
}

// Probability returns the current retention probability.
func (e *Estimator[T]) Probability() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.probability
}

// Snapshot returns the estimator state read under one lock acquisition.
func (e *Estimator[T]) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Estimate:    e.estimate,
		Probability: e.probability,
		Retained:    e.acc.Len(),
		Downsamples: e.downsamples,
	}
}

// Witnesses returns a copy of the retained items in iteration order.
func (e *Estimator[T]) Witnesses() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acc.Items()
}

// Reset restores the post-construction state and re-seeds the PRNG, so the
// next run behaves exactly like a run on a fresh estimator with the same seed.
func (e *Estimator[T]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Estimator[T]) resetLocked() {
	e.acc.Clear()
	e.probability = 1
	e.downsamples = 0
	e.estimate = 0
	e.src.Seed(e.seed, e.seed)
	e.metrics.probability.Set(1)
	e.metrics.estimate.Set(0)
}

// EstimateDistinct consumes seq with DefaultRunConfig.
func (e *Estimator[T]) EstimateDistinct(seq iter.Seq[T], streamSize int) (int64, error) {
	return e.EstimateDistinctWith(seq, streamSize, DefaultRunConfig())
}

// EstimateDistinctWith consumes seq once, in order, and returns the estimated
// number of distinct items. streamSize is the declared item count and is only
// used to size the threshold; the run always ends when seq is exhausted.
//
// Parameter errors wrap ErrInvalidParameter and leave the estimator untouched.
// An *OverflowError is returned if a down-sample pass cannot restore the size
// bound; the estimator keeps its partial state until the next Reset.
func (e *Estimator[T]) EstimateDistinctWith(seq iter.Seq[T], streamSize int, cfg RunConfig) (int64, error) {
	if cfg.PollInterval <= 0 {
		e.metrics.runsInvalid.Inc()
		return 0, invalidParameter("poll interval must be greater than 0, got: %d", cfg.PollInterval)
	}
	threshold, err := e.Threshold(streamSize)
	if err != nil {
		e.metrics.runsInvalid.Inc()
		return 0, err
	}
	if threshold <= 0 {
		e.metrics.runsInvalid.Inc()
		return 0, invalidParameter("threshold must be greater than 0, got: %d", threshold)
	}

	if cfg.ResetBeforeRun {
		e.Reset()
	}

	start := time.Now()
	var processed int64
	defer func() {
		e.metrics.items.Add(float64(processed))
		e.metrics.duration.Observe(time.Since(start).Seconds())
	}()

	sincePoll := 0
	for item := range seq {
		ev, err := e.observe(item, threshold)
		processed++
		if ev != nil {
			e.downsampled(*ev)
		}
		if err != nil {
			e.metrics.runsOverflow.Inc()
			var oe *OverflowError
			if errors.As(err, &oe) {
				logging.Warn("accumulator overflow", logging.F(
					"estimator", e.name,
					"threshold", oe.Threshold,
					"retained", oe.Retained,
					"downsamples", oe.Downsamples,
					"items_processed", processed,
				))
			}
			return 0, err
		}

		if sincePoll%cfg.PollInterval == 0 {
			e.refresh()
			sincePoll = 0
		}
		sincePoll++
	}

	estimate := e.refresh()
	e.metrics.runsOK.Inc()
	return estimate, nil
}

// observe runs the per-item update as one critical section: drop the item if
// it is a witness, re-admit it with the retention probability, and down-sample
// when the witness set reaches the threshold.
func (e *Estimator[T]) observe(item T, threshold int) (*DownsampleEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.acc.Remove(item)
	if e.rng.Float64() < e.probability {
		e.acc.Add(item)
	}

	before := e.acc.Len()
	if before < threshold {
		return nil, nil
	}

	e.acc.Retain(func(T) bool {
		return e.rng.Float64() >= 0.5
	})
	e.probability /= 2
	e.downsamples++

	ev := &DownsampleEvent{
		Name:        e.name,
		Event:       e.downsamples,
		Threshold:   threshold,
		Before:      before,
		Retained:    e.acc.Len(),
		Probability: e.probability,
	}
	if ev.Retained >= threshold {
		return ev, &OverflowError{
			Threshold:   threshold,
			Retained:    ev.Retained,
			Downsamples: e.downsamples,
		}
	}
	return ev, nil
}

func (e *Estimator[T]) downsampled(ev DownsampleEvent) {
	e.metrics.downsamples.Inc()
	e.metrics.probability.Set(ev.Probability)

	logging.Debug("accumulator down-sampled", logging.F(
		"estimator", ev.Name,
		"event", ev.Event,
		"threshold", ev.Threshold,
		"before", ev.Before,
		"retained", ev.Retained,
		"probability", ev.Probability,
	))

	if e.onSample != nil {
		e.onSample(ev)
	}
}

func (e *Estimator[T]) refresh() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshLocked()
}

func (e *Estimator[T]) refreshLocked() int64 {
	e.estimate = int64(math.Floor(float64(e.acc.Len()) / e.probability))
	e.metrics.estimate.Set(float64(e.estimate))
	return e.estimate
}

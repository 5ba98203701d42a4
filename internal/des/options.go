package des

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultName labels estimators created without WithName.
const DefaultName = "default"

// DownsampleEvent describes one down-sample pass.
type DownsampleEvent struct {
	// Name is the estimator name.
	Name string
	// Event is the 1-based event count after this pass.
	Event int64
	// Threshold is the resolved capacity bound of the run.
	Threshold int
	// Before is the witness count that triggered the pass.
	Before int
	// Retained is the witness count after the pass.
	Retained int
	// Probability is the retention probability after halving.
	Probability float64
}

// Option configures an Estimator.
type Option func(*settings)

type settings struct {
	name     string
	fixed    int
	sizer    ThresholdFunc
	epsilon  float64
	delta    float64
	seed     uint64
	hasSeed  bool
	entropy  io.Reader
	onSample func(DownsampleEvent)
	hasFixed bool
}

func defaultSettings() settings {
	return settings{
		name:    DefaultName,
		sizer:   SizeThreshold,
		epsilon: DefaultEpsilon,
		delta:   DefaultDelta,
	}
}

// WithName labels the estimator in metrics and logs.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithFixedThreshold uses n as the threshold regardless of stream size.
// A value <= 0 is rejected when a run resolves it.
func WithFixedThreshold(n int) Option {
	return func(s *settings) {
		s.fixed = n
		s.hasFixed = true
	}
}

// WithThresholdFunc sizes the threshold with f. Overrides WithFixedThreshold.
func WithThresholdFunc(f ThresholdFunc) Option {
	return func(s *settings) {
		if f != nil {
			s.sizer = f
			s.hasFixed = false
		}
	}
}

// WithEpsilon sets the relative error tolerance passed to the threshold function.
func WithEpsilon(epsilon float64) Option {
	return func(s *settings) { s.epsilon = epsilon }
}

// WithDelta sets the failure probability passed to the threshold function.
func WithDelta(delta float64) Option {
	return func(s *settings) { s.delta = delta }
}

// WithSeed seeds the estimator's PRNG. Takes precedence over WithEntropy.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = seed
		s.hasSeed = true
	}
}

// WithEntropy draws the seed from r once at construction. The drawn seed is
// retained and reported by Seed, so a run can be replayed with WithSeed.
func WithEntropy(r io.Reader) Option {
	return func(s *settings) { s.entropy = r }
}

// WithDownsampleHook calls fn after every down-sample pass, outside the lock.
func WithDownsampleHook(fn func(DownsampleEvent)) Option {
	return func(s *settings) { s.onSample = fn }
}

func (s *settings) resolveSeed() (uint64, error) {
	if s.hasSeed {
		return s.seed, nil
	}
	if s.entropy == nil {
		return 0, invalidParameter("a seed or an entropy source is required")
	}
	var buf [8]byte
	if _, err := io.ReadFull(s.entropy, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read seed from entropy source: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

package des

import "math"

const (
	// DefaultEpsilon is the default relative error tolerance.
	DefaultEpsilon = 0.1
	// DefaultDelta is the default failure probability.
	DefaultDelta = 0.05

	// maxThreshold caps sized thresholds so the conversion to int is exact.
	maxThreshold = 1 << 53
)

// ThresholdFunc sizes the accumulator bound from the declared stream size and
// the accuracy targets.
type ThresholdFunc func(streamSize int, epsilon, delta float64) (int, error)

// SizeThreshold returns ceil((12 / epsilon^2) * ln(8 * streamSize / delta)).
//
// epsilon and delta must lie in (0, 1) and streamSize must be positive,
// otherwise an error wrapping ErrInvalidParameter is returned. The result grows
// as epsilon or delta shrink and as streamSize grows.
func SizeThreshold(streamSize int, epsilon, delta float64) (int, error) {
	if epsilon <= 0 || epsilon >= 1 || math.IsNaN(epsilon) {
		return 0, invalidParameter("relative error tolerance must be in the range (0, 1), got: %v", epsilon)
	}
	if delta <= 0 || delta >= 1 || math.IsNaN(delta) {
		return 0, invalidParameter("failure probability must be in the range (0, 1), got: %v", delta)
	}
	if streamSize <= 0 {
		return 0, invalidParameter("stream size must be greater than 0, got: %d", streamSize)
	}

	t := math.Ceil((12.0 / (epsilon * epsilon)) * math.Log((8.0*float64(streamSize))/delta))
	if t > maxThreshold {
		return 0, invalidParameter("threshold %.0f exceeds the maximum of %d", t, int64(maxThreshold))
	}
	return int(t), nil
}

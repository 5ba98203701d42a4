package des

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a sizing, construction or run
	// parameter is out of range. The estimator state is never modified.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrOverflow is returned when a down-sample pass leaves the witness set at
	// or above the threshold. The threshold is too small for the stream.
	ErrOverflow = errors.New("accumulator overflow")
)

// OverflowError carries the accumulator state at the moment down-sampling
// failed to restore the size bound.
type OverflowError struct {
	// Threshold is the resolved capacity bound of the run.
	Threshold int
	// Retained is the witness count left after the down-sample pass.
	Retained int
	// Downsamples is the down-sample event count, including the failed pass.
	Downsamples int64
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("could not down-sample below threshold %d: retained %d after %d events",
		e.Threshold, e.Retained, e.Downsamples)
}

// Unwrap returns ErrOverflow for errors.Is support.
func (e *OverflowError) Unwrap() error {
	return ErrOverflow
}

func invalidParameter(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

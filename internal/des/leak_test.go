package des

import (
	"slices"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestLeakCheck_PolledRun(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tokens := testCorpus()
	e := mustNew[string](t, WithSeed(1), WithFixedThreshold(100))

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = e.Estimate()
				_ = e.DownsampleCount()
			}
		}
	}()

	if _, err := e.EstimateDistinct(slices.Values(tokens), len(tokens)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	close(stop)
	<-done
}

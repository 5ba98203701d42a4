package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
)

// --- Race condition tests ---
// Run with -race. Estimators log down-sample events from whichever goroutine
// drives the stream while the CLI may reconfigure the logger.

func TestRace_ConcurrentLevels(t *testing.T) {
	SetOutput(io.Discard)
	defer SetOutput(os.Stderr)

	const goroutines = 8
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				msg := fmt.Sprintf("goroutine %d iteration %d", id, i)
				switch id % 4 {
				case 0:
					Debug(msg, F("id", id))
				case 1:
					Info(msg, F("id", id))
				case 2:
					Warn(msg)
				case 3:
					Error(msg, F("id", id, "i", i))
				}
			}
		}(g)
	}

	wg.Wait()
}

func TestRace_ReconfigureDuringLogging(t *testing.T) {
	SetOutput(io.Discard)
	defer func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
		SetFormat(FormatJSON)
		SetResource(nil)
	}()

	const loggers = 4
	const iterations = 500

	var wg sync.WaitGroup
	wg.Add(loggers + 1)

	for g := 0; g < loggers; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				Info("reconfigure", F("id", id, "i", i))
			}
		}(g)
	}

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			SetOutput(io.Discard)
			if i%2 == 0 {
				SetLevel(LevelDebug)
				SetFormat(FormatConsole)
			} else {
				SetLevel(LevelInfo)
				SetFormat(FormatJSON)
			}
			SetResource(map[string]string{"service.name": "des"})
		}
	}()

	wg.Wait()
}

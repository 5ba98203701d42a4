// Package health serves liveness and readiness probes next to the metrics
// endpoint. Readiness checks may attach details, which lets a scraper follow a
// long run through /ready.
package health

import (
	"maps"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// Status represents the health status of a component.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Response is the JSON body returned by health endpoints.
type Response struct {
	Status     Status                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
	Timestamp  string                    `json:"timestamp"`
}

// CheckFunc returns optional details and nil if the component is ready, or an
// error describing why it is not.
type CheckFunc func() (any, error)

// Checker provides liveness and readiness probes. A nil Checker accepts
// registrations and ignores them.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]CheckFunc
	shuttingDown atomic.Bool
}

// New creates a new health Checker.
func New() *Checker {
	return &Checker{
		checks: make(map[string]CheckFunc),
	}
}

// Register adds or replaces a named readiness check.
func (c *Checker) Register(name string, check CheckFunc) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// SetShuttingDown marks the process as shutting down.
// After this, both /live and /ready return 503.
func (c *Checker) SetShuttingDown() {
	if c == nil {
		return
	}
	c.shuttingDown.Store(true)
}

// LiveHandler returns an http.HandlerFunc for the /live endpoint.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if c.shuttingDown.Load() {
			writeJSON(w, http.StatusServiceUnavailable, shuttingDown())
			return
		}
		writeJSON(w, http.StatusOK, Response{Status: StatusUp, Timestamp: now()})
	}
}

// ReadyHandler returns an http.HandlerFunc for the /ready endpoint.
// It runs every registered check; if any fails, the response is 503.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if c.shuttingDown.Load() {
			writeJSON(w, http.StatusServiceUnavailable, shuttingDown())
			return
		}

		c.mu.RLock()
		checks := maps.Clone(c.checks)
		c.mu.RUnlock()

		resp := Response{
			Status:     StatusUp,
			Components: make(map[string]ComponentCheck, len(checks)),
			Timestamp:  now(),
		}
		for name, check := range checks {
			details, err := check()
			cc := ComponentCheck{Status: StatusUp, Details: details}
			if err != nil {
				resp.Status = StatusDown
				cc.Status = StatusDown
				cc.Message = err.Error()
			}
			resp.Components[name] = cc
		}

		code := http.StatusOK
		if resp.Status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}

func shuttingDown() Response {
	return Response{
		Status:    StatusDown,
		Timestamp: now(),
		Components: map[string]ComponentCheck{
			"process": {Status: StatusDown, Message: "shutting down"},
		},
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

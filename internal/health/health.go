package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the health of a single check or of the service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check probes a single dependency.
type Check interface {
	Name() string
	Check(ctx context.Context) Result
}

// Result represents the outcome of one check.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Checker runs registered checks concurrently and aggregates them.
type Checker struct {
	mu     sync.RWMutex
	checks []Check
}

func NewChecker() *Checker {
	return &Checker{checks: make([]Check, 0)}
}

func (c *Checker) Register(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check)
}

func (c *Checker) Check(ctx context.Context) map[string]Result {
	c.mu.RLock()
	checks := make([]Check, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	results := make(map[string]Result)
	var wg sync.WaitGroup
	var resultsMu sync.Mutex
	for _, check := range checks {
		wg.Add(1)
		go func(ch Check) {
			defer wg.Done()
			start := time.Now()
			res := ch.Check(ctx)
			res.Duration = time.Since(start)
			resultsMu.Lock()
			results[ch.Name()] = res
			resultsMu.Unlock()
		}(check)
	}
	wg.Wait()
	return results
}

// OverallStatus is unhealthy as soon as any check is, degraded when
// any check is degraded.
func (c *Checker) OverallStatus(results map[string]Result) Status {
	hasDegraded := false
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// HTTPHandler serves the aggregated health state as JSON, with a 503
// when any dependency is down.
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		results := c.Check(ctx)
		overall := c.OverallStatus(results)

		w.Header().Set("Content-Type", "application/json")
		if overall == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    overall,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    results,
		})
	}
}

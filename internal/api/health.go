package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/felipepmaragno/bedrock-gateway/internal/router"
)

// HealthChecker defines the interface for dependency health checks.
type HealthChecker interface {
	Check(ctx context.Context) error
	Name() string
}

// HealthStatus represents the result of a health check.
type HealthStatus struct {
	Status  string                 `json:"status"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
	Version string                 `json:"version,omitempty"`
}

// CheckResult represents the result of a single dependency check.
type CheckResult struct {
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ProviderHealthChecker adapts a registered provider to HealthChecker.
type ProviderHealthChecker struct {
	provider router.Provider
}

func NewProviderHealthChecker(p router.Provider) *ProviderHealthChecker {
	return &ProviderHealthChecker{provider: p}
}

func (c *ProviderHealthChecker) Name() string {
	return c.provider.ID()
}

func (c *ProviderHealthChecker) Check(ctx context.Context) error {
	return c.provider.HealthCheck(ctx)
}

// ProviderCheckers returns one checker per provider registered on r.
func ProviderCheckers(r *router.Router) []HealthChecker {
	var checkers []HealthChecker
	for _, id := range r.ListProviders() {
		if p, ok := r.GetProvider(id); ok {
			checkers = append(checkers, NewProviderHealthChecker(p))
		}
	}
	return checkers
}

// runHealthChecks executes all health checks concurrently.
func runHealthChecks(ctx context.Context, checkers []HealthChecker) map[string]CheckResult {
	results := make(map[string]CheckResult)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			start := time.Now()
			err := c.Check(ctx)
			duration := time.Since(start)

			result := CheckResult{
				Status:   "ok",
				Duration: duration.String(),
			}
			if err != nil {
				result.Status = "error"
				result.Error = err.Error()
			}

			mu.Lock()
			results[c.Name()] = result
			mu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}

// handleHealthReadyWithCheckers reports 503 when any dependency check fails.
//
//	@Summary	Readiness probe
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthStatus
//	@Failure	503	{object}	HealthStatus
//	@Router		/health/ready [get]
func handleHealthReadyWithCheckers(checkers []HealthChecker, timeout time.Duration, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		results := runHealthChecks(ctx, checkers)

		allHealthy := true
		for _, result := range results {
			if result.Status != "ok" {
				allHealthy = false
				break
			}
		}

		status := HealthStatus{
			Status:  "ready",
			Checks:  results,
			Version: version,
		}

		httpStatus := http.StatusOK
		if !allHealthy {
			status.Status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}

		writeJSON(w, httpStatus, status)
	}
}

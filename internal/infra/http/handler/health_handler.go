package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Pinger is satisfied by the database pool and the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// HealthHandlerOption configures the health handler.
type HealthHandlerOption func(*HealthHandler)

// WithDatabase adds a database readiness check.
func WithDatabase(db Pinger) HealthHandlerOption {
	return func(h *HealthHandler) {
		h.db = db
	}
}

// WithRedis adds a Redis readiness check.
func WithRedis(redis Pinger) HealthHandlerOption {
	return func(h *HealthHandler) {
		h.redis = redis
	}
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(opts ...HealthHandlerOption) *HealthHandler {
	h := &HealthHandler{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health (liveness). It never touches dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// CheckResult is the outcome of a single dependency check.
type CheckResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReadyResponse is the readiness probe body.
type ReadyResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Ready handles GET /ready (readiness). Dependencies are pinged in parallel
// with a short deadline so a hung dependency cannot stall the probe.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	type named struct {
		name   string
		pinger Pinger
	}
	targets := []named{}
	if h.db != nil {
		targets = append(targets, named{"database", h.db})
	}
	if h.redis != nil {
		targets = append(targets, named{"redis", h.redis})
	}

	checks := make(map[string]CheckResult, len(targets))
	var mu sync.Mutex
	var wg sync.WaitGroup
	healthy := true

	for _, t := range targets {
		wg.Add(1)
		go func(t named) {
			defer wg.Done()
			start := time.Now()
			err := t.pinger.Ping(ctx)
			result := CheckResult{Status: "healthy", Latency: time.Since(start).String()}
			if err != nil {
				result.Status = "unhealthy"
				result.Error = err.Error()
			}
			mu.Lock()
			checks[t.name] = result
			if err != nil {
				healthy = false
			}
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	status := http.StatusOK
	resp := ReadyResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "not ready"
	}
	writeJSONResponse(w, status, resp)
}

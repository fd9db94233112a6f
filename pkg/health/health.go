// Package health reports whether a running collision simulation is making
// progress. A FrameMonitor records the statistics of each collision frame;
// checks read the monitor and the Checker exposes them over HTTP as
// liveness, readiness and statistics endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/opd-ai/go-collide/pkg/collision"
)

// HealthCheck is a single named check
type HealthCheck interface {
	Name() string
	// Check returns an error when the component is unhealthy.
	Check(ctx context.Context) error
}

// HealthStatus is the aggregated result of every registered check
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker runs registered checks and serves them over HTTP
type Checker struct {
	checks  map[string]HealthCheck
	monitor *FrameMonitor
	mu      sync.RWMutex
}

// NewChecker creates a checker. monitor may be nil, in which case the stats
// endpoint reports 404.
func NewChecker(monitor *FrameMonitor) *Checker {
	return &Checker{
		checks:  make(map[string]HealthCheck),
		monitor: monitor,
	}
}

// AddCheck registers check, replacing any check with the same name
func (c *Checker) AddCheck(check HealthCheck) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// RemoveCheck removes a check by name
func (c *Checker) RemoveCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Names returns the registered check names in sorted order
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs every check. The overall status is "healthy" only when
// all of them pass.
func (c *Checker) CheckHealth(ctx context.Context) HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth, len(c.checks)),
	}
	for name, check := range c.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: "healthy"}
	}
	return status
}

// LivenessHandler answers 200 while the process can serve requests
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler runs every check, answering 503 if any fails
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := c.CheckHealth(ctx)
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// StatsHandler serves the most recent frame statistics
func (c *Checker) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if c.monitor == nil {
		http.NotFound(w, r)
		return
	}
	snap, ok := c.monitor.Snapshot()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no frames yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Handler returns a mux serving /health, /ready and /stats
func (c *Checker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", c.LivenessHandler)
	mux.HandleFunc("/ready", c.ReadinessHandler)
	mux.HandleFunc("/stats", c.StatsHandler)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// FrameSnapshot is the monitor's view of the simulation
type FrameSnapshot struct {
	Last          collision.FrameStats `json:"last"`
	RecordedAt    time.Time            `json:"recordedAt"`
	Frames        uint64               `json:"frames"`
	TotalContacts uint64               `json:"totalContacts"`
	TotalFailures uint64               `json:"totalFailures"`
}

// FrameMonitor collects frame statistics from the simulation goroutine for
// readers on other goroutines.
type FrameMonitor struct {
	mu       sync.RWMutex
	snap     FrameSnapshot
	recorded bool
	now      func() time.Time
}

// NewFrameMonitor creates an empty monitor
func NewFrameMonitor() *FrameMonitor {
	return &FrameMonitor{now: time.Now}
}

// Record stores the statistics of a completed frame
func (m *FrameMonitor) Record(stats collision.FrameStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Last = stats
	m.snap.RecordedAt = m.now()
	m.snap.Frames++
	m.snap.TotalContacts += uint64(stats.Contacts)
	m.snap.TotalFailures += uint64(stats.Failures)
	m.recorded = true
}

// Snapshot returns the current view, or false before the first frame
func (m *FrameMonitor) Snapshot() (FrameSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap, m.recorded
}

// FrameLoopHealthCheck fails when no frame completed within MaxAge
type FrameLoopHealthCheck struct {
	monitor *FrameMonitor
	maxAge  time.Duration
}

// NewFrameLoopHealthCheck creates a staleness check over monitor
func NewFrameLoopHealthCheck(monitor *FrameMonitor, maxAge time.Duration) *FrameLoopHealthCheck {
	return &FrameLoopHealthCheck{monitor: monitor, maxAge: maxAge}
}

// Name returns the name of this health check.
func (f *FrameLoopHealthCheck) Name() string {
	return "frame_loop"
}

// Check verifies that frames are still being produced.
func (f *FrameLoopHealthCheck) Check(ctx context.Context) error {
	snap, ok := f.monitor.Snapshot()
	if !ok {
		return fmt.Errorf("no collision frame has completed")
	}
	if age := f.monitor.now().Sub(snap.RecordedAt); age > f.maxAge {
		return fmt.Errorf("last frame %d completed %s ago (limit %s)", snap.Last.Frame, age.Round(time.Millisecond), f.maxAge)
	}
	return nil
}

// DispatchHealthCheck fails when the last frame had more callback failures
// than allowed.
type DispatchHealthCheck struct {
	monitor     *FrameMonitor
	maxFailures int
}

// NewDispatchHealthCheck creates a callback failure check over monitor
func NewDispatchHealthCheck(monitor *FrameMonitor, maxFailures int) *DispatchHealthCheck {
	return &DispatchHealthCheck{monitor: monitor, maxFailures: maxFailures}
}

// Name returns the name of this health check.
func (d *DispatchHealthCheck) Name() string {
	return "dispatch"
}

// Check verifies the last frame's callback failure count.
func (d *DispatchHealthCheck) Check(ctx context.Context) error {
	snap, ok := d.monitor.Snapshot()
	if !ok {
		return nil
	}
	if snap.Last.Failures > d.maxFailures {
		return fmt.Errorf("frame %d had %d callback failures (limit %d)", snap.Last.Frame, snap.Last.Failures, d.maxFailures)
	}
	return nil
}

// MemoryHealthCheck fails when memory usage exceeds a limit
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a memory check. getMemoryUsage reports the
// current usage in megabytes.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within the limit.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	if current := m.getMemoryUsage(); current > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", current, m.maxMemoryMB)
	}
	return nil
}

// Package metrics is a small in-memory counter and gauge registry. It backs
// the /metrics endpoint of the operational server; there is no external
// metrics backend to push to.
package metrics

import (
	"sync"
	"time"
)

// Counter names used across the relay pipeline.
const (
	MessagesRelayed   = "messages_relayed_total"
	MessagesSkipped   = "messages_skipped_total"
	EditsPropagated   = "edits_propagated_total"
	DeletesPropagated = "deletes_propagated_total"
	DeliveriesFailed  = "deliveries_failed_total"
	HTTPRequests      = "http_requests_total"
)

// Gauge names.
const (
	BridgesConfigured = "bridges_configured"
	TrackedMessages   = "tracked_messages"
)

type Registry struct {
	mu        sync.RWMutex
	counters  map[string]int64
	gauges    map[string]float64
	startTime time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		counters:  make(map[string]int64),
		gauges:    make(map[string]float64),
		startTime: time.Now(),
	}
}

func (r *Registry) Increment(name string) {
	r.Add(name, 1)
}

func (r *Registry) Add(name string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += delta
}

func (r *Registry) SetGauge(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[name] = value
}

// Counter returns the current value of a counter, zero if never written.
func (r *Registry) Counter(name string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// Snapshot is the JSON shape served by the /metrics endpoint.
type Snapshot struct {
	Counters  map[string]int64   `json:"counters"`
	Gauges    map[string]float64 `json:"gauges"`
	UptimeMS  int64              `json:"uptime_ms"`
	Timestamp int64              `json:"timestamp"`
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Counters:  make(map[string]int64, len(r.counters)),
		Gauges:    make(map[string]float64, len(r.gauges)),
		UptimeMS:  time.Since(r.startTime).Milliseconds(),
		Timestamp: time.Now().Unix(),
	}
	for k, v := range r.counters {
		snap.Counters[k] = v
	}
	for k, v := range r.gauges {
		snap.Gauges[k] = v
	}
	return snap
}

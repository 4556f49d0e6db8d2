// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bacnet

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a thread-safe counter
type Counter struct {
	value atomic.Int64
}

// Add adds a delta to the counter
func (c *Counter) Add(delta int64) {
	c.value.Add(delta)
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	c.Add(1)
}

// Value returns the current counter value
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Gauge is a thread-safe gauge that can go up and down
type Gauge struct {
	value atomic.Int64
}

// Set sets the gauge value
func (g *Gauge) Set(value int64) {
	g.value.Store(value)
}

// Inc increments the gauge by 1
func (g *Gauge) Inc() {
	g.value.Add(1)
}

// Dec decrements the gauge by 1
func (g *Gauge) Dec() {
	g.value.Add(-1)
}

// Value returns the current gauge value
func (g *Gauge) Value() int64 {
	return g.value.Load()
}

// bucket upper bounds in milliseconds; the last bucket is open
var latencyBounds = []int64{1, 5, 10, 25, 50, 100, 250, 500, 1000}

// LatencyHistogram tracks latency measurements
type LatencyHistogram struct {
	mu      sync.Mutex
	count   int64
	sum     time.Duration
	min     time.Duration
	max     time.Duration
	buckets []int64
}

// NewLatencyHistogram creates a new latency histogram
func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{
		min:     -1,
		buckets: make([]int64, len(latencyBounds)+1),
	}
}

// Record records a latency measurement
func (h *LatencyHistogram) Record(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += d
	if h.min < 0 || d < h.min {
		h.min = d
	}
	if d > h.max {
		h.max = d
	}

	ms := d.Milliseconds()
	for i, bound := range latencyBounds {
		if ms < bound {
			h.buckets[i]++
			return
		}
	}
	h.buckets[len(latencyBounds)]++
}

// Stats returns histogram statistics
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := LatencyStats{
		Count:   h.count,
		Buckets: append([]int64(nil), h.buckets...),
	}
	if h.count > 0 {
		stats.Min = h.min
		stats.Max = h.max
		stats.Avg = h.sum / time.Duration(h.count)
	}
	return stats
}

// LatencyStats contains latency statistics
type LatencyStats struct {
	Count   int64         `json:"count"`
	Min     time.Duration `json:"min_ns"`
	Max     time.Duration `json:"max_ns"`
	Avg     time.Duration `json:"avg_ns"`
	Buckets []int64       `json:"buckets"`
}

// Metrics holds client metrics
type Metrics struct {
	RequestsSent      Counter
	RequestsSucceeded Counter
	RequestsFailed    Counter
	RequestsTimedOut  Counter

	ResponsesReceived Counter
	ErrorsReceived    Counter
	RejectsReceived   Counter
	AbortsReceived    Counter
	// replies for an invoke ID nobody waits for anymore
	LateResponses Counter

	RequestLatency *LatencyHistogram

	BytesSent     Counter
	BytesReceived Counter

	ActiveRequests Gauge

	startTime    time.Time
	lastActivity atomic.Int64
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		RequestLatency: NewLatencyHistogram(),
		startTime:      time.Now(),
	}
}

// RecordActivity records the last activity time
func (m *Metrics) RecordActivity() {
	m.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the last activity time
func (m *Metrics) LastActivity() time.Time {
	ns := m.lastActivity.Load()
	if ns == 0 {
		return m.startTime
	}
	return time.Unix(0, ns)
}

// Uptime returns the time since metrics started
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Snapshot returns a snapshot of current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Uptime: m.Uptime(),

		RequestsSent:      m.RequestsSent.Value(),
		RequestsSucceeded: m.RequestsSucceeded.Value(),
		RequestsFailed:    m.RequestsFailed.Value(),
		RequestsTimedOut:  m.RequestsTimedOut.Value(),

		ResponsesReceived: m.ResponsesReceived.Value(),
		ErrorsReceived:    m.ErrorsReceived.Value(),
		RejectsReceived:   m.RejectsReceived.Value(),
		AbortsReceived:    m.AbortsReceived.Value(),
		LateResponses:     m.LateResponses.Value(),

		LatencyStats: m.RequestLatency.Stats(),

		BytesSent:     m.BytesSent.Value(),
		BytesReceived: m.BytesReceived.Value(),

		ActiveRequests: m.ActiveRequests.Value(),

		LastActivity: m.LastActivity(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	Uptime time.Duration `json:"uptime_ns"`

	RequestsSent      int64 `json:"requests_sent"`
	RequestsSucceeded int64 `json:"requests_succeeded"`
	RequestsFailed    int64 `json:"requests_failed"`
	RequestsTimedOut  int64 `json:"requests_timed_out"`

	ResponsesReceived int64 `json:"responses_received"`
	ErrorsReceived    int64 `json:"errors_received"`
	RejectsReceived   int64 `json:"rejects_received"`
	AbortsReceived    int64 `json:"aborts_received"`
	LateResponses     int64 `json:"late_responses"`

	LatencyStats LatencyStats `json:"latency"`

	BytesSent     int64 `json:"bytes_sent"`
	BytesReceived int64 `json:"bytes_received"`

	ActiveRequests int64 `json:"active_requests"`

	LastActivity time.Time `json:"last_activity"`
}

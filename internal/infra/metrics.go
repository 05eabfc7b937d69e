package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	swapsCommitted atomic.Uint64
	swapsRejected  atomic.Uint64
	candlesEmitted atomic.Uint64
	scenarioSteps  atomic.Uint64
	errorsTotal    atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeClients atomic.Int32
}

// GlobalMetrics is the process-wide metrics instance wired by Bootstrap.
var GlobalMetrics = &Metrics{}

// RecordSwap records a committed swap with its latency.
func (m *Metrics) RecordSwap(latencyNs int64) {
	m.swapsCommitted.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordRejected records a swap that failed validation or execution.
func (m *Metrics) RecordRejected() {
	m.swapsRejected.Add(1)
}

// RecordCandle records a candle delivered to subscribers.
func (m *Metrics) RecordCandle() {
	m.candlesEmitted.Add(1)
}

// RecordScenarioStep records one executed scenario step.
func (m *Metrics) RecordScenarioStep() {
	m.scenarioSteps.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementClients increments connected websocket clients by 1.
func (m *Metrics) IncrementClients() {
	m.activeClients.Add(1)
}

// DecrementClients decrements connected websocket clients by 1.
func (m *Metrics) DecrementClients() {
	m.activeClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	SwapsCommitted uint64    `json:"swaps_committed"`
	SwapsRejected  uint64    `json:"swaps_rejected"`
	CandlesEmitted uint64    `json:"candles_emitted"`
	ScenarioSteps  uint64    `json:"scenario_steps"`
	ErrorsTotal    uint64    `json:"errors_total"`
	AvgSwapNs      int64     `json:"avg_swap_ns"`
	ActiveClients  int32     `json:"active_clients"`
	Timestamp      time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		SwapsCommitted: m.swapsCommitted.Load(),
		SwapsRejected:  m.swapsRejected.Load(),
		CandlesEmitted: m.candlesEmitted.Load(),
		ScenarioSteps:  m.scenarioSteps.Load(),
		ErrorsTotal:    m.errorsTotal.Load(),
		AvgSwapNs:      avgLatency,
		ActiveClients:  m.activeClients.Load(),
		Timestamp:      time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.swapsCommitted.Store(0)
	m.swapsRejected.Store(0)
	m.candlesEmitted.Store(0)
	m.scenarioSteps.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeClients.Store(0)
}

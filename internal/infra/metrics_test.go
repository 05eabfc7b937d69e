package infra

import (
	"testing"
)

func TestMetrics_RecordSwap(t *testing.T) {
	m := &Metrics{}

	m.RecordSwap(1000)
	m.RecordSwap(2000)
	m.RecordSwap(3000)

	snap := m.Snapshot()

	if snap.SwapsCommitted != 3 {
		t.Errorf("Expected 3 swaps, got %d", snap.SwapsCommitted)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgSwapNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgSwapNs)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := &Metrics{}

	m.RecordRejected()
	m.RecordCandle()
	m.RecordCandle()
	m.RecordScenarioStep()
	m.RecordError()

	snap := m.Snapshot()
	if snap.SwapsRejected != 1 || snap.CandlesEmitted != 2 || snap.ScenarioSteps != 1 || snap.ErrorsTotal != 1 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
}

func TestMetrics_Clients(t *testing.T) {
	m := &Metrics{}

	m.IncrementClients()
	m.IncrementClients()
	m.IncrementClients()

	snap := m.Snapshot()
	if snap.ActiveClients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.ActiveClients)
	}

	m.DecrementClients()
	snap = m.Snapshot()
	if snap.ActiveClients != 2 {
		t.Errorf("Expected 2 clients, got %d", snap.ActiveClients)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordSwap(1000)
	m.RecordError()
	m.IncrementClients()

	m.Reset()
	snap := m.Snapshot()

	if snap.SwapsCommitted != 0 {
		t.Error("Expected 0 swaps after reset")
	}
	if snap.ErrorsTotal != 0 {
		t.Error("Expected 0 errors after reset")
	}
	if snap.ActiveClients != 0 {
		t.Error("Expected 0 clients after reset")
	}
}

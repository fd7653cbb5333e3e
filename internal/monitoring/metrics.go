package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics
type Metrics struct {
	RequestCount    int64
	ErrorCount      int64
	EvaluationCount int64
	SimulationCount int64
	StartTime       time.Time

	evalDurations []time.Duration
	evalMutex     sync.Mutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:     time.Now(),
		evalDurations: make([]time.Duration, 0, 1024),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementSimulation increments the simulation count
func (m *Metrics) IncrementSimulation() {
	atomic.AddInt64(&m.SimulationCount, 1)
}

// RecordEvaluation records one matrix evaluation and its latency
func (m *Metrics) RecordEvaluation(d time.Duration) {
	atomic.AddInt64(&m.EvaluationCount, 1)

	m.evalMutex.Lock()
	defer m.evalMutex.Unlock()
	// keep a bounded window so long-running servers don't grow unbounded
	if len(m.evalDurations) >= 1024 {
		m.evalDurations = m.evalDurations[1:]
	}
	m.evalDurations = append(m.evalDurations, d)
}

// AverageEvaluationTime returns the mean latency over the recent window
func (m *Metrics) AverageEvaluationTime() time.Duration {
	m.evalMutex.Lock()
	defer m.evalMutex.Unlock()
	if len(m.evalDurations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range m.evalDurations {
		total += d
	}
	return total / time.Duration(len(m.evalDurations))
}

// GetStats returns a snapshot for the health endpoint
func (m *Metrics) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"request_count":     atomic.LoadInt64(&m.RequestCount),
		"error_count":       atomic.LoadInt64(&m.ErrorCount),
		"evaluation_count":  atomic.LoadInt64(&m.EvaluationCount),
		"simulation_count":  atomic.LoadInt64(&m.SimulationCount),
		"avg_evaluation_us": m.AverageEvaluationTime().Microseconds(),
		"uptime_seconds":    int64(time.Since(m.StartTime).Seconds()),
	}
}

package http

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// defaultWindow caps how many recent observations feed the quantiles
const defaultWindow = 1024

// PerfAggregator keeps a sliding window of suite durations and derives
// latency quantiles from it.
type PerfAggregator struct {
	mu        sync.Mutex
	durations []float64 // seconds, insertion order
	window    int
}

// NewPerfAggregator creates an aggregator with the default window
func NewPerfAggregator() *PerfAggregator {
	return &PerfAggregator{window: defaultWindow}
}

// Observe records one suite duration
func (a *PerfAggregator) Observe(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.durations = append(a.durations, d.Seconds())
	if len(a.durations) > a.window {
		a.durations = a.durations[len(a.durations)-a.window:]
	}
}

// LatencyStats summarizes the current window in milliseconds
type LatencyStats struct {
	Count  int     `json:"count"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// Stats computes mean and p50/p95/p99 over the window
func (a *PerfAggregator) Stats() LatencyStats {
	a.mu.Lock()
	sample := make([]float64, len(a.durations))
	copy(sample, a.durations)
	a.mu.Unlock()

	if len(sample) == 0 {
		return LatencyStats{}
	}

	// stat.Quantile requires sorted input.
	sort.Float64s(sample)

	toMs := func(seconds float64) float64 { return seconds * 1000 }
	return LatencyStats{
		Count:  len(sample),
		MeanMs: toMs(stat.Mean(sample, nil)),
		P50Ms:  toMs(stat.Quantile(0.50, stat.Empirical, sample, nil)),
		P95Ms:  toMs(stat.Quantile(0.95, stat.Empirical, sample, nil)),
		P99Ms:  toMs(stat.Quantile(0.99, stat.Empirical, sample, nil)),
	}
}

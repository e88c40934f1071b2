// Package monitor composes the per-execution resource monitors: an
// execution timer, a heap sampler and an outbound-network proxy.
//
// Enforcement is advisory by design. The execution substrate is
// cooperative: only the dedicated-worker strategy can be forcibly
// terminated, so the timer's deadline callback cancels the caller's
// wait, not necessarily the callee's execution. That caveat belongs to
// the contract and is restated wherever these monitors are consumed.
package monitor

import (
	"time"

	"github.com/codearena/backend/internal/shared/types"
)

// Monitor bundles the three sub-monitors for one execution
type Monitor struct {
	Timer   *ExecutionTimer
	Memory  *MemoryMonitor
	Network *NetworkMonitor

	limits types.ResourceLimits
}

// New composes monitors from the configured limits
func New(limits types.ResourceLimits) *Monitor {
	return &Monitor{
		Timer:   NewExecutionTimer(limits.MaxExecutionTime),
		Memory:  NewMemoryMonitor(limits.MaxMemoryMB),
		Network: NewNetworkMonitor(limits.MaxNetworkRequests, limits.MaxExecutionTime),
		limits:  limits,
	}
}

// Begin starts time and memory accounting. onDeadline fires once if the
// execution outlives its ceiling.
func (m *Monitor) Begin(onDeadline func()) {
	m.Memory.Start()
	m.Timer.Start(onDeadline)
}

// End stops accounting and returns the performance stats plus whether
// the deadline had fired.
func (m *Monitor) End() (types.PerformanceStats, bool) {
	elapsed, expired := m.Timer.Stop()
	stats := types.PerformanceStats{
		ExecutionTime: elapsed,
		MemoryBytes:   m.Memory.PeakDelta(),
		CPUPercent:    estimateCPU(elapsed, m.limits.MaxExecutionTime),
	}
	return stats, expired
}

// estimateCPU is advisory only: the host cannot measure per-VM CPU, so
// the reported figure is the share of the time budget consumed.
func estimateCPU(elapsed, budget time.Duration) float64 {
	if budget <= 0 {
		return 0
	}
	pct := float64(elapsed) / float64(budget) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

package monitor

import (
	"runtime"
	"sync"

	"github.com/codearena/backend/internal/sandbox/fault"
)

// MemoryMonitor samples the process heap before and after an execution
// and computes the delta. This is a best-effort, point-in-time check:
// the runtime exposes no preemptive per-VM memory limiting, so Check
// only catches overruns at the moments it is called.
type MemoryMonitor struct {
	mu         sync.Mutex
	baseline   uint64
	peak       uint64
	limitBytes uint64
}

// NewMemoryMonitor creates a monitor with the given ceiling in MB. A
// non-positive limit disables enforcement but keeps accounting.
func NewMemoryMonitor(limitMB int64) *MemoryMonitor {
	var limit uint64
	if limitMB > 0 {
		limit = uint64(limitMB) * 1024 * 1024
	}
	return &MemoryMonitor{limitBytes: limit}
}

// Start records the baseline heap usage
func (m *MemoryMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline = heapAlloc()
	m.peak = m.baseline
}

// Check samples current usage and raises a memory-limit fault if the
// delta exceeds the ceiling at this instant.
func (m *MemoryMonitor) Check() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := heapAlloc()
	if current > m.peak {
		m.peak = current
	}
	if m.limitBytes > 0 && current > m.baseline && current-m.baseline > m.limitBytes {
		return fault.New(fault.MemoryLimit, "heap delta %d bytes exceeds limit %d", current-m.baseline, m.limitBytes)
	}
	return nil
}

// PeakDelta returns the peak heap growth observed since Start
func (m *MemoryMonitor) PeakDelta() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := heapAlloc()
	if current > m.peak {
		m.peak = current
	}
	if m.peak <= m.baseline {
		return 0
	}
	return m.peak - m.baseline
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

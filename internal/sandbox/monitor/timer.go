package monitor

import (
	"sync"
	"time"
)

// ExecutionTimer tracks elapsed time for one execution and schedules a
// deadline callback. The callback is the sole cancellation mechanism:
// code that does not finish before the deadline is treated as timed out
// whether or not the underlying execution could actually be stopped.
type ExecutionTimer struct {
	mu      sync.Mutex
	start   time.Time
	limit   time.Duration
	timer   *time.Timer
	expired bool
}

// NewExecutionTimer creates a timer with the given ceiling
func NewExecutionTimer(limit time.Duration) *ExecutionTimer {
	return &ExecutionTimer{limit: limit}
}

// Start records the start time and schedules the deadline. onExpire runs
// on the timer goroutine when the ceiling passes without a Stop.
func (t *ExecutionTimer) Start(onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.start = time.Now()
	t.expired = false
	if t.limit <= 0 {
		return
	}
	t.timer = time.AfterFunc(t.limit, func() {
		t.mu.Lock()
		t.expired = true
		t.mu.Unlock()
		if onExpire != nil {
			onExpire()
		}
	})
}

// Stop cancels the pending deadline and returns elapsed time plus
// whether the deadline had already fired.
func (t *ExecutionTimer) Stop() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return time.Since(t.start), t.expired
}

// Elapsed returns time since Start without stopping the timer
func (t *ExecutionTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.start)
}

package sandbox

import (
	"context"

	"github.com/codearena/backend/internal/sandbox/fault"
	"github.com/codearena/backend/internal/sandbox/monitor"
	"github.com/codearena/backend/internal/shared/types"
)

// runWorker executes under the dedicated-worker strategy: evaluation
// happens on its own goroutine and communicates only through a result
// channel. This is the one strategy with forced cancellation: at the
// deadline the VM is interrupted and the caller returns immediately,
// so a non-yielding CPU-bound loop is bounded here and only here.
func (e *Executor) runWorker(ctx context.Context, req Request, mon *monitor.Monitor) (*types.ExecutionResult, error) {
	rt, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	rt.bindNodeShims()
	rt.bindNetwork(ctx, mon.Network)

	type outcome struct {
		output interface{}
		err    error
	}
	done := make(chan outcome, 1)
	expired := make(chan struct{})

	mon.Begin(func() {
		rt.interrupt("execution timeout exceeded")
		close(expired)
	})

	go func() {
		output, evalErr := e.evaluate(rt, req, mon)
		done <- outcome{output, evalErr}
	}()

	select {
	case out := <-done:
		result := finish(rt, mon, out.output, out.err)
		e.pool.Release(rt)
		return result, nil

	case <-expired:
		// The worker is terminated: its runtime is abandoned and a
		// fresh one replaces it in the pool. The interrupt stops the VM
		// at its next instruction boundary, which for CPU-bound loops
		// is effectively immediate.
		stats, _ := mon.End()
		e.pool.Discard()
		return &types.ExecutionResult{
			Err:         fault.New(fault.Timeout, "worker terminated after %v", req.Limits.MaxExecutionTime),
			Performance: stats,
		}, nil

	case <-ctx.Done():
		rt.interrupt("context cancelled")
		e.pool.Discard()
		return nil, ctx.Err()
	}
}

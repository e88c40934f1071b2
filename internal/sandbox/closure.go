package sandbox

import (
	"context"

	"github.com/codearena/backend/internal/sandbox/monitor"
	"github.com/codearena/backend/internal/shared/types"
)

// runClosure executes under the restricted-closure strategy: the code
// sees only the enumerated safe globals (console proxy, capped timers,
// process/Buffer shims, proxied fetch) and can reach nothing else.
//
// Timeout here is cooperative. The deadline interrupt lands at the
// VM's next instruction boundary; code blocked inside a native call
// runs to completion first. Only the dedicated-worker strategy offers
// forced termination.
func (e *Executor) runClosure(ctx context.Context, req Request, mon *monitor.Monitor) (*types.ExecutionResult, error) {
	rt, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(rt)

	rt.bindNodeShims()
	rt.bindNetwork(ctx, mon.Network)

	mon.Begin(func() { rt.interrupt("execution timeout exceeded") })
	output, evalErr := e.evaluate(rt, req, mon)
	return finish(rt, mon, output, evalErr), nil
}

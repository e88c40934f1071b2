package sandbox

import (
	"context"
	"errors"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/codearena/backend/internal/infrastructure/logging"
	"github.com/codearena/backend/internal/sandbox/fault"
	"github.com/codearena/backend/internal/sandbox/monitor"
	"github.com/codearena/backend/internal/shared/types"
)

// Executor runs untrusted submissions under one of three isolation
// strategies. All strategies produce the same result shape; faults never
// escape as panics or raw engine errors.
type Executor struct {
	cfg     Config
	pool    *Pool
	logger  *logging.Logger
	metrics Metrics
}

// New creates an executor. Metrics may be nil.
func New(cfg Config, logger *logging.Logger, metrics Metrics) *Executor {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultConfig().PoolSize
	}
	if !cfg.DefaultStrategy.Valid() {
		cfg.DefaultStrategy = DefaultConfig().DefaultStrategy
	}
	return &Executor{
		cfg:     cfg,
		pool:    NewPool(cfg.PoolSize),
		logger:  logger,
		metrics: metrics,
	}
}

// Close releases pooled runtimes
func (e *Executor) Close() {
	e.pool.Close()
}

// PoolStats reports runtime pool occupancy
func (e *Executor) PoolStats() (size, available int) {
	return e.pool.Stats()
}

// Execute runs one submission against one input. A returned result with
// Success=false carries the fault in Err; the error return is reserved
// for infrastructure failures (pool exhaustion, cancelled context).
func (e *Executor) Execute(ctx context.Context, req Request) (*types.ExecutionResult, error) {
	if req.Strategy == "" {
		req.Strategy = e.cfg.DefaultStrategy
	}
	if !req.Strategy.Valid() {
		return nil, fault.New(fault.RuntimeError, "unknown isolation strategy %q", req.Strategy)
	}
	req.Limits = mergeLimits(req.Limits, e.cfg.DefaultLimits)

	mon := monitor.New(req.Limits)

	var result *types.ExecutionResult
	var err error
	switch req.Strategy {
	case types.StrategyDedicatedWorker:
		result, err = e.runWorker(ctx, req, mon)
	case types.StrategyEmbeddedDocument:
		result, err = e.runDocument(ctx, req, mon)
	default:
		result, err = e.runClosure(ctx, req, mon)
	}
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordExecution(string(req.Strategy), result.Success, result.Performance.ExecutionTime)
	}
	if !result.Success {
		e.logger.Debug("execution fault",
			zap.String("strategy", string(req.Strategy)),
			zap.String("kind", string(fault.KindOf(result.Err))),
		)
	}
	return result, nil
}

// evaluate runs code and invokes its entry point on an already
// configured runtime. Shared by all strategies.
func (e *Executor) evaluate(rt *Runtime, req Request, mon *monitor.Monitor) (interface{}, error) {
	rt.hostFault = nil
	rt.hostFaultMsg = ""

	if _, err := rt.vm.RunString(req.Code); err != nil {
		return nil, asFault(rt, err)
	}

	invoke, err := resolveEntry(rt.vm)
	if err != nil {
		return nil, err
	}

	val, err := invoke(rt.vm.ToValue(req.Input))
	if err != nil {
		return nil, asFault(rt, err)
	}

	if err := mon.Memory.Check(); err != nil {
		return nil, err
	}
	return export(val), nil
}

// finish assembles the uniform result shape from an evaluation outcome
func finish(rt *Runtime, mon *monitor.Monitor, output interface{}, evalErr error) *types.ExecutionResult {
	stats, expired := mon.End()

	result := &types.ExecutionResult{
		Performance: stats,
		Console:     rt.drainConsole(),
	}

	switch {
	case expired:
		result.Err = fault.New(fault.Timeout, "execution exceeded %v", mon.Timer.Elapsed().Truncate(0))
	case evalErr != nil:
		result.Err = evalErr
	default:
		result.Success = true
		result.Output = output
	}
	return result
}

// asFault maps engine errors to the fault taxonomy. A typed fault
// raised by a host binding wins over the engine's view of the unwind,
// but only when the unwinding value is the one the binding threw.
// Sandboxed code can catch a fetch throw and fail later for an
// unrelated reason; the stale record must not relabel that failure.
func asFault(rt *Runtime, err error) error {
	if rt.hostFault != nil {
		hf := rt.hostFault
		msg := rt.hostFaultMsg
		rt.hostFault = nil
		rt.hostFaultMsg = ""

		var thrown *goja.Exception
		if errors.As(err, &thrown) && thrown.Value() != nil && thrown.Value().String() == msg {
			return hf
		}
	}

	var f *fault.Fault
	if errors.As(err, &f) {
		return err
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fault.New(fault.Timeout, "interrupted: %v", interrupted.Value())
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		return fault.New(fault.RuntimeError, "%s", exception.Error())
	}
	return fault.New(fault.RuntimeError, "%v", err)
}

// mergeLimits fills zero fields from defaults
func mergeLimits(limits, defaults types.ResourceLimits) types.ResourceLimits {
	if limits.MaxExecutionTime <= 0 {
		limits.MaxExecutionTime = defaults.MaxExecutionTime
	}
	if limits.MaxMemoryMB <= 0 {
		limits.MaxMemoryMB = defaults.MaxMemoryMB
	}
	if limits.MaxCPUPercent <= 0 {
		limits.MaxCPUPercent = defaults.MaxCPUPercent
	}
	if limits.MaxNetworkRequests <= 0 {
		limits.MaxNetworkRequests = defaults.MaxNetworkRequests
	}
	if limits.MaxFileOps <= 0 {
		limits.MaxFileOps = defaults.MaxFileOps
	}
	return limits
}

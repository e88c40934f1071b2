package runner

import (
	"context"

	"github.com/codearena/backend/internal/sandbox"
	"github.com/codearena/backend/internal/shared/types"
)

// SandboxEnvironment adapts the sandbox executor to the Environment
// interface, picking an isolation strategy per test case type.
type SandboxEnvironment struct {
	executor *sandbox.Executor
	limits   types.ResourceLimits
	fallback types.IsolationStrategy
}

// NewSandboxEnvironment wraps an executor. limits and fallback supply
// defaults for cases that carry no overrides of their own.
func NewSandboxEnvironment(executor *sandbox.Executor, limits types.ResourceLimits, fallback types.IsolationStrategy) *SandboxEnvironment {
	if !fallback.Valid() {
		fallback = types.StrategyRestrictedClosure
	}
	return &SandboxEnvironment{
		executor: executor,
		limits:   limits,
		fallback: fallback,
	}
}

// RunSingleTest executes one submission against one test case
func (e *SandboxEnvironment) RunSingleTest(ctx context.Context, code string, tc *types.TestCase) (*types.ExecutionResult, error) {
	limits := e.limits
	if t := tc.Timeout(); t > 0 {
		limits.MaxExecutionTime = t
	}
	return e.executor.Execute(ctx, sandbox.Request{
		Code:     code,
		Input:    tc.Input,
		Limits:   limits,
		Strategy: e.strategyFor(tc),
	})
}

// strategyFor maps a test case type to the isolation strategy that
// fits it. Visual cases need a document, performance cases need the
// only strategy with forced termination, everything else takes the
// configured fallback.
func (e *SandboxEnvironment) strategyFor(tc *types.TestCase) types.IsolationStrategy {
	switch tc.Type {
	case types.TestVisual:
		return types.StrategyEmbeddedDocument
	case types.TestPerformance:
		return types.StrategyDedicatedWorker
	default:
		return e.fallback
	}
}

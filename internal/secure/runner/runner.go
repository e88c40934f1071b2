// Package runner orchestrates secure test execution: it pulls decrypted
// test cases from the store, drives the executor once per case, pipes
// every outcome through the sanitizer and returns the sanitized list.
// Faults are caught and converted, never propagated raw.
package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/codearena/backend/internal/infrastructure/logging"
	"github.com/codearena/backend/internal/sandbox/fault"
	"github.com/codearena/backend/internal/secure/sanitize"
	"github.com/codearena/backend/internal/secure/store"
	"github.com/codearena/backend/internal/shared/id"
	"github.com/codearena/backend/internal/shared/types"
	"github.com/codearena/backend/internal/shared/utils"
	"github.com/codearena/backend/internal/validate"
)

// Environment executes one submission against one test case. The
// production implementation wraps the sandbox executor; tests may
// substitute their own.
type Environment interface {
	RunSingleTest(ctx context.Context, code string, tc *types.TestCase) (*types.ExecutionResult, error)
}

// Runner is the secure test orchestrator. Construct it explicitly and
// inject it; there is no package-level instance.
type Runner struct {
	store     *store.Store
	sanitizer *sanitize.Sanitizer
	validator *validate.Validator
	logger    *logging.Logger
}

// New creates a runner
func New(s *store.Store, sanitizer *sanitize.Sanitizer, validator *validate.Validator, logger *logging.Logger) *Runner {
	return &Runner{
		store:     s,
		sanitizer: sanitizer,
		validator: validator,
		logger:    logger,
	}
}

// InitializeTestsForChallenge stores every test case encrypted. The
// first storage failure aborts initialization.
func (r *Runner) InitializeTestsForChallenge(challengeID string, cases []*types.TestCase) error {
	for _, tc := range cases {
		if err := r.store.StoreTestCase(challengeID, tc); err != nil {
			return fmt.Errorf("initialize challenge %s: %w", challengeID, err)
		}
	}
	r.logger.Info("test cases initialized",
		zap.String("challenge_id", challengeID),
		zap.Int("count", len(cases)),
	)
	return nil
}

// RunSecureTests runs the full suite for a challenge and returns one
// sanitized result per test case.
func (r *Runner) RunSecureTests(ctx context.Context, challengeID, userCode string, env Environment) ([]types.TestResult, error) {
	return r.run(ctx, challengeID, userCode, env, nil)
}

// StreamSecureTests is RunSecureTests with per-case delivery: emit is
// called with each sanitized result as it completes. Only sanitized
// results ever reach emit.
func (r *Runner) StreamSecureTests(ctx context.Context, challengeID, userCode string, env Environment, emit func(types.TestResult)) ([]types.TestResult, error) {
	return r.run(ctx, challengeID, userCode, env, emit)
}

func (r *Runner) run(ctx context.Context, challengeID, userCode string, env Environment, emit func(types.TestResult)) ([]types.TestResult, error) {
	runID := id.NewRunID()
	log := r.logger.WithChallenge(challengeID).WithRun(runID.String())

	// The submission itself never goes into logs; its hash is enough to
	// correlate repeated runs of the same code.
	log = log.WithCodeHash(utils.ShortHash(utils.DefaultHasher().HashString(userCode)))

	cases := r.store.TestCasesForChallenge(challengeID)
	if len(cases) == 0 {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, store.ErrNotFound)
	}

	results := make([]types.TestResult, 0, len(cases))
	deliver := func(res types.TestResult) {
		results = append(results, res)
		if emit != nil {
			emit(res)
		}
	}

	// Cases run strictly sequentially, in retrieval order. A failure
	// does not stop the suite unless the failing case is marked
	// high-criticality: that short-circuit is intentional, and the
	// remaining cases are reported as skipped failures.
	for i, tc := range cases {
		res := r.runOne(ctx, userCode, tc, env)
		deliver(res)

		if !res.Passed && tc.Metadata.Criticality == types.CriticalityHigh {
			log.Info("halting suite on high-criticality failure",
				zap.String("test_case_id", tc.ID),
			)
			for _, skipped := range cases[i+1:] {
				deliver(types.TestResult{
					TestCaseID: skipped.ID,
					Passed:     false,
					Feedback:   "Skipped because a critical test failed. Fix that test first.",
				})
			}
			break
		}
	}

	log.Info("suite finished",
		zap.Int("total", len(results)),
		zap.Int("passed", countPassed(results)),
	)
	return results, nil
}

// runOne executes and sanitizes a single case. Every failure path ends
// in a sanitized result; nothing raw escapes.
func (r *Runner) runOne(ctx context.Context, userCode string, tc *types.TestCase, env Environment) types.TestResult {
	raw, err := env.RunSingleTest(ctx, userCode, tc)
	if err != nil {
		// Infrastructure failure: surfaced as a generic failing result
		// and logged, never silently swallowed.
		r.logger.Error("execution environment failure",
			zap.String("test_case_id", tc.ID),
			zap.Error(err),
		)
		raw = &types.ExecutionResult{Err: fault.New(fault.RuntimeError, "environment failure")}
	}

	if raw.Err != nil || !raw.Success {
		return r.sanitizer.Sanitize(raw, tc, false, nil)
	}

	outcome := r.validator.Evaluate(tc, raw.Output, raw.Performance)
	return r.sanitizer.Sanitize(raw, tc, outcome.Passed, outcome.FailedRule)
}

// TestCaseInfo returns the UI-safe projection for display before any
// code runs. Never contains inputs, expected outputs or rules.
func (r *Runner) TestCaseInfo(challengeID string) []types.TestCaseInfo {
	return r.store.InfoForChallenge(challengeID)
}

// SecurityAudit passes through to the store's access log
func (r *Runner) SecurityAudit(challengeID string, limit int) []types.AccessLogEntry {
	return r.store.AccessLogs(challengeID, limit)
}

// SecurityMetrics passes through to the store's health snapshot
func (r *Runner) SecurityMetrics() types.SecurityMetrics {
	return r.store.SecurityMetrics()
}

// ValidateSystemIntegrity passes through to the store's self-test
func (r *Runner) ValidateSystemIntegrity() bool {
	return r.store.ValidateIntegrity()
}

func countPassed(results []types.TestResult) int {
	n := 0
	for _, res := range results {
		if res.Passed {
			n++
		}
	}
	return n
}

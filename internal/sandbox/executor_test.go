package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/codearena/backend/internal/infrastructure/logging"
	"github.com/codearena/backend/internal/sandbox/fault"
	"github.com/codearena/backend/internal/shared/types"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	e := New(DefaultConfig(), logging.NewNop(), nil)
	t.Cleanup(e.Close)
	return e
}

func TestClosureExecution(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		code  string
		input interface{}
		want  interface{}
	}{
		{
			name:  "simple solution",
			code:  "function solution(input) { return input.a + input.b; }",
			input: map[string]interface{}{"a": 1, "b": 2},
			want:  int64(3),
		},
		{
			name:  "string transform",
			code:  "function solve(s) { return s.toUpperCase(); }",
			input: "hello",
			want:  "HELLO",
		},
		{
			name:  "runTest wins over solution",
			code:  "function solution() { return 'wrong'; } function runTest() { return 'right'; }",
			input: nil,
			want:  "right",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Execute(ctx, Request{
				Code:     tt.code,
				Input:    tt.input,
				Strategy: types.StrategyRestrictedClosure,
			})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !result.Success {
				t.Fatalf("expected success, got fault: %v", result.Err)
			}
			if result.Output != tt.want {
				t.Errorf("Output = %v (%T), want %v (%T)", result.Output, result.Output, tt.want, tt.want)
			}
		})
	}
}

func TestEntryPointPriorityOrder(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	// Later names in the probe order must lose to earlier ones
	code := `
		function algorithm() { return "algorithm"; }
		function solve() { return "solve"; }
	`
	result, err := e.Execute(ctx, Request{Code: code})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Output != "solve" {
		t.Errorf("expected solve to win, got %v", result.Output)
	}
}

func TestAnalyticsClassEntryPoint(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	code := `
		function Analytics() { this.events = []; }
		Analytics.prototype.loadData = function(data) { this.events = data; };
		Analytics.prototype.getDailyActiveUsers = function() { return this.events.length; };
	`
	result, err := e.Execute(ctx, Request{
		Code:  code,
		Input: []interface{}{"u1", "u2", "u3"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got fault: %v", result.Err)
	}
	if result.Output != int64(3) {
		t.Errorf("Output = %v, want 3", result.Output)
	}
}

func TestNoEntryPoint(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	result, err := e.Execute(ctx, Request{Code: "var x = 42;"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected no-entry-point fault")
	}
	if !fault.Is(result.Err, fault.NoEntryPoint) {
		t.Errorf("expected no-entry-point, got %v", result.Err)
	}
}

func TestDangerousGlobalsExcluded(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	dangerous := []struct {
		name string
		code string
	}{
		{"require", "function solution() { return require('fs'); }"},
		{"eval", "function solution() { return eval('1+1'); }"},
		{"module", "function solution() { return module.exports; }"},
	}

	for _, tt := range dangerous {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Execute(ctx, Request{Code: tt.code})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if result.Success {
				t.Errorf("dangerous binding %s was reachable: %v", tt.name, result.Output)
			}
			if !fault.Is(result.Err, fault.RuntimeError) {
				t.Errorf("expected runtime-error, got %v", result.Err)
			}
		})
	}
}

func TestRuntimeErrorFault(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	result, err := e.Execute(ctx, Request{
		Code: "function solution() { return undefinedVariable.field; }",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected runtime-error fault")
	}
	if !fault.Is(result.Err, fault.RuntimeError) {
		t.Errorf("expected runtime-error, got %v", result.Err)
	}
}

func TestConsoleCapture(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	code := `
		console.log('first');
		console.warn('second');
		function solution() { console.error('third'); return 1; }
	`
	result, err := e.Execute(ctx, Request{Code: code})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Console) != 3 {
		t.Fatalf("expected 3 console entries, got %d", len(result.Console))
	}

	levels := []string{"log", "warn", "error"}
	for i, entry := range result.Console {
		if entry.Level != levels[i] {
			t.Errorf("entry %d: level = %s, want %s", i, entry.Level, levels[i])
		}
	}
}

func TestWorkerTimeoutTerminates(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	start := time.Now()
	result, err := e.Execute(ctx, Request{
		Code:     "function solution() { while (true) {} }",
		Strategy: types.StrategyDedicatedWorker,
		Limits:   types.ResourceLimits{MaxExecutionTime: 100 * time.Millisecond},
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected timeout fault")
	}
	if !fault.Is(result.Err, fault.Timeout) {
		t.Errorf("expected timeout, got %v", result.Err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("worker not terminated promptly: waited %v", elapsed)
	}
}

func TestClosureCooperativeTimeout(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	result, err := e.Execute(ctx, Request{
		Code:     "function solution() { while (true) {} }",
		Strategy: types.StrategyRestrictedClosure,
		Limits:   types.ResourceLimits{MaxExecutionTime: 100 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !fault.Is(result.Err, fault.Timeout) {
		t.Errorf("expected timeout, got %v", result.Err)
	}
}

func TestBlockedFetch(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	result, err := e.Execute(ctx, Request{
		Code: `function solution() { return fetch("javascript:alert(1)"); }`,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected blocked-request fault")
	}
	if !fault.Is(result.Err, fault.BlockedRequest) {
		t.Errorf("expected blocked-request, got %v", result.Err)
	}
}

func TestCaughtFetchDoesNotRelabelLaterFault(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	// The blocked fetch throws, the submission swallows it, then fails
	// for an unrelated reason. The reported fault must be the failure
	// that actually unwound, not the swallowed one.
	result, err := e.Execute(ctx, Request{
		Code: `function solution() {
			try { fetch("javascript:alert(1)"); } catch (e) {}
			return missingVariable.field;
		}`,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected a fault")
	}
	if !fault.Is(result.Err, fault.RuntimeError) {
		t.Errorf("expected runtime-error, got %v", result.Err)
	}
}

func TestCaughtFetchAllowsRecovery(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	result, err := e.Execute(ctx, Request{
		Code: `function solution() {
			try { fetch("javascript:alert(1)"); } catch (e) { return "recovered"; }
		}`,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %v", result.Err)
	}
	if result.Output != "recovered" {
		t.Errorf("Output = %v, want recovered", result.Output)
	}
}

func TestUnknownStrategyRejected(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, Request{
		Code:     "function solution() { return 1; }",
		Strategy: types.IsolationStrategy("bare-metal"),
	})
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestPoolReuseAcrossExecutions(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	// State from one submission must not leak into the next
	first, err := e.Execute(ctx, Request{Code: "var leaked = 'secret'; function solution() { return 1; }"})
	if err != nil || !first.Success {
		t.Fatalf("first execution failed: %v %v", err, first)
	}

	second, err := e.Execute(ctx, Request{Code: "function solution() { return typeof leaked; }"})
	if err != nil {
		t.Fatalf("second execution failed: %v", err)
	}
	if second.Output != "undefined" {
		t.Errorf("state leaked across executions: %v", second.Output)
	}
}

package types

import "time"

// PerformanceStats carries resource accounting attached to every
// execution. These values are non-secret and cross to the UI unchanged.
type PerformanceStats struct {
	ExecutionTime time.Duration `json:"execution_time_ms"`
	MemoryBytes   uint64        `json:"memory_bytes"`
	CPUPercent    float64       `json:"cpu_percent"`
}

// ConsoleEntry is one captured console call from sandboxed code
type ConsoleEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ExecutionResult is the raw outcome of one sandboxed execution. It may
// contain engine error text and echoed secrets; it must pass through the
// sanitizer before anything derived from it reaches a user.
type ExecutionResult struct {
	Success     bool
	Output      interface{}
	Err         error
	Performance PerformanceStats
	Console     []ConsoleEntry
}

// TestResult is the sanitized, user-safe outcome of one test case. This
// is the only execution entity that crosses back to the UI.
type TestResult struct {
	TestCaseID   string           `json:"test_case_id"`
	Passed       bool             `json:"passed"`
	ActualOutput interface{}      `json:"actual_output,omitempty"`
	Error        string           `json:"error,omitempty"`
	Performance  PerformanceStats `json:"performance"`
	Feedback     string           `json:"feedback"`
}

// RunSummary aggregates a full suite run
type RunSummary struct {
	ChallengeID string       `json:"challenge_id"`
	Results     []TestResult `json:"results"`
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
}

// Summarize builds a RunSummary from per-case results
func Summarize(challengeID string, results []TestResult) RunSummary {
	s := RunSummary{ChallengeID: challengeID, Results: results}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

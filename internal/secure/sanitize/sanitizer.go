// Package sanitize converts raw execution outcomes into user-safe test
// results. Raw error text, expected values and validation criteria stop
// here: the user sees generic categories and templated feedback only,
// so repeated submissions cannot probe the hidden test data.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/codearena/backend/internal/sandbox/fault"
	"github.com/codearena/backend/internal/shared/types"
)

// RedactionMarker replaces values whose key matches a sensitive term
const RedactionMarker = "[REDACTED]"

// revealTypes is the allowlist of test-case types whose actual output
// may be shown to the user. All other types suppress output even on
// failure.
var revealTypes = map[types.TestCaseType]bool{
	types.TestVisual:      true,
	types.TestPerformance: true,
}

var sensitiveTerms = []string{"password", "token", "secret", "key"}

// genericFailure is the fallback when no error category matches
const genericFailure = "Execution failed. Review your implementation and try again."

// Sanitizer builds TestResults that carry no test-case internals
type Sanitizer struct {
	html *bluemonday.Policy
}

// New creates a sanitizer
func New() *Sanitizer {
	return &Sanitizer{html: bluemonday.UGCPolicy()}
}

// Sanitize converts one raw result into the user-safe shape. failedRule
// may be nil; only its kind is ever consulted.
func (s *Sanitizer) Sanitize(raw *types.ExecutionResult, tc *types.TestCase, passed bool, failedRule *types.ValidationRule) types.TestResult {
	result := types.TestResult{
		TestCaseID:  tc.ID,
		Passed:      passed,
		Performance: raw.Performance,
		Feedback:    s.feedback(tc, passed, failedRule),
	}

	if !passed && raw.Err != nil {
		result.Error = categorizeError(raw.Err)
	}

	if revealTypes[tc.Type] {
		result.ActualOutput = s.redact(raw.Output, tc.Type)
	}
	return result
}

// categorizeError maps raw error text to a small fixed set of generic
// messages. The raw string never passes through.
func categorizeError(err error) string {
	switch fault.KindOf(err) {
	case fault.Timeout:
		return "Execution timed out. Check for infinite loops or reduce complexity."
	case fault.MemoryLimit:
		return "Memory limit exceeded. Reduce allocations or data held in memory."
	case fault.NoEntryPoint:
		return "No entry point found. Define a function named runTest, solution, solve or algorithm."
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "syntaxerror"), strings.Contains(msg, "unexpected token"):
		return "Syntax error. Check your code for typos and matching brackets."
	case strings.Contains(msg, "typeerror"):
		return "Type error. Check that values are of the expected type before using them."
	case strings.Contains(msg, "referenceerror"), strings.Contains(msg, "is not defined"):
		return "Reference error. A variable or function is used before it is defined."
	case strings.Contains(msg, "rangeerror"), strings.Contains(msg, "stack"):
		return "Range error. Check recursion depth and array bounds."
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "interrupted"):
		return "Execution timed out. Check for infinite loops or reduce complexity."
	case strings.Contains(msg, "memory"):
		return "Memory limit exceeded. Reduce allocations or data held in memory."
	default:
		return genericFailure
	}
}

// redact recursively replaces values under sensitive keys and scrubs
// HTML in visual output strings.
func (s *Sanitizer) redact(v interface{}, tcType types.TestCaseType) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if isSensitiveKey(k) {
				out[k] = RedactionMarker
				continue
			}
			out[k] = s.redact(item, tcType)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = s.redact(item, tcType)
		}
		return out
	case string:
		if isSensitiveToken(val) {
			return RedactionMarker
		}
		if tcType == types.TestVisual {
			return s.html.Sanitize(val)
		}
		return val
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// isSensitiveToken catches strings of the form "term=value" or
// "term: value" that embed a credential in free text.
func isSensitiveToken(s string) bool {
	lower := strings.ToLower(s)
	for _, term := range sensitiveTerms {
		if strings.HasPrefix(lower, term+"=") || strings.HasPrefix(lower, term+":") {
			return true
		}
	}
	return false
}

// feedback renders the template keyed by test-case type and the kind of
// the first failed rule. Thresholds and patterns never appear.
func (s *Sanitizer) feedback(tc *types.TestCase, passed bool, failedRule *types.ValidationRule) string {
	if passed {
		return "All checks passed for this test case."
	}

	if failedRule != nil {
		switch failedRule.Kind {
		case types.RuleExactMatch:
			return "Ensure your output format matches the expected format exactly."
		case types.RuleContains:
			return "Make sure all required values are present in your output."
		case types.RulePattern:
			return "Check the format of your output against the challenge description."
		case types.RulePerformance:
			return "Optimize your algorithm to meet the performance target."
		}
	}

	switch tc.Type {
	case types.TestVisual:
		return "Compare your rendered output with the challenge description."
	case types.TestPerformance:
		return "Optimize your algorithm to meet the performance target."
	case types.TestIntegration:
		return "Verify your components interact correctly end to end."
	default:
		return "Review your implementation against the challenge description."
	}
}

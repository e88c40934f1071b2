// Package validate evaluates a submission's output against a test
// case's ordered validation rules. A failed rule is the normal "test
// failed" outcome, represented as a value; nothing here raises errors
// for mismatches.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/codearena/backend/internal/shared/types"
)

// Outcome is the verdict for one test case
type Outcome struct {
	Passed     bool
	FailedRule *types.ValidationRule
}

// Validator applies validation rules in order
type Validator struct{}

// New creates a validator
func New() *Validator {
	return &Validator{}
}

// Evaluate checks output against the test case. With no explicit rules
// the expected output is compared structurally. With rules, the first
// failing rule decides; its kind (never its criteria) may be surfaced
// through feedback templates downstream.
func (v *Validator) Evaluate(tc *types.TestCase, output interface{}, perf types.PerformanceStats) Outcome {
	if len(tc.Rules) == 0 {
		if structurallyEqual(output, tc.ExpectedOutput) {
			return Outcome{Passed: true}
		}
		rule := types.ValidationRule{Kind: types.RuleExactMatch, Message: "output does not match expected"}
		return Outcome{FailedRule: &rule}
	}

	for i := range tc.Rules {
		rule := &tc.Rules[i]
		if !v.applyRule(rule, tc, output, perf) {
			return Outcome{FailedRule: rule}
		}
	}
	return Outcome{Passed: true}
}

func (v *Validator) applyRule(rule *types.ValidationRule, tc *types.TestCase, output interface{}, perf types.PerformanceStats) bool {
	switch rule.Kind {
	case types.RuleExactMatch:
		expected := tc.ExpectedOutput
		if override, ok := rule.Criteria["expected"]; ok {
			expected = override
		}
		return structurallyEqual(output, expected)

	case types.RuleContains:
		needle, _ := rule.Criteria["value"].(string)
		if needle == "" {
			return true
		}
		return contains(output, needle)

	case types.RulePattern:
		src, _ := rule.Criteria["pattern"].(string)
		if src == "" {
			return true
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return false
		}
		return re.MatchString(stringify(output))

	case types.RulePerformance:
		maxMs, ok := asFloat(rule.Criteria["max_ms"])
		if !ok {
			return true
		}
		return perf.ExecutionTime <= time.Duration(maxMs*float64(time.Millisecond))

	default:
		// Unknown kinds fail closed: an author typo must not silently
		// pass submissions.
		return false
	}
}

// structurallyEqual compares through a serialization round trip so
// int64 vs float64 and map ordering differences do not matter.
func structurallyEqual(a, b interface{}) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v interface{}) interface{} {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func contains(output interface{}, needle string) bool {
	switch o := output.(type) {
	case string:
		return strings.Contains(o, needle)
	case []interface{}:
		for _, item := range o {
			if stringify(item) == needle {
				return true
			}
		}
		return false
	default:
		return strings.Contains(stringify(output), needle)
	}
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codearena/backend/internal/shared/types"
)

func TestEvaluateWithoutRules(t *testing.T) {
	v := New()

	tc := &types.TestCase{
		ExpectedOutput: map[string]interface{}{"sum": float64(3)},
	}

	// goja exports integral numbers as int64; normalization must bridge
	out := v.Evaluate(tc, map[string]interface{}{"sum": int64(3)}, types.PerformanceStats{})
	assert.True(t, out.Passed)

	out = v.Evaluate(tc, map[string]interface{}{"sum": int64(4)}, types.PerformanceStats{})
	assert.False(t, out.Passed)
	assert.Equal(t, types.RuleExactMatch, out.FailedRule.Kind)
}

func TestExactMatchRule(t *testing.T) {
	v := New()

	tc := &types.TestCase{
		ExpectedOutput: "hello",
		Rules: []types.ValidationRule{
			{Kind: types.RuleExactMatch, Message: "mismatch"},
		},
	}

	assert.True(t, v.Evaluate(tc, "hello", types.PerformanceStats{}).Passed)
	assert.False(t, v.Evaluate(tc, "other", types.PerformanceStats{}).Passed)
}

func TestContainsRule(t *testing.T) {
	v := New()

	tc := &types.TestCase{
		Rules: []types.ValidationRule{
			{Kind: types.RuleContains, Criteria: map[string]interface{}{"value": "alice"}, Message: "missing user"},
		},
	}

	assert.True(t, v.Evaluate(tc, "users: alice, bob", types.PerformanceStats{}).Passed)
	assert.True(t, v.Evaluate(tc, []interface{}{"alice", "bob"}, types.PerformanceStats{}).Passed)
	assert.False(t, v.Evaluate(tc, "users: bob", types.PerformanceStats{}).Passed)
}

func TestPatternRule(t *testing.T) {
	v := New()

	tc := &types.TestCase{
		Rules: []types.ValidationRule{
			{Kind: types.RulePattern, Criteria: map[string]interface{}{"pattern": `^\d{4}-\d{2}-\d{2}$`}, Message: "bad date"},
		},
	}

	assert.True(t, v.Evaluate(tc, "2025-01-31", types.PerformanceStats{}).Passed)
	assert.False(t, v.Evaluate(tc, "31/01/2025", types.PerformanceStats{}).Passed)
}

func TestPerformanceRule(t *testing.T) {
	v := New()

	tc := &types.TestCase{
		Rules: []types.ValidationRule{
			{Kind: types.RulePerformance, Criteria: map[string]interface{}{"max_ms": float64(50)}, Message: "too slow"},
		},
	}

	fast := types.PerformanceStats{ExecutionTime: 10 * time.Millisecond}
	slow := types.PerformanceStats{ExecutionTime: 200 * time.Millisecond}

	assert.True(t, v.Evaluate(tc, nil, fast).Passed)

	out := v.Evaluate(tc, nil, slow)
	assert.False(t, out.Passed)
	assert.Equal(t, types.RulePerformance, out.FailedRule.Kind)
}

func TestRulesApplyInOrder(t *testing.T) {
	v := New()

	tc := &types.TestCase{
		ExpectedOutput: "x",
		Rules: []types.ValidationRule{
			{Kind: types.RuleContains, Criteria: map[string]interface{}{"value": "nope"}, Message: "first"},
			{Kind: types.RuleExactMatch, Message: "second"},
		},
	}

	out := v.Evaluate(tc, "x", types.PerformanceStats{})
	assert.False(t, out.Passed)
	assert.Equal(t, "first", out.FailedRule.Message)
}

func TestUnknownRuleKindFailsClosed(t *testing.T) {
	v := New()

	tc := &types.TestCase{
		Rules: []types.ValidationRule{
			{Kind: types.RuleKind("fuzzy"), Message: "typo"},
		},
	}

	assert.False(t, v.Evaluate(tc, "anything", types.PerformanceStats{}).Passed)
}

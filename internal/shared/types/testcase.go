package types

import "time"

// TestCaseType classifies what a test case checks
type TestCaseType string

const (
	TestUnit        TestCaseType = "unit"
	TestIntegration TestCaseType = "integration"
	TestVisual      TestCaseType = "visual"
	TestPerformance TestCaseType = "performance"
)

// Criticality decides whether a failure should halt further testing
type Criticality string

const (
	CriticalityHigh   Criticality = "high"
	CriticalityMedium Criticality = "medium"
	CriticalityLow    Criticality = "low"
)

// RuleKind identifies a validation rule family. The kind (never the
// criteria) is allowed to influence user-facing feedback.
type RuleKind string

const (
	RuleExactMatch  RuleKind = "exact_match"
	RuleContains    RuleKind = "contains"
	RulePattern     RuleKind = "pattern"
	RulePerformance RuleKind = "performance"
)

// ValidationRule is one ordered check applied to a submission's output.
// Criteria is rule-specific (expected value, substring, regex source,
// threshold in ms) and must never leave the secure core.
type ValidationRule struct {
	Kind     RuleKind               `json:"kind"`
	Criteria map[string]interface{} `json:"criteria,omitempty"`
	Message  string                 `json:"message"`
}

// TestCaseMetadata carries per-case tuning knobs
type TestCaseMetadata struct {
	TimeoutMs   int         `json:"timeout_ms"`
	Retries     int         `json:"retries"`
	Criticality Criticality `json:"criticality"`
}

// TestCase is the authored definition of one check. It is created at
// challenge-authoring time, stored encrypted, decrypted transiently per
// run and never exposed to the client in cleartext.
type TestCase struct {
	ID             string           `json:"id"`
	Type           TestCaseType     `json:"type"`
	Description    string           `json:"description"`
	Input          interface{}      `json:"input"`
	ExpectedOutput interface{}      `json:"expected_output"`
	Rules          []ValidationRule `json:"rules,omitempty"`
	Metadata       TestCaseMetadata `json:"metadata"`
}

// Timeout returns the per-case deadline, or zero if unset
func (tc *TestCase) Timeout() time.Duration {
	if tc.Metadata.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(tc.Metadata.TimeoutMs) * time.Millisecond
}

// ClearMetadata is the non-secret subset of a test case kept in the
// clear for indexing and audit display.
type ClearMetadata struct {
	Type         TestCaseType `json:"type"`
	Description  string       `json:"description"`
	Criticality  Criticality  `json:"criticality"`
	CreatedAt    time.Time    `json:"created_at"`
	LastAccessed time.Time    `json:"last_accessed"`
}

// EncryptedTestCase is the at-rest form of a test case
type EncryptedTestCase struct {
	ID          string        `json:"id"`
	ChallengeID string        `json:"challenge_id"`
	Ciphertext  []byte        `json:"ciphertext"`
	Nonce       []byte        `json:"nonce"`
	Meta        ClearMetadata `json:"metadata"`
}

// TestCaseInfo is the UI-safe projection of a test case: identity,
// classification and non-sensitive metadata only.
type TestCaseInfo struct {
	ID          string       `json:"id"`
	Type        TestCaseType `json:"type"`
	Description string       `json:"description"`
	TimeoutMs   int          `json:"timeout_ms"`
	Retries     int          `json:"retries"`
	Criticality Criticality  `json:"criticality"`
}

package types

import "time"

// IsolationStrategy selects how untrusted code is contained
type IsolationStrategy string

const (
	// StrategyEmbeddedDocument runs code against a document proxy with a
	// curated global surface. Timeout is cooperative only.
	StrategyEmbeddedDocument IsolationStrategy = "embedded-document"
	// StrategyRestrictedClosure runs code with an enumerated set of safe
	// globals and nothing else reachable. Timeout is cooperative only.
	StrategyRestrictedClosure IsolationStrategy = "restricted-closure"
	// StrategyDedicatedWorker runs code on its own goroutine-backed VM;
	// the only strategy offering forced mid-execution termination.
	StrategyDedicatedWorker IsolationStrategy = "dedicated-worker"
)

// Valid reports whether s names a known strategy
func (s IsolationStrategy) Valid() bool {
	switch s {
	case StrategyEmbeddedDocument, StrategyRestrictedClosure, StrategyDedicatedWorker:
		return true
	}
	return false
}

// ResourceLimits bounds one execution. MaxCPUPercent is advisory only:
// the host cannot measure per-VM CPU, so it is recorded, never enforced.
type ResourceLimits struct {
	MaxExecutionTime   time.Duration `json:"max_execution_time_ms"`
	MaxMemoryMB        int64         `json:"max_memory_mb"`
	MaxCPUPercent      float64       `json:"max_cpu_percent"`
	MaxNetworkRequests int           `json:"max_network_requests"`
	MaxFileOps         int           `json:"max_file_ops"`
}

// DefaultLimits returns the per-run ceilings used when a caller does not
// override them.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxExecutionTime:   5 * time.Second,
		MaxMemoryMB:        64,
		MaxCPUPercent:      80,
		MaxNetworkRequests: 10,
		MaxFileOps:         50,
	}
}

// AuditAction tags an access-log entry
type AuditAction string

const (
	AuditEncrypt  AuditAction = "encrypt"
	AuditDecrypt  AuditAction = "decrypt"
	AuditAccess   AuditAction = "access"
	AuditValidate AuditAction = "validate"
)

// AccessLogEntry is one append-only audit record. Exactly one entry is
// produced per encrypt/decrypt attempt, success or failure.
type AccessLogEntry struct {
	ID          string      `json:"id"`
	TestCaseID  string      `json:"test_case_id"`
	ChallengeID string      `json:"challenge_id"`
	Action      AuditAction `json:"action"`
	Timestamp   time.Time   `json:"timestamp"`
	Success     bool        `json:"success"`
	Error       string      `json:"error,omitempty"`
	UserID      string      `json:"user_id,omitempty"`
	SessionID   string      `json:"session_id,omitempty"`
}

// SecurityMetrics is the store's self-reported health snapshot
type SecurityMetrics struct {
	TotalTestCases   int       `json:"total_test_cases"`
	TotalAccesses    int64     `json:"total_accesses"`
	FailedAccesses   int64     `json:"failed_accesses"`
	LastKeyRotation  time.Time `json:"last_key_rotation"`
	EncryptionActive bool      `json:"encryption_active"`
}

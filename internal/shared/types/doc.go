// Package types defines the shared data model of the secure test core:
// test cases and their encrypted at-rest form, execution results (raw and
// sanitized), resource limits, isolation strategies and audit records.
//
// The split between ExecutionResult and TestResult is the trust boundary
// of the whole system: ExecutionResult may carry engine internals and
// hidden expected values, TestResult is the only shape allowed to cross
// back to the UI.
package types

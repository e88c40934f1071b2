// Package fault defines the execution-fault taxonomy shared by the
// sandbox and its resource monitors. A fault is a resource-limit or
// sandbox-integrity violation, distinct from an ordinary test failure.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a fault
type Kind string

const (
	Timeout        Kind = "timeout"
	MemoryLimit    Kind = "memory-limit"
	NetworkLimit   Kind = "network-limit"
	BlockedRequest Kind = "blocked-request"
	NoEntryPoint   Kind = "no-entry-point"
	RuntimeError   Kind = "runtime-error"
)

// Fault is an execution fault raised by the sandbox or a monitor
type Fault struct {
	Kind Kind
	Msg  string
}

func (f *Fault) Error() string {
	if f.Msg == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Msg)
}

// New creates a fault of the given kind
func New(kind Kind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the fault kind from err, or empty if err is no fault
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// Is reports whether err is a fault of the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

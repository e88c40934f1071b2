package sandbox

import (
	"time"

	"github.com/codearena/backend/internal/shared/types"
)

// Request describes one code submission to execute against one test
// case input under a chosen isolation strategy.
type Request struct {
	Code     string
	Input    interface{}
	Limits   types.ResourceLimits
	Strategy types.IsolationStrategy
}

// Config tunes the executor
type Config struct {
	PoolSize        int
	DefaultLimits   types.ResourceLimits
	DefaultStrategy types.IsolationStrategy
}

// DefaultConfig returns production executor settings
func DefaultConfig() Config {
	return Config{
		PoolSize:        4,
		DefaultLimits:   types.DefaultLimits(),
		DefaultStrategy: types.StrategyRestrictedClosure,
	}
}

// Metrics is the hook the executor reports per-execution figures through
type Metrics interface {
	RecordExecution(strategy string, success bool, elapsed time.Duration)
}

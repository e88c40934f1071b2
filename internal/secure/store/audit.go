package store

import (
	"sync"
	"time"

	"github.com/codearena/backend/internal/shared/id"
	"github.com/codearena/backend/internal/shared/types"
)

// auditLog is the capped append-only access log. Oldest entries are
// pruned once the cap is reached so a long session cannot grow memory
// without bound.
type auditLog struct {
	mu      sync.Mutex
	entries []types.AccessLogEntry
	cap     int

	total  int64
	failed int64
}

func newAuditLog(capacity int) *auditLog {
	if capacity <= 0 {
		capacity = 1000
	}
	return &auditLog{cap: capacity}
}

func (l *auditLog) record(action types.AuditAction, testCaseID, challengeID string, success bool, errMsg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, types.AccessLogEntry{
		ID:          id.NewAuditID().String(),
		TestCaseID:  testCaseID,
		ChallengeID: challengeID,
		Action:      action,
		Timestamp:   time.Now(),
		Success:     success,
		Error:       errMsg,
	})
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}

	l.total++
	if !success {
		l.failed++
	}
}

// snapshot returns entries newest-first, optionally filtered by
// challenge, capped at limit.
func (l *auditLog) snapshot(challengeID string, limit int) []types.AccessLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		limit = len(l.entries)
	}

	out := make([]types.AccessLogEntry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := l.entries[i]
		if challengeID != "" && e.ChallengeID != challengeID {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (l *auditLog) counts() (total, failed int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total, l.failed
}

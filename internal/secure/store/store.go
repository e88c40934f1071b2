// Package store owns the encrypted test-case table for a challenge
// session. Plaintext test cases exist only transiently inside a retrieve
// call; at rest every case is serialized, compressed and sealed under
// the store's active key. Every encrypt/decrypt attempt lands in the
// access-audit log, success or failure.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/codearena/backend/internal/infrastructure/logging"
	"github.com/codearena/backend/internal/secure/crypto"
	"github.com/codearena/backend/internal/shared/types"
	"github.com/codearena/backend/internal/shared/utils"
)

var (
	// ErrNotFound means no test case with that id exists for that
	// challenge. An id valid for a different challenge is also NotFound.
	ErrNotFound = errors.New("test case not found")
	// ErrStorage means the test case could not be serialized or
	// encrypted. Fatal to the call, not to the store.
	ErrStorage = errors.New("test case storage failed")
)

// Metrics is the hook the store reports operations through
type Metrics interface {
	RecordStoreOp(action string, success bool)
	RecordKeyRotation()
}

// Config tunes the store
type Config struct {
	KeyRotationInterval time.Duration
	AuditLogCap         int
}

// DefaultConfig returns production store settings
func DefaultConfig() Config {
	return Config{
		KeyRotationInterval: 24 * time.Hour,
		AuditLogCap:         1000,
	}
}

// Store is the single source of truth for test cases during a challenge
// session. It is constructed explicitly and injected; there is no
// package-level instance.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*types.EncryptedTestCase // keyed by entryKey(challengeID, testCaseID)
	key     *crypto.Key

	provider *crypto.Provider
	enc      *zstd.Encoder
	dec      *zstd.Decoder

	audit  *auditLog
	logger *logging.Logger

	lastRotation time.Time
	rotateEvery  time.Duration

	metrics Metrics

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a store with a freshly generated key. Metrics may be nil.
func New(cfg Config, provider *crypto.Provider, logger *logging.Logger, metrics Metrics) (*Store, error) {
	key, err := provider.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("store init: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("store init: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("store init: %w", err)
	}

	if cfg.KeyRotationInterval <= 0 {
		cfg.KeyRotationInterval = DefaultConfig().KeyRotationInterval
	}

	return &Store{
		entries:      make(map[string]*types.EncryptedTestCase),
		key:          key,
		provider:     provider,
		enc:          enc,
		dec:          dec,
		audit:        newAuditLog(cfg.AuditLogCap),
		logger:       logger,
		lastRotation: time.Now(),
		rotateEvery:  cfg.KeyRotationInterval,
		metrics:      metrics,
		stop:         make(chan struct{}),
	}, nil
}

// StoreTestCase serializes, encrypts and stores one test case. Audit
// log records the encrypt attempt without the plaintext content.
func (s *Store) StoreTestCase(challengeID string, tc *types.TestCase) error {
	plaintext, err := s.seal(tc)
	if err != nil {
		s.audit.record(types.AuditEncrypt, tc.ID, challengeID, false, err.Error())
		s.observe("encrypt", false)
		return fmt.Errorf("%w: %s", ErrStorage, err)
	}

	s.mu.Lock()
	ciphertext, nonce, err := s.provider.Encrypt(plaintext, s.key)
	if err != nil {
		s.mu.Unlock()
		s.audit.record(types.AuditEncrypt, tc.ID, challengeID, false, err.Error())
		s.observe("encrypt", false)
		return fmt.Errorf("%w: %s", ErrStorage, err)
	}

	now := time.Now()
	s.entries[entryKey(challengeID, tc.ID)] = &types.EncryptedTestCase{
		ID:          tc.ID,
		ChallengeID: challengeID,
		Ciphertext:  ciphertext,
		Nonce:       nonce,
		Meta: types.ClearMetadata{
			Type:        tc.Type,
			Description: tc.Description,
			Criticality: tc.Metadata.Criticality,
			CreatedAt:   now,
		},
	}
	s.mu.Unlock()

	s.audit.record(types.AuditEncrypt, tc.ID, challengeID, true, "")
	s.observe("encrypt", true)
	return nil
}

// RetrieveTestCase looks up, verifies challenge ownership and decrypts
// one test case. The caller must discard the plaintext after use.
func (s *Store) RetrieveTestCase(testCaseID, challengeID string) (*types.TestCase, error) {
	s.mu.Lock()
	entry, ok := s.entries[entryKey(challengeID, testCaseID)]
	if !ok {
		s.mu.Unlock()
		s.audit.record(types.AuditAccess, testCaseID, challengeID, false, "not found")
		s.observe("decrypt", false)
		return nil, ErrNotFound
	}

	plaintext, err := s.provider.Decrypt(entry.Ciphertext, s.key, entry.Nonce)
	if err != nil {
		s.mu.Unlock()
		s.audit.record(types.AuditDecrypt, testCaseID, challengeID, false, err.Error())
		s.observe("decrypt", false)
		return nil, err
	}
	entry.Meta.LastAccessed = time.Now()
	s.mu.Unlock()

	tc, err := s.open(plaintext)
	if err != nil {
		s.audit.record(types.AuditDecrypt, testCaseID, challengeID, false, err.Error())
		s.observe("decrypt", false)
		return nil, fmt.Errorf("%w: %s", ErrStorage, err)
	}

	s.audit.record(types.AuditDecrypt, testCaseID, challengeID, true, "")
	s.observe("decrypt", true)
	return tc, nil
}

// TestCasesForChallenge decrypts every case stored for a challenge. A
// single failing entry is logged and skipped, not fatal to the batch.
func (s *Store) TestCasesForChallenge(challengeID string) []*types.TestCase {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.ChallengeID == challengeID {
			ids = append(ids, entry.ID)
		}
	}
	s.mu.RUnlock()

	// Stable order: callers run suites sequentially and report
	// positionally, so retrieval must not depend on map iteration.
	sort.Strings(ids)

	out := make([]*types.TestCase, 0, len(ids))
	for _, id := range ids {
		tc, err := s.RetrieveTestCase(id, challengeID)
		if err != nil {
			s.logger.Warn("skipping undecryptable test case",
				zap.String("test_case_id", id),
				zap.String("challenge_id", challengeID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, tc)
	}
	return out
}

// InfoForChallenge returns the UI-safe projection of every case stored
// for a challenge. Retries are deliberately reported as zero.
func (s *Store) InfoForChallenge(challengeID string) []types.TestCaseInfo {
	cases := s.TestCasesForChallenge(challengeID)

	out := make([]types.TestCaseInfo, 0, len(cases))
	for _, tc := range cases {
		out = append(out, types.TestCaseInfo{
			ID:          tc.ID,
			Type:        tc.Type,
			Description: tc.Description,
			TimeoutMs:   tc.Metadata.TimeoutMs,
			Retries:     0,
			Criticality: tc.Metadata.Criticality,
		})
	}
	return out
}

// AccessLogs returns audit entries newest-first. Empty challengeID
// returns all challenges.
func (s *Store) AccessLogs(challengeID string, limit int) []types.AccessLogEntry {
	return s.audit.snapshot(challengeID, limit)
}

// SecurityMetrics reports the store's health snapshot
func (s *Store) SecurityMetrics() types.SecurityMetrics {
	s.mu.RLock()
	total := len(s.entries)
	active := s.key != nil
	rotation := s.lastRotation
	s.mu.RUnlock()

	accesses, failures := s.audit.counts()
	return types.SecurityMetrics{
		TotalTestCases:   total,
		TotalAccesses:    accesses,
		FailedAccesses:   failures,
		LastKeyRotation:  rotation,
		EncryptionActive: active,
	}
}

// ValidateIntegrity attempts to decrypt every stored entry. A false
// return means key loss or corruption; tampering that still
// authenticates cannot happen with authenticated encryption.
func (s *Store) ValidateIntegrity() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if _, err := s.provider.Decrypt(entry.Ciphertext, s.key, entry.Nonce); err != nil {
			s.audit.record(types.AuditValidate, entry.ID, entry.ChallengeID, false, err.Error())
			s.observe("validate", false)
			return false
		}
	}
	s.audit.record(types.AuditValidate, "", "", true, "")
	s.observe("validate", true)
	return true
}

// Close stops the background rotation loop if one was started
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// entryKey builds the table key. IDs are unique within a challenge, so
// the same test case id under two challenges stays two entries.
func entryKey(challengeID, testCaseID string) string {
	return challengeID + "/" + testCaseID
}

// seal serializes and compresses a test case for encryption
func (s *Store) seal(tc *types.TestCase) ([]byte, error) {
	raw, err := sonic.Marshal(tc)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	if len(raw) > utils.MaxTestCasePayload {
		return nil, fmt.Errorf("test case payload %d bytes exceeds limit %d", len(raw), utils.MaxTestCasePayload)
	}
	return s.enc.EncodeAll(raw, nil), nil
}

// open reverses seal
func (s *Store) open(payload []byte) (*types.TestCase, error) {
	raw, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	var tc types.TestCase
	if err := sonic.Unmarshal(raw, &tc); err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	return &tc, nil
}

func (s *Store) observe(action string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordStoreOp(action, success)
	}
}

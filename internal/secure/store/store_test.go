package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codearena/backend/internal/infrastructure/logging"
	"github.com/codearena/backend/internal/secure/crypto"
	"github.com/codearena/backend/internal/shared/types"
	"github.com/codearena/backend/internal/shared/utils"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(DefaultConfig(), crypto.NewProvider(), logging.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func sampleCase(id string) *types.TestCase {
	return &types.TestCase{
		ID:          id,
		Type:        types.TestUnit,
		Description: "adds two numbers",
		Input:       map[string]interface{}{"a": float64(1)},
		ExpectedOutput: map[string]interface{}{
			"b": float64(2),
		},
		Rules: []types.ValidationRule{
			{Kind: types.RuleExactMatch, Message: "output must match"},
		},
		Metadata: types.TestCaseMetadata{
			TimeoutMs:   2000,
			Retries:     1,
			Criticality: types.CriticalityMedium,
		},
	}
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	s := newTestStore(t)

	original := sampleCase("t1")
	require.NoError(t, s.StoreTestCase("c1", original))

	got, err := s.RetrieveTestCase("t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestRetrieveWrongChallenge(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))

	_, err := s.RetrieveTestCase("t1", "c2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RetrieveTestCase("missing", "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTestCasesForChallenge(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))
	require.NoError(t, s.StoreTestCase("c1", sampleCase("t2")))
	require.NoError(t, s.StoreTestCase("c2", sampleCase("t3")))

	cases := s.TestCasesForChallenge("c1")
	assert.Len(t, cases, 2)

	ids := map[string]bool{}
	for _, tc := range cases {
		ids[tc.ID] = true
	}
	assert.True(t, ids["t1"])
	assert.True(t, ids["t2"])
}

func TestInfoForChallengeConfidentiality(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))

	infos := s.InfoForChallenge("c1")
	require.Len(t, infos, 1)

	info := infos[0]
	assert.Equal(t, "t1", info.ID)
	assert.Equal(t, types.TestUnit, info.Type)
	assert.Equal(t, "adds two numbers", info.Description)
	assert.Equal(t, 2000, info.TimeoutMs)
	// Retries are deliberately reported as zero
	assert.Equal(t, 0, info.Retries)
	assert.Equal(t, types.CriticalityMedium, info.Criticality)
}

func TestRotationPreservesEntries(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, s.StoreTestCase("c1", sampleCase(id)))
	}

	before := s.LastRotation()
	require.NoError(t, s.RotateKeys())
	assert.True(t, s.LastRotation().After(before) || s.LastRotation().Equal(before))

	cases := s.TestCasesForChallenge("c1")
	assert.Len(t, cases, 3)
	for _, tc := range cases {
		assert.Equal(t, "adds two numbers", tc.Description)
	}
}

func TestRotationWithNoEntries(t *testing.T) {
	s := newTestStore(t)

	before := s.LastRotation()
	require.NoError(t, s.RotateKeys())
	assert.False(t, s.LastRotation().Before(before))
	assert.True(t, s.ValidateIntegrity())
}

func TestAuditLogRecordsEveryAttempt(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))
	_, err := s.RetrieveTestCase("t1", "c1")
	require.NoError(t, err)
	_, err = s.RetrieveTestCase("t1", "c2")
	require.Error(t, err)

	logs := s.AccessLogs("", 0)
	require.Len(t, logs, 3)

	// Newest first
	assert.Equal(t, types.AuditAccess, logs[0].Action)
	assert.False(t, logs[0].Success)
	assert.Equal(t, types.AuditDecrypt, logs[1].Action)
	assert.True(t, logs[1].Success)
	assert.Equal(t, types.AuditEncrypt, logs[2].Action)
	assert.True(t, logs[2].Success)

	filtered := s.AccessLogs("c2", 0)
	require.Len(t, filtered, 1)
	assert.False(t, filtered[0].Success)
}

func TestAuditLogCapped(t *testing.T) {
	s, err := New(Config{AuditLogCap: 5, KeyRotationInterval: DefaultConfig().KeyRotationInterval},
		crypto.NewProvider(), logging.NewNop(), nil)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 20; i++ {
		require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))
	}

	logs := s.AccessLogs("", 0)
	assert.Len(t, logs, 5)

	m := s.SecurityMetrics()
	assert.EqualValues(t, 20, m.TotalAccesses)
}

func TestSecurityMetrics(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))
	_, _ = s.RetrieveTestCase("t1", "wrong")

	m := s.SecurityMetrics()
	assert.Equal(t, 1, m.TotalTestCases)
	assert.EqualValues(t, 2, m.TotalAccesses)
	assert.EqualValues(t, 1, m.FailedAccesses)
	assert.True(t, m.EncryptionActive)
	assert.False(t, m.LastKeyRotation.IsZero())
}

func TestValidateIntegrity(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))
	assert.True(t, s.ValidateIntegrity())

	// Corrupt a stored ciphertext
	s.mu.Lock()
	s.entries[entryKey("c1", "t1")].Ciphertext[0] ^= 0xff
	s.mu.Unlock()

	assert.False(t, s.ValidateIntegrity())
}

func TestSameIDAcrossChallenges(t *testing.T) {
	s := newTestStore(t)

	first := sampleCase("t1")
	second := sampleCase("t1")
	second.Description = "reverses a string"

	require.NoError(t, s.StoreTestCase("c1", first))
	require.NoError(t, s.StoreTestCase("c2", second))

	got, err := s.RetrieveTestCase("t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "adds two numbers", got.Description)

	got, err = s.RetrieveTestCase("t1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "reverses a string", got.Description)

	assert.Len(t, s.TestCasesForChallenge("c1"), 1)
	assert.Len(t, s.TestCasesForChallenge("c2"), 1)
}

func TestFailedRotationLeavesTableUsable(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))
	require.NoError(t, s.StoreTestCase("c1", sampleCase("t2")))

	s.mu.Lock()
	s.entries[entryKey("c1", "t2")].Ciphertext[0] ^= 0xff
	s.mu.Unlock()

	keyBefore := s.key
	require.Error(t, s.RotateKeys())
	assert.Same(t, keyBefore, s.key)

	got, err := s.RetrieveTestCase("t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "adds two numbers", got.Description)
}

type captureMetrics struct {
	ops       int
	rotations int
}

func (m *captureMetrics) RecordStoreOp(string, bool) { m.ops++ }
func (m *captureMetrics) RecordKeyRotation()         { m.rotations++ }

func TestRotationReportsMetric(t *testing.T) {
	metrics := &captureMetrics{}
	s, err := New(DefaultConfig(), crypto.NewProvider(), logging.NewNop(), metrics)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.StoreTestCase("c1", sampleCase("t1")))
	require.NoError(t, s.RotateKeys())

	assert.Equal(t, 1, metrics.rotations)
	assert.Positive(t, metrics.ops)
}

func TestOversizedPayloadRejected(t *testing.T) {
	s := newTestStore(t)

	tc := sampleCase("t1")
	tc.Input = strings.Repeat("x", utils.MaxTestCasePayload+1)

	err := s.StoreTestCase("c1", tc)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Empty(t, s.TestCasesForChallenge("c1"))
}

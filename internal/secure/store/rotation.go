package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RotateKeys replaces the active key and re-encrypts every stored entry
// under it. The write lock is held for the whole rotation, so a
// concurrent retrieve never observes a half-rotated table.
func (s *Store) RotateKeys() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newKey, err := s.provider.GenerateKey()
	if err != nil {
		return fmt.Errorf("key rotation: %w", err)
	}

	// Decrypt everything under the old key before committing anything,
	// so a failure leaves the table untouched.
	plaintexts := make(map[string][]byte, len(s.entries))
	for id, entry := range s.entries {
		pt, err := s.provider.Decrypt(entry.Ciphertext, s.key, entry.Nonce)
		if err != nil {
			return fmt.Errorf("key rotation: entry %s: %w", id, err)
		}
		plaintexts[id] = pt
	}

	// Encrypt into a staging map first. The table and the key swap
	// commit together, so an Encrypt failure midway cannot strand
	// entries under a key the store never adopted.
	type sealed struct {
		ciphertext []byte
		nonce      []byte
	}
	staged := make(map[string]sealed, len(plaintexts))
	for id, pt := range plaintexts {
		ciphertext, nonce, err := s.provider.Encrypt(pt, newKey)
		if err != nil {
			return fmt.Errorf("key rotation: entry %s: %w", id, err)
		}
		staged[id] = sealed{ciphertext, nonce}
	}

	for id, p := range staged {
		s.entries[id].Ciphertext = p.ciphertext
		s.entries[id].Nonce = p.nonce
	}
	s.key = newKey
	s.lastRotation = time.Now()

	if s.metrics != nil {
		s.metrics.RecordKeyRotation()
	}
	s.logger.Info("encryption key rotated",
		zap.Int("entries", len(s.entries)),
	)
	return nil
}

// StartRotation runs RotateKeys on the configured cadence until ctx is
// cancelled or the store is closed.
func (s *Store) StartRotation(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.rotateEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.RotateKeys(); err != nil {
					s.logger.Error("scheduled key rotation failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()
}

// LastRotation reports when keys were last rotated
func (s *Store) LastRotation() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRotation
}

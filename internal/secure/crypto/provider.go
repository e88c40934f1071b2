// Package crypto provides the symmetric authenticated encryption used to
// keep test cases secret at rest. Keys are 256-bit, payloads are sealed
// with XChaCha20-Poly1305 so any tampering fails authentication on open.
//
// The trust boundary is the host process: only user-submitted code is
// adversarial. Nothing here defends against the host itself reading key
// material from memory.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the symmetric key length in bytes
const KeySize = chacha20poly1305.KeySize

// NonceSize is the per-encryption nonce length in bytes
const NonceSize = chacha20poly1305.NonceSizeX

var (
	// ErrDecryption means the ciphertext/key/nonce triple failed to
	// authenticate: wrong key, corrupted ciphertext or mismatched nonce.
	ErrDecryption = errors.New("decryption failed")
	// ErrInvalidKey means imported key material has the wrong length
	ErrInvalidKey = errors.New("invalid key material")
)

// Key is an opaque symmetric key usable for both encrypt and decrypt
type Key struct {
	material []byte
}

// Provider implements authenticated encryption over opaque byte payloads
type Provider struct{}

// NewProvider creates a crypto provider
func NewProvider() *Provider {
	return &Provider{}
}

// GenerateKey produces a fresh 256-bit symmetric key
func (p *Provider) GenerateKey() (*Key, error) {
	material := make([]byte, KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("key generation: %w", err)
	}
	return &Key{material: material}, nil
}

// Encrypt seals plaintext under key with a freshly random nonce. The
// nonce is never reused with the same key: it is drawn from crypto/rand
// per call, and the XChaCha20 nonce space makes collisions negligible.
func (p *Provider) Encrypt(plaintext []byte, key *Key) (ciphertext, nonce []byte, err error) {
	aead, err := chacha20poly1305.NewX(key.material)
	if err != nil {
		return nil, nil, fmt.Errorf("cipher init: %w", err)
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("nonce generation: %w", err)
	}

	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext under key and nonce. Returns ErrDecryption if
// the triple does not authenticate.
func (p *Provider) Decrypt(ciphertext []byte, key *Key, nonce []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.material)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	if len(nonce) != NonceSize {
		return nil, ErrDecryption
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

// ExportKey serializes a key to raw bytes for persistence or transfer
func (p *Provider) ExportKey(key *Key) []byte {
	out := make([]byte, len(key.material))
	copy(out, key.material)
	return out
}

// ImportKey deserializes raw bytes produced by ExportKey
func (p *Provider) ImportKey(material []byte) (*Key, error) {
	if len(material) != KeySize {
		return nil, ErrInvalidKey
	}
	m := make([]byte, KeySize)
	copy(m, material)
	return &Key{material: m}, nil
}

package store

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "v1:"

// ErrInvalidKey is returned when the card encryption key is not 32 hex-encoded bytes.
var ErrInvalidKey = errors.New("card encryption key must be 64 hex characters")

// FieldSealer encrypts card fields before they are written to the database.
// A nil *FieldSealer is valid and passes values through unchanged.
type FieldSealer struct {
	key []byte
}

// NewFieldSealer parses a hex key. An empty key yields a nil sealer.
func NewFieldSealer(hexKey string) (*FieldSealer, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return &FieldSealer{key: key}, nil
}

// Seal returns "v1:" followed by the base64 nonce||ciphertext.
func (s *FieldSealer) Seal(plaintext string) (string, error) {
	if s == nil {
		return plaintext, nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the prefix are returned as-is so rows
// written before a key was configured stay readable.
func (s *FieldSealer) Open(value string) (string, error) {
	if s == nil || !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed value: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("sealed value too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed value: %w", err)
	}
	return string(plaintext), nil
}

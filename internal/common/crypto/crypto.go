// internal/common/crypto/crypto.go
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// Encryptor encrypts and decrypts credential fields with AES-256-GCM.
// The key is derived from a process-wide secret.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor derives a 256-bit key from the secret and builds the AEAD.
func NewEncryptor(secret string) (*Encryptor, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is empty")
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encryptor{aead: aead}, nil
}

// Encrypt seals a plaintext value and returns base64(nonce || ciphertext).
// Empty input yields empty output; the store persists it as NULL.
func (e *Encryptor) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored value. When the value is not valid ciphertext
// (rows that predate encryption, or a rotated key), the raw stored value is
// returned unchanged instead of an error.
func (e *Encryptor) Decrypt(stored string) string {
	if stored == "" {
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored
	}

	nonceSize := e.aead.NonceSize()
	if len(raw) < nonceSize+e.aead.Overhead() {
		return stored
	}

	plain, err := e.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return stored
	}

	return string(plain)
}

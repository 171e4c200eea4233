package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptionService seals free-text fields before they are stored.
type EncryptionService struct {
	key []byte // 32 bytes for XChaCha20-Poly1305
}

// NewEncryptionService creates a new encryption service.
// key must be 32 bytes.
func NewEncryptionService(key []byte) (*EncryptionService, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("encryption key must be 32 bytes")
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &EncryptionService{key: k}, nil
}

// ParseKey decodes a base64 key as found in ENCRYPTION_KEY.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("encryption key must decode to 32 bytes")
	}
	return key, nil
}

// Encrypt encrypts plaintext using XChaCha20-Poly1305.
// Returns base64-encoded ciphertext with nonce prepended.
func (s *EncryptionService) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64-encoded ciphertext produced by Encrypt.
func (s *EncryptionService) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}

	nonceSize := aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

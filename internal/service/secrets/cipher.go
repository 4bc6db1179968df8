package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrInvalidToken is returned when a ciphertext is malformed, was produced
// with a different key, or has been tampered with.
var ErrInvalidToken = errors.New("invalid encrypted token")

const (
	tokenVersion = byte(1)
	hkdfInfo     = "altscribe api key encryption"
)

// Cipher encrypts short secrets with XChaCha20-Poly1305 under a key derived
// from the application secret.
type Cipher struct {
	key []byte
}

// NewCipher derives the encryption key from secret with HKDF-SHA256.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret cannot be empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	return &Cipher{key: key}, nil
}

// Encrypt returns a URL-safe token for plaintext. Every call uses a fresh
// random nonce, so equal inputs give different tokens.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), 1+aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := append([]byte{tokenVersion}, nonce...)
	out = aead.Seal(out, nonce, []byte(plaintext), []byte{tokenVersion})
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any failure is reported as ErrInvalidToken.
func (c *Cipher) Decrypt(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidToken
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(raw) < 1+aead.NonceSize()+aead.Overhead() || raw[0] != tokenVersion {
		return "", ErrInvalidToken
	}

	nonce := raw[1 : 1+aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, raw[1+aead.NonceSize():], raw[:1])
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(plaintext), nil
}

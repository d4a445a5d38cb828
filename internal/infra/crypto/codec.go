// Package crypto seals chat message text at rest with an owner-derived AES-256-GCM key.
//
// The key is derived deterministically from the owner id alone (salt = owner id prefix),
// so anyone who knows an owner id can derive that owner's key. The scheme is kept for
// compatibility with already stored envelopes.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultIterations = 100000
	keyLen            = 32 // AES-256
	ivLen             = 12
	saltLen           = 16
)

// ErrEnvelope is returned by Open for input that is not a sealed envelope.
var ErrEnvelope = errors.New("malformed envelope")

// Codec derives per-owner keys. Iterations defaults to DefaultIterations.
type Codec struct {
	Iterations int
	log        *zap.Logger
}

func NewCodec(log *zap.Logger) *Codec {
	if log == nil {
		log = zap.NewNop()
	}
	return &Codec{Iterations: DefaultIterations, log: log}
}

// Salt is the first 16 characters of the owner id, right-padded with '0'.
func Salt(ownerID string) string {
	var b strings.Builder
	n := 0
	for _, r := range ownerID {
		if n == saltLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	for ; n < saltLen; n++ {
		b.WriteByte('0')
	}
	return b.String()
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over ownerID+salt.
func (c *Codec) DeriveKey(ownerID string) (*Key, error) {
	iter := c.Iterations
	if iter <= 0 {
		iter = DefaultIterations
	}
	salt := Salt(ownerID)
	raw := pbkdf2.Key([]byte(ownerID+salt), []byte(salt), iter, keyLen, sha256.New)

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Key{aead: gcm, log: c.log}, nil
}

// Encrypt seals text for ownerID, returning the plaintext unchanged on failure.
func (c *Codec) Encrypt(ownerID, text string) string {
	k, err := c.DeriveKey(ownerID)
	if err != nil {
		c.log.Warn("derive key failed, storing plaintext", zap.Error(err))
		return text
	}
	return k.Encrypt(text)
}

// Decrypt opens an envelope for ownerID, returning the input unchanged on failure.
func (c *Codec) Decrypt(ownerID, envelope string) string {
	k, err := c.DeriveKey(ownerID)
	if err != nil {
		c.log.Warn("derive key failed, returning input", zap.Error(err))
		return envelope
	}
	return k.Decrypt(envelope)
}

// Key is a derived owner key. It is safe for concurrent use.
type Key struct {
	aead cipher.AEAD
	log  *zap.Logger
}

// Seal encrypts with a fresh random IV and returns base64(IV || ciphertext+tag).
func (k *Key) Seal(plaintext string) (string, error) {
	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	out := k.aead.Seal(iv, iv, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (k *Key) Open(envelope string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if len(data) < ivLen+k.aead.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrEnvelope)
	}
	plain, err := k.aead.Open(nil, data[:ivLen], data[ivLen:], nil)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plain), nil
}

// Encrypt is the fail-open form of Seal.
func (k *Key) Encrypt(plaintext string) string {
	env, err := k.Seal(plaintext)
	if err != nil {
		k.log.Warn("encrypt failed, storing plaintext", zap.Error(err))
		return plaintext
	}
	return env
}

// Decrypt is the fail-open form of Open. Legacy plaintext rows come back as-is.
func (k *Key) Decrypt(envelope string) string {
	plain, err := k.Open(envelope)
	if err != nil {
		k.log.Debug("decrypt failed, returning input", zap.Error(err))
		return envelope
	}
	return plain
}

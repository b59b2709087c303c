// Package cryptox seals ownership-verification secrets before they are
// persisted. Each value is encrypted independently with an AEAD cipher and a
// fresh random nonce. Without a usable key the vault runs in an explicit
// plaintext mode and says so in the log.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/common"
	"github.com/dmitrijs2005/lostfound/internal/logging"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	AlgorithmAESGCM            = "aes-256-gcm"
	AlgorithmXChaCha20Poly1305 = "xchacha20-poly1305"

	// TypePlain tags records written while no key is configured.
	TypePlain = "plain"

	// KeySize is the only accepted key length, in bytes.
	KeySize = 32
)

var (
	ErrNoKey                = errors.New("secrets key not configured")
	ErrInvalidKey           = errors.New("secrets key must be 64 hex chars, 32 raw chars or base64 of 32 bytes")
	ErrUnsupportedAlgorithm = errors.New("unsupported secrets cipher")
)

var hexKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Record is the persisted form of one secret. Encrypted records carry the
// algorithm in Type and base64 Nonce, Tag and Ciphertext; plaintext records
// carry Type "plain" and Value.
type Record struct {
	Type       string `json:"type"`
	Nonce      string `json:"nonce,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Ciphertext string `json:"ciphertext,omitempty"`
	Value      string `json:"value,omitempty"`
}

// Plain reports whether the record was stored without encryption.
func (r Record) Plain() bool { return r.Type == TypePlain }

// ParseKey decodes a 32-byte key given as 64 hex characters, 32 raw
// characters or base64. An empty source yields ErrNoKey.
func ParseKey(source string) ([]byte, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, ErrNoKey
	}

	if hexKeyPattern.MatchString(trimmed) {
		return hex.DecodeString(trimmed)
	}

	if len(trimmed) == KeySize {
		return []byte(trimmed), nil
	}

	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) == KeySize {
		return decoded, nil
	}

	return nil, ErrInvalidKey
}

// GenerateKey returns a new random key in its hex form.
func GenerateKey() (string, error) {
	return common.MakeRandHexString(KeySize)
}

func newAEAD(algorithm string, key []byte) (cipher.AEAD, error) {
	switch algorithm {
	case AlgorithmAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case AlgorithmXChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

// Vault encrypts secrets with a process-wide key. A Vault without a key is
// valid and produces plaintext records for every value, never a mix.
type Vault struct {
	algorithm string
	aead      cipher.AEAD
	logger    logging.Logger
}

// NewVault builds a vault for keySource. An unknown algorithm is a
// configuration error; a missing or malformed key switches the vault to
// plaintext mode and is logged.
func NewVault(ctx context.Context, keySource, algorithm string, logger logging.Logger) (*Vault, error) {
	if algorithm == "" {
		algorithm = AlgorithmAESGCM
	}
	if _, err := newAEAD(algorithm, make([]byte, KeySize)); err != nil {
		return nil, err
	}

	v := &Vault{algorithm: algorithm, logger: logger.With("module", "vault")}

	key, err := ParseKey(keySource)
	switch {
	case errors.Is(err, ErrNoKey):
		v.logger.Warn(ctx, "secrets key not configured, secrets will be stored without encryption")
		return v, nil
	case err != nil:
		v.logger.Error(ctx, "secrets key rejected, secrets will be stored without encryption", "error", err)
		return v, nil
	}
	defer common.WipeByteArray(key)

	v.aead, err = newAEAD(algorithm, key)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Enabled reports whether records are encrypted.
func (v *Vault) Enabled() bool { return v.aead != nil }

// Algorithm returns the configured cipher name.
func (v *Vault) Algorithm() string { return v.algorithm }

// Encrypt trims values, drops empty ones and seals the rest one by one.
func (v *Vault) Encrypt(ctx context.Context, values []string) ([]Record, error) {
	records := make([]Record, 0, len(values))

	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}

		if v.aead == nil {
			records = append(records, Record{Type: TypePlain, Value: value})
			continue
		}

		rec, err := v.seal(value)
		if err != nil {
			return nil, fmt.Errorf("seal secret: %w", err)
		}
		records = append(records, rec)
	}

	if v.aead == nil && len(records) > 0 {
		v.logger.Warn(ctx, "storing secrets as plaintext", "count", len(records))
	}
	return records, nil
}

func (v *Vault) seal(value string) (Record, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Record{}, err
	}

	sealed := v.aead.Seal(nil, nonce, []byte(value), nil)
	split := len(sealed) - v.aead.Overhead()

	return Record{
		Type:       v.algorithm,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(sealed[split:]),
		Ciphertext: base64.StdEncoding.EncodeToString(sealed[:split]),
	}, nil
}

package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/switchboard/pkg/domain"
)

// SchemaSealedV1 tags an encrypted checkpoint.
const SchemaSealedV1 = "switchboard.sealed/v1"

// ErrKeySize is returned when an encryption key is not 32 bytes.
var ErrKeySize = errors.New("key must be 32 bytes (AES-256)")

// KeyConfig holds the keys for encryption and decryption.
type KeyConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type sealedEnvelope struct {
	Schema     string `json:"schema"`
	Ciphertext string `json:"ciphertext"`
}

// Sealed encrypts the output of an inner codec using AES-GCM (envelope encryption).
type Sealed struct {
	inner  Codec
	config KeyConfig
}

// NewSealed wraps inner with AES-GCM encryption.
func NewSealed(inner Codec, config KeyConfig) (*Sealed, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrKeySize
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback %w", ErrKeySize)
		}
	}
	if inner == nil {
		inner = Default()
	}
	return &Sealed{inner: inner, config: config}, nil
}

// Encode serializes with the inner codec, then encrypts with the active key.
func (s *Sealed) Encode(state *domain.State) ([]byte, error) {
	plainText, err := s.inner.Encode(state)
	if err != nil {
		return nil, err
	}
	ciphertext, err := encrypt(plainText, s.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt state: %w", err)
	}
	return json.Marshal(sealedEnvelope{
		Schema:     SchemaSealedV1,
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
}

// Decode decrypts with the active key, then each fallback key in order.
func (s *Sealed) Decode(data []byte) (*domain.State, error) {
	var env sealedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sealed envelope: %w", err)
	}
	if env.Schema != SchemaSealedV1 {
		// Fail secure: plain checkpoints are not accepted once encryption is on.
		return nil, fmt.Errorf("%w: expected sealed checkpoint, got %q", ErrUnsupportedSchema, env.Schema)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plainText, err := decryptWithRotation(ciphertext, s.config.ActiveKey, s.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}
	return s.inner.Decode(plainText)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}

package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/hkdf"
)

var (
	masterKeyOnce sync.Once
	masterKey     []byte
	masterKeyPath string = "" // Can be set via SetMasterKeyPath before first use
)

// hkdfInfo domain-separates the derived key from any other use of the same
// key material.
const hkdfInfo = "otpgate/totp-secret-encryption/v1"

// SetMasterKeyPath configures where to load the master encryption key from.
// Must be called before the first Encrypt/Decrypt call to take effect.
// If not set, the key material is read from OTPGATE_MASTER_KEY.
func SetMasterKeyPath(path string) {
	masterKeyPath = path
}

// loadMasterKey loads key material and derives a 32-byte AES-256 key from:
// 1. File specified by masterKeyPath (if set)
// 2. OTPGATE_MASTER_KEY environment variable
// 3. An ephemeral random key for development (secrets won't survive restart)
func loadMasterKey() ([]byte, error) {
	var material []byte

	if masterKeyPath != "" {
		data, err := os.ReadFile(masterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		material = data
	} else if envKey := os.Getenv("OTPGATE_MASTER_KEY"); envKey != "" {
		material = []byte(envKey)
	} else {
		material = make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral master key: %w", err)
		}
	}

	// Derive the actual encryption key with HKDF-SHA256 so raw key files and
	// passphrase-style env values both end up as uniform 32-byte keys.
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	return key, nil
}

func getMasterKey() ([]byte, error) {
	var err error
	masterKeyOnce.Do(func() {
		masterKey, err = loadMasterKey()
	})
	if err != nil {
		return nil, err
	}
	if masterKey == nil {
		return nil, fmt.Errorf("master key unavailable")
	}
	return masterKey, nil
}

// EncryptSecret encrypts a stored secret (e.g. a Base32 TOTP seed) with
// AES-256-GCM. The result is base64url([12-byte nonce][ciphertext][tag]),
// safe to place in a TEXT column.
func EncryptSecret(plaintext string) (string, error) {
	key, err := getMasterKey()
	if err != nil {
		return "", fmt.Errorf("failed to get master key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptSecret reverses EncryptSecret. Any tampering or key mismatch fails
// authentication and returns an error.
func DecryptSecret(encoded string) (string, error) {
	key, err := getMasterKey()
	if err != nil {
		return "", fmt.Errorf("failed to get master key: %w", err)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(sealed) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}

// ResetMasterKeyForTesting resets the master key singleton. Tests only.
func ResetMasterKeyForTesting() {
	masterKeyOnce = sync.Once{}
	masterKey = nil
}

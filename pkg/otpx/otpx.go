// Package otpx provides the one-time-passcode primitives used by the
// challenge service: secure random 6-digit codes, TOTP secret provisioning
// and counter-based code derivation.
package otpx

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

// Digits is the canonical code length. Submitted values of any other shape
// are rejected before comparison.
const Digits = 6

// SecretBytes is the entropy of a provisioned TOTP secret (RFC 4226 minimum
// is 16; we use 20 to match SHA-1 output size).
const SecretBytes = 20

const (
	codeMin  = 100000 // smallest 6-digit code, leading-zero-free
	codeSpan = 900000 // codes are uniform in [codeMin, codeMin+codeSpan)
)

// RandomCode draws a cryptographically secure uniform code in
// [100000, 999999]. Every issuance is independent; no secret is involved.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("otpx: failed to draw random code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// ValidFormat reports whether s is exactly six ASCII digits.
func ValidFormat(s string) bool {
	if len(s) != Digits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NewSecret provisions a fresh Base32-encoded TOTP secret with SecretBytes
// of entropy. The issuer/account pair only affects the otpauth URL embedded
// in the returned key; the secret itself is random.
func NewSecret(issuer, account string, period time.Duration) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      uint(period / time.Second),
		SecretSize:  SecretBytes,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("otpx: failed to generate secret: %w", err)
	}
	return key.Secret(), nil
}

// Counter maps a wall-clock instant onto a TOTP time counter.
func Counter(t time.Time, period time.Duration) uint64 {
	step := int64(period / time.Second)
	if step <= 0 {
		step = 30
	}
	unix := t.Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix) / uint64(step)
}

// DeriveAt computes the 6-digit code for a secret at a specific time counter
// (HMAC-SHA1 with dynamic truncation, per RFC 4226/6238). It is pure: the
// same secret and counter always yield the same code.
func DeriveAt(secret string, counter uint64) (string, error) {
	code, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("otpx: failed to derive code: %w", err)
	}
	return code, nil
}

// MatchWindow checks submitted against the codes for the current counter and
// up to backSteps preceding counters. The window never extends forward: a
// code for a future step is rejected, keeping the replay-acceptance surface
// as narrow as latency tolerance allows.
func MatchWindow(secret, submitted string, at time.Time, period time.Duration, backSteps uint) (bool, error) {
	if !ValidFormat(submitted) {
		return false, nil
	}

	current := Counter(at, period)
	for i := uint64(0); i <= uint64(backSteps); i++ {
		if i > current {
			break // don't underflow before the epoch
		}
		expected, err := DeriveAt(secret, current-i)
		if err != nil {
			return false, err
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAssertionTTL bounds how long a step-up assertion stays usable. The
// host flow consumes it immediately after verification, so it can be short.
const DefaultAssertionTTL = 5 * time.Minute

var ErrInvalidAssertion = errors.New("invalid step-up assertion")

// AssertionSigner mints the signed step-up token handed back to the host
// authentication flow after a successful verification. It asserts that the
// named principal completed the OTP factor, nothing more.
type AssertionSigner struct {
	Secret []byte // HS256 key shared with the host flow
	Issuer string
	TTL    time.Duration    // zero means DefaultAssertionTTL
	Now    func() time.Time // test hook
}

func (a *AssertionSigner) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *AssertionSigner) ttl() time.Duration {
	if a.TTL > 0 {
		return a.TTL
	}
	return DefaultAssertionTTL
}

// Mint signs a fresh assertion for the principal. The amr claim marks which
// factor was satisfied, mirroring OIDC's authentication method references.
func (a *AssertionSigner) Mint(principalID, clientID string) (string, error) {
	if len(a.Secret) == 0 {
		return "", fmt.Errorf("assertion secret not configured")
	}

	now := a.now()
	claims := jwt.MapClaims{
		"iss": a.Issuer,
		"sub": principalID,
		"iat": now.Unix(),
		"exp": now.Add(a.ttl()).Unix(),
		"jti": idx.New().String(),
		"amr": []string{"otp"},
	}
	if clientID != "" {
		claims["aud"] = clientID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an assertion, returning its claims. Exposed
// for the host flow side of the contract and for tests.
func (a *AssertionSigner) Verify(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.Secret, nil
	}, jwt.WithIssuer(a.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidAssertion
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAssertion
	}
	return claims, nil
}

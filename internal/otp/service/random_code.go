package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/otpx"
)

// DefaultCodeTTL is the validity window of a random code from its issue time.
const DefaultCodeTTL = 120 * time.Second

// RandomStrategy issues an independent secure random 6-digit code per
// challenge and stores its fingerprint with an issue timestamp on the
// principal. Codes are single-use: acceptance atomically clears the pair.
type RandomStrategy struct {
	Store store.Store
	TTL   time.Duration     // zero means DefaultCodeTTL
	Now   func() time.Time  // test hook, defaults to time.Now
}

func (s *RandomStrategy) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RandomStrategy) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultCodeTTL
}

// Prepare draws a fresh code. Persisting the fingerprint/timestamp pair is
// deferred to the returned Issue so the caller can sequence it after
// delivery; once persisted, any previously issued code is invalid.
func (s *RandomStrategy) Prepare(ctx context.Context, p domain.Principal) (Issue, error) {
	code, err := otpx.RandomCode()
	if err != nil {
		return Issue{}, fmt.Errorf("failed to issue code: %w", err)
	}

	hash := cryptox.Fingerprint(code)
	issuedAt := strconv.FormatInt(s.now().Unix(), 10)

	return Issue{
		Code: code,
		Persist: func(ctx context.Context) error {
			return s.Store.Principals().SetPendingCode(ctx, p.ID, hash, issuedAt)
		},
	}, nil
}

// Verify checks format, presence, match and expiry in that order, then
// consumes the pending pair inside a single transaction. The transaction
// also serializes a concurrent resend against this acceptance.
func (s *RandomStrategy) Verify(ctx context.Context, principalID, submitted string) error {
	if !otpx.ValidFormat(submitted) {
		return domain.ErrMalformedInput
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		p, err := tx.Principals().GetPrincipal(ctx, principalID)
		if err != nil {
			return err
		}

		if !p.HasPendingCode() {
			return domain.ErrNoPendingChallenge
		}

		if !cryptox.FingerprintEqual(p.PendingCodeHash, cryptox.Fingerprint(submitted)) {
			return domain.ErrMismatch
		}

		issuedAt, err := strconv.ParseInt(p.PendingIssuedAt, 10, 64)
		if err != nil {
			// Corrupt stored state fails closed as a validation failure,
			// never a crash.
			return domain.ErrNoPendingChallenge
		}

		if s.now().Unix()-issuedAt > int64(s.ttl()/time.Second) {
			return domain.ErrExpired
		}

		// Single-use: a second submission of the same code lands in the
		// ErrNoPendingChallenge branch above.
		return tx.Principals().ClearPendingCode(ctx, principalID)
	})
}

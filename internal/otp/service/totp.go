package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/otpx"
)

// DefaultTOTPPeriod is the canonical RFC 6238 time step. Deployments that
// want faster rotation can configure shorter steps (5s is the observed
// minimum in the field).
const DefaultTOTPPeriod = 30 * time.Second

// DefaultTOTPBackSteps is how many preceding time steps a submitted code may
// lag behind. The window is asymmetric on purpose: one step back absorbs
// delivery and typing latency, while accepting future steps would only widen
// the replay surface. Don't make it symmetric without re-justifying that.
const DefaultTOTPBackSteps = 1

// TOTPStrategy derives codes deterministically from a durable per-principal
// secret and the wall clock. Verification is stateless: a code stays valid
// for repeated submission until its time window rotates out. That replay
// tolerance is inherent to stateless TOTP, not a bug.
type TOTPStrategy struct {
	Store     store.Store
	Issuer    string           // label on the provisioned secret (e.g. service name)
	Period    time.Duration    // zero means DefaultTOTPPeriod
	BackSteps uint             // tolerance window size; zero value is honored as "current step only"
	Now       func() time.Time // test hook, defaults to time.Now
}

func (s *TOTPStrategy) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TOTPStrategy) period() time.Duration {
	if s.Period > 0 {
		return s.Period
	}
	return DefaultTOTPPeriod
}

// Prepare derives the code for the current time step, lazily provisioning a
// secret on first use. An existing secret is never regenerated: silently
// rotating it would invalidate every previously issued code.
func (s *TOTPStrategy) Prepare(ctx context.Context, p domain.Principal) (Issue, error) {
	secret := p.TOTPSecret
	if secret == "" {
		fresh, err := otpx.NewSecret(s.Issuer, p.Username, s.period())
		if err != nil {
			return Issue{}, fmt.Errorf("failed to provision secret: %w", err)
		}
		if err := s.Store.Principals().SetTOTPSecret(ctx, p.ID, fresh); err != nil {
			return Issue{}, fmt.Errorf("failed to store secret: %w", err)
		}
		secret = fresh
	}

	code, err := otpx.DeriveAt(secret, otpx.Counter(s.now(), s.period()))
	if err != nil {
		return Issue{}, err
	}

	// No Persist step: verification needs only the secret, which is
	// already durable.
	return Issue{Code: code}, nil
}

// Verify recomputes the expected codes for the current counter and the
// allowed preceding ones. No state is mutated on any path.
func (s *TOTPStrategy) Verify(ctx context.Context, principalID, submitted string) error {
	if !otpx.ValidFormat(submitted) {
		return domain.ErrMalformedInput
	}

	p, err := s.Store.Principals().GetPrincipal(ctx, principalID)
	if err != nil {
		return err
	}

	if p.TOTPSecret == "" {
		return domain.ErrNoSecret
	}

	ok, err := otpx.MatchWindow(p.TOTPSecret, submitted, s.now(), s.period(), s.BackSteps)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrMismatch
	}
	return nil
}

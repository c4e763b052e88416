package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/delivery"
	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

// DefaultSessionTTL is how long a challenge session awaits input before the
// host flow has to start over. Expiry is only ever detected lazily when the
// session is next touched; nothing transitions sessions on a timer.
const DefaultSessionTTL = 10 * time.Minute

// DefaultClientName personalizes the delivered message when the host flow
// doesn't pass a client context.
const DefaultClientName = "otpgate"

// ChallengeService drives the challenge lifecycle:
//
//	Idle -> Challenged -> {Verified | Failed | Expired}
//
// with Challenged looping back to itself on an explicit resend. Generation
// and validation are delegated to the configured Strategy; delivery to the
// configured Gateway.
type ChallengeService struct {
	Store      store.Store
	Strategy   Strategy
	Gateway    delivery.Gateway
	Assertions *AssertionSigner

	DefaultClient string        // fallback for message personalization
	SessionTTL    time.Duration // zero means DefaultSessionTTL
	Now           func() time.Time
}

func (s *ChallengeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ChallengeService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

// Begin enters the OTP step for a principal. Principals without a delivery
// address pass through immediately with no challenge issued. On delivery
// failure the step is terminal: nothing is persisted, so a later fresh
// entry starts clean.
func (s *ChallengeService) Begin(ctx context.Context, principalID, clientID string) (domain.BeginResult, error) {
	log := slogx.FromContext(ctx)

	p, err := s.Store.Principals().GetPrincipal(ctx, principalID)
	if err != nil {
		return domain.BeginResult{}, err
	}

	if p.DeliveryAddress == "" {
		log.Info("principal not enrolled for otp, passing through", "principal_id", p.ID)
		return domain.BeginResult{Status: domain.BeginPassed}, nil
	}

	issue, err := s.Strategy.Prepare(ctx, p)
	if err != nil {
		return domain.BeginResult{}, err
	}

	if err := s.Gateway.Send(ctx, p.DeliveryAddress, s.message(clientID, issue.Code)); err != nil {
		log.Error("code delivery failed on challenge entry", "principal_id", p.ID, "err", err)
		return domain.BeginResult{Status: domain.BeginFailed}, err
	}

	if issue.Persist != nil {
		if err := issue.Persist(ctx); err != nil {
			return domain.BeginResult{}, fmt.Errorf("failed to persist challenge state: %w", err)
		}
	}

	now := s.now().UTC()
	session := domain.ChallengeSession{
		ID:          idx.NewAt(now).String(),
		PrincipalID: p.ID,
		ClientID:    clientID,
		CreatedAt:   now.Format(time.RFC3339),
		ExpiresAt:   now.Add(s.sessionTTL()).Format(time.RFC3339),
	}
	if err := s.Store.Challenges().CreateChallenge(ctx, session); err != nil {
		return domain.BeginResult{}, fmt.Errorf("failed to create challenge session: %w", err)
	}

	log.Info("challenge issued", "principal_id", p.ID, "challenge_id", session.ID)
	return domain.BeginResult{Status: domain.BeginChallenged, ChallengeID: session.ID}, nil
}

// Resend delivers a fresh code for a live session. The random strategy only
// persists its new code after delivery succeeded, so a failed resend leaves
// the previous still-valid code untouched; the TOTP strategy re-derives
// from the existing secret and has nothing to invalidate either way.
func (s *ChallengeService) Resend(ctx context.Context, challengeID string) (domain.SubmitResult, error) {
	log := slogx.FromContext(ctx)

	session, ok, err := s.liveSession(ctx, challengeID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if !ok {
		return domain.SubmitResult{Status: domain.SubmitFatal}, nil
	}

	p, err := s.Store.Principals().GetPrincipal(ctx, session.PrincipalID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	issue, err := s.Strategy.Prepare(ctx, p)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	if err := s.Gateway.Send(ctx, p.DeliveryAddress, s.message(session.ClientID, issue.Code)); err != nil {
		log.Error("code delivery failed on resend", "challenge_id", session.ID, "err", err)
		return domain.SubmitResult{}, err
	}

	if issue.Persist != nil {
		if err := issue.Persist(ctx); err != nil {
			return domain.SubmitResult{}, fmt.Errorf("failed to persist challenge state: %w", err)
		}
	}

	log.Info("challenge code resent", "challenge_id", session.ID)
	return domain.SubmitResult{Status: domain.SubmitResent}, nil
}

// Submit validates a submitted code against a live session. Credential
// failures count toward the session's attempt cap; delivery problems never
// reach this path so they never consume attempts.
func (s *ChallengeService) Submit(ctx context.Context, challengeID, submitted string) (domain.SubmitResult, error) {
	log := slogx.FromContext(ctx)

	session, ok, err := s.liveSession(ctx, challengeID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if !ok {
		return domain.SubmitResult{Status: domain.SubmitFatal}, nil
	}

	verr := s.Strategy.Verify(ctx, session.PrincipalID, submitted)
	if verr == nil {
		if err := s.Store.Challenges().DeleteChallenge(ctx, session.ID); err != nil {
			return domain.SubmitResult{}, fmt.Errorf("failed to consume challenge session: %w", err)
		}

		result := domain.SubmitResult{Status: domain.SubmitVerified}
		if s.Assertions != nil {
			token, err := s.Assertions.Mint(session.PrincipalID, session.ClientID)
			if err != nil {
				return domain.SubmitResult{}, fmt.Errorf("failed to mint step-up assertion: %w", err)
			}
			result.StepUpToken = token
		}

		log.Info("challenge verified", "challenge_id", session.ID, "principal_id", session.PrincipalID)
		return result, nil
	}

	if !isValidationError(verr) {
		return domain.SubmitResult{}, verr
	}

	log.Warn("challenge submission rejected",
		"challenge_id", session.ID, "reason", verr.Error())

	updated, err := s.Store.Challenges().IncrementChallengeAttempts(ctx, session.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Session vanished underneath us (concurrent consume/reap).
			return domain.SubmitResult{Status: domain.SubmitFatal}, nil
		}
		return domain.SubmitResult{}, err
	}

	if updated.Attempts >= domain.MaxChallengeAttempts {
		_ = s.Store.Challenges().DeleteChallenge(ctx, session.ID)
		log.Warn("challenge attempts exhausted", "challenge_id", session.ID)
		return domain.SubmitResult{Status: domain.SubmitFatal}, nil
	}

	reason := domain.ReasonInvalidCode
	if errors.Is(verr, domain.ErrExpired) {
		// Expiry gets its own user-facing message encouraging a resend.
		// Everything else collapses into one generic rejection so the
		// response doesn't reveal whether a challenge or secret exists.
		reason = domain.ReasonCodeExpired
	}
	return domain.SubmitResult{Status: domain.SubmitRetry, Reason: reason}, nil
}

// liveSession loads a session and lazily reaps it when past expiry.
func (s *ChallengeService) liveSession(ctx context.Context, id string) (domain.ChallengeSession, bool, error) {
	session, err := s.Store.Challenges().GetChallenge(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ChallengeSession{}, false, nil
	}
	if err != nil {
		return domain.ChallengeSession{}, false, err
	}

	expiresAt, err := time.Parse(time.RFC3339, session.ExpiresAt)
	if err != nil || !s.now().Before(expiresAt) {
		// Unparseable expiry fails closed, same as a stale session.
		_ = s.Store.Challenges().DeleteChallenge(ctx, session.ID)
		return domain.ChallengeSession{}, false, nil
	}

	return session, true, nil
}

func (s *ChallengeService) message(clientID, code string) string {
	client := clientID
	if client == "" {
		client = s.DefaultClient
	}
	if client == "" {
		client = DefaultClientName
	}
	return fmt.Sprintf("Your one-time code for %s is: %s", client, code)
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrMalformedInput) ||
		errors.Is(err, domain.ErrMismatch) ||
		errors.Is(err, domain.ErrNoPendingChallenge) ||
		errors.Is(err, domain.ErrNoSecret) ||
		errors.Is(err, domain.ErrExpired)
}

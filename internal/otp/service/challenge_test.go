package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/delivery"
	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/otpx"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	Address string
	Text    string
}

// fakeGateway records deliveries and can be told to fail.
type fakeGateway struct {
	mu       sync.Mutex
	sent     []sentMessage
	failNext error
}

func (g *fakeGateway) Send(ctx context.Context, address, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext != nil {
		err := g.failNext
		g.failNext = nil
		return err
	}
	g.sent = append(g.sent, sentMessage{Address: address, Text: text})
	return nil
}

func (g *fakeGateway) lastMessage(t *testing.T) sentMessage {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.sent)
	return g.sent[len(g.sent)-1]
}

// lastCode extracts the trailing 6-digit code from the delivered text.
func (g *fakeGateway) lastCode(t *testing.T) string {
	t.Helper()
	msg := g.lastMessage(t)
	require.GreaterOrEqual(t, len(msg.Text), otpx.Digits)
	code := msg.Text[len(msg.Text)-otpx.Digits:]
	require.True(t, otpx.ValidFormat(code))
	return code
}

func newChallengeService(st store.Store, gw delivery.Gateway) *service.ChallengeService {
	return &service.ChallengeService{
		Store:    st,
		Strategy: &service.RandomStrategy{Store: st},
		Gateway:  gw,
		Assertions: &service.AssertionSigner{
			Secret: []byte("challenge-test-assertion-secret"),
			Issuer: "otpgate",
		},
	}
}

func TestBeginPassesThroughWithoutDeliveryAddress(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "") // not enrolled

	result, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)
	require.Equal(t, domain.BeginPassed, result.Status)
	require.Empty(t, result.ChallengeID)
	require.Empty(t, gw.sent) // nothing delivered
}

func TestBeginIssuesAndDeliversChallenge(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	result, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)
	require.Equal(t, domain.BeginChallenged, result.Status)
	require.NotEmpty(t, result.ChallengeID)

	msg := gw.lastMessage(t)
	require.Equal(t, "chat-42", msg.Address)
	require.Contains(t, msg.Text, "portal")
	require.Contains(t, msg.Text, gw.lastCode(t))

	session, err := st.Challenges().GetChallenge(ctx, result.ChallengeID)
	require.NoError(t, err)
	require.Equal(t, p.ID, session.PrincipalID)
	require.Equal(t, "portal", session.ClientID)
}

func TestBeginUsesFallbackClientName(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	_, err := svc.Begin(ctx, p.ID, "")
	require.NoError(t, err)
	require.Contains(t, gw.lastMessage(t).Text, service.DefaultClientName)
}

func TestBeginDeliveryFailureIsTerminalAndClean(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{failNext: &delivery.Error{Gateway: "relay", Err: context.DeadlineExceeded}}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	result, err := svc.Begin(ctx, p.ID, "portal")
	require.Error(t, err)
	require.True(t, delivery.IsError(err))
	require.Equal(t, domain.BeginFailed, result.Status)

	// Nothing was persisted: no dangling code, no session. A fresh entry
	// starts clean.
	stored, err := st.Principals().GetPrincipal(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, stored.HasPendingCode())

	retry, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)
	require.Equal(t, domain.BeginChallenged, retry.Status)
}

func TestSubmitVerifiesAndMintsAssertion(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)

	result, err := svc.Submit(ctx, begin.ChallengeID, gw.lastCode(t))
	require.NoError(t, err)
	require.Equal(t, domain.SubmitVerified, result.Status)
	require.NotEmpty(t, result.StepUpToken)

	claims, err := svc.Assertions.Verify(result.StepUpToken)
	require.NoError(t, err)
	require.Equal(t, p.ID, claims["sub"])
	require.Equal(t, "portal", claims["aud"])

	// The session was consumed; resubmitting the same code is fatal.
	replay, err := svc.Submit(ctx, begin.ChallengeID, gw.lastCode(t))
	require.NoError(t, err)
	require.Equal(t, domain.SubmitFatal, replay.Status)
}

func TestSubmitWrongCodeAllowsRetry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == gw.lastCode(t) {
		wrong = "000001"
	}

	result, err := svc.Submit(ctx, begin.ChallengeID, wrong)
	require.NoError(t, err)
	require.Equal(t, domain.SubmitRetry, result.Status)
	require.Equal(t, domain.ReasonInvalidCode, result.Reason)

	// Still recoverable: the correct code goes through.
	result, err = svc.Submit(ctx, begin.ChallengeID, gw.lastCode(t))
	require.NoError(t, err)
	require.Equal(t, domain.SubmitVerified, result.Status)
}

func TestSubmitMalformedInputIsGenericRejection(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)

	result, err := svc.Submit(ctx, begin.ChallengeID, "12a456")
	require.NoError(t, err)
	require.Equal(t, domain.SubmitRetry, result.Status)
	require.Equal(t, domain.ReasonInvalidCode, result.Reason)
}

func TestSubmitExpiredCodeReportsExpiry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	svc.Now = func() time.Time { return now }
	svc.Strategy = &service.RandomStrategy{Store: st, Now: func() time.Time { return now }}

	p := createPrincipal(t, st, "chat-42")
	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)

	now = now.Add(service.DefaultCodeTTL + time.Second)

	result, err := svc.Submit(ctx, begin.ChallengeID, gw.lastCode(t))
	require.NoError(t, err)
	require.Equal(t, domain.SubmitRetry, result.Status)
	require.Equal(t, domain.ReasonCodeExpired, result.Reason)
}

func TestSubmitAttemptsExhaustionIsFatal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == gw.lastCode(t) {
		wrong = "000001"
	}

	var result domain.SubmitResult
	for i := 0; i < domain.MaxChallengeAttempts; i++ {
		result, err = svc.Submit(ctx, begin.ChallengeID, wrong)
		require.NoError(t, err)
	}
	require.Equal(t, domain.SubmitFatal, result.Status)

	// Session is gone, even for the correct code.
	after, err := svc.Submit(ctx, begin.ChallengeID, gw.lastCode(t))
	require.NoError(t, err)
	require.Equal(t, domain.SubmitFatal, after.Status)
}

func TestSubmitUnknownChallengeIsFatal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	svc := newChallengeService(st, &fakeGateway{})

	result, err := svc.Submit(ctx, "01JUNKJUNKJUNKJUNKJUNKJUNK", "123456")
	require.NoError(t, err)
	require.Equal(t, domain.SubmitFatal, result.Status)
}

func TestSubmitExpiredSessionIsFatal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	svc.Now = func() time.Time { return now }

	p := createPrincipal(t, st, "chat-42")
	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)

	now = now.Add(service.DefaultSessionTTL + time.Minute)

	result, err := svc.Submit(ctx, begin.ChallengeID, gw.lastCode(t))
	require.NoError(t, err)
	require.Equal(t, domain.SubmitFatal, result.Status)
}

func TestResendReplacesCode(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)
	oldCode := gw.lastCode(t)

	resend, err := svc.Resend(ctx, begin.ChallengeID)
	require.NoError(t, err)
	require.Equal(t, domain.SubmitResent, resend.Status)
	newCode := gw.lastCode(t)

	if oldCode != newCode {
		// The old code was invalidated by the successful resend even
		// though its original window hasn't passed.
		result, err := svc.Submit(ctx, begin.ChallengeID, oldCode)
		require.NoError(t, err)
		require.Equal(t, domain.SubmitRetry, result.Status)
	}

	result, err := svc.Submit(ctx, begin.ChallengeID, newCode)
	require.NoError(t, err)
	require.Equal(t, domain.SubmitVerified, result.Status)
}

func TestResendDeliveryFailureKeepsPriorCodeValid(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	p := createPrincipal(t, st, "chat-42")

	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)
	oldCode := gw.lastCode(t)

	gw.failNext = &delivery.Error{Gateway: "relay", Err: context.DeadlineExceeded}
	_, err = svc.Resend(ctx, begin.ChallengeID)
	require.Error(t, err)
	require.True(t, delivery.IsError(err))

	// Delivery happens before the new code is persisted, so the failed
	// resend did not invalidate the code the user already has.
	result, err := svc.Submit(ctx, begin.ChallengeID, oldCode)
	require.NoError(t, err)
	require.Equal(t, domain.SubmitVerified, result.Status)
}

func TestResendUnknownChallengeIsFatal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	svc := newChallengeService(st, &fakeGateway{})

	result, err := svc.Resend(ctx, "01JUNKJUNKJUNKJUNKJUNKJUNK")
	require.NoError(t, err)
	require.Equal(t, domain.SubmitFatal, result.Status)
}

func TestChallengeServiceWithTOTPStrategy(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{}
	svc := newChallengeService(st, gw)
	svc.Strategy = &service.TOTPStrategy{Store: st, Issuer: "otpgate", BackSteps: 1}

	p := createPrincipal(t, st, "chat-42")

	begin, err := svc.Begin(ctx, p.ID, "portal")
	require.NoError(t, err)
	require.Equal(t, domain.BeginChallenged, begin.Status)

	// Resend re-derives from the existing secret; with a 30s step both
	// messages carry the same code within a window.
	_, err = svc.Resend(ctx, begin.ChallengeID)
	require.NoError(t, err)

	result, err := svc.Submit(ctx, begin.ChallengeID, gw.lastCode(t))
	require.NoError(t, err)
	require.Equal(t, domain.SubmitVerified, result.Status)
}

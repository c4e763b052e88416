package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/internal/otp/store/drivers/sqlite"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/aussiebroadwan/otpgate/pkg/otpx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	t.Setenv("OTPGATE_MASTER_KEY", "service-test-master-key")
	cryptox.ResetMasterKeyForTesting()
	t.Cleanup(cryptox.ResetMasterKeyForTesting)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func createPrincipal(t *testing.T, st store.Store, address string) domain.Principal {
	t.Helper()
	p := domain.Principal{
		ID:              idx.New().String(),
		Username:        "user-" + idx.New().String(),
		DeliveryAddress: address,
	}
	require.NoError(t, st.Principals().CreatePrincipal(context.Background(), p))
	return p
}

// issueCode runs Prepare and immediately persists, the way a successful
// delivery would.
func issueCode(t *testing.T, strategy *service.RandomStrategy, p domain.Principal) string {
	t.Helper()
	issue, err := strategy.Prepare(context.Background(), p)
	require.NoError(t, err)
	require.True(t, otpx.ValidFormat(issue.Code))
	require.NotNil(t, issue.Persist)
	require.NoError(t, issue.Persist(context.Background()))
	return issue.Code
}

func TestRandomRoundTripIsSingleUse(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	strategy := &service.RandomStrategy{Store: st}
	p := createPrincipal(t, st, "chat-1")
	code := issueCode(t, strategy, p)

	require.NoError(t, strategy.Verify(ctx, p.ID, code))

	// The accepted code was consumed; replaying it finds no challenge.
	require.ErrorIs(t, strategy.Verify(ctx, p.ID, code), domain.ErrNoPendingChallenge)
}

func TestRandomVerifyMismatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	strategy := &service.RandomStrategy{Store: st}
	p := createPrincipal(t, st, "chat-1")
	code := issueCode(t, strategy, p)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	require.ErrorIs(t, strategy.Verify(ctx, p.ID, wrong), domain.ErrMismatch)

	// The rejection was side-effect-free: the right code still works.
	require.NoError(t, strategy.Verify(ctx, p.ID, code))
}

func TestRandomVerifyExpiryBoundary(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	issuedAt := time.Unix(1_700_000_000, 0)
	now := issuedAt
	strategy := &service.RandomStrategy{
		Store: st,
		Now:   func() time.Time { return now },
	}

	p := createPrincipal(t, st, "chat-1")
	code := issueCode(t, strategy, p)

	t.Run("one second before the window closes", func(t *testing.T) {
		now = issuedAt.Add(service.DefaultCodeTTL - time.Second)
		require.NoError(t, strategy.Verify(ctx, p.ID, code))
	})

	code = issueCode(t, strategy, p)

	t.Run("one second past the window", func(t *testing.T) {
		now = issuedAt.Add(service.DefaultCodeTTL + time.Second)
		require.ErrorIs(t, strategy.Verify(ctx, p.ID, code), domain.ErrExpired)
	})
}

func TestRandomVerifyMalformedInput(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	strategy := &service.RandomStrategy{Store: st}
	p := createPrincipal(t, st, "chat-1")
	issueCode(t, strategy, p)

	for _, submitted := range []string{"", "12345", "1234567", "12a456", "abcdef"} {
		require.ErrorIs(t, strategy.Verify(ctx, p.ID, submitted), domain.ErrMalformedInput, submitted)
	}
}

func TestRandomVerifyNoPendingChallenge(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	strategy := &service.RandomStrategy{Store: st}
	p := createPrincipal(t, st, "chat-1")

	require.ErrorIs(t, strategy.Verify(ctx, p.ID, "123456"), domain.ErrNoPendingChallenge)
}

func TestRandomVerifyCorruptTimestampFailsClosed(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	strategy := &service.RandomStrategy{Store: st}
	p := createPrincipal(t, st, "chat-1")

	// Plant a pending pair with an unparseable timestamp.
	code := "123456"
	require.NoError(t, st.Principals().SetPendingCode(ctx, p.ID, cryptox.Fingerprint(code), "not-a-number"))

	require.ErrorIs(t, strategy.Verify(ctx, p.ID, code), domain.ErrNoPendingChallenge)
}

func TestRandomReissueInvalidatesPreviousCode(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	strategy := &service.RandomStrategy{Store: st}
	p := createPrincipal(t, st, "chat-1")

	first := issueCode(t, strategy, p)
	second := issueCode(t, strategy, p)

	if first != second {
		require.ErrorIs(t, strategy.Verify(ctx, p.ID, first), domain.ErrMismatch)
	}
	require.NoError(t, strategy.Verify(ctx, p.ID, second))
}

package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/internal/otp/store/drivers/sqlite"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	t.Setenv("OTPGATE_MASTER_KEY", "store-test-master-key")
	cryptox.ResetMasterKeyForTesting()
	t.Cleanup(cryptox.ResetMasterKeyForTesting)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newPrincipal(t *testing.T, st store.Store, address string) domain.Principal {
	t.Helper()
	p := domain.Principal{
		ID:              idx.New().String(),
		Username:        "user-" + idx.New().String(),
		DeliveryAddress: address,
	}
	require.NoError(t, st.Principals().CreatePrincipal(context.Background(), p))
	return p
}

func TestPrincipalRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created := newPrincipal(t, st, "chat-42")

	got, err := st.Principals().GetPrincipal(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, created.Username, got.Username)
	require.Equal(t, "chat-42", got.DeliveryAddress)
	require.Empty(t, got.TOTPSecret)
	require.False(t, got.HasPendingCode())

	_, err = st.Principals().GetPrincipal(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreatePrincipalDuplicateUsername(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := newPrincipal(t, st, "chat-1")
	dup := domain.Principal{ID: idx.New().String(), Username: p.Username}
	require.ErrorIs(t, st.Principals().CreatePrincipal(ctx, dup), store.ErrAlreadyExists)
}

func TestPendingCodePairWrittenAndClearedTogether(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := newPrincipal(t, st, "chat-1")

	require.NoError(t, st.Principals().SetPendingCode(ctx, p.ID, "hash-abc", "1700000000"))

	got, err := st.Principals().GetPrincipal(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, got.HasPendingCode())
	require.Equal(t, "hash-abc", got.PendingCodeHash)
	require.Equal(t, "1700000000", got.PendingIssuedAt)

	require.NoError(t, st.Principals().ClearPendingCode(ctx, p.ID))

	got, err = st.Principals().GetPrincipal(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, got.HasPendingCode())
	require.Empty(t, got.PendingCodeHash)
	require.Empty(t, got.PendingIssuedAt)
}

func TestPendingCodeUnknownPrincipal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.Principals().SetPendingCode(ctx, idx.New().String(), "h", "1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTOTPSecretStoredEncrypted(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := newPrincipal(t, st, "chat-1")
	const secret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

	require.NoError(t, st.Principals().SetTOTPSecret(ctx, p.ID, secret))

	got, err := st.Principals().GetPrincipal(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, secret, got.TOTPSecret)
}

func TestChallengeSessionLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := newPrincipal(t, st, "chat-1")
	now := time.Now().UTC()
	session := domain.ChallengeSession{
		ID:          idx.New().String(),
		PrincipalID: p.ID,
		ClientID:    "portal",
		CreatedAt:   now.Format(time.RFC3339),
		ExpiresAt:   now.Add(10 * time.Minute).Format(time.RFC3339),
	}
	require.NoError(t, st.Challenges().CreateChallenge(ctx, session))

	got, err := st.Challenges().GetChallenge(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, session.PrincipalID, got.PrincipalID)
	require.Equal(t, "portal", got.ClientID)
	require.Zero(t, got.Attempts)

	for i := 1; i <= 3; i++ {
		got, err = st.Challenges().IncrementChallengeAttempts(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, i, got.Attempts)
	}

	require.NoError(t, st.Challenges().DeleteChallenge(ctx, session.ID))
	_, err = st.Challenges().GetChallenge(ctx, session.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteExpiredChallenges(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := newPrincipal(t, st, "chat-1")
	now := time.Now().UTC()

	expired := domain.ChallengeSession{
		ID:          idx.New().String(),
		PrincipalID: p.ID,
		CreatedAt:   now.Add(-20 * time.Minute).Format(time.RFC3339),
		ExpiresAt:   now.Add(-10 * time.Minute).Format(time.RFC3339),
	}
	live := domain.ChallengeSession{
		ID:          idx.New().String(),
		PrincipalID: p.ID,
		CreatedAt:   now.Format(time.RFC3339),
		ExpiresAt:   now.Add(10 * time.Minute).Format(time.RFC3339),
	}
	require.NoError(t, st.Challenges().CreateChallenge(ctx, expired))
	require.NoError(t, st.Challenges().CreateChallenge(ctx, live))

	require.NoError(t, st.Challenges().DeleteExpiredChallenges(ctx))

	_, err := st.Challenges().GetChallenge(ctx, expired.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Challenges().GetChallenge(ctx, live.ID)
	require.NoError(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := newPrincipal(t, st, "chat-1")
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Principals().SetPendingCode(ctx, p.ID, "hash", "1700000000"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := st.Principals().GetPrincipal(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, got.HasPendingCode())
}

package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. It deliberately exposes only the
// narrow typed operations the OTP lifecycle needs, rather than a raw
// attribute bag.
type Store interface {
	Principals() Principals
	Challenges() Challenges

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and
	// rolling back on error. Multi-step mutations of per-principal state
	// (the consume-on-success path in particular) go through this so a
	// resend racing a validation serializes at the storage layer.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Principals interface {
	// GetPrincipal returns a principal by id with its TOTP secret already
	// decrypted.
	GetPrincipal(ctx context.Context, id string) (domain.Principal, error)

	// CreatePrincipal inserts a new principal (id is app-provided ULID).
	CreatePrincipal(ctx context.Context, p domain.Principal) error

	// SetPendingCode writes the code fingerprint and issue timestamp as a
	// single statement; the pair is never written independently.
	SetPendingCode(ctx context.Context, principalID, codeHash, issuedAt string) error

	// ClearPendingCode removes both halves of the pending pair.
	ClearPendingCode(ctx context.Context, principalID string) error

	// SetTOTPSecret stores the Base32 secret, encrypted at rest.
	SetTOTPSecret(ctx context.Context, principalID, secret string) error
}

type Challenges interface {
	// CreateChallenge stores a new challenge session.
	CreateChallenge(ctx context.Context, s domain.ChallengeSession) error

	// GetChallenge returns a session by its token.
	GetChallenge(ctx context.Context, id string) (domain.ChallengeSession, error)

	// IncrementChallengeAttempts bumps the failed-attempt counter and
	// returns the updated session.
	IncrementChallengeAttempts(ctx context.Context, id string) (domain.ChallengeSession, error)

	// DeleteChallenge removes a session (consumed or abandoned).
	DeleteChallenge(ctx context.Context, id string) error

	// DeleteExpiredChallenges reaps sessions past their expiry.
	DeleteExpiredChallenges(ctx context.Context) error
}

package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
)

type challengesRepo struct {
	db dbtx
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, s domain.ChallengeSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO challenge_sessions (id, principal_id, client_id, attempts, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.PrincipalID, s.ClientID, s.Attempts, s.CreatedAt, s.ExpiresAt)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *challengesRepo) GetChallenge(ctx context.Context, id string) (domain.ChallengeSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, principal_id, client_id, attempts, created_at, expires_at
		FROM challenge_sessions WHERE id = ?`, id)

	var s domain.ChallengeSession
	if err := row.Scan(&s.ID, &s.PrincipalID, &s.ClientID, &s.Attempts, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return domain.ChallengeSession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *challengesRepo) IncrementChallengeAttempts(ctx context.Context, id string) (domain.ChallengeSession, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE challenge_sessions SET attempts = attempts + 1
		WHERE id = ?
		RETURNING id, principal_id, client_id, attempts, created_at, expires_at`, id)

	var s domain.ChallengeSession
	if err := row.Scan(&s.ID, &s.PrincipalID, &s.ClientID, &s.Attempts, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return domain.ChallengeSession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *challengesRepo) DeleteChallenge(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM challenge_sessions WHERE id = ?`, id)
	return err
}

// DeleteExpiredChallenges reaps sessions past expiry. RFC3339 UTC strings
// compare lexicographically in timestamp order, so plain string comparison
// is correct here.
func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `DELETE FROM challenge_sessions WHERE expires_at <= ?`, now)
	return err
}

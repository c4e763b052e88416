package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
)

type principalsRepo struct {
	db dbtx
}

func (r *principalsRepo) GetPrincipal(ctx context.Context, id string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, delivery_address, totp_secret, pending_code_hash, pending_issued_at
		FROM principals WHERE id = ?`, id)

	var (
		p                      domain.Principal
		secret, codeHash, issuedAt sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Username, &p.DeliveryAddress, &secret, &codeHash, &issuedAt); err != nil {
		return domain.Principal{}, mapNotFound(err)
	}

	if secret.Valid && secret.String != "" {
		plain, err := cryptox.DecryptSecret(secret.String)
		if err != nil {
			return domain.Principal{}, fmt.Errorf("failed to decrypt totp secret: %w", err)
		}
		p.TOTPSecret = plain
	}
	p.PendingCodeHash = mapNullString(codeHash)
	p.PendingIssuedAt = mapNullString(issuedAt)

	return p, nil
}

func (r *principalsRepo) CreatePrincipal(ctx context.Context, p domain.Principal) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var secret sql.NullString
	if p.TOTPSecret != "" {
		sealed, err := cryptox.EncryptSecret(p.TOTPSecret)
		if err != nil {
			return fmt.Errorf("failed to encrypt totp secret: %w", err)
		}
		secret = sql.NullString{String: sealed, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO principals (id, username, delivery_address, totp_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Username, p.DeliveryAddress, secret, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SetPendingCode writes the hash/timestamp pair in one statement so the two
// halves can never diverge.
func (r *principalsRepo) SetPendingCode(ctx context.Context, principalID, codeHash, issuedAt string) error {
	return r.update(ctx, `
		UPDATE principals
		SET pending_code_hash = ?, pending_issued_at = ?, updated_at = ?
		WHERE id = ?`,
		codeHash, issuedAt, time.Now().UTC().Format(time.RFC3339), principalID)
}

func (r *principalsRepo) ClearPendingCode(ctx context.Context, principalID string) error {
	return r.update(ctx, `
		UPDATE principals
		SET pending_code_hash = NULL, pending_issued_at = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), principalID)
}

func (r *principalsRepo) SetTOTPSecret(ctx context.Context, principalID, secret string) error {
	sealed, err := cryptox.EncryptSecret(secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt totp secret: %w", err)
	}
	return r.update(ctx, `
		UPDATE principals
		SET totp_secret = ?, updated_at = ?
		WHERE id = ?`,
		sealed, time.Now().UTC().Format(time.RFC3339), principalID)
}

func (r *principalsRepo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

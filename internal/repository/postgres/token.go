package postgres

import (
	"context"
	"time"

	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
)

const msgInvalidTokenID = "token id must be a UUID"

// TokenRepository persists the signing secret in system_config and the
// revocation ledger in revoked_tokens.
type TokenRepository struct {
	db *DB
}

func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) GetSecret(ctx context.Context) (string, bool, error) {
	query := `SELECT value FROM system_config WHERE key = $1`

	var value string
	err := r.db.Pool.QueryRow(ctx, query, jwtSecretKey).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, errFailedGetSecret(err)
	}

	return value, true, nil
}

// InsertSecretIfAbsent leaves an existing secret untouched and returns
// whichever value is persisted once the statement completes.
func (r *TokenRepository) InsertSecretIfAbsent(ctx context.Context, value string) (string, error) {
	insert := `
		INSERT INTO system_config (key, value, is_secret)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (key) DO NOTHING
	`

	if _, err := r.db.Pool.Exec(ctx, insert, jwtSecretKey, value); err != nil {
		return "", errFailedInsertSecret(err)
	}

	persisted, found, err := r.GetSecret(ctx)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errFailedInsertSecret(apperrors.ErrNotFound)
	}

	return persisted, nil
}

func (r *TokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	id, err := uuid.Parse(jti)
	if err != nil {
		return apperrors.BadRequest(msgInvalidTokenID)
	}

	query := `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, expiresAt); err != nil {
		return errFailedRevokeToken(err)
	}

	return nil
}

func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	id, err := uuid.Parse(jti)
	if err != nil {
		// Never issued by us, so never recorded.
		return false, nil
	}

	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`

	var revoked bool
	if err := r.db.Pool.QueryRow(ctx, query, id).Scan(&revoked); err != nil {
		return false, errFailedCheckRevoked(err)
	}

	return revoked, nil
}

func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at < $1`

	tag, err := r.db.Pool.Exec(ctx, query, now)
	if err != nil {
		return 0, errFailedPurgeRevoked(err)
	}

	return tag.RowsAffected(), nil
}

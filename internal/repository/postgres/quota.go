package postgres

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
)

const msgQuotaExceeded = "storage quota exceeded"

type QuotaRepository struct {
	db *DB
}

func NewQuotaRepository(db *DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

func (r *QuotaRepository) Get(ctx context.Context, userID uuid.UUID) (*file.Quota, error) {
	query := `
		SELECT user_id, quota_limit, quota_used, updated_at
		FROM user_quotas WHERE user_id = $1
	`

	q := &file.Quota{}
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&q.UserID, &q.Limit, &q.Used, &q.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errQuotaNotFound)
		}
		return nil, errFailedGetQuota(err)
	}

	return q, nil
}

// Reserve adds bytes to the user's usage in a single conditional update so
// concurrent uploads cannot overshoot the limit.
func (r *QuotaRepository) Reserve(ctx context.Context, userID uuid.UUID, bytes, defaultLimit int64) (*file.Quota, error) {
	ensure := `
		INSERT INTO user_quotas (user_id, quota_limit)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.Pool.Exec(ctx, ensure, userID, defaultLimit); err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedReserveQuota(err)
	}

	update := `
		UPDATE user_quotas
		SET quota_used = quota_used + $2, updated_at = NOW()
		WHERE user_id = $1 AND (quota_limit = 0 OR quota_used + $2 <= quota_limit)
		RETURNING user_id, quota_limit, quota_used, updated_at
	`

	q := &file.Quota{}
	err := r.db.Pool.QueryRow(ctx, update, userID, bytes).Scan(&q.UserID, &q.Limit, &q.Used, &q.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.QuotaExceeded(msgQuotaExceeded)
		}
		return nil, errFailedReserveQuota(err)
	}

	return q, nil
}

func (r *QuotaRepository) Release(ctx context.Context, userID uuid.UUID, bytes int64) error {
	query := `
		UPDATE user_quotas
		SET quota_used = GREATEST(0, quota_used - $2), updated_at = NOW()
		WHERE user_id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, userID, bytes); err != nil {
		return errFailedReleaseQuota(err)
	}
	return nil
}

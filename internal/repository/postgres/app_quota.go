package postgres

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
)

type AppQuotaRepository struct {
	db *DB
}

func NewAppQuotaRepository(db *DB) *AppQuotaRepository {
	return &AppQuotaRepository{db: db}
}

func (r *AppQuotaRepository) Get(ctx context.Context, appID string) (*file.AppQuota, error) {
	query := `
		SELECT app_id, quota_limit, quota_used, updated_at
		FROM app_quotas WHERE app_id = $1
	`

	q := &file.AppQuota{}
	err := r.db.Pool.QueryRow(ctx, query, appID).Scan(&q.AppID, &q.Limit, &q.Used, &q.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errAppQuotaNotFound)
		}
		return nil, errFailedGetAppQuota(err)
	}

	return q, nil
}

// Reserve mirrors QuotaRepository.Reserve for app namespaces.
func (r *AppQuotaRepository) Reserve(ctx context.Context, appID string, bytes, defaultLimit int64) (*file.AppQuota, error) {
	ensure := `
		INSERT INTO app_quotas (app_id, quota_limit)
		VALUES ($1, $2)
		ON CONFLICT (app_id) DO NOTHING
	`
	if _, err := r.db.Pool.Exec(ctx, ensure, appID, defaultLimit); err != nil {
		return nil, errFailedReserveAppQuota(err)
	}

	update := `
		UPDATE app_quotas
		SET quota_used = quota_used + $2, updated_at = NOW()
		WHERE app_id = $1 AND (quota_limit = 0 OR quota_used + $2 <= quota_limit)
		RETURNING app_id, quota_limit, quota_used, updated_at
	`

	q := &file.AppQuota{}
	err := r.db.Pool.QueryRow(ctx, update, appID, bytes).Scan(&q.AppID, &q.Limit, &q.Used, &q.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.QuotaExceeded(msgQuotaExceeded)
		}
		return nil, errFailedReserveAppQuota(err)
	}

	return q, nil
}

func (r *AppQuotaRepository) Release(ctx context.Context, appID string, bytes int64) error {
	query := `
		UPDATE app_quotas
		SET quota_used = GREATEST(0, quota_used - $2), updated_at = NOW()
		WHERE app_id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, appID, bytes); err != nil {
		return errFailedReleaseAppQuota(err)
	}
	return nil
}

func (r *AppQuotaRepository) SetLimit(ctx context.Context, appID string, limit int64) (*file.AppQuota, error) {
	query := `
		INSERT INTO app_quotas (app_id, quota_limit)
		VALUES ($1, $2)
		ON CONFLICT (app_id) DO UPDATE SET quota_limit = EXCLUDED.quota_limit, updated_at = NOW()
		RETURNING app_id, quota_limit, quota_used, updated_at
	`

	q := &file.AppQuota{}
	if err := r.db.Pool.QueryRow(ctx, query, appID, limit).Scan(&q.AppID, &q.Limit, &q.Used, &q.UpdatedAt); err != nil {
		return nil, errFailedSetAppQuota(err)
	}
	return q, nil
}

package postgres

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/volume"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const volumeColumns = `id, name, driver, config, default_prefix, quota_limit, quota_used, is_active, created_at, updated_at`

// VolumeRepository stores storage volumes. Driver config lives in a jsonb column.
type VolumeRepository struct {
	db *DB
}

func NewVolumeRepository(db *DB) *VolumeRepository {
	return &VolumeRepository{db: db}
}

func (r *VolumeRepository) Create(ctx context.Context, input *volume.CreateVolumeInput) (*volume.Volume, error) {
	config, err := json.Marshal(input.Config)
	if err != nil {
		return nil, errFailedEncodeVolume(err)
	}

	query := `
		INSERT INTO storage_volumes (name, driver, config, default_prefix, quota_limit)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		RETURNING ` + volumeColumns

	v, err := scanVolume(r.db.Pool.QueryRow(ctx, query,
		input.Name, input.Driver, string(config), input.DefaultPrefix, input.QuotaLimit,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errVolumeExists)
		}
		return nil, errFailedCreateVolume(err)
	}

	return v, nil
}

func (r *VolumeRepository) GetByID(ctx context.Context, id uuid.UUID) (*volume.Volume, error) {
	query := `SELECT ` + volumeColumns + ` FROM storage_volumes WHERE id = $1`

	v, err := scanVolume(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errVolumeNotFound)
		}
		return nil, errFailedGetVolume(err)
	}

	return v, nil
}

func (r *VolumeRepository) List(ctx context.Context) ([]*volume.Volume, error) {
	query := `SELECT ` + volumeColumns + ` FROM storage_volumes ORDER BY name`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, errFailedListVolumes(err)
	}
	defer rows.Close()

	volumes := []*volume.Volume{}
	for rows.Next() {
		v, err := scanVolume(rows)
		if err != nil {
			return nil, errFailedScanVolume(err)
		}
		volumes = append(volumes, v)
	}

	if err := rows.Err(); err != nil {
		return nil, errFailedListVolumes(err)
	}

	return volumes, nil
}

// Update changes only the fields set on input.
func (r *VolumeRepository) Update(ctx context.Context, id uuid.UUID, input *volume.UpdateVolumeInput) (*volume.Volume, error) {
	var config *string
	if input.Config != nil {
		data, err := json.Marshal(input.Config)
		if err != nil {
			return nil, errFailedEncodeVolume(err)
		}
		s := string(data)
		config = &s
	}

	query := `
		UPDATE storage_volumes SET
			name = COALESCE($2, name),
			config = COALESCE($3::jsonb, config),
			default_prefix = COALESCE($4, default_prefix),
			quota_limit = COALESCE($5, quota_limit),
			is_active = COALESCE($6, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + volumeColumns

	v, err := scanVolume(r.db.Pool.QueryRow(ctx, query,
		id, input.Name, config, input.DefaultPrefix, input.QuotaLimit, input.IsActive,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errVolumeNotFound)
		}
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errVolumeExists)
		}
		return nil, errFailedUpdateVolume(err)
	}

	return v, nil
}

func (r *VolumeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM storage_volumes WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict(errVolumeInUse)
		}
		return errFailedDeleteVolume(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(errVolumeNotFound)
	}

	return nil
}

// Reserve charges bytes against the volume in one conditional update.
func (r *VolumeRepository) Reserve(ctx context.Context, id uuid.UUID, bytes int64) error {
	query := `
		UPDATE storage_volumes
		SET quota_used = quota_used + $2, updated_at = NOW()
		WHERE id = $1 AND (quota_limit = 0 OR quota_used + $2 <= quota_limit)
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, bytes)
	if err != nil {
		return errFailedReserveVolume(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM storage_volumes WHERE id = $1)`, id).Scan(&exists); err != nil {
			return errFailedReserveVolume(err)
		}
		if !exists {
			return apperrors.NotFound(errVolumeNotFound)
		}
		return apperrors.QuotaExceeded(msgQuotaExceeded)
	}

	return nil
}

func (r *VolumeRepository) Release(ctx context.Context, id uuid.UUID, bytes int64) error {
	query := `
		UPDATE storage_volumes
		SET quota_used = GREATEST(0, quota_used - $2), updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, bytes); err != nil {
		return errFailedReleaseVolume(err)
	}
	return nil
}

func scanVolume(row pgx.Row) (*volume.Volume, error) {
	v := &volume.Volume{}
	var config []byte
	err := row.Scan(
		&v.ID, &v.Name, &v.Driver, &config, &v.DefaultPrefix,
		&v.QuotaLimit, &v.QuotaUsed, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &v.Config); err != nil {
			return nil, err
		}
	}
	return v, nil
}

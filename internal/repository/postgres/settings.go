package postgres

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/settings"
	"github.com/jackc/pgx/v5"
)

// SettingsRepository stores settings fragments keyed by an ltree column.
type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetMany fetches all requested paths in one round trip.
func (r *SettingsRepository) GetMany(ctx context.Context, paths []string) (map[string]settings.Value, error) {
	out := make(map[string]settings.Value, len(paths))
	if len(paths) == 0 {
		return out, nil
	}

	query := `
		SELECT key::text, value
		FROM settings
		WHERE key = ANY($1::text[]::ltree[])
	`

	rows, err := r.db.Pool.Query(ctx, query, paths)
	if err != nil {
		return nil, errFailedGetSettings(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, errFailedScanSetting(err)
		}

		v, err := settings.Parse(raw)
		if err != nil {
			return nil, errFailedScanSetting(err)
		}
		out[key] = v
	}

	if err := rows.Err(); err != nil {
		return nil, errFailedGetSettings(err)
	}

	return out, nil
}

func (r *SettingsRepository) Get(ctx context.Context, path string) (settings.Value, bool, error) {
	query := `SELECT value FROM settings WHERE key = $1::text::ltree`

	var raw []byte
	if err := r.db.Pool.QueryRow(ctx, query, path).Scan(&raw); err != nil {
		if isNoRows(err) {
			return settings.Value{}, false, nil
		}
		return settings.Value{}, false, errFailedGetSettings(err)
	}

	v, err := settings.Parse(raw)
	if err != nil {
		return settings.Value{}, false, errFailedScanSetting(err)
	}
	return v, true, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, path string, value settings.Value) error {
	data, err := value.MarshalJSON()
	if err != nil {
		return errFailedEncodeSetting(err)
	}

	query := `
		INSERT INTO settings (key, value)
		VALUES ($1::text::ltree, $2::jsonb)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.db.Pool.Exec(ctx, query, path, string(data)); err != nil {
		return errFailedUpsertSetting(err)
	}
	return nil
}

func (r *SettingsRepository) Delete(ctx context.Context, path string) error {
	query := `DELETE FROM settings WHERE key = $1::text::ltree`

	if _, err := r.db.Pool.Exec(ctx, query, path); err != nil {
		return errFailedDeleteSetting(err)
	}
	return nil
}

// ListSubtree returns prefix and all of its descendants.
func (r *SettingsRepository) ListSubtree(ctx context.Context, prefix string) ([]settings.Fragment, error) {
	query := `
		SELECT key::text, value, created_at, updated_at
		FROM settings
		WHERE key <@ $1::text::ltree
		ORDER BY key
	`

	rows, err := r.db.Pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, errFailedListSettings(err)
	}
	defer rows.Close()

	return scanFragments(rows)
}

func scanFragments(rows pgx.Rows) ([]settings.Fragment, error) {
	var fragments []settings.Fragment
	for rows.Next() {
		var (
			f   settings.Fragment
			raw []byte
		)
		if err := rows.Scan(&f.Path, &raw, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, errFailedScanSetting(err)
		}

		v, err := settings.Parse(raw)
		if err != nil {
			return nil, errFailedScanSetting(err)
		}
		f.Value = v
		fragments = append(fragments, f)
	}

	if err := rows.Err(); err != nil {
		return nil, errFailedListSettings(err)
	}

	return fragments, nil
}

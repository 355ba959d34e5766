package postgres

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
)

type FileRepository struct {
	db *DB
}

func NewFileRepository(db *DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, input *file.CreateFileInput) (*file.File, error) {
	query := `
		INSERT INTO files (id, user_id, volume_id, app_id, filename, storage_path, mime_type, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, volume_id, app_id, filename, storage_path, mime_type, size, created_at
	`

	f := &file.File{}
	err := r.db.Pool.QueryRow(ctx, query,
		input.ID, input.UserID, input.VolumeID, input.AppID, input.Filename, input.StoragePath, input.MimeType, input.Size,
	).Scan(scanFileFields(f)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errFileExists)
		}
		if isForeignKeyViolation(err) {
			if input.VolumeID != nil {
				return nil, apperrors.NotFound(errVolumeNotFound)
			}
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedCreateFile(err)
	}

	return f, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*file.File, error) {
	query := `
		SELECT id, user_id, volume_id, app_id, filename, storage_path, mime_type, size, created_at
		FROM files WHERE id = $1
	`

	f := &file.File{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(scanFileFields(f)...)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errFileNotFound)
		}
		return nil, errFailedGetFile(err)
	}

	return f, nil
}

func (r *FileRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*file.File, error) {
	query := `
		SELECT id, user_id, volume_id, app_id, filename, storage_path, mime_type, size, created_at
		FROM files WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, errFailedListFiles(err)
	}
	defer rows.Close()

	var files []*file.File
	for rows.Next() {
		f := &file.File{}
		if err := rows.Scan(scanFileFields(f)...); err != nil {
			return nil, errFailedScanFile(err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, errFailedListFiles(err)
	}

	return files, nil
}

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return errFailedDeleteFile(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(errFileNotFound)
	}

	return nil
}

func scanFileFields(f *file.File) []any {
	return []any{&f.ID, &f.UserID, &f.VolumeID, &f.AppID, &f.Filename, &f.StoragePath, &f.MimeType, &f.Size, &f.CreatedAt}
}

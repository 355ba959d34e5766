package postgres

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/user"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
)

type PermissionRepository struct {
	db *DB
}

func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(ctx context.Context, input user.CreatePermissionInput) (*user.Permission, error) {
	query := `
		INSERT INTO permissions (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at
	`

	p := &user.Permission{}
	err := r.db.Pool.QueryRow(ctx, query, input.Name, input.Description).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errPermissionExists)
		}
		return nil, errFailedCreatePermission(err)
	}

	return p, nil
}

func (r *PermissionRepository) List(ctx context.Context) ([]*user.Permission, error) {
	query := `SELECT id, name, description, created_at FROM permissions ORDER BY name`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, errFailedListPermissions(err)
	}
	defer rows.Close()

	var permissions []*user.Permission
	for rows.Next() {
		p := &user.Permission{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, errFailedScanPermission(err)
		}
		permissions = append(permissions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errFailedListPermissions(err)
	}

	return permissions, nil
}

func (r *PermissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return errFailedDeletePermission(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(errPermissionNotFound)
	}

	return nil
}

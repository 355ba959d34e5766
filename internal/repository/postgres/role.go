package postgres

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/user"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RoleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, input user.CreateRoleInput) (*user.Role, error) {
	query := `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at
	`

	role := &user.Role{Permissions: []string{}}
	err := r.db.Pool.QueryRow(ctx, query, input.Name, input.Description).Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errRoleExists)
		}
		return nil, errFailedCreateRole(err)
	}

	return role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*user.Role, error) {
	query := `
		SELECT r.id, r.name, r.description, r.created_at,
			COALESCE(
				(SELECT array_agg(p.name ORDER BY p.name)
				 FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
				 WHERE rp.role_id = r.id),
				'{}'
			)
		FROM roles r
		ORDER BY r.name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, errFailedListRoles(err)
	}
	defer rows.Close()

	var roles []*user.Role
	for rows.Next() {
		role := &user.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.Permissions); err != nil {
			return nil, errFailedScanRole(err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, errFailedListRoles(err)
	}

	return roles, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return errFailedDeleteRole(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(errRoleNotFound)
	}

	return nil
}

// SetPermissions replaces the role's permission set with the named permissions.
func (r *RoleRepository) SetPermissions(ctx context.Context, id uuid.UUID, permissionNames []string) error {
	names := uniqueStrings(permissionNames)

	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, id).Scan(&exists); err != nil {
			return errFailedSetRolePermissions(err)
		}
		if !exists {
			return apperrors.NotFound(errRoleNotFound)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return errFailedSetRolePermissions(err)
		}

		if len(names) == 0 {
			return nil
		}

		insert := `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT $1, id FROM permissions WHERE name = ANY($2)
		`
		tag, err := tx.Exec(ctx, insert, id, names)
		if err != nil {
			return errFailedSetRolePermissions(err)
		}
		if tag.RowsAffected() != int64(len(names)) {
			return apperrors.BadRequest(errUnknownPermissions)
		}

		return nil
	})
}

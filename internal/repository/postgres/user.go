package postgres

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/user"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	u.id, u.username, u.password_hash, u.is_root, u.meta, u.created_at, u.updated_at,
	COALESCE(
		(SELECT array_agg(r.name ORDER BY r.name)
		 FROM user_roles ur JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = u.id),
		'{}'
	)
`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.IsRoot,
		&u.Meta,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Roles,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func usernameConflict() *apperrors.AppError {
	return &apperrors.AppError{Code: "CONFLICT", Message: errUsernameExists, Err: apperrors.ErrUsernameExists}
}

func (r *UserRepository) Create(ctx context.Context, input user.CreateUserInput) (*user.User, error) {
	return r.insert(ctx, r.db.Pool, input)
}

// CreateRoot inserts a root user only while the users table is empty. The
// table lock serialises concurrent setup attempts.
func (r *UserRepository) CreateRoot(ctx context.Context, input user.CreateUserInput) (*user.User, error) {
	input.IsRoot = true

	var created *user.User
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return errFailedCreateUser(err)
		}

		var count int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
			return errFailedCountUsers(err)
		}
		if count > 0 {
			return &apperrors.AppError{Code: "SETUP_COMPLETE", Message: errSetupComplete, Err: apperrors.ErrSetupComplete}
		}

		u, err := r.insert(ctx, tx, input)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *UserRepository) insert(ctx context.Context, q querier, input user.CreateUserInput) (*user.User, error) {
	meta := input.Meta
	if meta == nil {
		meta = map[string]string{}
	}

	query := `
		INSERT INTO users (username, password_hash, is_root, meta)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, password_hash, is_root, meta, created_at, updated_at
	`

	u := &user.User{}
	err := q.QueryRow(ctx, query, input.Username, input.PasswordHash, input.IsRoot, meta).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.IsRoot,
		&u.Meta,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, usernameConflict()
		}
		return nil, errFailedCreateUser(err)
	}

	u.Roles = []string{}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	u, err := scanUser(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedGetUser(err)
	}

	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.username = $1`

	u, err := scanUser(r.db.Pool.QueryRow(ctx, query, username))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedGetUser(err)
	}

	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.username`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, errFailedListUsers(err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errFailedScanUser(err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateUsers(err)
	}

	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, errFailedCountUsers(err)
	}
	return count, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return errFailedUpdateUser(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(errUserNotFound)
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errFailedDeleteUser(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(errUserNotFound)
	}

	return nil
}

// SetRoles replaces the user's role set with the named roles.
func (r *UserRepository) SetRoles(ctx context.Context, id uuid.UUID, roleNames []string) error {
	names := uniqueStrings(roleNames)

	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
			return errFailedGetUser(err)
		}
		if !exists {
			return apperrors.NotFound(errUserNotFound)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return errFailedSetUserRoles(err)
		}

		if len(names) == 0 {
			return nil
		}

		insert := `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = ANY($2)
		`
		tag, err := tx.Exec(ctx, insert, id, names)
		if err != nil {
			return errFailedSetUserRoles(err)
		}
		if tag.RowsAffected() != int64(len(names)) {
			return apperrors.BadRequest(errUnknownRoles)
		}

		return nil
	})
}

// Grants returns the distinct permission names reachable through the
// user's roles.
func (r *UserRepository) Grants(ctx context.Context, id uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT p.name
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY p.name
	`

	rows, err := r.db.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, errFailedGetGrants(err)
	}

	grants, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errFailedGetGrants(err)
	}

	return grants, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

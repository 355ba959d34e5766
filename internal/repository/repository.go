package repository

import (
	"context"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/user"
	"github.com/google/uuid"
)

// Provider-side interfaces for the identity tables. Consumers such as the
// HTTP handlers declare narrower interfaces of their own.

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	CreateRoot(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
	Count(ctx context.Context) (int64, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetRoles(ctx context.Context, id uuid.UUID, roleNames []string) error
	Grants(ctx context.Context, id uuid.UUID) ([]string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RoleRepository defines role data access operations
type RoleRepository interface {
	Create(ctx context.Context, input user.CreateRoleInput) (*user.Role, error)
	List(ctx context.Context) ([]*user.Role, error)
	SetPermissions(ctx context.Context, id uuid.UUID, permissionNames []string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PermissionRepository defines permission data access operations
type PermissionRepository interface {
	Create(ctx context.Context, input user.CreatePermissionInput) (*user.Permission, error)
	List(ctx context.Context) ([]*user.Permission, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

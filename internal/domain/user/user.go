package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID         `json:"id"`
	Username     string            `json:"username"`
	PasswordHash string            `json:"-"`
	IsRoot       bool              `json:"is_root"`
	Meta         map[string]string `json:"meta,omitempty"`
	Roles        []string          `json:"roles,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type CreateUserInput struct {
	Username     string
	PasswordHash string
	IsRoot       bool
	Meta         map[string]string
}

type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateRoleInput struct {
	Name        string
	Description string
}

// Permission is a named action:resource grant that roles can carry.
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreatePermissionInput struct {
	Name        string
	Description string
}

package handler

import (
	"context"
	"io"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/user"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/volume"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/settings"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Consumer-side interfaces defined by handlers
// Each interface contains only the methods needed by the specific handler

// AuditLogger is shared by every handler that changes state. Nil disables auditing.
type AuditLogger interface {
	LogFromContext(c echo.Context, entry audit.Entry)
}

type AuditQuerier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]*audit.Event, error)
}

// AuthHandler interfaces
type AccountStore interface {
	Create(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	CreateRoot(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	Count(ctx context.Context) (int64, error)
	Grants(ctx context.Context, id uuid.UUID) ([]string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	BurnTime(password string)
}

type TokenIssuer interface {
	Issue(ctx context.Context, in auth.IssueInput) (*auth.IssuedToken, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// AdminHandler interfaces
type UserAdmin interface {
	Create(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetRoles(ctx context.Context, id uuid.UUID, roleNames []string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RoleAdmin interface {
	Create(ctx context.Context, input user.CreateRoleInput) (*user.Role, error)
	List(ctx context.Context) ([]*user.Role, error)
	SetPermissions(ctx context.Context, id uuid.UUID, permissionNames []string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PermissionAdmin interface {
	Create(ctx context.Context, input user.CreatePermissionInput) (*user.Permission, error)
	List(ctx context.Context) ([]*user.Permission, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SettingsHandler interfaces
type SettingsService interface {
	Resolve(ctx context.Context, scope settings.Scope) (settings.Value, error)
	Get(ctx context.Context, path string) (settings.Value, bool, error)
	Set(ctx context.Context, path string, value settings.Value) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]settings.Fragment, error)
}

// StorageHandler interfaces
type FileService interface {
	Upload(ctx context.Context, in storage.UploadInput) (*file.File, error)
	Get(ctx context.Context, userID, fileID uuid.UUID) (*file.File, error)
	Open(ctx context.Context, userID, fileID uuid.UUID) (*file.File, io.ReadCloser, error)
	DownloadURL(ctx context.Context, userID, fileID uuid.UUID) (string, bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]*file.File, error)
	Delete(ctx context.Context, userID, fileID uuid.UUID) error
	Quota(ctx context.Context, userID uuid.UUID) (*file.Quota, error)
}

type VolumeService interface {
	ListVolumes(ctx context.Context) ([]*volume.Volume, error)
	GetVolume(ctx context.Context, id uuid.UUID) (*volume.Volume, error)
	CreateVolume(ctx context.Context, in volume.CreateVolumeInput) (*volume.Volume, error)
	UpdateVolume(ctx context.Context, id uuid.UUID, in volume.UpdateVolumeInput) (*volume.Volume, error)
	DeleteVolume(ctx context.Context, id uuid.UUID) error
	AppQuota(ctx context.Context, appID string) (*file.AppQuota, error)
	SetAppQuota(ctx context.Context, appID string, limit int64) (*file.AppQuota, error)
}

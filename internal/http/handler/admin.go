package handler

import (
	"net/http"
	"strings"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/user"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AdminHandler manages users, roles and permissions. Route-level
// RequirePermission middleware does the authorization.
type AdminHandler struct {
	users       UserAdmin
	roles       RoleAdmin
	permissions PermissionAdmin
	hasher      PasswordHasher
	audit       AuditLogger
}

func NewAdminHandler(users UserAdmin, roles RoleAdmin, permissions PermissionAdmin, hasher PasswordHasher, auditLogger AuditLogger) *AdminHandler {
	return &AdminHandler{
		users:       users,
		roles:       roles,
		permissions: permissions,
		hasher:      hasher,
		audit:       auditLogger,
	}
}

type CreateUserRequest struct {
	Username string   `json:"username" validate:"required,username"`
	Password string   `json:"password" validate:"required,password"`
	Roles    []string `json:"roles"`
}

type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,password"`
}

type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"dive,required"`
}

type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=64"`
	Description string   `json:"description" validate:"max=512"`
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

type SetPermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

type CreatePermissionRequest struct {
	Name        string `json:"name" validate:"required,permission"`
	Description string `json:"description" validate:"max=512"`
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respondList(c, users)
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		return apperrors.InternalServer(msgHashPasswordFailed, err)
	}

	ctx := c.Request().Context()
	username := strings.TrimSpace(req.Username)
	entry := audit.Entry{
		ResourceType: audit.ResourceTypeUser,
		Action:       audit.ActionCreate,
		Metadata:     map[string]any{"username": username, "roles": req.Roles},
	}

	u, err := h.users.Create(ctx, user.CreateUserInput{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		record(h.audit, c, entry, err)
		return err
	}
	entry.ResourceID = u.ID.String()

	if len(req.Roles) > 0 {
		if err := h.users.SetRoles(ctx, u.ID, req.Roles); err != nil {
			record(h.audit, c, entry, err)
			return err
		}
		u.Roles = req.Roles
	}

	record(h.audit, c, entry, nil)
	logging.Ctx(ctx).Info().Str("user_id", u.ID.String()).Msg("user created by admin")
	return c.JSON(http.StatusCreated, u)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	if principal.ID == id {
		return apperrors.BadRequest(msgCannotDeleteSelf)
	}

	err = h.users.Delete(c.Request().Context(), id)
	record(h.audit, c, idEntry(audit.ResourceTypeUser, id, audit.ActionDelete, nil), err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) SetUserPassword(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req SetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		return apperrors.InternalServer(msgHashPasswordFailed, err)
	}

	err = h.users.UpdatePassword(c.Request().Context(), id, hash)
	record(h.audit, c, idEntry(audit.ResourceTypeUser, id, audit.ActionUpdate, map[string]any{"field": "password"}), err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetUserRoles replaces the role set. Tokens already issued keep their old
// permissions until they expire or are revoked.
func (h *AdminHandler) SetUserRoles(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req SetRolesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.users.SetRoles(c.Request().Context(), id, req.Roles)
	record(h.audit, c, idEntry(audit.ResourceTypeUser, id, audit.ActionUpdate, map[string]any{"roles": req.Roles}), err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListRoles(c echo.Context) error {
	roles, err := h.roles.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respondList(c, roles)
}

func (h *AdminHandler) CreateRole(c echo.Context) error {
	var req CreateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	name := strings.TrimSpace(req.Name)
	entry := audit.Entry{
		ResourceType: audit.ResourceTypeRole,
		Action:       audit.ActionCreate,
		Metadata:     map[string]any{"name": name, "permissions": req.Permissions},
	}

	role, err := h.roles.Create(ctx, user.CreateRoleInput{
		Name:        name,
		Description: req.Description,
	})
	if err != nil {
		record(h.audit, c, entry, err)
		return err
	}
	entry.ResourceID = role.ID.String()

	if len(req.Permissions) > 0 {
		if err := h.roles.SetPermissions(ctx, role.ID, req.Permissions); err != nil {
			record(h.audit, c, entry, err)
			return err
		}
		role.Permissions = req.Permissions
	}

	record(h.audit, c, entry, nil)
	return c.JSON(http.StatusCreated, role)
}

func (h *AdminHandler) DeleteRole(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	err = h.roles.Delete(c.Request().Context(), id)
	record(h.audit, c, idEntry(audit.ResourceTypeRole, id, audit.ActionDelete, nil), err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) SetRolePermissions(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req SetPermissionsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.roles.SetPermissions(c.Request().Context(), id, req.Permissions)
	record(h.audit, c, idEntry(audit.ResourceTypeRole, id, audit.ActionUpdate, map[string]any{"permissions": req.Permissions}), err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListPermissions(c echo.Context) error {
	permissions, err := h.permissions.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respondList(c, permissions)
}

func (h *AdminHandler) CreatePermission(c echo.Context) error {
	var req CreatePermissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry := audit.Entry{
		ResourceType: audit.ResourceTypePermission,
		Action:       audit.ActionCreate,
		Metadata:     map[string]any{"name": req.Name},
	}

	p, err := h.permissions.Create(c.Request().Context(), user.CreatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		record(h.audit, c, entry, err)
		return err
	}

	entry.ResourceID = p.ID.String()
	record(h.audit, c, entry, nil)
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHandler) DeletePermission(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	err = h.permissions.Delete(c.Request().Context(), id)
	record(h.audit, c, idEntry(audit.ResourceTypePermission, id, audit.ActionDelete, nil), err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func idEntry(resource audit.ResourceType, id uuid.UUID, action audit.Action, metadata map[string]any) audit.Entry {
	return audit.Entry{
		ResourceType: resource,
		ResourceID:   id.String(),
		Action:       action,
		Metadata:     metadata,
	}
}

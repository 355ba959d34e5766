package handler

import (
	"io"
	"net/http"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/settings"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

const (
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ResourceSettings = "settings"

	msgSettingNotFound = "setting not found"
	msgValueRequired   = "body must be an object with a value field"
)

type SettingsHandler struct {
	settings SettingsService
	audit    AuditLogger
}

func NewSettingsHandler(svc SettingsService, auditLogger AuditLogger) *SettingsHandler {
	return &SettingsHandler{settings: svc, audit: auditLogger}
}

type FragmentResponse struct {
	Key   string         `json:"key"`
	Value settings.Value `json:"value"`
}

// SetValueRequest wraps the new value so that any JSON document, including
// null or a bare string, can be written.
type SetValueRequest struct {
	Value json.RawMessage `json:"value"`
}

// Merged returns the caller's configuration with every applicable layer applied.
func (h *SettingsHandler) Merged(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	merged, err := h.settings.Resolve(c.Request().Context(), settings.Scope{
		AppID:  c.QueryParam(queryAppID),
		UserID: principal.ID.String(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, merged)
}

func (h *SettingsHandler) GetPath(c echo.Context) error {
	path := c.Param(paramPath)
	if err := authorizeSettings(c, path, ActionRead); err != nil {
		return err
	}

	value, found, err := h.settings.Get(c.Request().Context(), path)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NotFound(msgSettingNotFound)
	}

	return c.JSON(http.StatusOK, FragmentResponse{Key: path, Value: value})
}

func (h *SettingsHandler) PutPath(c echo.Context) error {
	path := c.Param(paramPath)
	if err := authorizeSettings(c, path, ActionUpdate); err != nil {
		return err
	}

	return h.put(c, path)
}

// PostPath writes the value carried in a {"value": ...} envelope.
func (h *SettingsHandler) PostPath(c echo.Context) error {
	path := c.Param(paramPath)
	if err := authorizeSettings(c, path, ActionUpdate); err != nil {
		return err
	}

	return h.post(c, path)
}

func (h *SettingsHandler) DeletePath(c echo.Context) error {
	path := c.Param(paramPath)
	if err := authorizeSettings(c, path, ActionDelete); err != nil {
		return err
	}

	err := h.settings.Delete(c.Request().Context(), path)
	record(h.audit, c, settingEntry(path, audit.ActionDelete), err)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// List returns every fragment under prefix, which defaults to the root.
func (h *SettingsHandler) List(c echo.Context) error {
	prefix := c.QueryParam(queryPrefix)
	if prefix == "" {
		prefix = settings.RootLabel
	}
	if err := authorizeSettings(c, prefix, ActionRead); err != nil {
		return err
	}

	fragments, err := h.settings.List(c.Request().Context(), prefix)
	if err != nil {
		return err
	}

	return respondList(c, fragments)
}

// GetSystem is readable by any authenticated user. A missing system
// fragment reads as an empty object.
func (h *SettingsHandler) GetSystem(c echo.Context) error {
	value, found, err := h.settings.Get(c.Request().Context(), settings.SystemPath)
	if err != nil {
		return err
	}
	if !found {
		value = settings.EmptyObject()
	}

	return c.JSON(http.StatusOK, value)
}

func (h *SettingsHandler) PutSystem(c echo.Context) error {
	if err := authorizeSystem(c); err != nil {
		return err
	}

	return h.put(c, settings.SystemPath)
}

func (h *SettingsHandler) PostSystem(c echo.Context) error {
	if err := authorizeSystem(c); err != nil {
		return err
	}

	return h.post(c, settings.SystemPath)
}

// put stores the raw request body as the value.
func (h *SettingsHandler) put(c echo.Context, path string) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxStrictBodyBytes))
	if err != nil {
		return apperrors.BadRequest(msgInvalidRequestBody)
	}

	return h.store(c, path, body)
}

func (h *SettingsHandler) post(c echo.Context, path string) error {
	var req SetValueRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	if len(req.Value) == 0 {
		return apperrors.BadRequest(msgValueRequired)
	}

	return h.store(c, path, req.Value)
}

func (h *SettingsHandler) store(c echo.Context, path string, raw []byte) error {
	value, err := settings.Parse(raw)
	if err != nil {
		return apperrors.BadRequest(msgInvalidRequestBody)
	}

	err = h.settings.Set(c.Request().Context(), path, value)
	record(h.audit, c, settingEntry(path, audit.ActionUpdate), err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, FragmentResponse{Key: path, Value: value})
}

func settingEntry(path string, action audit.Action) audit.Entry {
	return audit.Entry{
		ResourceType: audit.ResourceTypeSetting,
		ResourceID:   path,
		Action:       action,
	}
}

func authorizeSystem(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	if !principal.Can(ActionUpdate, ResourceSettings) {
		return apperrors.Forbidden(msgSettingsForbidden)
	}
	return nil
}

// authorizeSettings lets callers act on their own subtree unconditionally and
// otherwise requires action:settings or root.
func authorizeSettings(c echo.Context, path, action string) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	if settings.OwnedBy(path, principal.ID.String()) || principal.Can(action, ResourceSettings) {
		return nil
	}

	return apperrors.Forbidden(msgSettingsForbidden)
}

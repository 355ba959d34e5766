package handler

import (
	"net/http"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/volume"
	"github.com/labstack/echo/v4"
)

// VolumeHandler manages storage volumes and app quotas. Secrets are redacted
// in every response.
type VolumeHandler struct {
	volumes VolumeService
	audit   AuditLogger
}

func NewVolumeHandler(volumes VolumeService, auditLogger AuditLogger) *VolumeHandler {
	return &VolumeHandler{volumes: volumes, audit: auditLogger}
}

type CreateVolumeRequest struct {
	Name          string        `json:"name" validate:"required,max=128"`
	Driver        string        `json:"driver" validate:"required,oneof=disk s3"`
	Config        volume.Config `json:"config"`
	DefaultPrefix string        `json:"default_prefix" validate:"max=256"`
	QuotaLimit    int64         `json:"quota_limit" validate:"gte=0"`
}

type UpdateVolumeRequest struct {
	Name          *string        `json:"name" validate:"omitempty,max=128"`
	Config        *volume.Config `json:"config"`
	DefaultPrefix *string        `json:"default_prefix" validate:"omitempty,max=256"`
	QuotaLimit    *int64         `json:"quota_limit" validate:"omitempty,gte=0"`
	IsActive      *bool          `json:"is_active"`
}

type SetAppQuotaRequest struct {
	QuotaLimit int64 `json:"quota_limit" validate:"gte=0"`
}

type AppQuotaResponse struct {
	*file.AppQuota
	Remaining int64 `json:"remaining"`
}

func (h *VolumeHandler) List(c echo.Context) error {
	volumes, err := h.volumes.ListVolumes(c.Request().Context())
	if err != nil {
		return err
	}

	redacted := make([]*volume.Volume, len(volumes))
	for i, v := range volumes {
		redacted[i] = v.Redacted()
	}
	return respondList(c, redacted)
}

func (h *VolumeHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	v, err := h.volumes.GetVolume(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.Redacted())
}

func (h *VolumeHandler) Create(c echo.Context) error {
	var req CreateVolumeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry := audit.Entry{
		ResourceType: audit.ResourceTypeVolume,
		Action:       audit.ActionCreate,
		Metadata:     map[string]any{"name": req.Name, "driver": req.Driver},
	}

	v, err := h.volumes.CreateVolume(c.Request().Context(), volume.CreateVolumeInput{
		Name:          req.Name,
		Driver:        req.Driver,
		Config:        req.Config,
		DefaultPrefix: req.DefaultPrefix,
		QuotaLimit:    req.QuotaLimit,
	})
	if err != nil {
		record(h.audit, c, entry, err)
		return err
	}

	entry.ResourceID = v.ID.String()
	record(h.audit, c, entry, nil)
	return c.JSON(http.StatusCreated, v.Redacted())
}

func (h *VolumeHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateVolumeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	v, err := h.volumes.UpdateVolume(c.Request().Context(), id, volume.UpdateVolumeInput{
		Name:          req.Name,
		Config:        req.Config,
		DefaultPrefix: req.DefaultPrefix,
		QuotaLimit:    req.QuotaLimit,
		IsActive:      req.IsActive,
	})
	record(h.audit, c, idEntry(audit.ResourceTypeVolume, id, audit.ActionUpdate, map[string]any{"config_changed": req.Config != nil}), err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.Redacted())
}

func (h *VolumeHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	err = h.volumes.DeleteVolume(c.Request().Context(), id)
	record(h.audit, c, idEntry(audit.ResourceTypeVolume, id, audit.ActionDelete, nil), err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *VolumeHandler) AppQuota(c echo.Context) error {
	q, err := h.volumes.AppQuota(c.Request().Context(), c.Param(paramApp))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AppQuotaResponse{AppQuota: q, Remaining: q.Remaining()})
}

func (h *VolumeHandler) SetAppQuota(c echo.Context) error {
	appID := c.Param(paramApp)

	var req SetAppQuotaRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	q, err := h.volumes.SetAppQuota(c.Request().Context(), appID, req.QuotaLimit)
	record(h.audit, c, audit.Entry{
		ResourceType: audit.ResourceTypeAppQuota,
		ResourceID:   appID,
		Action:       audit.ActionUpdate,
		Metadata:     map[string]any{"quota_limit": req.QuotaLimit},
	}, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AppQuotaResponse{AppQuota: q, Remaining: q.Remaining()})
}

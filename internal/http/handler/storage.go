package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/storage"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const defaultContentType = "application/octet-stream"

type StorageHandler struct {
	files FileService
	audit AuditLogger
}

func NewStorageHandler(files FileService, auditLogger AuditLogger) *StorageHandler {
	return &StorageHandler{files: files, audit: auditLogger}
}

type DownloadURLResponse struct {
	URL string `json:"url"`
}

type QuotaResponse struct {
	*file.Quota
	Remaining int64 `json:"remaining"`
}

func (h *StorageHandler) Upload(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile(formFieldFile)
	if err != nil {
		return apperrors.BadRequest(msgMissingFile)
	}

	var volumeID *uuid.UUID
	if raw := c.FormValue(formFieldVolumeID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.BadRequest(msgInvalidVolumeID)
		}
		volumeID = &id
	}

	src, err := header.Open()
	if err != nil {
		return apperrors.BadRequest(msgOpenUploadFailed)
	}
	defer src.Close()

	contentType := header.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	f, err := h.files.Upload(c.Request().Context(), storage.UploadInput{
		UserID:      principal.ID,
		VolumeID:    volumeID,
		AppID:       c.FormValue(formFieldAppID),
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        src,
	})
	if err != nil {
		return err
	}

	record(h.audit, c, audit.Entry{
		ResourceType: audit.ResourceTypeFile,
		ResourceID:   f.ID.String(),
		Action:       audit.ActionCreate,
		Metadata:     map[string]any{"size": f.Size, "app_id": f.AppID},
	}, nil)

	logging.Ctx(c.Request().Context()).Info().
		Str("file_id", f.ID.String()).
		Int64("size", f.Size).
		Msg("file uploaded")

	return c.JSON(http.StatusCreated, f)
}

func (h *StorageHandler) List(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	files, err := h.files.List(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}

	return respondList(c, files)
}

// Download streams the file body with its original name.
func (h *StorageHandler) Download(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	f, body, err := h.files.Open(c.Request().Context(), principal.ID, id)
	if err != nil {
		return err
	}
	defer body.Close()

	contentType := f.MimeType
	if contentType == "" {
		contentType = defaultContentType
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	resp.Header().Set(echo.HeaderContentLength, strconv.FormatInt(f.Size, 10))

	return c.Stream(http.StatusOK, contentType, body)
}

// DownloadURL returns a time-limited direct link for drivers that support one.
func (h *StorageHandler) DownloadURL(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	url, ok, err := h.files.DownloadURL(c.Request().Context(), principal.ID, id)
	if err != nil {
		return err
	}
	if !ok {
		return respondError(c, http.StatusNotImplemented, msgPresignUnsupported)
	}

	return c.JSON(http.StatusOK, DownloadURLResponse{URL: url})
}

func (h *StorageHandler) Delete(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	err = h.files.Delete(c.Request().Context(), principal.ID, id)
	record(h.audit, c, idEntry(audit.ResourceTypeFile, id, audit.ActionDelete, nil), err)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *StorageHandler) Quota(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	q, err := h.files.Quota(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, QuotaResponse{Quota: q, Remaining: q.Remaining()})
}

package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/labstack/echo/v4"
)

const (
	jsonKeyError     = "error"
	jsonKeyRequestID = "request_id"
	unknownRequestID = "unknown"
)

// statusFor maps sentinel errors to an HTTP status and a public message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperrors.ErrInsufficientPerms):
		return http.StatusForbidden, "Insufficient permissions"
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, "Bad request"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "Validation error"
	case errors.Is(err, apperrors.ErrPathTraversal):
		return http.StatusBadRequest, "Invalid path"
	case errors.Is(err, apperrors.ErrUsernameExists):
		return http.StatusConflict, "Username already exists"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "Resource already exists"
	case errors.Is(err, apperrors.ErrSetupComplete):
		return http.StatusConflict, "Setup already completed"
	case errors.Is(err, apperrors.ErrQuotaExceeded):
		return http.StatusRequestEntityTooLarge, "Storage quota exceeded"
	case errors.Is(err, apperrors.ErrUnavailable):
		return http.StatusServiceUnavailable, "Service unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// CustomHTTPErrorHandler handles all errors returned by handlers and middleware.
// It maps sentinel errors to appropriate HTTP status codes, sanitizes internal errors,
// and logs errors with request context.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    int
		message string
	)

	var httpErr *echo.HTTPError
	if status, msg, ok := auth.StatusFor(err); ok {
		// Rejection reasons stay in the log.
		code, message = status, msg
	} else if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
	} else {
		code, message = statusFor(err)

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && code < http.StatusInternalServerError {
			message = appErr.Message
		}
	}

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = unknownRequestID
	}

	log := logging.Ctx(c.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg("internal_server_error")
		// Don't expose internal errors to clients
		if code == http.StatusInternalServerError {
			message = "Internal server error"
		}
	} else {
		log.Warn().Err(err).Int("status", code).Msg("client_error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{
			jsonKeyError:     message,
			jsonKeyRequestID: requestID,
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to write error response")
	}
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"

	"github.com/labstack/echo/v4"
)

// Authenticator is what the middleware needs from a Verifier.
type Authenticator interface {
	Verify(ctx context.Context, credential string) (*Principal, error)
}

type Middleware struct {
	verifier Authenticator
}

func NewMiddleware(verifier Authenticator) *Middleware {
	return &Middleware{verifier: verifier}
}

// RequireAuth rejects the request unless it carries a valid, unrevoked token.
func (m *Middleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			principal, err := m.verifier.Verify(req.Context(), CredentialFromRequest(req))
			if err != nil {
				logging.Ctx(req.Context()).Debug().Err(err).Msg("credential rejected")
				return err
			}

			ctx := WithPrincipal(req.Context(), principal)
			ctx = logging.WithUserID(ctx, principal.ID.String())
			c.Set(ContextKeyPrincipal, principal)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// RequirePermission must run after RequireAuth.
func (m *Middleware) RequirePermission(action, resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := GetPrincipal(c)
			if err != nil {
				return err
			}

			if !principal.Can(action, resource) {
				return apperrors.Forbidden(msgForbidden)
			}

			return next(c)
		}
	}
}

// CredentialFromRequest returns the bearer token from the Authorization header,
// falling back to the token query parameter. The header wins when both are set.
func CredentialFromRequest(r *http.Request) string {
	if token := bearerToken(r.Header.Get(headerAuthorization)); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParamToken))
}

func bearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

func GetPrincipal(c echo.Context) (*Principal, error) {
	principal, ok := c.Get(ContextKeyPrincipal).(*Principal)
	if !ok || principal == nil {
		return nil, reject(NoCredential, errors.New(msgUnauthorized))
	}
	return principal, nil
}

// StatusFor maps a rejection to its HTTP status. Reasons are not exposed to clients.
func StatusFor(err error) (int, string, bool) {
	var rej *Rejection
	if !errors.As(err, &rej) {
		return 0, "", false
	}

	if rej.Reason == VerificationUnavailable {
		return http.StatusServiceUnavailable, msgServiceUnavailable, true
	}
	return http.StatusUnauthorized, msgUnauthorized, true
}

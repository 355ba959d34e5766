package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"header only", "Bearer header-token", "", "header-token"},
		{"query only", "", "?token=query-token", "query-token"},
		{"header wins", "Bearer header-token", "?token=query-token", "header-token"},
		{"lowercase scheme", "bearer header-token", "", "header-token"},
		{"wrong scheme falls back to query", "Basic abc", "?token=query-token", "query-token"},
		{"malformed header", "Bearer", "", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			assert.Equal(t, tt.want, CredentialFromRequest(req))
		})
	}
}

func TestRequireAuth_SetsPrincipal(t *testing.T) {
	secrets := &staticSecret{secret: []byte("secret-0123456789abcdef0123456789")}
	userID := uuid.New()
	tok := issue(t, secrets, IssueInput{UserID: userID, Username: "alice", Permissions: []string{"read:chat"}})
	m := NewMiddleware(NewVerifier(secrets, newFakeLedger()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/me?token="+tok.Token, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Principal
	err := m.RequireAuth()(func(c echo.Context) error {
		var err error
		seen, err = GetPrincipal(c)
		require.NoError(t, err)

		fromCtx, ok := PrincipalFromContext(c.Request().Context())
		require.True(t, ok)
		assert.Same(t, seen, fromCtx)
		return c.NoContent(http.StatusOK)
	})(c)

	require.NoError(t, err)
	assert.Equal(t, userID, seen.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_ReturnsRejection(t *testing.T) {
	m := NewMiddleware(NewVerifier(&staticSecret{secret: []byte("x")}, newFakeLedger()))

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/me", nil), httptest.NewRecorder())

	err := m.RequireAuth()(func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})(c)

	assert.ErrorIs(t, err, ErrNoCredential)
	status, msg, ok := StatusFor(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgUnauthorized, msg)
}

func TestRequirePermission(t *testing.T) {
	m := NewMiddleware(nil)
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(ContextKeyPrincipal, &Principal{Grants: []Grant{{"read", "users"}}})
	assert.NoError(t, m.RequirePermission("read", "users")(ok)(c))

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(ContextKeyPrincipal, &Principal{Grants: []Grant{{"read", "users"}}})
	err := m.RequirePermission("delete", "users")(ok)(c)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(ContextKeyPrincipal, &Principal{IsRoot: true})
	assert.NoError(t, m.RequirePermission("delete", "users")(ok)(c))

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.ErrorIs(t, m.RequirePermission("read", "users")(ok)(c), ErrNoCredential)
}

func TestStatusFor(t *testing.T) {
	status, _, ok := StatusFor(reject(VerificationUnavailable, errors.New("db")))
	assert.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, msg, ok := StatusFor(reject(Revoked, nil))
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgUnauthorized, msg)

	_, _, ok = StatusFor(context.Canceled)
	assert.False(t, ok)
}

package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/user"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/labstack/echo/v4"
)

type AuthConfig struct {
	AllowRegistration bool
	// RevocationMargin is added to a token's exp when it is revoked so the
	// ledger entry outlives any clock skew between instances.
	RevocationMargin time.Duration
}

type AuthHandler struct {
	users   AccountStore
	hasher  PasswordHasher
	issuer  TokenIssuer
	revoker TokenRevoker
	audit   AuditLogger
	cfg     AuthConfig
}

func NewAuthHandler(users AccountStore, hasher PasswordHasher, issuer TokenIssuer, revoker TokenRevoker, auditLogger AuditLogger, cfg AuthConfig) *AuthHandler {
	return &AuthHandler{
		users:   users,
		hasher:  hasher,
		issuer:  issuer,
		revoker: revoker,
		audit:   auditLogger,
		cfg:     cfg,
	}
}

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *user.User `json:"user"`
}

type MeResponse struct {
	*user.User
	Permissions []string `json:"permissions"`
}

type SetupStatusResponse struct {
	SetupRequired bool `json:"setup_required"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	if !h.cfg.AllowRegistration {
		return apperrors.Forbidden(msgRegistrationDisabled)
	}

	var req CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		return apperrors.InternalServer(msgHashPasswordFailed, err)
	}

	username := strings.TrimSpace(req.Username)
	u, err := h.users.Create(c.Request().Context(), user.CreateUserInput{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		record(h.audit, c, audit.Entry{
			ResourceType: audit.ResourceTypeUser,
			Action:       audit.ActionCreate,
			Metadata:     map[string]any{"username": username, "self_registered": true},
		}, err)
		return err
	}

	record(h.audit, c, audit.Entry{
		Actor:        &u.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   u.ID.String(),
		Action:       audit.ActionCreate,
		Metadata:     map[string]any{"username": username, "self_registered": true},
	}, nil)
	return respondMessage(c, http.StatusCreated, msgRegistrationSuccessful)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.hasher.BurnTime(req.Password)
		return h.rejectLogin(c, req.Username)
	}

	ctx := c.Request().Context()
	u, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		// Unknown users cost the same bcrypt time as wrong passwords.
		h.hasher.BurnTime(req.Password)
		return h.rejectLogin(c, req.Username)
	}

	if !h.hasher.Verify(req.Password, u.PasswordHash) {
		return h.rejectLogin(c, req.Username)
	}

	resp, err := h.issueFor(c, u)
	if err != nil {
		return err
	}

	record(h.audit, c, audit.Entry{
		Actor:        &u.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   u.ID.String(),
		Action:       audit.ActionLogin,
	}, nil)
	logging.Ctx(ctx).Info().Str("user_id", u.ID.String()).Msg("user logged in")
	return c.JSON(http.StatusOK, resp)
}

// rejectLogin answers every credential failure the same way.
func (h *AuthHandler) rejectLogin(c echo.Context, username string) error {
	err := apperrors.InvalidCredentials()
	record(h.audit, c, audit.Entry{
		ResourceType: audit.ResourceTypeUser,
		Action:       audit.ActionLogin,
		Metadata:     map[string]any{"username": username},
	}, err)
	return err
}

func (h *AuthHandler) Logout(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	expiresAt := principal.TokenExpiresAt.Add(h.cfg.RevocationMargin)
	if err := h.revoker.Revoke(c.Request().Context(), principal.TokenID, expiresAt); err != nil {
		err = apperrors.Unavailable(msgRevokeTokenFailed, err)
		record(h.audit, c, logoutEntry(principal), err)
		return err
	}

	record(h.audit, c, logoutEntry(principal), nil)
	return respondMessage(c, http.StatusOK, msgLoggedOut)
}

func logoutEntry(principal *auth.Principal) audit.Entry {
	return audit.Entry{
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   principal.ID.String(),
		Action:       audit.ActionLogout,
		Metadata:     map[string]any{"token_id": principal.TokenID},
	}
}

func (h *AuthHandler) Me(c echo.Context) error {
	principal, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	u, err := h.users.GetByID(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MeResponse{
		User:        u,
		Permissions: auth.GrantStrings(principal.Grants),
	})
}

func (h *AuthHandler) SetupStatus(c echo.Context) error {
	count, err := h.users.Count(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SetupStatusResponse{SetupRequired: count == 0})
}

// SetupRoot creates the first account with root authority. It fails once any
// user exists.
func (h *AuthHandler) SetupRoot(c echo.Context) error {
	var req CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		return apperrors.InternalServer(msgHashPasswordFailed, err)
	}

	u, err := h.users.CreateRoot(c.Request().Context(), user.CreateUserInput{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		IsRoot:       true,
	})
	if err != nil {
		record(h.audit, c, audit.Entry{
			ResourceType: audit.ResourceTypeUser,
			Action:       audit.ActionCreate,
			Metadata:     map[string]any{"root": true},
		}, err)
		return err
	}

	record(h.audit, c, audit.Entry{
		Actor:        &u.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   u.ID.String(),
		Action:       audit.ActionCreate,
		Metadata:     map[string]any{"root": true},
	}, nil)
	logging.Ctx(c.Request().Context()).Info().Str("user_id", u.ID.String()).Msg("root user created")

	resp, err := h.issueFor(c, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) issueFor(c echo.Context, u *user.User) (*TokenResponse, error) {
	ctx := c.Request().Context()

	grants, err := h.users.Grants(ctx, u.ID)
	if err != nil {
		return nil, apperrors.InternalServer(msgLoadGrantsFailed, err)
	}

	issued, err := h.issuer.Issue(ctx, auth.IssueInput{
		UserID:      u.ID,
		Username:    u.Username,
		IsRoot:      u.IsRoot,
		Permissions: grants,
	})
	if err != nil {
		return nil, apperrors.Unavailable(msgIssueTokenFailed, err)
	}

	return &TokenResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		User:      u,
	}, nil
}

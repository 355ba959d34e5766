package http

import (
	"context"
	stdhttp "net/http"
	"strconv"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/config"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/http/handler"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/http/middleware"
	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/metrics"
	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/validator"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	jsonKeyStatus    = "status"
	statusOK         = "ok"
	requestBodyLimit = "1M"

	resourceUsers       = "users"
	resourceRoles       = "roles"
	resourcePermissions = "permissions"
	resourceVolumes     = "volumes"
	resourceQuotas      = "quotas"
	resourceAudit       = "audit"
	actionRead          = "read"
	actionCreate        = "create"
	actionUpdate        = "update"
	actionDelete        = "delete"
)

// HealthChecker is pinged by the health endpoint. Nil skips the check.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// UserStore backs both the account and the admin endpoints.
type UserStore interface {
	handler.AccountStore
	handler.UserAdmin
}

// AuditTrail records handler events and serves them back to admins.
type AuditTrail interface {
	handler.AuditLogger
	handler.AuditQuerier
}

type ServerDependencies struct {
	Config         *config.Config
	Health         HealthChecker
	Users          UserStore
	Roles          handler.RoleAdmin
	Permissions    handler.PermissionAdmin
	Hasher         handler.PasswordHasher
	Issuer         handler.TokenIssuer
	Revoker        handler.TokenRevoker
	Settings       handler.SettingsService
	Files          handler.FileService
	Volumes        handler.VolumeService
	Audit          AuditTrail
	AuthMiddleware *auth.Middleware
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	cfg := deps.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = CustomHTTPErrorHandler
	e.Validator = validator.New()

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	if len(cfg.Server.CORSOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: cfg.Server.CORSOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		}))
	}
	if cfg.Metrics.Enabled {
		e.Use(metrics.Middleware())
		metrics.RegisterRoute(e)
	}

	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware())

	strictRateLimiter := middleware.NewStrictRateLimiter()
	jsonBodyLimit := echomiddleware.BodyLimit(requestBodyLimit)
	var uploadMiddleware []echo.MiddlewareFunc
	if cfg.Storage.MaxUploadSize > 0 {
		uploadMiddleware = append(uploadMiddleware, echomiddleware.BodyLimit(uploadLimit(cfg.Storage.MaxUploadSize)))
	}

	authHandler := handler.NewAuthHandler(deps.Users, deps.Hasher, deps.Issuer, deps.Revoker, deps.Audit, handler.AuthConfig{
		AllowRegistration: cfg.Auth.AllowRegistration,
		RevocationMargin:  cfg.Auth.RevocationMargin,
	})
	adminHandler := handler.NewAdminHandler(deps.Users, deps.Roles, deps.Permissions, deps.Hasher, deps.Audit)
	settingsHandler := handler.NewSettingsHandler(deps.Settings, deps.Audit)
	storageHandler := handler.NewStorageHandler(deps.Files, deps.Audit)

	health := healthCheck(deps.Health)
	e.GET("/health", health)

	api := e.Group("/api")
	api.GET("/health", health)
	api.POST("/register", authHandler.Register, jsonBodyLimit, strictRateLimiter.Middleware())
	api.POST("/login", authHandler.Login, jsonBodyLimit, strictRateLimiter.Middleware())
	api.GET("/setup/status", authHandler.SetupStatus)
	api.POST("/setup/root", authHandler.SetupRoot, jsonBodyLimit, strictRateLimiter.Middleware())

	// The per-user limiter runs after authentication so it can key on the principal.
	userRateLimiter := middleware.NewUserRateLimiter()
	authed := api.Group("")
	authed.Use(deps.AuthMiddleware.RequireAuth(), userRateLimiter.Middleware())

	authed.POST("/logout", authHandler.Logout)
	authed.GET("/me", authHandler.Me)

	prefs := authed.Group("/settings", jsonBodyLimit)
	prefs.GET("/merged", settingsHandler.Merged)
	prefs.GET("/all", settingsHandler.List)
	prefs.GET("/system", settingsHandler.GetSystem)
	prefs.PUT("/system", settingsHandler.PutSystem)
	prefs.POST("/system", settingsHandler.PostSystem)
	prefs.GET("/path/:path", settingsHandler.GetPath)
	prefs.PUT("/path/:path", settingsHandler.PutPath)
	prefs.POST("/path/:path", settingsHandler.PostPath)
	prefs.DELETE("/path/:path", settingsHandler.DeletePath)

	require := deps.AuthMiddleware.RequirePermission
	admin := authed.Group("/admin", jsonBodyLimit)
	admin.GET("/users", adminHandler.ListUsers, require(actionRead, resourceUsers))
	admin.POST("/users", adminHandler.CreateUser, require(actionCreate, resourceUsers))
	admin.DELETE("/users/:id", adminHandler.DeleteUser, require(actionDelete, resourceUsers))
	admin.PUT("/users/:id/password", adminHandler.SetUserPassword, require(actionUpdate, resourceUsers))
	admin.PUT("/users/:id/roles", adminHandler.SetUserRoles, require(actionUpdate, resourceUsers))
	admin.GET("/roles", adminHandler.ListRoles, require(actionRead, resourceRoles))
	admin.POST("/roles", adminHandler.CreateRole, require(actionCreate, resourceRoles))
	admin.DELETE("/roles/:id", adminHandler.DeleteRole, require(actionDelete, resourceRoles))
	admin.PUT("/roles/:id/permissions", adminHandler.SetRolePermissions, require(actionUpdate, resourceRoles))
	admin.GET("/permissions", adminHandler.ListPermissions, require(actionRead, resourcePermissions))
	admin.POST("/permissions", adminHandler.CreatePermission, require(actionCreate, resourcePermissions))
	admin.DELETE("/permissions/:id", adminHandler.DeletePermission, require(actionDelete, resourcePermissions))
	if deps.Audit != nil {
		auditHandler := handler.NewAuditHandler(deps.Audit)
		admin.GET("/audit", auditHandler.List, require(actionRead, resourceAudit))
	}

	files := authed.Group("/storage")
	files.POST("/files", storageHandler.Upload, uploadMiddleware...)
	files.GET("/files", storageHandler.List)
	files.GET("/files/:id", storageHandler.Download)
	files.GET("/files/:id/url", storageHandler.DownloadURL)
	files.DELETE("/files/:id", storageHandler.Delete)
	files.GET("/quota", storageHandler.Quota)

	if deps.Volumes != nil {
		volumeHandler := handler.NewVolumeHandler(deps.Volumes, deps.Audit)
		volumes := files.Group("/volumes", jsonBodyLimit)
		volumes.GET("", volumeHandler.List, require(actionRead, resourceVolumes))
		volumes.POST("", volumeHandler.Create, require(actionCreate, resourceVolumes))
		volumes.GET("/:id", volumeHandler.Get, require(actionRead, resourceVolumes))
		volumes.PUT("/:id", volumeHandler.Update, require(actionUpdate, resourceVolumes))
		volumes.DELETE("/:id", volumeHandler.Delete, require(actionDelete, resourceVolumes))

		files.GET("/apps/:app/quota", volumeHandler.AppQuota)
		files.PUT("/apps/:app/quota", volumeHandler.SetAppQuota, jsonBodyLimit, require(actionUpdate, resourceQuotas))
	}

	return &Server{
		echo: e,
		deps: deps,
	}
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// uploadLimit leaves headroom over the file size for multipart framing.
func uploadLimit(maxUpload int64) string {
	const multipartOverhead = 1 << 20
	return strconv.FormatInt(maxUpload+multipartOverhead, 10)
}

func healthCheck(checker HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if checker != nil {
			if err := checker.Ping(c.Request().Context()); err != nil {
				return c.JSON(stdhttp.StatusServiceUnavailable, map[string]string{
					jsonKeyStatus: "unavailable",
				})
			}
		}
		return c.JSON(stdhttp.StatusOK, map[string]string{
			jsonKeyStatus: statusOK,
		})
	}
}

package app

import (
	"context"
	"fmt"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/config"
	apphttp "github.com/MatthewTaormina/Gemini-Web-UI/internal/http"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/repository/postgres"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/settings"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/storage"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/tokenstore"
	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/password"
)

const (
	errConnectDatabaseFmt = "failed to connect to database: %w"
	errMigrateFmt         = "failed to apply schema: %w"
	errOpenBadgerFmt      = "failed to open token store: %w"
	errCreateHasherFmt    = "failed to create password hasher: %w"
	errCreateDriverFmt    = "failed to create storage driver: %w"
)

// InitializeService wires up all dependencies and returns a configured Service.
func InitializeService(ctx context.Context, cfg *config.Config) (*Service, error) {
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	log := logging.With("app")

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf(errConnectDatabaseFmt, err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf(errMigrateFmt, err)
		}
		log.Info().Msg("database schema applied")
	}

	backend, err := newTokenBackend(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("backend", backend.name).Msg("token store ready")

	hasher, err := password.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		closeAll(backend, db)
		return nil, fmt.Errorf(errCreateHasherFmt, err)
	}

	driver, err := storage.NewDriver(cfg.Storage.Driver, cfg.Storage.Path, storage.S3Config{
		Bucket:          cfg.Storage.S3.Bucket,
		Region:          cfg.Storage.S3.Region,
		Endpoint:        cfg.Storage.S3.Endpoint,
		AccessKeyID:     cfg.Storage.S3.AccessKeyID,
		SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		UseSSL:          cfg.Storage.S3.UseSSL,
		ForcePathStyle:  cfg.Storage.S3.ForcePathStyle,
		Prefix:          cfg.Storage.S3.Prefix,
	})
	if err != nil {
		closeAll(backend, db)
		return nil, fmt.Errorf(errCreateDriverFmt, err)
	}
	log.Info().Str("driver", driver.Name()).Msg("storage driver ready")

	tokens := tokenstore.New(backend.secrets, backend.revocations)
	issuer := auth.NewIssuer(tokens, cfg.Auth.TokenExpiry)
	verifier := auth.NewVerifier(tokens, tokens)

	files := storage.NewService(
		driver,
		postgres.NewFileRepository(db),
		postgres.NewQuotaRepository(db),
		storage.Config{
			DefaultQuota:    cfg.Storage.DefaultQuota,
			DefaultAppQuota: cfg.Storage.DefaultAppQuota,
			MaxUploadSize:   cfg.Storage.MaxUploadSize,
			PresignExpiry:   cfg.Storage.PresignedURLExpiry,
		},
		storage.WithVolumes(postgres.NewVolumeRepository(db)),
		storage.WithAppQuotas(postgres.NewAppQuotaRepository(db)),
	)

	auditLogger := audit.NewLogger(postgres.NewAuditRepository(db))

	server := apphttp.NewServer(&apphttp.ServerDependencies{
		Config:         cfg,
		Health:         db,
		Users:          postgres.NewUserRepository(db),
		Roles:          postgres.NewRoleRepository(db),
		Permissions:    postgres.NewPermissionRepository(db),
		Hasher:         hasher,
		Issuer:         issuer,
		Revoker:        tokens,
		Settings:       settings.NewResolver(postgres.NewSettingsRepository(db)),
		Files:          files,
		Volumes:        files,
		Audit:          auditLogger,
		AuthMiddleware: auth.NewMiddleware(verifier),
	})

	return &Service{
		config:  cfg,
		db:      db,
		backend: backend,
		tokens:  tokens,
		files:   files,
		audit:   auditLogger,
		server:  server,
		log:     log,
	}, nil
}

// newTokenBackend picks one store for both the signing secret and the revocation ledger.
func newTokenBackend(cfg *config.Config, db *postgres.DB) (*tokenBackend, error) {
	switch cfg.Auth.TokenStoreBackend {
	case config.BackendBadger:
		bdb, err := tokenstore.OpenBadger(cfg.Auth.BadgerDir)
		if err != nil {
			return nil, fmt.Errorf(errOpenBadgerFmt, err)
		}
		repo := tokenstore.NewBadgerRepository(bdb)
		return &tokenBackend{
			name:        config.BackendBadger,
			secrets:     repo,
			revocations: repo,
			close:       bdb.Close,
		}, nil
	default:
		repo := postgres.NewTokenRepository(db)
		return &tokenBackend{
			name:        config.BackendPostgres,
			secrets:     repo,
			revocations: repo,
		}, nil
	}
}

func closeAll(backend *tokenBackend, db *postgres.DB) {
	if backend != nil && backend.close != nil {
		if err := backend.close(); err != nil {
			logging.Error().Err(err).Msg("failed to close token store")
		}
	}
	db.Close()
}

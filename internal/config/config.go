package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envCORSOrigins           = "CORS_ALLOWED_ORIGINS"
	envDatabaseURL           = "DATABASE_URL"
	envDBHost                = "DB_HOST"
	envDBPort                = "DB_PORT"
	envDBName                = "DB_NAME"
	envDBUser                = "DB_USER"
	envDBPassword            = "DB_PASSWORD"
	envDBSSLMode             = "DB_SSL_MODE"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envDBAutoMigrate         = "DB_AUTO_MIGRATE"
	envJWTExpiry             = "JWT_EXPIRY"
	envRevocationMargin      = "REVOCATION_MARGIN"
	envCleanupInterval       = "REVOCATION_CLEANUP_INTERVAL"
	envTokenStoreBackend     = "TOKEN_STORE_BACKEND"
	envBadgerDir             = "BADGER_DIR"
	envBcryptCost            = "BCRYPT_COST"
	envAllowRegistration     = "ALLOW_REGISTRATION"
	envLogLevel              = "LOG_LEVEL"
	envLogFormat             = "LOG_FORMAT"
	envStorageDriver         = "STORAGE_DRIVER"
	envStoragePath           = "STORAGE_PATH"
	envStorageDefaultQuota   = "STORAGE_DEFAULT_QUOTA"
	envStorageAppQuota       = "STORAGE_DEFAULT_APP_QUOTA"
	envMaxUploadSize         = "MAX_UPLOAD_SIZE"
	envDownloadURLTimeLimit  = "DOWNLOAD_URL_TIME_LIMIT"
	envS3Bucket              = "S3_BUCKET"
	envS3Region              = "S3_REGION"
	envS3Endpoint            = "S3_ENDPOINT"
	envS3AccessKeyID         = "S3_ACCESS_KEY_ID"
	envS3SecretAccessKey     = "S3_SECRET_ACCESS_KEY"
	envS3UseSSL              = "S3_USE_SSL"
	envS3ForcePathStyle      = "S3_FORCE_PATH_STYLE"
	envS3Prefix              = "S3_PREFIX"
	envMetricsEnabled        = "METRICS_ENABLED"
)

const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
	DriverDisk      = "disk"
	DriverS3        = "s3"
	FormatJSON      = "json"
	FormatConsole   = "console"
)

const (
	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 10 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultDBHost             = "localhost"
	defaultDBPort             = 5432
	defaultDBName             = "gemini_web_ui"
	defaultDBUser             = "gemini"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 25
	defaultDBMinConns         = 2
	defaultJWTExpiry          = 24 * time.Hour
	defaultRevocationMargin   = time.Hour
	defaultCleanupInterval    = time.Hour
	defaultBadgerDir          = "./data/tokenstore"
	defaultBcryptCost         = 10
	defaultLogLevel           = "info"
	defaultStoragePath        = "./storage_data"
	defaultStorageQuota       = int64(1024 * 1024 * 1024)
	defaultMaxUploadSize      = int64(100 * 1024 * 1024)
	defaultPresignedURLExpiry = 15 * time.Minute
	minBcryptCost             = 4
	maxBcryptCost             = 31

	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	Storage  StorageConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type DatabaseConfig struct {
	URL         string
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

type AuthConfig struct {
	TokenExpiry       time.Duration
	RevocationMargin  time.Duration
	CleanupInterval   time.Duration
	TokenStoreBackend string
	BadgerDir         string
	BcryptCost        int
	AllowRegistration bool
}

type LogConfig struct {
	Level  string
	Format string
}

type StorageConfig struct {
	Driver             string
	Path               string
	DefaultQuota       int64
	DefaultAppQuota    int64
	MaxUploadSize      int64
	PresignedURLExpiry time.Duration
	S3                 S3Config
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	ForcePathStyle  bool
	Prefix          string
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
			CORSOrigins:     getListEnv(envCORSOrigins),
		},
		Database: DatabaseConfig{
			URL:         os.Getenv(envDatabaseURL),
			Host:        getEnv(envDBHost, defaultDBHost),
			Port:        getIntEnv(envDBPort, defaultDBPort),
			Database:    getEnv(envDBName, defaultDBName),
			User:        getEnv(envDBUser, defaultDBUser),
			Password:    os.Getenv(envDBPassword),
			SSLMode:     getEnv(envDBSSLMode, defaultDBSSLMode),
			MaxConns:    getIntEnv(envDBMaxConns, defaultDBMaxConns),
			MinConns:    getIntEnv(envDBMinConns, defaultDBMinConns),
			AutoMigrate: getBoolEnv(envDBAutoMigrate, true),
		},
		Auth: AuthConfig{
			TokenExpiry:       getDurationEnv(envJWTExpiry, defaultJWTExpiry),
			RevocationMargin:  getDurationEnv(envRevocationMargin, defaultRevocationMargin),
			CleanupInterval:   getDurationEnv(envCleanupInterval, defaultCleanupInterval),
			TokenStoreBackend: strings.ToLower(getEnv(envTokenStoreBackend, BackendPostgres)),
			BadgerDir:         getEnv(envBadgerDir, defaultBadgerDir),
			BcryptCost:        getIntEnv(envBcryptCost, defaultBcryptCost),
			AllowRegistration: getBoolEnv(envAllowRegistration, true),
		},
		Log: LogConfig{
			Level:  getEnv(envLogLevel, defaultLogLevel),
			Format: strings.ToLower(getEnv(envLogFormat, FormatJSON)),
		},
		Storage: StorageConfig{
			Driver:             strings.ToLower(getEnv(envStorageDriver, DriverDisk)),
			Path:               getEnv(envStoragePath, defaultStoragePath),
			DefaultQuota:       getInt64Env(envStorageDefaultQuota, defaultStorageQuota),
			DefaultAppQuota:    getInt64Env(envStorageAppQuota, defaultStorageQuota),
			MaxUploadSize:      getInt64Env(envMaxUploadSize, defaultMaxUploadSize),
			PresignedURLExpiry: getDurationEnv(envDownloadURLTimeLimit, defaultPresignedURLExpiry),
			S3: S3Config{
				Bucket:          os.Getenv(envS3Bucket),
				Region:          os.Getenv(envS3Region),
				Endpoint:        os.Getenv(envS3Endpoint),
				AccessKeyID:     os.Getenv(envS3AccessKeyID),
				SecretAccessKey: os.Getenv(envS3SecretAccessKey),
				UseSSL:          getBoolEnv(envS3UseSSL, true),
				ForcePathStyle:  getBoolEnv(envS3ForcePathStyle, false),
				Prefix:          os.Getenv(envS3Prefix),
			},
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv(envMetricsEnabled, true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New(messages.requiredEnvNotSet(envPort))
	}

	if c.Database.URL == "" && c.Database.Password == "" {
		return errors.New(messages.requiredEnvNotSet(envDBPassword))
	}

	if c.Auth.TokenExpiry <= 0 {
		return errors.New(messages.mustBePositive(envJWTExpiry))
	}

	if c.Auth.RevocationMargin < 0 {
		return errors.New(messages.mustNotBeNegative(envRevocationMargin))
	}

	if c.Auth.CleanupInterval <= 0 {
		return errors.New(messages.mustBePositive(envCleanupInterval))
	}

	switch c.Auth.TokenStoreBackend {
	case BackendPostgres:
	case BackendBadger:
		if c.Auth.BadgerDir == "" {
			return errors.New(messages.requiredForSelected(envBadgerDir, envTokenStoreBackend, BackendBadger))
		}
	default:
		return errors.New(messages.mustBeOneOf(envTokenStoreBackend, c.Auth.TokenStoreBackend, BackendPostgres, BackendBadger))
	}

	if c.Auth.BcryptCost < minBcryptCost || c.Auth.BcryptCost > maxBcryptCost {
		return errors.New(messages.outOfRange(envBcryptCost, minBcryptCost, maxBcryptCost))
	}

	if c.Log.Format != FormatJSON && c.Log.Format != FormatConsole {
		return errors.New(messages.mustBeOneOf(envLogFormat, c.Log.Format, FormatJSON, FormatConsole))
	}

	if c.Storage.DefaultQuota < 0 {
		return errors.New(messages.mustNotBeNegative(envStorageDefaultQuota))
	}

	if c.Storage.DefaultAppQuota < 0 {
		return errors.New(messages.mustNotBeNegative(envStorageAppQuota))
	}

	switch c.Storage.Driver {
	case DriverDisk:
		if c.Storage.Path == "" {
			return errors.New(messages.requiredForSelected(envStoragePath, envStorageDriver, DriverDisk))
		}
	case DriverS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New(messages.requiredForSelected(envS3Bucket, envStorageDriver, DriverS3))
		}
		if c.Storage.S3.AccessKeyID == "" {
			return errors.New(messages.requiredForSelected(envS3AccessKeyID, envStorageDriver, DriverS3))
		}
		if c.Storage.S3.SecretAccessKey == "" {
			return errors.New(messages.requiredForSelected(envS3SecretAccessKey, envStorageDriver, DriverS3))
		}
	default:
		return errors.New(messages.mustBeOneOf(envStorageDriver, c.Storage.Driver, DriverDisk, DriverS3))
	}

	return nil
}

// DSN prefers DATABASE_URL and otherwise assembles a keyword/value string.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

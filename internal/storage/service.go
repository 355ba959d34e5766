package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultPresignExpiry = 15 * time.Minute

type FileRepository interface {
	Create(ctx context.Context, input *file.CreateFileInput) (*file.File, error)
	GetByID(ctx context.Context, id uuid.UUID) (*file.File, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*file.File, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type QuotaRepository interface {
	// Get returns apperrors.ErrNotFound when the user has no quota row yet.
	Get(ctx context.Context, userID uuid.UUID) (*file.Quota, error)
	// Reserve atomically adds bytes to the user's usage, creating the row with
	// defaultLimit if needed. It returns apperrors.ErrQuotaExceeded when the
	// result would pass a non-zero limit.
	Reserve(ctx context.Context, userID uuid.UUID, bytes, defaultLimit int64) (*file.Quota, error)
	Release(ctx context.Context, userID uuid.UUID, bytes int64) error
}

type Config struct {
	DefaultQuota    int64
	DefaultAppQuota int64
	MaxUploadSize   int64
	PresignExpiry   time.Duration
}

// Service stores user files on a driver and keeps metadata and quotas in sync.
type Service struct {
	driver    Driver
	files     FileRepository
	quotas    QuotaRepository
	volumes   VolumeRepository
	appQuotas AppQuotaRepository
	newDriver DriverFactory
	drivers   *driverCache
	cfg       Config
	urls      *URLCache
	log       zerolog.Logger
}

type Option func(*Service)

// WithVolumes lets uploads target named volumes. Without it only the default driver is used.
func WithVolumes(repo VolumeRepository) Option {
	return func(s *Service) { s.volumes = repo }
}

// WithAppQuotas meters uploads made on behalf of an app.
func WithAppQuotas(repo AppQuotaRepository) Option {
	return func(s *Service) { s.appQuotas = repo }
}

func WithDriverFactory(factory DriverFactory) Option {
	return func(s *Service) { s.newDriver = factory }
}

func NewService(driver Driver, files FileRepository, quotas QuotaRepository, cfg Config, opts ...Option) *Service {
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = defaultPresignExpiry
	}
	s := &Service{
		driver:    driver,
		files:     files,
		quotas:    quotas,
		newDriver: NewVolumeDriver,
		drivers:   newDriverCache(),
		cfg:       cfg,
		urls:      NewURLCache(),
		log:       logging.With("storage"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadInput describes one upload. A non-empty AppID stores the object under
// the app's namespace and charges the app's quota as well as the user's.
type UploadInput struct {
	UserID      uuid.UUID
	VolumeID    *uuid.UUID
	AppID       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *Service) Upload(ctx context.Context, in UploadInput) (*file.File, error) {
	name := cleanFilename(in.Filename)
	if name == "" {
		return nil, apperrors.BadRequest(msgEmptyFilename)
	}
	if in.AppID != "" && !ValidAppID(in.AppID) {
		return nil, apperrors.BadRequest(msgInvalidAppID)
	}
	if s.cfg.MaxUploadSize > 0 && in.Size > s.cfg.MaxUploadSize {
		return nil, apperrors.QuotaExceeded(fmt.Sprintf(errFileTooLargeFmt, s.cfg.MaxUploadSize))
	}

	driver, prefix := s.driver, ""
	if in.VolumeID != nil {
		v, err := s.activeVolume(ctx, *in.VolumeID)
		if err != nil {
			return nil, err
		}
		if driver, err = s.volumeDriver(v); err != nil {
			return nil, err
		}
		prefix = v.DefaultPrefix
	}

	held, err := s.reserve(ctx, in)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	key := objectKeyFor(prefix, in, id, name)

	if err := driver.Save(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		held.release(context.WithoutCancel(ctx))
		return nil, err
	}

	f, err := s.files.Create(ctx, &file.CreateFileInput{
		ID:          id,
		UserID:      in.UserID,
		VolumeID:    in.VolumeID,
		AppID:       in.AppID,
		Filename:    name,
		StoragePath: key,
		MimeType:    in.ContentType,
		Size:        in.Size,
	})
	if err != nil {
		cleanupCtx := context.WithoutCancel(ctx)
		if delErr := driver.Delete(cleanupCtx, key); delErr != nil {
			s.log.Error().Err(delErr).Str("key", key).Msg(msgCleanupFailed)
		}
		held.release(cleanupCtx)
		return nil, fmt.Errorf(errRecordFileFmt, err)
	}

	metrics.StorageBytesWritten.Add(float64(in.Size))
	return f, nil
}

// reservations undo quota charges in reverse order.
type reservations []func(context.Context)

func (r reservations) release(ctx context.Context) {
	for i := len(r) - 1; i >= 0; i-- {
		r[i](ctx)
	}
}

// reserve charges the user, then the app, then the volume. A failed charge
// returns everything taken so far.
func (s *Service) reserve(ctx context.Context, in UploadInput) (reservations, error) {
	var held reservations

	if _, err := s.quotas.Reserve(ctx, in.UserID, in.Size, s.cfg.DefaultQuota); err != nil {
		return nil, quotaError(err, fmt.Sprintf(errQuotaExceededFmt, in.Size))
	}
	held = append(held, func(ctx context.Context) { s.releaseUser(ctx, in.UserID, in.Size) })

	if in.AppID != "" && s.appQuotas != nil {
		if _, err := s.appQuotas.Reserve(ctx, in.AppID, in.Size, s.cfg.DefaultAppQuota); err != nil {
			held.release(context.WithoutCancel(ctx))
			return nil, quotaError(err, fmt.Sprintf(errAppQuotaExceededFmt, in.Size, in.AppID))
		}
		held = append(held, func(ctx context.Context) { s.releaseApp(ctx, in.AppID, in.Size) })
	}

	if in.VolumeID != nil {
		id := *in.VolumeID
		if err := s.volumes.Reserve(ctx, id, in.Size); err != nil {
			held.release(context.WithoutCancel(ctx))
			return nil, quotaError(err, fmt.Sprintf(errVolumeQuotaExceededFmt, in.Size, id))
		}
		held = append(held, func(ctx context.Context) { s.releaseVolume(ctx, id, in.Size) })
	}

	return held, nil
}

func quotaError(err error, msg string) error {
	if errors.Is(err, apperrors.ErrQuotaExceeded) {
		return apperrors.QuotaExceeded(msg)
	}
	return fmt.Errorf(errReserveQuotaFmt, err)
}

// Get returns the caller's file. Files owned by other users are reported as missing.
func (s *Service) Get(ctx context.Context, userID, fileID uuid.UUID) (*file.File, error) {
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, apperrors.NotFound(msgFileNotFound)
	}
	return f, nil
}

func (s *Service) Open(ctx context.Context, userID, fileID uuid.UUID) (*file.File, io.ReadCloser, error) {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	driver, err := s.driverFor(ctx, f.VolumeID)
	if err != nil {
		return nil, nil, err
	}

	body, err := driver.Open(ctx, f.StoragePath)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, nil, apperrors.NotFound(msgFileNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return f, body, nil
}

// DownloadURL returns a presigned link when the driver supports one. The
// boolean is false when the caller should stream through the API instead.
func (s *Service) DownloadURL(ctx context.Context, userID, fileID uuid.UUID) (string, bool, error) {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return "", false, err
	}

	driver, err := s.driverFor(ctx, f.VolumeID)
	if err != nil {
		return "", false, err
	}

	presigner, ok := driver.(Presigner)
	if !ok {
		return "", false, nil
	}

	if url, ok := s.urls.Get(f.StoragePath); ok {
		return url, true, nil
	}

	issuedAt := time.Now()
	url, err := presigner.PresignGet(ctx, f.StoragePath, s.cfg.PresignExpiry)
	if err != nil {
		return "", false, err
	}
	// Links are reused for half their lifetime so callers never get one about to lapse.
	s.urls.Set(f.StoragePath, url, issuedAt.Add(s.cfg.PresignExpiry/2))
	return url, true, nil
}

// PruneURLCache drops presigned links that are no longer handed out.
func (s *Service) PruneURLCache() int {
	return s.urls.Prune()
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*file.File, error) {
	return s.files.ListByUser(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return err
	}

	driver, err := s.driverFor(ctx, f.VolumeID)
	if err != nil {
		return err
	}

	if err := driver.Delete(ctx, f.StoragePath); err != nil {
		if !errors.Is(err, ErrObjectNotFound) {
			return err
		}
		s.log.Warn().Str("key", f.StoragePath).Msg(msgObjectMissing)
	}

	if err := s.files.Delete(ctx, f.ID); err != nil {
		return err
	}
	s.urls.Forget(f.StoragePath)

	s.releaseUser(ctx, f.UserID, f.Size)
	if f.AppID != "" && s.appQuotas != nil {
		s.releaseApp(ctx, f.AppID, f.Size)
	}
	if f.VolumeID != nil && s.volumes != nil {
		s.releaseVolume(ctx, *f.VolumeID, f.Size)
	}
	return nil
}

// Quota reports the user's allowance, falling back to the configured default.
func (s *Service) Quota(ctx context.Context, userID uuid.UUID) (*file.Quota, error) {
	q, err := s.quotas.Get(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &file.Quota{UserID: userID, Limit: s.cfg.DefaultQuota}, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) releaseUser(ctx context.Context, userID uuid.UUID, bytes int64) {
	if err := s.quotas.Release(ctx, userID, bytes); err != nil {
		s.logReleaseFailure(err, "user_id", userID.String(), bytes)
	}
}

func (s *Service) releaseApp(ctx context.Context, appID string, bytes int64) {
	if err := s.appQuotas.Release(ctx, appID, bytes); err != nil {
		s.logReleaseFailure(err, "app_id", appID, bytes)
	}
}

func (s *Service) releaseVolume(ctx context.Context, volumeID uuid.UUID, bytes int64) {
	if err := s.volumes.Release(ctx, volumeID, bytes); err != nil {
		s.logReleaseFailure(err, "volume_id", volumeID.String(), bytes)
	}
}

func (s *Service) logReleaseFailure(err error, field, owner string, bytes int64) {
	s.log.Error().Err(fmt.Errorf(errReleaseQuotaFmt, err)).
		Str(field, owner).
		Int64("bytes", bytes).
		Msg(msgReleaseFailed)
}

// objectKeyFor namespaces objects per user or app under the volume prefix and
// keys them by file id so that user-supplied names never reach the driver.
func objectKeyFor(prefix string, in UploadInput, fileID uuid.UUID, filename string) string {
	namespace, owner := userNamespace, in.UserID.String()
	if in.AppID != "" {
		namespace, owner = appNamespace, in.AppID
	}
	return path.Join(prefix, namespace, owner, fileID.String()+strings.ToLower(filepath.Ext(filename)))
}

func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

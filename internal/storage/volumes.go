package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/volume"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
)

type VolumeRepository interface {
	Create(ctx context.Context, input *volume.CreateVolumeInput) (*volume.Volume, error)
	GetByID(ctx context.Context, id uuid.UUID) (*volume.Volume, error)
	List(ctx context.Context) ([]*volume.Volume, error)
	Update(ctx context.Context, id uuid.UUID, input *volume.UpdateVolumeInput) (*volume.Volume, error)
	// Delete returns apperrors.ErrConflict while files still live on the volume.
	Delete(ctx context.Context, id uuid.UUID) error
	// Reserve returns apperrors.ErrQuotaExceeded when bytes would pass a non-zero limit.
	Reserve(ctx context.Context, id uuid.UUID, bytes int64) error
	Release(ctx context.Context, id uuid.UUID, bytes int64) error
}

type AppQuotaRepository interface {
	// Get returns apperrors.ErrNotFound when the app has no quota row yet.
	Get(ctx context.Context, appID string) (*file.AppQuota, error)
	Reserve(ctx context.Context, appID string, bytes, defaultLimit int64) (*file.AppQuota, error)
	Release(ctx context.Context, appID string, bytes int64) error
	SetLimit(ctx context.Context, appID string, limit int64) (*file.AppQuota, error)
}

// DriverFactory builds the driver backing a volume.
type DriverFactory func(v *volume.Volume) (Driver, error)

// NewVolumeDriver builds a disk or s3 driver from the volume's stored config.
func NewVolumeDriver(v *volume.Volume) (Driver, error) {
	return NewDriver(v.Driver, v.Config.Path, S3Config{
		Bucket:          v.Config.Bucket,
		Region:          v.Config.Region,
		Endpoint:        v.Config.Endpoint,
		AccessKeyID:     v.Config.AccessKeyID,
		SecretAccessKey: v.Config.SecretAccessKey,
		UseSSL:          v.Config.UseSSL,
		ForcePathStyle:  v.Config.ForcePathStyle,
		Prefix:          v.Config.Prefix,
	})
}

var appIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidAppID reports whether id can name an app upload namespace.
func ValidAppID(id string) bool {
	return appIDPattern.MatchString(id)
}

// driverCache keeps one driver per volume so configs are resolved once per process.
type driverCache struct {
	mu      sync.RWMutex
	drivers map[uuid.UUID]Driver
}

func newDriverCache() *driverCache {
	return &driverCache{drivers: make(map[uuid.UUID]Driver)}
}

func (c *driverCache) get(id uuid.UUID) (Driver, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.drivers[id]
	return d, ok
}

// put stores d unless another caller got there first, and returns the winner.
func (c *driverCache) put(id uuid.UUID, d Driver) Driver {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.drivers[id]; ok {
		return existing
	}
	c.drivers[id] = d
	return d
}

func (c *driverCache) forget(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drivers, id)
}

func (c *driverCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.drivers)
}

// driverFor returns the driver holding objects of the given volume. A nil id
// selects the default driver.
func (s *Service) driverFor(ctx context.Context, volumeID *uuid.UUID) (Driver, error) {
	if volumeID == nil {
		return s.driver, nil
	}
	if d, ok := s.drivers.get(*volumeID); ok {
		return d, nil
	}
	if s.volumes == nil {
		return nil, apperrors.NotFound(msgVolumeNotFound)
	}

	v, err := s.volumes.GetByID(ctx, *volumeID)
	if err != nil {
		return nil, err
	}
	return s.volumeDriver(v)
}

func (s *Service) volumeDriver(v *volume.Volume) (Driver, error) {
	if d, ok := s.drivers.get(v.ID); ok {
		return d, nil
	}

	d, err := s.newDriver(v)
	if err != nil {
		return nil, fmt.Errorf(errVolumeDriverFmt, v.Name, err)
	}
	return s.drivers.put(v.ID, d), nil
}

// activeVolume loads a volume that may accept new uploads.
func (s *Service) activeVolume(ctx context.Context, id uuid.UUID) (*volume.Volume, error) {
	if s.volumes == nil {
		return nil, apperrors.NotFound(msgVolumeNotFound)
	}

	v, err := s.volumes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.IsActive {
		return nil, apperrors.BadRequest(msgVolumeInactive)
	}
	return v, nil
}

func (s *Service) volumeRepo() (VolumeRepository, error) {
	if s.volumes == nil {
		return nil, apperrors.Unavailable(msgVolumesDisabled, nil)
	}
	return s.volumes, nil
}

func (s *Service) ListVolumes(ctx context.Context) ([]*volume.Volume, error) {
	repo, err := s.volumeRepo()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

func (s *Service) GetVolume(ctx context.Context, id uuid.UUID) (*volume.Volume, error) {
	repo, err := s.volumeRepo()
	if err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

// CreateVolume checks that the driver can be built from the config before
// anything is stored.
func (s *Service) CreateVolume(ctx context.Context, in volume.CreateVolumeInput) (*volume.Volume, error) {
	repo, err := s.volumeRepo()
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Driver = strings.ToLower(strings.TrimSpace(in.Driver))
	in.DefaultPrefix = cleanPrefix(in.DefaultPrefix)
	if in.Name == "" {
		return nil, apperrors.BadRequest(msgVolumeNameRequired)
	}
	if in.QuotaLimit < 0 {
		return nil, apperrors.BadRequest(msgNegativeQuota)
	}
	if err := s.checkDriverConfig(in.Driver, in.Config); err != nil {
		return nil, err
	}

	v, err := repo.Create(ctx, &in)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("volume_id", v.ID.String()).Str("driver", v.Driver).Msg("volume created")
	return v, nil
}

// UpdateVolume drops the cached driver so the next access uses the new config.
func (s *Service) UpdateVolume(ctx context.Context, id uuid.UUID, in volume.UpdateVolumeInput) (*volume.Volume, error) {
	repo, err := s.volumeRepo()
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.BadRequest(msgVolumeNameRequired)
		}
		in.Name = &name
	}
	if in.QuotaLimit != nil && *in.QuotaLimit < 0 {
		return nil, apperrors.BadRequest(msgNegativeQuota)
	}
	if in.DefaultPrefix != nil {
		prefix := cleanPrefix(*in.DefaultPrefix)
		in.DefaultPrefix = &prefix
	}
	if in.Config != nil {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		cfg := *in.Config
		if cfg.SecretAccessKey == volume.RedactedSecret {
			cfg.SecretAccessKey = current.Config.SecretAccessKey
		}
		if err := s.checkDriverConfig(current.Driver, cfg); err != nil {
			return nil, err
		}
		in.Config = &cfg
	}

	v, err := repo.Update(ctx, id, &in)
	if err != nil {
		return nil, err
	}
	s.drivers.forget(id)
	return v, nil
}

func (s *Service) DeleteVolume(ctx context.Context, id uuid.UUID) error {
	repo, err := s.volumeRepo()
	if err != nil {
		return err
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	s.drivers.forget(id)
	return nil
}

func (s *Service) checkDriverConfig(kind string, cfg volume.Config) error {
	switch kind {
	case DriverDisk:
		if strings.TrimSpace(cfg.Path) == "" {
			return apperrors.BadRequest(msgVolumePathRequired)
		}
	case DriverS3:
		if cfg.Bucket == "" {
			return apperrors.BadRequest(msgVolumeBucketRequired)
		}
	default:
		return apperrors.BadRequest(fmt.Sprintf(errUnknownDriverFmt, kind))
	}

	if _, err := s.newDriver(&volume.Volume{Driver: kind, Config: cfg}); err != nil {
		return apperrors.BadRequest(fmt.Sprintf(errVolumeConfigFmt, err))
	}
	return nil
}

// AppQuota reports an app's allowance, falling back to the configured default.
func (s *Service) AppQuota(ctx context.Context, appID string) (*file.AppQuota, error) {
	if !ValidAppID(appID) {
		return nil, apperrors.BadRequest(msgInvalidAppID)
	}
	if s.appQuotas == nil {
		return &file.AppQuota{AppID: appID}, nil
	}

	q, err := s.appQuotas.Get(ctx, appID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &file.AppQuota{AppID: appID, Limit: s.cfg.DefaultAppQuota}, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) SetAppQuota(ctx context.Context, appID string, limit int64) (*file.AppQuota, error) {
	if !ValidAppID(appID) {
		return nil, apperrors.BadRequest(msgInvalidAppID)
	}
	if limit < 0 {
		return nil, apperrors.BadRequest(msgNegativeQuota)
	}
	if s.appQuotas == nil {
		return nil, apperrors.Unavailable(msgAppQuotasDisabled, nil)
	}
	return s.appQuotas.SetLimit(ctx, appID, limit)
}

// cleanPrefix normalises a volume prefix to a relative slash path without dot segments.
func cleanPrefix(prefix string) string {
	prefix = strings.ReplaceAll(strings.TrimSpace(prefix), "\\", "/")
	if prefix == "" {
		return ""
	}
	return strings.Trim(path.Clean("/"+prefix), "/")
}

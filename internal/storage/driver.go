package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	DriverDisk = "disk"
	DriverS3   = "s3"

	userNamespace = "users"
	appNamespace  = "apps"

	errUnknownDriverFmt       = "unknown storage driver %q"
	errSaveObjectFmt          = "save object %s: %w"
	errOpenObjectFmt          = "open object %s: %w"
	errDeleteObjectFmt        = "delete object %s: %w"
	errStatObjectFmt          = "stat object %s: %w"
	errCreateRootFmt          = "create storage root %s: %w"
	errCreateSessionFmt       = "failed to create AWS session: %w"
	errPresignFmt             = "failed to generate presigned download URL: %w"
	errReserveQuotaFmt        = "reserve quota: %w"
	errReleaseQuotaFmt        = "release quota: %w"
	errRecordFileFmt          = "record file: %w"
	errVolumeDriverFmt        = "open volume %s: %w"
	errVolumeConfigFmt        = "invalid volume config: %v"
	errFileTooLargeFmt        = "file exceeds the maximum upload size of %d bytes"
	errQuotaExceededFmt       = "upload of %d bytes exceeds the remaining storage quota"
	errAppQuotaExceededFmt    = "upload of %d bytes exceeds the remaining quota of app %s"
	errVolumeQuotaExceededFmt = "upload of %d bytes exceeds the remaining capacity of volume %s"
	msgFileNotFound           = "file not found"
	msgEmptyFilename          = "filename is required"
	msgInvalidAppID           = "app id must be 1-64 letters, digits, '-' or '_'"
	msgVolumeNotFound         = "volume not found"
	msgVolumeInactive         = "volume is not accepting uploads"
	msgVolumeNameRequired     = "volume name is required"
	msgVolumePathRequired     = "disk volumes need a path"
	msgVolumeBucketRequired   = "s3 volumes need a bucket"
	msgNegativeQuota          = "quota limit must not be negative"
	msgVolumesDisabled        = "storage volumes are not configured"
	msgAppQuotasDisabled      = "app quotas are not configured"
	msgCleanupFailed          = "failed to clean up after upload error"
	msgReleaseFailed          = "failed to release quota"
	msgObjectMissing          = "stored object already missing"
)

// ErrObjectNotFound is returned by drivers for keys that hold no object.
var ErrObjectNotFound = errors.New("object not found")

// Driver stores opaque objects under slash-separated keys.
type Driver interface {
	Name() string
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Presigner is implemented by drivers that can hand out direct download links.
type Presigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// NewDriver builds the driver named by kind.
func NewDriver(kind, diskRoot string, s3cfg S3Config) (Driver, error) {
	switch kind {
	case DriverDisk, "":
		return NewDiskDriver(diskRoot)
	case DriverS3:
		return NewS3Driver(s3cfg)
	default:
		return nil, fmt.Errorf(errUnknownDriverFmt, kind)
	}
}

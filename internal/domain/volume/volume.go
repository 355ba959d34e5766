package volume

import (
	"time"

	"github.com/google/uuid"
)

// RedactedSecret replaces secrets in responses. Sending it back on update keeps the stored value.
const RedactedSecret = "********"

// Volume is a named storage backend that uploads can target instead of the
// server's default driver.
type Volume struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Driver        string    `json:"driver"`
	Config        Config    `json:"config"`
	DefaultPrefix string    `json:"default_prefix"`
	QuotaLimit    int64     `json:"quota_limit"`
	QuotaUsed     int64     `json:"quota_used"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Config holds the driver settings. Path is for disk volumes; the rest is for s3.
type Config struct {
	Path            string `json:"path,omitempty"`
	Bucket          string `json:"bucket,omitempty"`
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	UseSSL          bool   `json:"use_ssl,omitempty"`
	ForcePathStyle  bool   `json:"force_path_style,omitempty"`
	Prefix          string `json:"prefix,omitempty"`
}

type CreateVolumeInput struct {
	Name          string
	Driver        string
	Config        Config
	DefaultPrefix string
	QuotaLimit    int64
}

// UpdateVolumeInput changes only the non-nil fields. The driver is fixed at creation.
type UpdateVolumeInput struct {
	Name          *string
	Config        *Config
	DefaultPrefix *string
	QuotaLimit    *int64
	IsActive      *bool
}

// Redacted returns a copy that is safe to send to clients.
func (v *Volume) Redacted() *Volume {
	cp := *v
	if cp.Config.SecretAccessKey != "" {
		cp.Config.SecretAccessKey = RedactedSecret
	}
	return &cp
}

// Allows reports whether size more bytes fit. A zero QuotaLimit means unlimited.
func (v *Volume) Allows(size int64) bool {
	return v.QuotaLimit == 0 || v.QuotaUsed+size <= v.QuotaLimit
}

package file

import (
	"time"

	"github.com/google/uuid"
)

// File is owned by the uploading user. AppID is set for uploads into an
// app namespace and VolumeID when the file lives on a named volume rather
// than the default driver.
type File struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	VolumeID    *uuid.UUID `json:"volume_id,omitempty"`
	AppID       string     `json:"app_id,omitempty"`
	Filename    string     `json:"filename"`
	StoragePath string     `json:"-"`
	MimeType    string     `json:"mime_type"`
	Size        int64      `json:"size"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CreateFileInput struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	VolumeID    *uuid.UUID
	AppID       string
	Filename    string
	StoragePath string
	MimeType    string
	Size        int64
}

// Quota tracks a user's storage allowance. A zero Limit means unlimited.
type Quota struct {
	UserID    uuid.UUID `json:"user_id"`
	Limit     int64     `json:"quota_limit"`
	Used      int64     `json:"quota_used"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Quota) Remaining() int64 {
	return remaining(q.Limit, q.Used)
}

// Allows reports whether size more bytes fit within the quota.
func (q *Quota) Allows(size int64) bool {
	return q.Limit == 0 || q.Used+size <= q.Limit
}

// AppQuota is the shared allowance of everything uploaded into one app's namespace.
type AppQuota struct {
	AppID     string    `json:"app_id"`
	Limit     int64     `json:"quota_limit"`
	Used      int64     `json:"quota_used"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *AppQuota) Remaining() int64 {
	return remaining(q.Limit, q.Used)
}

func (q *AppQuota) Allows(size int64) bool {
	return q.Limit == 0 || q.Used+size <= q.Limit
}

// remaining is -1 for unlimited quotas.
func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	if used >= limit {
		return 0
	}
	return limit - used
}

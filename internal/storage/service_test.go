package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFiles struct {
	mu        sync.Mutex
	files     map[uuid.UUID]*file.File
	createErr error
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{files: map[uuid.UUID]*file.File{}}
}

func (m *memoryFiles) Create(_ context.Context, in *file.CreateFileInput) (*file.File, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &file.File{
		ID:          in.ID,
		UserID:      in.UserID,
		VolumeID:    in.VolumeID,
		AppID:       in.AppID,
		Filename:    in.Filename,
		StoragePath: in.StoragePath,
		MimeType:    in.MimeType,
		Size:        in.Size,
		CreatedAt:   time.Now(),
	}
	m.files[f.ID] = f
	return f, nil
}

func (m *memoryFiles) GetByID(_ context.Context, id uuid.UUID) (*file.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, apperrors.NotFound("file not found")
	}
	return f, nil
}

func (m *memoryFiles) ListByUser(_ context.Context, userID uuid.UUID) ([]*file.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*file.File
	for _, f := range m.files {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memoryFiles) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	return nil
}

type memoryQuotas struct {
	mu     sync.Mutex
	quotas map[uuid.UUID]*file.Quota
}

func newMemoryQuotas() *memoryQuotas {
	return &memoryQuotas{quotas: map[uuid.UUID]*file.Quota{}}
}

func (m *memoryQuotas) Get(_ context.Context, userID uuid.UUID) (*file.Quota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotas[userID]
	if !ok {
		return nil, apperrors.NotFound("quota not found")
	}
	cp := *q
	return &cp, nil
}

func (m *memoryQuotas) Reserve(_ context.Context, userID uuid.UUID, bytes, defaultLimit int64) (*file.Quota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotas[userID]
	if !ok {
		q = &file.Quota{UserID: userID, Limit: defaultLimit}
		m.quotas[userID] = q
	}
	if !q.Allows(bytes) {
		return nil, apperrors.ErrQuotaExceeded
	}
	q.Used += bytes
	cp := *q
	return &cp, nil
}

func (m *memoryQuotas) Release(_ context.Context, userID uuid.UUID, bytes int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.quotas[userID]; ok {
		q.Used -= bytes
		if q.Used < 0 {
			q.Used = 0
		}
	}
	return nil
}

type storageFixture struct {
	svc    *Service
	driver *DiskDriver
	files  *memoryFiles
	quotas *memoryQuotas
}

func newFixture(t *testing.T, cfg Config) storageFixture {
	t.Helper()
	d, err := NewDiskDriver(t.TempDir())
	require.NoError(t, err)
	files := newMemoryFiles()
	quotas := newMemoryQuotas()
	return storageFixture{
		svc:    NewService(d, files, quotas, cfg),
		driver: d,
		files:  files,
		quotas: quotas,
	}
}

func upload(t *testing.T, svc *Service, userID uuid.UUID, name, body string) (*file.File, error) {
	t.Helper()
	return svc.Upload(context.Background(), UploadInput{
		UserID:      userID,
		Filename:    name,
		ContentType: "text/plain",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	})
}

func TestService_UploadOpenDelete(t *testing.T) {
	fx := newFixture(t, Config{DefaultQuota: 100})
	ctx := context.Background()
	userID := uuid.New()

	f, err := upload(t, fx.svc, userID, "notes.TXT", "hello")
	require.NoError(t, err)
	assert.Equal(t, "notes.TXT", f.Filename)
	assert.Equal(t, int64(5), f.Size)
	assert.True(t, strings.HasPrefix(f.StoragePath, "users/"+userID.String()+"/"))
	assert.True(t, strings.HasSuffix(f.StoragePath, ".txt"))

	q, err := fx.svc.Quota(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), q.Used)

	got, body, err := fx.svc.Open(ctx, userID, f.ID)
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	body.Close()
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, f.ID, got.ID)

	list, err := fx.svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, fx.svc.Delete(ctx, userID, f.ID))

	q, err = fx.svc.Quota(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Used)

	exists, err := fx.driver.Exists(ctx, f.StoragePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestService_UploadEnforcesQuota(t *testing.T) {
	fx := newFixture(t, Config{DefaultQuota: 8})
	userID := uuid.New()

	_, err := upload(t, fx.svc, userID, "a.txt", "12345")
	require.NoError(t, err)

	_, err = upload(t, fx.svc, userID, "b.txt", "12345")
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	q, err := fx.svc.Quota(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), q.Used)
	assert.Equal(t, int64(3), q.Remaining())

	list, _ := fx.svc.List(context.Background(), userID)
	assert.Len(t, list, 1)
}

func TestService_UnlimitedQuota(t *testing.T) {
	fx := newFixture(t, Config{})
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := upload(t, fx.svc, userID, "big.bin", strings.Repeat("x", 1024))
		require.NoError(t, err)
	}

	q, err := fx.svc.Quota(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), q.Remaining())
}

func TestService_UploadRejectsOversizedFile(t *testing.T) {
	fx := newFixture(t, Config{MaxUploadSize: 4})

	_, err := upload(t, fx.svc, uuid.New(), "a.txt", "12345")
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
}

func TestService_UploadRejectsEmptyFilename(t *testing.T) {
	fx := newFixture(t, Config{})

	_, err := upload(t, fx.svc, uuid.New(), "../", "x")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestService_FailedRecordRollsBack(t *testing.T) {
	fx := newFixture(t, Config{DefaultQuota: 100})
	fx.files.createErr = errors.New("insert failed")
	userID := uuid.New()

	_, err := upload(t, fx.svc, userID, "a.txt", "hello")
	assert.ErrorContains(t, err, "insert failed")

	q, err := fx.svc.Quota(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Used)
}

func TestService_OtherUsersFilesAreHidden(t *testing.T) {
	fx := newFixture(t, Config{})
	owner, other := uuid.New(), uuid.New()

	f, err := upload(t, fx.svc, owner, "a.txt", "secret")
	require.NoError(t, err)

	_, _, err = fx.svc.Open(context.Background(), other, f.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, fx.svc.Delete(context.Background(), other, f.ID), apperrors.ErrNotFound)
}

func TestService_QuotaDefaultsWhenUnset(t *testing.T) {
	fx := newFixture(t, Config{DefaultQuota: 42})

	q, err := fx.svc.Quota(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(42), q.Limit)
	assert.Equal(t, int64(0), q.Used)
}

func TestService_DownloadURL(t *testing.T) {
	fx := newFixture(t, Config{})
	userID := uuid.New()
	f, err := upload(t, fx.svc, userID, "a.txt", "x")
	require.NoError(t, err)

	_, ok, err := fx.svc.DownloadURL(context.Background(), userID, f.ID)
	require.NoError(t, err)
	assert.False(t, ok, "disk driver streams through the API")
}

type presigningDisk struct {
	*DiskDriver
	calls int
}

func (p *presigningDisk) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	p.calls++
	return "https://objects.test/" + key, nil
}

func TestService_DownloadURL_ReusesPresignedLink(t *testing.T) {
	d, err := NewDiskDriver(t.TempDir())
	require.NoError(t, err)
	driver := &presigningDisk{DiskDriver: d}
	svc := NewService(driver, newMemoryFiles(), newMemoryQuotas(), Config{PresignExpiry: time.Hour})

	userID := uuid.New()
	f, err := upload(t, svc, userID, "a.txt", "x")
	require.NoError(t, err)

	first, ok, err := svc.DownloadURL(context.Background(), userID, f.ID)
	require.NoError(t, err)
	require.True(t, ok)
	second, _, err := svc.DownloadURL(context.Background(), userID, f.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, driver.calls)

	require.NoError(t, svc.Delete(context.Background(), userID, f.ID))
	assert.Equal(t, 0, svc.urls.Len())
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "a.txt", cleanFilename("a.txt"))
	assert.Equal(t, "a.txt", cleanFilename("dir/a.txt"))
	assert.Equal(t, "a.txt", cleanFilename(`C:\Users\me\a.txt`))
	assert.Equal(t, "", cleanFilename(".."))
	assert.Equal(t, "", cleanFilename(""))
}

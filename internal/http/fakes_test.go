package http

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/file"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/user"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/domain/volume"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*user.User
	grants map[uuid.UUID][]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:   make(map[uuid.UUID]*user.User),
		grants: make(map[uuid.UUID][]string),
	}
}

func (f *fakeUsers) Create(_ context.Context, input user.CreateUserInput) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(input)
}

func (f *fakeUsers) insertLocked(input user.CreateUserInput) (*user.User, error) {
	for _, u := range f.byID {
		if u.Username == input.Username {
			return nil, &apperrors.AppError{Code: "CONFLICT", Message: "username already exists", Err: apperrors.ErrUsernameExists}
		}
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		IsRoot:       input.IsRoot,
		Roles:        []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) CreateRoot(_ context.Context, input user.CreateUserInput) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.byID) > 0 {
		return nil, &apperrors.AppError{Code: "SETUP_COMPLETE", Message: "root user already exists", Err: apperrors.ErrSetupComplete}
	}
	input.IsRoot = true
	return f.insertLocked(input)
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

func (f *fakeUsers) Grants(_ context.Context, id uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.grants[id]...), nil
}

func (f *fakeUsers) List(context.Context) ([]*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*user.User, 0, len(f.byID))
	for _, u := range f.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUsers) SetRoles(_ context.Context, id uuid.UUID, roleNames []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.Roles = append([]string(nil), roleNames...)
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[id]; !ok {
		return apperrors.NotFound("user not found")
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) grant(username string, permissions ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Username == username {
			f.grants[u.ID] = permissions
		}
	}
}

type fakeRoles struct {
	mu    sync.Mutex
	roles []*user.Role
}

func (f *fakeRoles) Create(_ context.Context, input user.CreateRoleInput) (*user.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := &user.Role{ID: uuid.New(), Name: input.Name, Description: input.Description, CreatedAt: time.Now()}
	f.roles = append(f.roles, r)
	return r, nil
}

func (f *fakeRoles) List(context.Context) ([]*user.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*user.Role(nil), f.roles...), nil
}

func (f *fakeRoles) SetPermissions(_ context.Context, id uuid.UUID, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.roles {
		if r.ID == id {
			r.Permissions = names
			return nil
		}
	}
	return apperrors.NotFound("role not found")
}

func (f *fakeRoles) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, r := range f.roles {
		if r.ID == id {
			f.roles = append(f.roles[:i], f.roles[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("role not found")
}

type fakePermissions struct {
	mu    sync.Mutex
	perms []*user.Permission
}

func (f *fakePermissions) Create(_ context.Context, input user.CreatePermissionInput) (*user.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.perms {
		if p.Name == input.Name {
			return nil, apperrors.Conflict("permission with this name already exists")
		}
	}
	p := &user.Permission{ID: uuid.New(), Name: input.Name, Description: input.Description, CreatedAt: time.Now()}
	f.perms = append(f.perms, p)
	return p, nil
}

func (f *fakePermissions) List(context.Context) ([]*user.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*user.Permission(nil), f.perms...), nil
}

func (f *fakePermissions) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, p := range f.perms {
		if p.ID == id {
			f.perms = append(f.perms[:i], f.perms[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("permission not found")
}

type fakeFiles struct {
	mu    sync.Mutex
	files map[uuid.UUID]*file.File
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: make(map[uuid.UUID]*file.File)}
}

func (f *fakeFiles) Create(_ context.Context, input *file.CreateFileInput) (*file.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := &file.File{
		ID:          input.ID,
		UserID:      input.UserID,
		Filename:    input.Filename,
		StoragePath: input.StoragePath,
		MimeType:    input.MimeType,
		Size:        input.Size,
		VolumeID:    input.VolumeID,
		AppID:       input.AppID,
		CreatedAt:   time.Now(),
	}
	f.files[rec.ID] = rec
	return rec, nil
}

func (f *fakeFiles) GetByID(_ context.Context, id uuid.UUID) (*file.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.files[id]
	if !ok {
		return nil, apperrors.NotFound("file not found")
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeFiles) ListByUser(_ context.Context, userID uuid.UUID) ([]*file.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*file.File
	for _, rec := range f.files {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFiles) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.files[id]; !ok {
		return apperrors.NotFound("file not found")
	}
	delete(f.files, id)
	return nil
}

type fakeQuotas struct {
	mu     sync.Mutex
	quotas map[uuid.UUID]*file.Quota
}

func newFakeQuotas() *fakeQuotas {
	return &fakeQuotas{quotas: make(map[uuid.UUID]*file.Quota)}
}

func (f *fakeQuotas) Get(_ context.Context, userID uuid.UUID) (*file.Quota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q, ok := f.quotas[userID]
	if !ok {
		return nil, apperrors.NotFound("quota not found")
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuotas) Reserve(_ context.Context, userID uuid.UUID, bytes, defaultLimit int64) (*file.Quota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q, ok := f.quotas[userID]
	if !ok {
		q = &file.Quota{UserID: userID, Limit: defaultLimit}
		f.quotas[userID] = q
	}
	if !q.Allows(bytes) {
		return nil, apperrors.QuotaExceeded("storage quota exceeded")
	}
	q.Used += bytes
	cp := *q
	return &cp, nil
}

func (f *fakeQuotas) Release(_ context.Context, userID uuid.UUID, bytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if q, ok := f.quotas[userID]; ok {
		q.Used -= bytes
		if q.Used < 0 {
			q.Used = 0
		}
	}
	return nil
}

type brokenLedger struct{}

func (brokenLedger) IsRevoked(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}

type brokenSecrets struct{}

func (brokenSecrets) GetSecret(context.Context) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (brokenSecrets) InsertSecretIfAbsent(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

type fakeVolumes struct {
	mu      sync.Mutex
	volumes map[uuid.UUID]*volume.Volume
}

func newFakeVolumes() *fakeVolumes {
	return &fakeVolumes{volumes: make(map[uuid.UUID]*volume.Volume)}
}

func (f *fakeVolumes) Create(_ context.Context, input *volume.CreateVolumeInput) (*volume.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, v := range f.volumes {
		if v.Name == input.Name {
			return nil, apperrors.Conflict("volume with this name already exists")
		}
	}
	now := time.Now()
	v := &volume.Volume{
		ID:            uuid.New(),
		Name:          input.Name,
		Driver:        input.Driver,
		Config:        input.Config,
		DefaultPrefix: input.DefaultPrefix,
		QuotaLimit:    input.QuotaLimit,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.volumes[v.ID] = v
	cp := *v
	return &cp, nil
}

func (f *fakeVolumes) GetByID(_ context.Context, id uuid.UUID) (*volume.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.volumes[id]
	if !ok {
		return nil, apperrors.NotFound("volume not found")
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVolumes) List(context.Context) ([]*volume.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*volume.Volume, 0, len(f.volumes))
	for _, v := range f.volumes {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeVolumes) Update(_ context.Context, id uuid.UUID, input *volume.UpdateVolumeInput) (*volume.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.volumes[id]
	if !ok {
		return nil, apperrors.NotFound("volume not found")
	}
	if input.Name != nil {
		v.Name = *input.Name
	}
	if input.Config != nil {
		v.Config = *input.Config
	}
	if input.DefaultPrefix != nil {
		v.DefaultPrefix = *input.DefaultPrefix
	}
	if input.QuotaLimit != nil {
		v.QuotaLimit = *input.QuotaLimit
	}
	if input.IsActive != nil {
		v.IsActive = *input.IsActive
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVolumes) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.volumes[id]
	if !ok {
		return apperrors.NotFound("volume not found")
	}
	if v.QuotaUsed > 0 {
		return apperrors.Conflict("volume still holds files")
	}
	delete(f.volumes, id)
	return nil
}

func (f *fakeVolumes) Reserve(_ context.Context, id uuid.UUID, bytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.volumes[id]
	if !ok {
		return apperrors.NotFound("volume not found")
	}
	if !v.Allows(bytes) {
		return apperrors.QuotaExceeded("storage quota exceeded")
	}
	v.QuotaUsed += bytes
	return nil
}

func (f *fakeVolumes) Release(_ context.Context, id uuid.UUID, bytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.volumes[id]; ok {
		v.QuotaUsed = max(v.QuotaUsed-bytes, 0)
	}
	return nil
}

type fakeAppQuotas struct {
	mu     sync.Mutex
	quotas map[string]*file.AppQuota
}

func newFakeAppQuotas() *fakeAppQuotas {
	return &fakeAppQuotas{quotas: make(map[string]*file.AppQuota)}
}

func (f *fakeAppQuotas) Get(_ context.Context, appID string) (*file.AppQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q, ok := f.quotas[appID]
	if !ok {
		return nil, apperrors.NotFound("app quota not found")
	}
	cp := *q
	return &cp, nil
}

func (f *fakeAppQuotas) Reserve(_ context.Context, appID string, bytes, defaultLimit int64) (*file.AppQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q, ok := f.quotas[appID]
	if !ok {
		q = &file.AppQuota{AppID: appID, Limit: defaultLimit}
		f.quotas[appID] = q
	}
	if !q.Allows(bytes) {
		return nil, apperrors.QuotaExceeded("storage quota exceeded")
	}
	q.Used += bytes
	cp := *q
	return &cp, nil
}

func (f *fakeAppQuotas) Release(_ context.Context, appID string, bytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if q, ok := f.quotas[appID]; ok {
		q.Used = max(q.Used-bytes, 0)
	}
	return nil
}

func (f *fakeAppQuotas) SetLimit(_ context.Context, appID string, limit int64) (*file.AppQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q, ok := f.quotas[appID]
	if !ok {
		q = &file.AppQuota{AppID: appID}
		f.quotas[appID] = q
	}
	q.Limit = limit
	q.UpdatedAt = time.Now()
	cp := *q
	return &cp, nil
}

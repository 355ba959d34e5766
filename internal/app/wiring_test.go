package app

import (
	"context"
	"testing"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenBackend_Badger(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{
		TokenStoreBackend: config.BackendBadger,
		BadgerDir:         t.TempDir(),
	}}

	backend, err := newTokenBackend(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, backend.close)
	defer func() { assert.NoError(t, backend.close()) }()

	assert.Equal(t, config.BackendBadger, backend.name)

	ctx := context.Background()
	require.NoError(t, backend.revocations.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err := backend.revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestNewTokenBackend_DefaultsToPostgres(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{TokenStoreBackend: config.BackendPostgres}}

	backend, err := newTokenBackend(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, config.BackendPostgres, backend.name)
	assert.Nil(t, backend.close)
	assert.Same(t, backend.secrets, backend.revocations)
}

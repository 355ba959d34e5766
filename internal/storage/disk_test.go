package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskDriver_SaveOpenDelete(t *testing.T) {
	root := t.TempDir()
	d, err := NewDiskDriver(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Save(ctx, "users/u1/a.txt", strings.NewReader("hello"), 5, "text/plain"))

	exists, err := d.Exists(ctx, "users/u1/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := d.Open(ctx, "users/u1/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = os.Stat(filepath.Join(root, "users", "u1", "a.txt"))
	assert.NoError(t, err)

	require.NoError(t, d.Delete(ctx, "users/u1/a.txt"))
	assert.ErrorIs(t, d.Delete(ctx, "users/u1/a.txt"), ErrObjectNotFound)

	_, err = d.Open(ctx, "users/u1/a.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	exists, err = d.Exists(ctx, "users/u1/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiskDriver_SaveOverwrites(t *testing.T) {
	d, err := NewDiskDriver(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Save(ctx, "k", strings.NewReader("one"), 3, ""))
	require.NoError(t, d.Save(ctx, "k", strings.NewReader("two"), 3, ""))

	rc, err := d.Open(ctx, "k")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(data))
}

func TestDiskDriver_RejectsTraversal(t *testing.T) {
	d, err := NewDiskDriver(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../escape", "a/../../escape", "..", ""} {
		err := d.Save(ctx, key, strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, apperrors.ErrPathTraversal, key)

		_, err = d.Open(ctx, key)
		assert.ErrorIs(t, err, apperrors.ErrPathTraversal, key)
	}
}

package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*MemoryStore
	batches  int
	lastKeys []string
	err      error
}

func (s *countingStore) GetMany(ctx context.Context, paths []string) (map[string]Value, error) {
	s.batches++
	s.lastKeys = append([]string{}, paths...)
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryStore.GetMany(ctx, paths)
}

func seed(t *testing.T, store FragmentStore, fragments map[string]string) {
	t.Helper()
	for path, doc := range fragments {
		require.NoError(t, store.Upsert(context.Background(), path, mustParse(t, doc)))
	}
}

func TestResolve_UserPrecedence(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, map[string]string{
		"global.system":       `{"a":1}`,
		"global.user.default": `{"a":2}`,
		"global.user.U":       `{"a":3}`,
	})
	r := NewResolver(store)
	ctx := context.Background()

	got, err := r.Resolve(ctx, Scope{UserID: "U"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3}`, got.String())

	got, err = r.Resolve(ctx, Scope{UserID: "V"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, got.String())

	got, err = r.Resolve(ctx, Scope{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, got.String())
}

func TestResolve_FullChainOrder(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, map[string]string{
		"global.system":                `{"l":["system"],"system":true}`,
		"global.user.default":          `{"l":["user_default"]}`,
		"global.user.u_1":              `{"l":["user"],"ui":{"theme":"dark","font":"serif"}}`,
		"global.app.default":           `{"l":["app_default"]}`,
		"global.app.chat.default":      `{"l":["chat_default"],"model":"small"}`,
		"global.app.chat":              `{"l":["chat"]}`,
		"global.app.chat.user.default": `{"l":["chat_user_default"],"ui":{"theme":"light"}}`,
		"global.app.chat.user.u_1":     `{"l":["chat_user"],"model":"large"}`,
	})

	got, err := NewResolver(store).Resolve(context.Background(), Scope{AppID: "chat", UserID: "u-1"})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"l": ["chat_user"],
		"system": true,
		"model": "large",
		"ui": {"theme": "light", "font": "serif"}
	}`, got.String())
}

func TestResolve_SingleBatchSkipsMissing(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	seed(t, store, map[string]string{"global.app.chat": `{"enabled":true}`})

	got, err := NewResolver(store).Resolve(context.Background(), Scope{AppID: "chat", UserID: "u-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.batches)
	assert.Equal(t, Chain(Scope{AppID: "chat", UserID: "u-1"}), store.lastKeys)
	assert.JSONEq(t, `{"enabled":true}`, got.String())
}

func TestResolve_EmptyStoreYieldsEmptyObject(t *testing.T) {
	got, err := NewResolver(NewMemoryStore()).Resolve(context.Background(), Scope{UserID: "x"})
	require.NoError(t, err)
	assert.True(t, got.Equal(EmptyObject()))
}

func TestResolve_PropagatesStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	store := &countingStore{MemoryStore: NewMemoryStore(), err: cause}

	_, err := NewResolver(store).Resolve(context.Background(), Scope{UserID: "x"})
	assert.ErrorIs(t, err, cause)
}

func TestResolve_RejectsUnlabelableScope(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}

	_, err := NewResolver(store).Resolve(context.Background(), Scope{AppID: "../etc"})
	assert.ErrorIs(t, err, ErrInvalidScope)
	assert.Zero(t, store.batches)
}

func TestResolver_FragmentCRUD(t *testing.T) {
	r := NewResolver(NewMemoryStore())
	ctx := context.Background()

	_, found, err := r.Get(ctx, "global.system")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.Set(ctx, "global.system", mustParse(t, `{"a":1}`)))
	require.NoError(t, r.Set(ctx, "global.system", mustParse(t, `{"b":2}`)))

	v, found, err := r.Get(ctx, "global.system")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"b":2}`, v.String())

	require.NoError(t, r.Delete(ctx, "global.system"))
	require.NoError(t, r.Delete(ctx, "global.system"))

	_, found, err = r.Get(ctx, "global.system")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolver_RejectsInvalidPaths(t *testing.T) {
	r := NewResolver(NewMemoryStore())
	ctx := context.Background()

	assert.ErrorIs(t, r.Set(ctx, "global.bad-label", Null()), ErrInvalidPath)
	assert.ErrorIs(t, r.Delete(ctx, ""), ErrInvalidPath)
	_, _, err := r.Get(ctx, "other.root")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestResolver_ListSubtree(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, map[string]string{
		"global.system":          `{}`,
		"global.app.chat":        `{}`,
		"global.app.chat.user.x": `{}`,
		"global.app.chatter":     `{}`,
	})
	r := NewResolver(store)

	fragments, err := r.List(context.Background(), "global.app.chat")
	require.NoError(t, err)

	var paths []string
	for _, f := range fragments {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"global.app.chat", "global.app.chat.user.x"}, paths)

	all, err := r.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

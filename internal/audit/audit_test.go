package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ *MemoryStore }

func (failingStore) InsertEvent(context.Context, *Event) error { return errors.New("db down") }

func newContext(principal *auth.Principal) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/api/settings/system", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	req.Header.Set("User-Agent", "audit-test")
	req = req.WithContext(logging.ContextWithRequestID(req.Context(), "req-1"))

	c := echo.New().NewContext(req, httptest.NewRecorder())
	if principal != nil {
		c.Set(auth.ContextKeyPrincipal, principal)
	}
	return c
}

func TestLogFromContext_UsesPrincipalAndRequest(t *testing.T) {
	store := NewMemoryStore()
	logger := NewLogger(store)
	userID := uuid.New()

	logger.LogFromContext(newContext(&auth.Principal{ID: userID}), Entry{
		ResourceType: ResourceTypeSetting,
		ResourceID:   "global.system",
		Action:       ActionUpdate,
	})
	logger.Wait()

	events, err := logger.Query(context.Background(), QueryFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "update_setting", e.EventType)
	assert.Equal(t, ActorTypeUser, e.ActorType)
	require.NotNil(t, e.ActorID)
	assert.Equal(t, userID, *e.ActorID)
	assert.Equal(t, StatusSuccess, e.Status)
	assert.Equal(t, "192.0.2.7", e.IPAddress)
	assert.Equal(t, "audit-test", e.UserAgent)
	assert.Equal(t, "req-1", e.RequestID)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestLogFromContext_ExplicitActorAndFailure(t *testing.T) {
	store := NewMemoryStore()
	logger := NewLogger(store)
	userID := uuid.New()

	logger.LogFromContext(newContext(nil), Entry{
		Actor:        &userID,
		ResourceType: ResourceTypeUser,
		ResourceID:   userID.String(),
		Action:       ActionLogin,
	})
	logger.LogFromContext(newContext(nil), Entry{
		ResourceType: ResourceTypeUser,
		Action:       ActionLogin,
		Metadata:     map[string]any{"username": "nobody"},
		Err:          errors.New("invalid credentials"),
	})
	logger.Wait()

	failures, err := logger.Query(context.Background(), QueryFilter{Status: StatusFailure})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, ActorTypeAnonymous, failures[0].ActorType)
	assert.Nil(t, failures[0].ActorID)
	assert.Equal(t, "invalid credentials", failures[0].ErrorMessage)
	assert.Equal(t, "nobody", failures[0].Metadata["username"])

	byActor, err := logger.Query(context.Background(), QueryFilter{ActorID: &userID})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, StatusSuccess, byActor[0].Status)
}

func TestLogFromContext_WriteFailureDoesNotPanic(t *testing.T) {
	logger := NewLogger(failingStore{NewMemoryStore()})

	logger.LogFromContext(newContext(nil), Entry{ResourceType: ResourceTypeRole, Action: ActionDelete})
	logger.Wait()
}

func TestQuery_LimitsAndOrder(t *testing.T) {
	store := NewMemoryStore()
	logger := NewLogger(store)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, logger.Log(context.Background(), &Event{
			ResourceType: ResourceTypeRole,
			Action:       ActionCreate,
			Status:       StatusSuccess,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := logger.Query(context.Background(), QueryFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, base.Add(3*time.Minute), events[0].CreatedAt)
	assert.Equal(t, base.Add(2*time.Minute), events[1].CreatedAt)

	since := base.Add(4 * time.Minute)
	events, err = logger.Query(context.Background(), QueryFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

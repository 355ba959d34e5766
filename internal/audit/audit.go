package audit

import (
	"context"
	"sync"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/auth"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ActorType represents the type of entity performing an action
type ActorType string

const (
	ActorTypeUser      ActorType = "user"
	ActorTypeAnonymous ActorType = "anonymous"
)

// ResourceType represents the type of resource being acted upon
type ResourceType string

const (
	ResourceTypeUser       ResourceType = "user"
	ResourceTypeRole       ResourceType = "role"
	ResourceTypePermission ResourceType = "permission"
	ResourceTypeSetting    ResourceType = "setting"
	ResourceTypeFile       ResourceType = "file"
	ResourceTypeVolume     ResourceType = "volume"
	ResourceTypeAppQuota   ResourceType = "app_quota"
)

// Action represents the action being performed
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
)

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

const (
	writeTimeout = 2 * time.Second
	defaultLimit = 100
	maxLimit     = 1000

	msgWriteFailed = "audit write failed"
)

// Event is one row of the audit trail. ResourceID is text because settings
// are addressed by path and app quotas by app id.
type Event struct {
	ID           uuid.UUID      `json:"id"`
	EventType    string         `json:"event_type"`
	ActorType    ActorType      `json:"actor_type"`
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"`
	ResourceType ResourceType   `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Action       Action         `json:"action"`
	Status       Status         `json:"status"`
	IPAddress    string         `json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	RequestID    string         `json:"request_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Entry is what handlers report. Actor defaults to the request principal.
type Entry struct {
	Actor        *uuid.UUID
	ResourceType ResourceType
	ResourceID   string
	Action       Action
	Status       Status
	Metadata     map[string]any
	Err          error
}

// QueryFilter narrows Query. Zero values match everything.
type QueryFilter struct {
	ActorID      *uuid.UUID
	ResourceType ResourceType
	ResourceID   string
	Action       Action
	Status       Status
	Since        *time.Time
	Until        *time.Time
	Limit        int
	Offset       int
}

// Store persists events.
type Store interface {
	InsertEvent(ctx context.Context, event *Event) error
	QueryEvents(ctx context.Context, filter QueryFilter) ([]*Event, error)
}

// Logger writes audit events off the request path.
type Logger struct {
	store   Store
	pending sync.WaitGroup
	log     zerolog.Logger
}

func NewLogger(store Store) *Logger {
	return &Logger{
		store: store,
		log:   logging.With("audit"),
	}
}

// Log records an event synchronously.
func (l *Logger) Log(ctx context.Context, event *Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.EventType == "" {
		event.EventType = string(event.Action) + "_" + string(event.ResourceType)
	}
	return l.store.InsertEvent(ctx, event)
}

// LogFromContext fills in request details and writes the event in the
// background. Failures are logged, never returned to the caller.
func (l *Logger) LogFromContext(c echo.Context, entry Entry) {
	req := c.Request()
	event := &Event{
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Action:       entry.Action,
		Status:       entry.Status,
		IPAddress:    c.RealIP(),
		UserAgent:    req.UserAgent(),
		RequestID:    logging.RequestIDFromContext(req.Context()),
		Metadata:     entry.Metadata,
		ActorType:    ActorTypeAnonymous,
	}
	if event.Status == "" {
		event.Status = StatusSuccess
	}
	if entry.Err != nil {
		event.Status = StatusFailure
		event.ErrorMessage = entry.Err.Error()
	}

	if entry.Actor != nil {
		event.ActorType = ActorTypeUser
		event.ActorID = entry.Actor
	} else if principal, err := auth.GetPrincipal(c); err == nil {
		id := principal.ID
		event.ActorType = ActorTypeUser
		event.ActorID = &id
	}

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := l.Log(ctx, event); err != nil {
			l.log.Error().Err(err).
				Str("event_type", event.EventType).
				Str("request_id", event.RequestID).
				Msg(msgWriteFailed)
		}
	}()
}

// Query returns events newest first. The limit defaults to 100 and is capped at 1000.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]*Event, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return l.store.QueryEvents(ctx, filter)
}

// Wait blocks until background writes finish.
func (l *Logger) Wait() {
	l.pending.Wait()
}

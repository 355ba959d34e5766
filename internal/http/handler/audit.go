package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	apperrors "github.com/MatthewTaormina/Gemini-Web-UI/pkg/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	queryActorID      = "actor_id"
	queryResourceType = "resource_type"
	queryResourceID   = "resource_id"
	queryAction       = "action"
	queryStatus       = "status"
	querySince        = "since"
	queryUntil        = "until"
	queryLimit        = "limit"
	queryOffset       = "offset"

	errInvalidQueryFmt = "invalid %s query parameter"
)

// record writes an audit entry when auditing is enabled. A non-nil err marks
// the entry as a failure.
func record(a AuditLogger, c echo.Context, entry audit.Entry, err error) {
	if a == nil {
		return
	}
	if err != nil {
		entry.Err = err
	}
	a.LogFromContext(c, entry)
}

type AuditHandler struct {
	events AuditQuerier
}

func NewAuditHandler(events AuditQuerier) *AuditHandler {
	return &AuditHandler{events: events}
}

// List returns audit events newest first, filtered by query parameters.
func (h *AuditHandler) List(c echo.Context) error {
	filter, err := parseAuditFilter(c)
	if err != nil {
		return err
	}

	events, err := h.events.Query(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return respondList(c, events)
}

func parseAuditFilter(c echo.Context) (audit.QueryFilter, error) {
	filter := audit.QueryFilter{
		ResourceType: audit.ResourceType(c.QueryParam(queryResourceType)),
		ResourceID:   c.QueryParam(queryResourceID),
		Action:       audit.Action(c.QueryParam(queryAction)),
		Status:       audit.Status(c.QueryParam(queryStatus)),
	}

	if raw := c.QueryParam(queryActorID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, invalidQuery(queryActorID)
		}
		filter.ActorID = &id
	}

	for name, dst := range map[string]**time.Time{querySince: &filter.Since, queryUntil: &filter.Until} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, invalidQuery(name)
		}
		*dst = &t
	}

	for name, dst := range map[string]*int{queryLimit: &filter.Limit, queryOffset: &filter.Offset} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, invalidQuery(name)
		}
		*dst = n
	}

	return filter, nil
}

func invalidQuery(name string) error {
	return apperrors.BadRequest(fmt.Sprintf(errInvalidQueryFmt, name))
}

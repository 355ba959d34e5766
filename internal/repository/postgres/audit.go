package postgres

import (
	"context"
	"fmt"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/goccy/go-json"
)

// AuditRepository stores the audit trail in audit_events.
type AuditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InsertEvent(ctx context.Context, event *audit.Event) error {
	var metadataJSON []byte
	if event.Metadata != nil {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return errFailedEncodeAudit(err)
		}
		metadataJSON = data
	}

	query := `
		INSERT INTO audit_events (
			id, event_type, actor_type, actor_id, resource_type, resource_id,
			action, status, ip_address, user_agent, request_id, metadata, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		event.ID,
		event.EventType,
		string(event.ActorType),
		event.ActorID,
		string(event.ResourceType),
		event.ResourceID,
		string(event.Action),
		string(event.Status),
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		nullableJSON(metadataJSON),
		event.ErrorMessage,
		event.CreatedAt,
	)
	if err != nil {
		return errFailedInsertAudit(err)
	}
	return nil
}

func (r *AuditRepository) QueryEvents(ctx context.Context, filter audit.QueryFilter) ([]*audit.Event, error) {
	query := `
		SELECT id, event_type, actor_type, actor_id, resource_type, resource_id,
		       action, status, ip_address, user_agent, request_id, metadata, error_message, created_at
		FROM audit_events
		WHERE 1=1
	`
	args := []any{}
	argCount := 1

	if filter.ActorID != nil {
		query += fmt.Sprintf(" AND actor_id = $%d", argCount)
		args = append(args, *filter.ActorID)
		argCount++
	}

	if filter.ResourceType != "" {
		query += fmt.Sprintf(" AND resource_type = $%d", argCount)
		args = append(args, string(filter.ResourceType))
		argCount++
	}

	if filter.ResourceID != "" {
		query += fmt.Sprintf(" AND resource_id = $%d", argCount)
		args = append(args, filter.ResourceID)
		argCount++
	}

	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argCount)
		args = append(args, string(filter.Action))
		argCount++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, string(filter.Status))
		argCount++
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filter.Since)
		argCount++
	}

	if filter.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, *filter.Until)
		argCount++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errFailedQueryAudit(err)
	}
	defer rows.Close()

	events := []*audit.Event{}
	for rows.Next() {
		var (
			event        audit.Event
			actorType    string
			resourceType string
			action       string
			status       string
			metadataJSON []byte
		)

		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&actorType,
			&event.ActorID,
			&resourceType,
			&event.ResourceID,
			&action,
			&status,
			&event.IPAddress,
			&event.UserAgent,
			&event.RequestID,
			&metadataJSON,
			&event.ErrorMessage,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, errFailedScanAudit(err)
		}

		event.ActorType = audit.ActorType(actorType)
		event.ResourceType = audit.ResourceType(resourceType)
		event.Action = audit.Action(action)
		event.Status = audit.Status(status)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				return nil, errFailedScanAudit(err)
			}
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, errFailedQueryAudit(err)
	}

	return events, nil
}

// nullableJSON maps empty metadata to SQL NULL.
func nullableJSON(data []byte) *string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	return &s
}

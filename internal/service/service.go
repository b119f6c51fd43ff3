package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventPublisher pushes live updates to connected clients. *websocket.Hub
// satisfies it; a nil publisher disables broadcasting.
type EventPublisher interface {
	BroadcastEvent(event string, data any)
}

func publish(p EventPublisher, event string, data any) {
	if p != nil {
		p.BroadcastEvent(event, data)
	}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperr.Validation(field, "must be a valid UUID")
	}
	return id, nil
}

// parseIDs parses a list of ids, dropping repeats and keeping first-seen order.
func parseIDs(field string, raws []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raws))
	seen := make(map[uuid.UUID]struct{}, len(raws))
	for i, raw := range raws {
		id, err := parseID(fmt.Sprintf("%s[%d]", field, i), raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// actorID turns the JWT subject into a nullable user reference.
func actorID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

// writeAudit records an audit row. Call it with the transaction context so the
// row commits or rolls back together with the change.
func writeAudit(ctx context.Context, repo repository.AuditRepository, userID, action, entityID, entityName string, details any) error {
	var raw datatypes.JSON
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		raw = b
	}
	entry := &model.AuditLog{
		UserID:     actorID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    raw,
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func optionalIDString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

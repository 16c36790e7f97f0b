package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

var eventColumns = []string{
	"id", "content_type", "object_id", "type", "value", "created_by", "created",
}
// EventRepository appends to and reads the event journal.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Append inserts an event. Events are never updated.
func (r *EventRepository) Append(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error {
	if event.Created.IsZero() {
		event.Created = time.Now().UTC()
	}
	const query = `INSERT INTO events (content_type, object_id, type, value, created_by, created)
VALUES (:content_type, :object_id, :type, :value, :created_by, :created) RETURNING id`
	if err := namedInsert(ctx, r.exec(exec), query, event, &event.ID); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// List returns events matching the filter in journal order.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	if filter.ContentType != "" {
		args = append(args, filter.ContentType)
		conditions = append(conditions, fmt.Sprintf("content_type = $%d", len(args)))
	}
	if filter.ObjectID != 0 {
		args = append(args, filter.ObjectID)
		conditions = append(conditions, fmt.Sprintf("object_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conditions = append(conditions, fmt.Sprintf("created >= $%d", len(args)))
	}
	if len(filter.Contains) > 0 {
		alternatives := make([]string, len(filter.Contains))
		for i, needle := range filter.Contains {
			args = append(args, "%"+needle+"%")
			alternatives[i] = fmt.Sprintf("value LIKE $%d", len(args))
		}
		conditions = append(conditions, "("+strings.Join(alternatives, " OR ")+")")
	}

	query := selectFrom("events", eventColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created, id"
	if filter.Limit > 0 {
		limit, offset := pageBounds(filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

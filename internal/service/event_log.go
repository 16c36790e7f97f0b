package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/journal"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/eventbus"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/middleware/requestid"
)

type eventStore interface {
	Append(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
}

// EventLog writes journal entries inside the caller's transaction and fans
// them out once the transaction has committed.
type EventLog struct {
	store     eventStore
	publisher eventbus.Publisher
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewEventLog wires the journal. A nil publisher disables fan-out.
func NewEventLog(store eventStore, publisher eventbus.Publisher, metrics *MetricsService, logger *zap.Logger) *EventLog {
	if publisher == nil {
		publisher = eventbus.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLog{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EventBatch collects the events appended by one transaction.
type EventBatch struct {
	log    *EventLog
	exec   sqlx.ExtContext
	user   models.UserHandle
	events []models.Event
}

// Begin starts a batch bound to exec.
func (l *EventLog) Begin(exec sqlx.ExtContext, user models.UserHandle) *EventBatch {
	return &EventBatch{log: l, exec: exec, user: user}
}

func (b *EventBatch) append(ctx context.Context, contentType models.ContentType, objectID int64, eventType models.EventType, value string) error {
	event := models.Event{
		ContentType: contentType,
		ObjectID:    objectID,
		Type:        eventType,
		Value:       value,
		Created:     b.log.now(),
	}
	if b.user.ID != "" {
		createdBy := b.user.ID
		event.CreatedBy = &createdBy
	}
	if err := b.log.store.Append(ctx, b.exec, &event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append event")
	}
	b.events = append(b.events, event)
	return nil
}

// Created journals a new row.
func (b *EventBatch) Created(ctx context.Context, contentType models.ContentType, objectID int64, row any) error {
	value, err := journal.CreatePayload(row)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode event")
	}
	return b.append(ctx, contentType, objectID, models.EventModelCreate, value)
}

// Updated journals the changed columns of a row. Nothing is written when no
// journalled column changed.
func (b *EventBatch) Updated(ctx context.Context, contentType models.ContentType, objectID int64, before, after any) error {
	value, changed, err := journal.UpdatePayload(before, after)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode event")
	}
	if !changed {
		return nil
	}
	return b.append(ctx, contentType, objectID, models.EventModelUpdate, value)
}

// Deleted journals a removed row.
func (b *EventBatch) Deleted(ctx context.Context, contentType models.ContentType, objectID int64, row any) error {
	value, err := journal.DeletePayload(row)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode event")
	}
	return b.append(ctx, contentType, objectID, models.EventModelDelete, value)
}

// Events returns what the batch appended.
func (b *EventBatch) Events() []models.Event {
	return b.events
}

// Publish fans out a committed batch. Delivery failures are logged; the
// journal row is already durable.
func (l *EventLog) Publish(ctx context.Context, batch *EventBatch) {
	if batch == nil || len(batch.events) == 0 {
		return
	}
	for _, event := range batch.events {
		l.metrics.RecordEvent(event.ContentType, event.Type)
	}
	if err := l.publisher.Publish(ctx, batch.events...); err != nil {
		l.logger.Warn("publish events",
			zap.Int("count", len(batch.events)),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err))
	}
}

// List returns journal entries in journal order.
func (l *EventLog) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	events, err := l.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type eventStoreStub struct {
	events []models.Event
}

func (s *eventStoreStub) Append(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error {
	event.ID = int64(len(s.events) + 1)
	s.events = append(s.events, *event)
	return nil
}

func (s *eventStoreStub) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	out := make([]models.Event, 0, len(s.events))
	for _, event := range s.events {
		if filter.ContentType != "" && event.ContentType != filter.ContentType {
			continue
		}
		if filter.ObjectID != 0 && event.ObjectID != filter.ObjectID {
			continue
		}
		if filter.Type != "" && event.Type != filter.Type {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (s *eventStoreStub) ofType(contentType models.ContentType, eventType models.EventType) []models.Event {
	out := make([]models.Event, 0)
	for _, event := range s.events {
		if event.ContentType == contentType && event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

var testUser = models.UserHandle{ID: "auditor-1", Name: "Alex Auditor", Email: "alex@example.com"}

func newTestEventLog() (*EventLog, *eventStoreStub) {
	store := &eventStoreStub{}
	return NewEventLog(store, nil, nil, zap.NewNop()), store
}

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func dayPtr(value string) *time.Time {
	parsed := day(value)
	return &parsed
}

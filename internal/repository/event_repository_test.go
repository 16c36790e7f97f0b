package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

func TestEventRepositoryAppendStampsCreated(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO events (content_type, object_id, type, value, created_by, created)")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))

	event := &models.Event{ContentType: models.ContentCheckResult, ObjectID: 42, Type: models.EventModelUpdate, Value: `{"notes": "foo -> bar"}`}
	require.NoError(t, repo.Append(context.Background(), nil, event))
	assert.Equal(t, int64(100), event.ID)
	assert.False(t, event.Created.IsZero())
}

func TestEventRepositoryListJournalOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE content_type = $1 AND type = $2 AND created >= $3 AND (value LIKE $4 OR value LIKE $5) ORDER BY created, id")).
		WithArgs(models.ContentCheckResult, models.EventModelUpdate, since, "%notes%", "%retest_notes%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "content_type", "object_id", "type", "value", "created"}).
			AddRow(int64(1), "audits.checkresult", int64(42), "model_update", `{"notes": "foo -> bar"}`, since))

	events, err := repo.List(context.Background(), models.EventFilter{
		ContentType: models.ContentCheckResult,
		Type:        models.EventModelUpdate,
		Since:       &since,
		Contains:    []string{"notes", "retest_notes"},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(42), events[0].ObjectID)
}

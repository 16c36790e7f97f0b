package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type historyStoreStub struct {
	existing    int
	notes       []models.CheckResultNotesHistory
	retestNotes []models.CheckResultRetestNotesHistory
}

func (s *historyStoreStub) Count(ctx context.Context, exec sqlx.ExtContext) (int, error) {
	return s.existing + len(s.notes) + len(s.retestNotes), nil
}

func (s *historyStoreStub) InsertNotes(ctx context.Context, exec sqlx.ExtContext, rows []models.CheckResultNotesHistory) error {
	s.notes = append(s.notes, rows...)
	return nil
}

func (s *historyStoreStub) InsertRetestNotes(ctx context.Context, exec sqlx.ExtContext, rows []models.CheckResultRetestNotesHistory) error {
	s.retestNotes = append(s.retestNotes, rows...)
	return nil
}

func (s *historyStoreStub) DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	n := int64(s.existing + len(s.notes) + len(s.retestNotes))
	s.existing, s.notes, s.retestNotes = 0, nil, nil
	return n, nil
}

func (s *historyStoreStub) ListNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultNotesHistory, error) {
	out := make([]models.CheckResultNotesHistory, 0)
	for _, row := range s.notes {
		if row.CheckResultID == checkResultID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *historyStoreStub) ListRetestNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultRetestNotesHistory, error) {
	return nil, nil
}

type checkResultLookupStub map[int64]struct{}

func (s checkResultLookupStub) ExistingCheckResultIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) (map[int64]struct{}, error) {
	out := map[int64]struct{}{}
	for _, id := range ids {
		if _, ok := s[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func checkResultEvent(id, objectID int64, created time.Time, value string) models.Event {
	user := "auditor-1"
	return models.Event{
		ID:          id,
		ContentType: models.ContentCheckResult,
		ObjectID:    objectID,
		Type:        models.EventModelUpdate,
		Value:       value,
		CreatedBy:   &user,
		Created:     created,
	}
}

func TestHistoryBackfillReplaysJournal(t *testing.T) {
	db, mock := newTxProviderMock(t)
	journal := &eventStoreStub{events: []models.Event{
		checkResultEvent(2, 10, day("2024-01-02"), `{"notes": "first -> second"}`),
		checkResultEvent(1, 10, day("2024-01-01"), `{"notes": " -> first"}`),
		checkResultEvent(3, 10, day("2024-01-03"), `{"retest_notes": " -> fixed now", "retest_state": "not-retested -> fixed"}`),
		checkResultEvent(4, 99, day("2024-01-04"), `{"notes": " -> orphan"}`),
		checkResultEvent(5, 10, day("2024-01-05"), `not a payload {`),
	}}
	store := &historyStoreStub{}
	svc := NewHistoryService(db, store, checkResultLookupStub{10: {}}, journal, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()
	result, err := svc.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.NotesRows)
	assert.Equal(t, 1, result.RetestNotesRows)
	assert.Equal(t, 2, result.Skipped)

	notes, err := svc.ListNotes(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].Notes)
	assert.Equal(t, "second", notes[1].Notes)
	assert.True(t, notes[0].Created.Equal(day("2024-01-01")))
	require.Len(t, store.retestNotes, 1)
	assert.Equal(t, models.RetestFixed, store.retestNotes[0].RetestState)
}

func TestHistoryBackfillRefusesToRunTwice(t *testing.T) {
	db, mock := newTxProviderMock(t)
	store := &historyStoreStub{existing: 4}
	svc := NewHistoryService(db, store, checkResultLookupStub{}, &eventStoreStub{}, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Backfill(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestHistoryTeardown(t *testing.T) {
	db, mock := newTxProviderMock(t)
	store := &historyStoreStub{existing: 3}
	svc := NewHistoryService(db, store, checkResultLookupStub{}, &eventStoreStub{}, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()
	removed, err := svc.Teardown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	mock.ExpectBegin()
	mock.ExpectCommit()
	removed, err = svc.Teardown(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/journal"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type historyStore interface {
	Count(ctx context.Context, exec sqlx.ExtContext) (int, error)
	InsertNotes(ctx context.Context, exec sqlx.ExtContext, rows []models.CheckResultNotesHistory) error
	InsertRetestNotes(ctx context.Context, exec sqlx.ExtContext, rows []models.CheckResultRetestNotesHistory) error
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error)
	ListNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultNotesHistory, error)
	ListRetestNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultRetestNotesHistory, error)
}

type checkResultLookup interface {
	ExistingCheckResultIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) (map[int64]struct{}, error)
}

type eventLister interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
}

// HistoryService derives check result notes history from the event journal.
type HistoryService struct {
	db      txProvider
	store   historyStore
	results checkResultLookup
	events  eventLister
	metrics *MetricsService
	logger  *zap.Logger
}

// NewHistoryService constructs the history service.
func NewHistoryService(db txProvider, store historyStore, results checkResultLookup, events eventLister, metrics *MetricsService, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{db: db, store: store, results: results, events: events, metrics: metrics, logger: logger}
}

// Backfill replays the check result journal into the history tables. It
// refuses to run over existing history. Events that cannot be parsed or that
// refer to missing check results are skipped and counted.
func (s *HistoryService) Backfill(ctx context.Context) (*dto.HistoryBackfillResult, error) {
	events, err := s.events.List(ctx, models.EventFilter{
		ContentType: models.ContentCheckResult,
		Type:        models.EventModelUpdate,
		Contains:    []string{"notes"},
	})
	if err != nil {
		return nil, storeError(err, "list check result events")
	}
	history := journal.Replay(events)

	result := &dto.HistoryBackfillResult{}
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		count, err := s.store.Count(ctx, tx)
		if err != nil {
			return storeError(err, "count history")
		}
		if count > 0 {
			return appErrors.WithDetails(appErrors.ErrPreconditionFailed, "history already populated", map[string]int{"rows": count})
		}
		existing, err := s.results.ExistingCheckResultIDs(ctx, tx, history.CheckResultIDs())
		if err != nil {
			return storeError(err, "load check results")
		}
		missing := make(map[int64]struct{})
		for _, id := range history.CheckResultIDs() {
			if _, ok := existing[id]; !ok {
				missing[id] = struct{}{}
			}
		}
		history = history.Without(missing)
		if err := s.store.InsertNotes(ctx, tx, history.Notes); err != nil {
			return storeError(err, "insert notes history")
		}
		if err := s.store.InsertRetestNotes(ctx, tx, history.RetestNotes); err != nil {
			return storeError(err, "insert retest notes history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.NotesRows = len(history.Notes)
	result.RetestNotesRows = len(history.RetestNotes)
	result.Skipped = len(history.Skipped)
	s.metrics.RecordHistoryRows("notes", result.NotesRows)
	s.metrics.RecordHistoryRows("retest_notes", result.RetestNotesRows)
	s.metrics.RecordHistoryRows("skipped", result.Skipped)
	for _, skipped := range history.Skipped {
		s.logger.Warn("history event skipped",
			zap.Int64("eventId", skipped.EventID),
			zap.Int64("checkResultId", skipped.ObjectID),
			zap.String("reason", skipped.Reason))
	}
	s.logger.Info("history backfilled",
		zap.Int("events", len(events)),
		zap.Int("notes", result.NotesRows),
		zap.Int("retestNotes", result.RetestNotesRows),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// Teardown deletes every derived history row.
func (s *HistoryService) Teardown(ctx context.Context) (int64, error) {
	var removed int64
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		n, err := s.store.DeleteAll(ctx, tx)
		if err != nil {
			return storeError(err, "delete history")
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("history removed", zap.Int64("rows", removed))
	return removed, nil
}

// ListNotes returns the notes revisions of a check result, oldest first.
func (s *HistoryService) ListNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultNotesHistory, error) {
	rows, err := s.store.ListNotes(ctx, checkResultID)
	if err != nil {
		return nil, storeError(err, "list notes history")
	}
	return rows, nil
}

// ListRetestNotes returns the retest revisions of a check result, oldest first.
func (s *HistoryService) ListRetestNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultRetestNotesHistory, error) {
	rows, err := s.store.ListRetestNotes(ctx, checkResultID)
	if err != nil {
		return nil, storeError(err, "list retest notes history")
	}
	return rows, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// HistoryRepository persists notes history derived from the event journal.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Count returns the number of rows across both history tables.
func (r *HistoryRepository) Count(ctx context.Context, exec sqlx.ExtContext) (int, error) {
	const query = `SELECT (SELECT COUNT(*) FROM check_result_notes_history) + (SELECT COUNT(*) FROM check_result_retest_notes_history)`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}

// InsertNotes writes notes history rows keeping their timestamps.
func (r *HistoryRepository) InsertNotes(ctx context.Context, exec sqlx.ExtContext, rows []models.CheckResultNotesHistory) error {
	const query = `INSERT INTO check_result_notes_history (check_result_id, notes, created_by, created)
VALUES (:check_result_id, :notes, :created_by, :created)`
	for i := range rows {
		if err := namedInsert(ctx, r.exec(exec), query+" RETURNING id", &rows[i], &rows[i].ID); err != nil {
			return fmt.Errorf("insert notes history: %w", err)
		}
	}
	return nil
}

// InsertRetestNotes writes retest notes history rows keeping their timestamps.
func (r *HistoryRepository) InsertRetestNotes(ctx context.Context, exec sqlx.ExtContext, rows []models.CheckResultRetestNotesHistory) error {
	const query = `INSERT INTO check_result_retest_notes_history (check_result_id, retest_state, retest_notes, created_by, created)
VALUES (:check_result_id, :retest_state, :retest_notes, :created_by, :created)`
	for i := range rows {
		if err := namedInsert(ctx, r.exec(exec), query+" RETURNING id", &rows[i], &rows[i].ID); err != nil {
			return fmt.Errorf("insert retest notes history: %w", err)
		}
	}
	return nil
}

// DeleteAll empties both history tables and returns the rows removed.
func (r *HistoryRepository) DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	target := r.exec(exec)
	var total int64
	for _, table := range []string{"check_result_notes_history", "check_result_retest_notes_history"} {
		result, err := target.ExecContext(ctx, "DELETE FROM "+table)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", table, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%s rows affected: %w", table, err)
		}
		total += affected
	}
	return total, nil
}

// ListNotes returns the notes history of one check result, oldest first.
func (r *HistoryRepository) ListNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultNotesHistory, error) {
	const query = `SELECT id, check_result_id, notes, created_by, created FROM check_result_notes_history
WHERE check_result_id = $1 ORDER BY created, id`
	var rows []models.CheckResultNotesHistory
	if err := r.db.SelectContext(ctx, &rows, query, checkResultID); err != nil {
		return nil, fmt.Errorf("list notes history: %w", err)
	}
	return rows, nil
}

// ListRetestNotes returns the retest notes history of one check result, oldest first.
func (r *HistoryRepository) ListRetestNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultRetestNotesHistory, error) {
	const query = `SELECT id, check_result_id, retest_state, retest_notes, created_by, created FROM check_result_retest_notes_history
WHERE check_result_id = $1 ORDER BY created, id`
	var rows []models.CheckResultRetestNotesHistory
	if err := r.db.SelectContext(ctx, &rows, query, checkResultID); err != nil {
		return nil, fmt.Errorf("list retest notes history: %w", err)
	}
	return rows, nil
}

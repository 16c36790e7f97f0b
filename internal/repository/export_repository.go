package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

var exportColumns = []string{
	"id", "cutoff_date", "enforcement_body", "status", "exporter_id", "export_date", "is_deleted",
	"created",
}

var (
	exportInsertQuery = insertReturning("exports", without(exportColumns, "id", "created"))
	exportCaseSelect  = `SELECT ec.id, ec.export_id, ec.case_id, ec.status, c.organisation_name, c.home_page_url
FROM export_cases ec JOIN cases c ON c.id = ec.case_id`
)

// ExportRepository persists export batches and their case memberships.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an export batch.
func (r *ExportRepository) Create(ctx context.Context, exec sqlx.ExtContext, export *models.Export) error {
	if export.Status == "" {
		export.Status = models.ExportStatusNot
	}
	if err := namedInsert(ctx, r.exec(exec), exportInsertQuery, export, &export.ID, &export.Created); err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// Get loads an export by id.
func (r *ExportRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Export, error) {
	var export models.Export
	if err := sqlx.GetContext(ctx, r.exec(exec), &export, selectFrom("exports", exportColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &export, nil
}

// Update writes the status, export date and deletion flag of an export.
func (r *ExportRepository) Update(ctx context.Context, exec sqlx.ExtContext, export *models.Export) error {
	const query = `UPDATE exports SET status = :status, export_date = :export_date, is_deleted = :is_deleted WHERE id = :id`
	return namedExecAffected(ctx, r.exec(exec), query, export)
}

// List returns live exports matching the filter, newest first.
func (r *ExportRepository) List(ctx context.Context, filter models.ExportFilter) ([]models.Export, error) {
	conditions := []string{"is_deleted = FALSE"}
	args := make([]interface{}, 0, 2)
	if filter.EnforcementBody != "" {
		args = append(args, filter.EnforcementBody)
		conditions = append(conditions, fmt.Sprintf("enforcement_body = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := selectFrom("exports", exportColumns) + " WHERE " + strings.Join(conditions, " AND ") +
		fmt.Sprintf(" ORDER BY cutoff_date DESC, id DESC LIMIT %d OFFSET %d", limit, offset)

	var exports []models.Export
	if err := r.db.SelectContext(ctx, &exports, query, args...); err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return exports, nil
}

// EligibleCaseIDs returns closed cases of the enforcement body waiting to be
// sent whose compliance email went out on or before the cutoff and that are
// not in another live export.
func (r *ExportRepository) EligibleCaseIDs(ctx context.Context, exec sqlx.ExtContext, export *models.Export) ([]int64, error) {
	const query = `SELECT c.id FROM cases c
JOIN case_status s ON s.case_id = c.id
WHERE c.is_deleted = FALSE AND c.enforcement_body = $1 AND s.status = $2
 AND c.case_completed <> $5
 AND c.compliance_email_sent_date IS NOT NULL AND c.compliance_email_sent_date::date <= $3
 AND NOT EXISTS (
  SELECT 1 FROM export_cases ec JOIN exports e ON e.id = ec.export_id
  WHERE ec.case_id = c.id AND e.is_deleted = FALSE AND e.id <> $4
 )
ORDER BY c.id`
	var ids []int64
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, export.EnforcementBody, models.StatusCaseClosedWaitingToBeSent,
		export.CutoffDate, export.ID, models.CaseCompletedNoSend); err != nil {
		return nil, fmt.Errorf("eligible export cases: %w", err)
	}
	return ids, nil
}

// AddCase adds a case to an export.
func (r *ExportRepository) AddCase(ctx context.Context, exec sqlx.ExtContext, exportCase *models.ExportCase) error {
	if exportCase.Status == "" {
		exportCase.Status = models.ExportCaseUnready
	}
	const query = `INSERT INTO export_cases (export_id, case_id, status) VALUES ($1, $2, $3) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &exportCase.ID, query, exportCase.ExportID, exportCase.CaseID, exportCase.Status); err != nil {
		return fmt.Errorf("insert export case: %w", err)
	}
	return nil
}

// ListCases returns the memberships of an export with case details.
func (r *ExportRepository) ListCases(ctx context.Context, exec sqlx.ExtContext, exportID int64) ([]models.ExportCase, error) {
	var cases []models.ExportCase
	if err := sqlx.SelectContext(ctx, r.exec(exec), &cases, exportCaseSelect+" WHERE ec.export_id = $1 ORDER BY ec.case_id", exportID); err != nil {
		return nil, fmt.Errorf("list export cases: %w", err)
	}
	return cases, nil
}

// GetCase loads one membership by export and case.
func (r *ExportRepository) GetCase(ctx context.Context, exec sqlx.ExtContext, exportID, caseID int64) (*models.ExportCase, error) {
	var exportCase models.ExportCase
	if err := sqlx.GetContext(ctx, r.exec(exec), &exportCase, exportCaseSelect+" WHERE ec.export_id = $1 AND ec.case_id = $2", exportID, caseID); err != nil {
		return nil, err
	}
	return &exportCase, nil
}

// SetCaseStatus updates the status of one membership.
func (r *ExportRepository) SetCaseStatus(ctx context.Context, exec sqlx.ExtContext, exportCase *models.ExportCase) error {
	const query = `UPDATE export_cases SET status = $1 WHERE export_id = $2 AND case_id = $3`
	return execAffected(ctx, r.exec(exec), query, exportCase.Status, exportCase.ExportID, exportCase.CaseID)
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

var caseColumns = []string{
	"id", "version", "created", "created_by", "updated", "auditor_id", "qa_auditor_id",
	"organisation_name", "home_page_url", "domain", "website_name", "parental_organisation_name",
	"enforcement_body", "is_complaint", "sector", "subcategory", "variant",
	"case_details_complete_date", "testing_details_complete_date", "reporting_details_complete_date",
	"qa_process_complete_date", "contact_details_complete_date",
	"report_correspondence_complete_date", "twelve_week_correspondence_complete_date",
	"review_changes_complete_date", "case_close_complete_date",
	"enforcement_correspondence_complete_date", "ready_for_qa", "report_approved_status",
	"report_sent_date", "report_followup_week_1_sent_date", "report_followup_week_4_sent_date",
	"report_acknowledged_date", "twelve_week_update_requested_date",
	"twelve_week_1_week_chaser_sent_date", "twelve_week_4_week_chaser_sent_date",
	"twelve_week_correspondence_acknowledged_date", "seven_day_no_contact_email_sent_date",
	"no_contact_one_week_chaser_sent_date", "no_contact_four_week_chaser_sent_date", "no_psb_contact",
	"no_psb_contact_notes", "correspondence_notes", "enable_correspondence_process",
	"organisation_response", "is_ready_for_final_decision", "case_completed", "completed_date",
	"compliance_email_sent_date", "sent_to_enforcement_body_sent_date", "enforcement_body_pursuing",
	"enforcement_body_closed_case", "enforcement_body_correspondence_notes", "is_deactivated",
	"deactivate_date", "deactivate_notes", "is_deleted",
}

var (
	caseInsertQuery = insertReturning("cases", without(caseColumns, "id", "created"))
	caseUpdateQuery = versionedUpdate("cases", without(caseColumns, "id", "version", "created", "created_by"))
)

// CaseRepository persists cases.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs the repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a case at version 1.
func (r *CaseRepository) Create(ctx context.Context, exec sqlx.ExtContext, c *models.Case) error {
	c.Version = 1
	if err := namedInsert(ctx, r.exec(exec), caseInsertQuery, c, &c.ID, &c.Created); err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

// Get loads a case by id.
func (r *CaseRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Case, error) {
	var c models.Case
	if err := sqlx.GetContext(ctx, r.exec(exec), &c, selectFrom("cases", caseColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetForUpdate loads a case and locks its row for the enclosing transaction.
func (r *CaseRepository) GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Case, error) {
	var c models.Case
	if err := sqlx.GetContext(ctx, r.exec(exec), &c, selectFrom("cases", caseColumns)+" WHERE id = $1 FOR UPDATE", id); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update writes every mutable column when c.Version still matches the stored
// version, then advances c.Version. A stale version yields sql.ErrNoRows.
func (r *CaseRepository) Update(ctx context.Context, exec sqlx.ExtContext, c *models.Case) error {
	now := time.Now().UTC()
	c.Updated = &now
	if err := namedExecAffected(ctx, r.exec(exec), caseUpdateQuery, c); err != nil {
		return err
	}
	c.Version++
	return nil
}

// UpdateDerived writes the columns derived from the rest of the case graph.
// The version is left alone so a client's expected version stays valid.
func (r *CaseRepository) UpdateDerived(ctx context.Context, exec sqlx.ExtContext, c *models.Case) error {
	const query = `UPDATE cases SET variant = :variant, enable_correspondence_process = :enable_correspondence_process WHERE id = :id`
	return namedExecAffected(ctx, r.exec(exec), query, c)
}

// List returns cases matching the filter with the total count.
func (r *CaseRepository) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	conditions := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)
	if !filter.IncludeDeleted {
		conditions = append(conditions, "c.is_deleted = FALSE")
	}
	if filter.AuditorID != "" {
		args = append(args, filter.AuditorID)
		conditions = append(conditions, fmt.Sprintf("c.auditor_id = $%d", len(args)))
	}
	if filter.QAAuditorID != "" {
		args = append(args, filter.QAAuditorID)
		conditions = append(conditions, fmt.Sprintf("c.qa_auditor_id = $%d", len(args)))
	}
	if filter.EnforcementBody != "" {
		args = append(args, filter.EnforcementBody)
		conditions = append(conditions, fmt.Sprintf("c.enforcement_body = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		var placeholders string
		args, placeholders = inPlaceholders(args, filter.Statuses)
		conditions = append(conditions, fmt.Sprintf("s.status IN (%s)", placeholders))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(c.organisation_name ILIKE $%d OR c.home_page_url ILIKE $%d OR c.domain ILIKE $%d)", len(args), len(args), len(args)))
	}

	from := " FROM cases c LEFT JOIN case_status s ON s.case_id = c.id"
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+from+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	selected := make([]string, len(caseColumns))
	for i, column := range caseColumns {
		selected[i] = "c." + column
	}
	query := "SELECT " + strings.Join(selected, ", ") + from + where + fmt.Sprintf(" ORDER BY c.id DESC LIMIT %d OFFSET %d", limit, offset)

	var cases []models.Case
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	return cases, total, nil
}

// ListIDsFrom returns the ids of live cases with id >= firstID, in id order.
func (r *CaseRepository) ListIDsFrom(ctx context.Context, firstID int64) ([]int64, error) {
	const query = `SELECT id FROM cases WHERE is_deleted = FALSE AND id >= $1 ORDER BY id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, firstID); err != nil {
		return nil, fmt.Errorf("list case ids: %w", err)
	}
	return ids, nil
}

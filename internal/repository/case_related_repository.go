package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

var caseStatusColumns = []string{
	"id", "case_id", "status", "farthest_status",
}
var caseComplianceColumns = []string{
	"id", "case_id", "version", "website_compliance_state_initial",
	"website_compliance_notes_initial", "statement_compliance_state_initial",
	"statement_compliance_notes_initial", "website_compliance_state_12_week",
	"website_compliance_notes_12_week", "statement_compliance_state_12_week",
	"statement_compliance_notes_12_week",
}
var contactColumns = []string{
	"id", "case_id", "version", "name", "job_title", "email", "preferred", "is_deleted", "created",
	"created_by",
}
var equalityBodyColumns = []string{
	"id", "case_id", "id_within_case", "version", "type", "status", "message", "notes", "zendesk_url",
	"is_deleted", "created", "created_by",
}
var reportColumns = []string{
	"id", "case_id", "version", "is_deleted", "created",
}
var (
	complianceInsertQuery   = "INSERT INTO case_compliance (" + joinColumns(without(caseComplianceColumns, "id")) + ") VALUES (" + joinNamed(without(caseComplianceColumns, "id")) + ") RETURNING id"
	complianceUpdateQuery   = versionedUpdate("case_compliance", without(caseComplianceColumns, "id", "case_id", "version"))
	contactInsertQuery      = insertReturning("contacts", without(contactColumns, "id", "created"))
	contactUpdateQuery      = versionedUpdate("contacts", without(contactColumns, "id", "case_id", "version", "created", "created_by"))
	equalityBodyInsertQuery = insertReturning("equality_body_correspondence", without(equalityBodyColumns, "id", "created"))
	equalityBodyUpdateQuery = versionedUpdate("equality_body_correspondence", without(equalityBodyColumns, "id", "case_id", "id_within_case", "version", "created", "created_by"))
	reportInsertQuery       = insertReturning("reports", without(reportColumns, "id", "created"))
)

// GetStatus loads the status row of a case.
func (r *CaseRepository) GetStatus(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.CaseStatus, error) {
	var status models.CaseStatus
	if err := sqlx.GetContext(ctx, r.exec(exec), &status, selectFrom("case_status", caseStatusColumns)+" WHERE case_id = $1", caseID); err != nil {
		return nil, err
	}
	return &status, nil
}

// SaveStatus inserts or replaces the status row of a case.
func (r *CaseRepository) SaveStatus(ctx context.Context, exec sqlx.ExtContext, status *models.CaseStatus) error {
	const query = `INSERT INTO case_status (case_id, status, farthest_status) VALUES ($1, $2, $3)
ON CONFLICT (case_id) DO UPDATE SET status = EXCLUDED.status, farthest_status = EXCLUDED.farthest_status
RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &status.ID, query, status.CaseID, status.Status, status.FarthestStatus); err != nil {
		return fmt.Errorf("save case status: %w", err)
	}
	return nil
}

// GetCompliance loads the compliance row of a case.
func (r *CaseRepository) GetCompliance(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.CaseCompliance, error) {
	var compliance models.CaseCompliance
	if err := sqlx.GetContext(ctx, r.exec(exec), &compliance, selectFrom("case_compliance", caseComplianceColumns)+" WHERE case_id = $1", caseID); err != nil {
		return nil, err
	}
	return &compliance, nil
}

// CreateCompliance inserts the compliance row of a case.
func (r *CaseRepository) CreateCompliance(ctx context.Context, exec sqlx.ExtContext, compliance *models.CaseCompliance) error {
	compliance.Version = 1
	rows, err := sqlx.NamedQueryContext(ctx, r.exec(exec), complianceInsertQuery, compliance)
	if err != nil {
		return fmt.Errorf("insert case compliance: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	if rows.Next() {
		if err := rows.Scan(&compliance.ID); err != nil {
			return fmt.Errorf("scan case compliance id: %w", err)
		}
	}
	return rows.Err()
}

// UpdateCompliance is a versioned write of the compliance row.
func (r *CaseRepository) UpdateCompliance(ctx context.Context, exec sqlx.ExtContext, compliance *models.CaseCompliance) error {
	if err := namedExecAffected(ctx, r.exec(exec), complianceUpdateQuery, compliance); err != nil {
		return err
	}
	compliance.Version++
	return nil
}

// ListContacts returns the live contacts of a case.
func (r *CaseRepository) ListContacts(ctx context.Context, exec sqlx.ExtContext, caseID int64) ([]models.Contact, error) {
	var contacts []models.Contact
	query := selectFrom("contacts", contactColumns) + " WHERE case_id = $1 AND is_deleted = FALSE ORDER BY preferred DESC, id"
	if err := sqlx.SelectContext(ctx, r.exec(exec), &contacts, query, caseID); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// GetContact loads one contact.
func (r *CaseRepository) GetContact(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Contact, error) {
	var contact models.Contact
	if err := sqlx.GetContext(ctx, r.exec(exec), &contact, selectFrom("contacts", contactColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &contact, nil
}

// CreateContact inserts a contact.
func (r *CaseRepository) CreateContact(ctx context.Context, exec sqlx.ExtContext, contact *models.Contact) error {
	contact.Version = 1
	if err := namedInsert(ctx, r.exec(exec), contactInsertQuery, contact, &contact.ID, &contact.Created); err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// UpdateContact is a versioned write of a contact.
func (r *CaseRepository) UpdateContact(ctx context.Context, exec sqlx.ExtContext, contact *models.Contact) error {
	if err := namedExecAffected(ctx, r.exec(exec), contactUpdateQuery, contact); err != nil {
		return err
	}
	contact.Version++
	return nil
}

// ListEqualityBodyCorrespondence returns the live correspondence of a case.
func (r *CaseRepository) ListEqualityBodyCorrespondence(ctx context.Context, exec sqlx.ExtContext, caseID int64) ([]models.EqualityBodyCorrespondence, error) {
	var items []models.EqualityBodyCorrespondence
	query := selectFrom("equality_body_correspondence", equalityBodyColumns) + " WHERE case_id = $1 AND is_deleted = FALSE ORDER BY id_within_case"
	if err := sqlx.SelectContext(ctx, r.exec(exec), &items, query, caseID); err != nil {
		return nil, fmt.Errorf("list equality body correspondence: %w", err)
	}
	return items, nil
}

// GetEqualityBodyCorrespondence loads one correspondence item.
func (r *CaseRepository) GetEqualityBodyCorrespondence(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.EqualityBodyCorrespondence, error) {
	var item models.EqualityBodyCorrespondence
	if err := sqlx.GetContext(ctx, r.exec(exec), &item, selectFrom("equality_body_correspondence", equalityBodyColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateEqualityBodyCorrespondence inserts an item numbered after the highest
// id_within_case of the case, deleted items included. Callers hold the case
// row lock.
func (r *CaseRepository) CreateEqualityBodyCorrespondence(ctx context.Context, exec sqlx.ExtContext, item *models.EqualityBodyCorrespondence) error {
	target := r.exec(exec)
	const nextQuery = `SELECT COALESCE(MAX(id_within_case), 0) + 1 FROM equality_body_correspondence WHERE case_id = $1`
	if err := sqlx.GetContext(ctx, target, &item.IDWithinCase, nextQuery, item.CaseID); err != nil {
		return fmt.Errorf("next equality body correspondence number: %w", err)
	}
	item.Version = 1
	if err := namedInsert(ctx, target, equalityBodyInsertQuery, item, &item.ID, &item.Created); err != nil {
		return fmt.Errorf("insert equality body correspondence: %w", err)
	}
	return nil
}

// UpdateEqualityBodyCorrespondence is a versioned write of one item.
func (r *CaseRepository) UpdateEqualityBodyCorrespondence(ctx context.Context, exec sqlx.ExtContext, item *models.EqualityBodyCorrespondence) error {
	if err := namedExecAffected(ctx, r.exec(exec), equalityBodyUpdateQuery, item); err != nil {
		return err
	}
	item.Version++
	return nil
}

// GetReport loads the live report of a case.
func (r *CaseRepository) GetReport(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.Report, error) {
	var report models.Report
	if err := sqlx.GetContext(ctx, r.exec(exec), &report, selectFrom("reports", reportColumns)+" WHERE case_id = $1 AND is_deleted = FALSE", caseID); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateReport inserts the report root of a case.
func (r *CaseRepository) CreateReport(ctx context.Context, exec sqlx.ExtContext, report *models.Report) error {
	report.Version = 1
	if err := namedInsert(ctx, r.exec(exec), reportInsertQuery, report, &report.ID, &report.Created); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

var auditColumns = []string{
	"id", "case_id", "version", "date_of_test", "retest_date", "is_deleted", "created",
	"audit_metadata_complete_date", "audit_pages_complete_date",
	"audit_website_decision_complete_date", "audit_statement_decision_complete_date",
	"audit_wcag_summary_complete_date", "audit_statement_summary_complete_date",
	"audit_statement_pages_complete_date", "audit_statement_overview_complete_date",
	"audit_statement_website_complete_date", "audit_statement_compliance_complete_date",
	"audit_statement_non_accessible_complete_date", "audit_statement_preparation_complete_date",
	"audit_statement_feedback_complete_date", "audit_statement_custom_complete_date",
	"initial_disproportionate_burden_complete_date", "audit_retest_metadata_complete_date",
	"audit_retest_pages_complete_date", "audit_retest_website_decision_complete_date",
	"audit_retest_statement_decision_complete_date", "audit_retest_wcag_summary_complete_date",
	"audit_retest_statement_summary_complete_date", "audit_retest_statement_pages_complete_date",
	"audit_retest_statement_overview_complete_date", "audit_retest_statement_website_complete_date",
	"audit_retest_statement_compliance_complete_date",
	"audit_retest_statement_non_accessible_complete_date",
	"audit_retest_statement_preparation_complete_date",
	"audit_retest_statement_feedback_complete_date", "audit_retest_statement_custom_complete_date",
	"retest_disproportionate_burden_complete_date", "initial_disproportionate_burden_claim",
	"initial_disproportionate_burden_notes", "retest_disproportionate_burden_claim",
	"retest_disproportionate_burden_notes", "accessibility_statement_state",
	"accessibility_statement_not_correct_format", "accessibility_statement_not_specific_enough",
	"accessibility_statement_missing_accessibility_issues",
	"accessibility_statement_missing_mandatory_wording",
	"accessibility_statement_missing_mandatory_wording_notes",
	"accessibility_statement_needs_more_re_disproportionate",
	"accessibility_statement_needs_more_re_accessibility",
	"accessibility_statement_deadline_not_complete",
	"accessibility_statement_deadline_not_sufficient",
	"accessibility_statement_deadline_not_complete_wording",
	"accessibility_statement_deadline_not_sufficient_wording",
}
var pageColumns = []string{
	"id", "audit_id", "version", "page_type", "name", "url", "not_found", "is_contact_page",
	"retest_page_missing_date", "complete_date", "retest_complete_date", "is_deleted", "created",
}
var checkResultColumns = []string{
	"id", "audit_id", "page_id", "wcag_definition_id", "version", "type", "check_result_state",
	"notes", "retest_state", "retest_notes", "is_deleted", "updated",
}
var statementPageColumns = []string{
	"id", "audit_id", "url", "backup_url", "added_stage", "is_deleted", "created",
}
var statementCheckResultColumns = []string{
	"id", "audit_id", "statement_check_id", "version", "type", "check_result_state", "retest_state",
	"report_comment", "retest_comment", "auditor_notes", "is_deleted",
}
var retestStatementCheckResultColumns = []string{
	"id", "audit_id", "statement_check_id", "version", "type", "check_result_state", "comment",
	"is_deleted",
}
var (
	auditInsertQuery    = insertReturning("audits", without(auditColumns, "id", "created"))
	auditUpdateQuery    = versionedUpdate("audits", without(auditColumns, "id", "case_id", "version", "created"))
	pageInsertQuery     = insertReturning("pages", without(pageColumns, "id", "created"))
	pageUpdateQuery     = versionedUpdate("pages", without(pageColumns, "id", "audit_id", "version", "created"))
	checkResultInsert   = insertReturningID("check_results", without(checkResultColumns, "id"))
	checkResultUpdate   = versionedUpdate("check_results", without(checkResultColumns, "id", "audit_id", "page_id", "wcag_definition_id", "version"))
	statementPageInsert = insertReturning("statement_pages", without(statementPageColumns, "id", "created"))
	statementPageUpdate = "UPDATE statement_pages SET url = :url, backup_url = :backup_url, is_deleted = :is_deleted WHERE id = :id"
	statementResultIns  = insertReturningID("statement_check_results", without(statementCheckResultColumns, "id"))
	statementResultUpd  = versionedUpdate("statement_check_results", without(statementCheckResultColumns, "id", "audit_id", "statement_check_id", "version"))
	retestResultInsert  = insertReturningID("retest_statement_check_results", without(retestStatementCheckResultColumns, "id"))
	retestResultUpdate  = versionedUpdate("retest_statement_check_results", without(retestStatementCheckResultColumns, "id", "audit_id", "statement_check_id", "version"))
)

// AuditRepository persists audits and their child rows.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an audit at version 1.
func (r *AuditRepository) Create(ctx context.Context, exec sqlx.ExtContext, audit *models.Audit) error {
	audit.Version = 1
	if err := namedInsert(ctx, r.exec(exec), auditInsertQuery, audit, &audit.ID, &audit.Created); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// Get loads an audit by id.
func (r *AuditRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Audit, error) {
	var audit models.Audit
	if err := sqlx.GetContext(ctx, r.exec(exec), &audit, selectFrom("audits", auditColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &audit, nil
}

// GetForUpdate loads an audit and locks its row.
func (r *AuditRepository) GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Audit, error) {
	var audit models.Audit
	if err := sqlx.GetContext(ctx, r.exec(exec), &audit, selectFrom("audits", auditColumns)+" WHERE id = $1 FOR UPDATE", id); err != nil {
		return nil, err
	}
	return &audit, nil
}

// GetByCase loads the live audit of a case.
func (r *AuditRepository) GetByCase(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.Audit, error) {
	var audit models.Audit
	if err := sqlx.GetContext(ctx, r.exec(exec), &audit, selectFrom("audits", auditColumns)+" WHERE case_id = $1 AND is_deleted = FALSE", caseID); err != nil {
		return nil, err
	}
	return &audit, nil
}

// Update is a versioned write of an audit.
func (r *AuditRepository) Update(ctx context.Context, exec sqlx.ExtContext, audit *models.Audit) error {
	if err := namedExecAffected(ctx, r.exec(exec), auditUpdateQuery, audit); err != nil {
		return err
	}
	audit.Version++
	return nil
}

// ListAuditIDsWithClaim returns live audits of cases with id >= firstCaseID
// whose claim in either phase equals claim.
func (r *AuditRepository) ListAuditIDsWithClaim(ctx context.Context, claim models.DisproportionateBurden, firstCaseID int64) ([]int64, error) {
	const query = `SELECT id FROM audits WHERE is_deleted = FALSE AND case_id >= $1
 AND (initial_disproportionate_burden_claim = $2 OR retest_disproportionate_burden_claim = $2) ORDER BY id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, firstCaseID, claim); err != nil {
		return nil, fmt.Errorf("list audits with claim: %w", err)
	}
	return ids, nil
}

// CreatePage inserts a page.
func (r *AuditRepository) CreatePage(ctx context.Context, exec sqlx.ExtContext, page *models.Page) error {
	page.Version = 1
	if err := namedInsert(ctx, r.exec(exec), pageInsertQuery, page, &page.ID, &page.Created); err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

// GetPage loads one page.
func (r *AuditRepository) GetPage(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Page, error) {
	var page models.Page
	if err := sqlx.GetContext(ctx, r.exec(exec), &page, selectFrom("pages", pageColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPages returns the live pages of an audit.
func (r *AuditRepository) ListPages(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.Page, error) {
	var pages []models.Page
	query := selectFrom("pages", pageColumns) + " WHERE audit_id = $1 AND is_deleted = FALSE ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.exec(exec), &pages, query, auditID); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return pages, nil
}

// CountPagesOfType counts live pages of one type in an audit.
func (r *AuditRepository) CountPagesOfType(ctx context.Context, exec sqlx.ExtContext, auditID int64, pageType models.PageType) (int, error) {
	const query = `SELECT COUNT(*) FROM pages WHERE audit_id = $1 AND page_type = $2 AND is_deleted = FALSE`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, auditID, pageType); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return count, nil
}

// UpdatePage is a versioned write of a page.
func (r *AuditRepository) UpdatePage(ctx context.Context, exec sqlx.ExtContext, page *models.Page) error {
	if err := namedExecAffected(ctx, r.exec(exec), pageUpdateQuery, page); err != nil {
		return err
	}
	page.Version++
	return nil
}

// FindCheckResult loads the result for one page and WCAG definition.
func (r *AuditRepository) FindCheckResult(ctx context.Context, exec sqlx.ExtContext, pageID, wcagDefinitionID int64) (*models.CheckResult, error) {
	var result models.CheckResult
	query := selectFrom("check_results", checkResultColumns) + " WHERE page_id = $1 AND wcag_definition_id = $2"
	if err := sqlx.GetContext(ctx, r.exec(exec), &result, query, pageID, wcagDefinitionID); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCheckResult loads one check result.
func (r *AuditRepository) GetCheckResult(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.CheckResult, error) {
	var result models.CheckResult
	if err := sqlx.GetContext(ctx, r.exec(exec), &result, selectFrom("check_results", checkResultColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListCheckResults returns the live check results of an audit.
func (r *AuditRepository) ListCheckResults(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.CheckResult, error) {
	var results []models.CheckResult
	query := selectFrom("check_results", checkResultColumns) + " WHERE audit_id = $1 AND is_deleted = FALSE ORDER BY page_id, wcag_definition_id"
	if err := sqlx.SelectContext(ctx, r.exec(exec), &results, query, auditID); err != nil {
		return nil, fmt.Errorf("list check results: %w", err)
	}
	return results, nil
}

// ExistingCheckResultIDs returns the subset of ids that exist.
func (r *AuditRepository) ExistingCheckResultIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) (map[int64]struct{}, error) {
	found := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	args, placeholders := inPlaceholders(nil, ids)
	var existing []int64
	query := fmt.Sprintf("SELECT id FROM check_results WHERE id IN (%s)", placeholders)
	if err := sqlx.SelectContext(ctx, r.exec(exec), &existing, query, args...); err != nil {
		return nil, fmt.Errorf("check result ids: %w", err)
	}
	for _, id := range existing {
		found[id] = struct{}{}
	}
	return found, nil
}

// CreateCheckResult inserts a check result.
func (r *AuditRepository) CreateCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.CheckResult) error {
	result.Version = 1
	now := time.Now().UTC()
	result.Updated = &now
	if err := namedInsert(ctx, r.exec(exec), checkResultInsert, result, &result.ID); err != nil {
		return fmt.Errorf("insert check result: %w", err)
	}
	return nil
}

// UpdateCheckResult is a versioned write of a check result.
func (r *AuditRepository) UpdateCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.CheckResult) error {
	now := time.Now().UTC()
	result.Updated = &now
	if err := namedExecAffected(ctx, r.exec(exec), checkResultUpdate, result); err != nil {
		return err
	}
	result.Version++
	return nil
}

// CreateStatementPage inserts a statement page.
func (r *AuditRepository) CreateStatementPage(ctx context.Context, exec sqlx.ExtContext, page *models.StatementPage) error {
	if err := namedInsert(ctx, r.exec(exec), statementPageInsert, page, &page.ID, &page.Created); err != nil {
		return fmt.Errorf("insert statement page: %w", err)
	}
	return nil
}

// UpdateStatementPage writes a statement page. The table carries no version.
func (r *AuditRepository) UpdateStatementPage(ctx context.Context, exec sqlx.ExtContext, page *models.StatementPage) error {
	return namedExecAffected(ctx, r.exec(exec), statementPageUpdate, page)
}

// ListStatementPages returns the live statement pages of an audit.
func (r *AuditRepository) ListStatementPages(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.StatementPage, error) {
	var pages []models.StatementPage
	query := selectFrom("statement_pages", statementPageColumns) + " WHERE audit_id = $1 AND is_deleted = FALSE ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.exec(exec), &pages, query, auditID); err != nil {
		return nil, fmt.Errorf("list statement pages: %w", err)
	}
	return pages, nil
}

// CreateStatementCheckResult inserts one statement check result.
func (r *AuditRepository) CreateStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.StatementCheckResult) error {
	result.Version = 1
	if err := namedInsert(ctx, r.exec(exec), statementResultIns, result, &result.ID); err != nil {
		return fmt.Errorf("insert statement check result: %w", err)
	}
	return nil
}

// GetStatementCheckResult loads one statement check result.
func (r *AuditRepository) GetStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.StatementCheckResult, error) {
	var result models.StatementCheckResult
	if err := sqlx.GetContext(ctx, r.exec(exec), &result, selectFrom("statement_check_results", statementCheckResultColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateStatementCheckResult is a versioned write of a statement check result.
func (r *AuditRepository) UpdateStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.StatementCheckResult) error {
	if err := namedExecAffected(ctx, r.exec(exec), statementResultUpd, result); err != nil {
		return err
	}
	result.Version++
	return nil
}

// ListStatementCheckResults returns the live statement check results of an audit.
func (r *AuditRepository) ListStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.StatementCheckResult, error) {
	var results []models.StatementCheckResult
	query := selectFrom("statement_check_results", statementCheckResultColumns) + " WHERE audit_id = $1 AND is_deleted = FALSE ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.exec(exec), &results, query, auditID); err != nil {
		return nil, fmt.Errorf("list statement check results: %w", err)
	}
	return results, nil
}

// RetypeStatementCheckResults copies a statement check's type onto its results.
func (r *AuditRepository) RetypeStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, statementCheckID int64, checkType models.StatementCheckType) (int64, error) {
	const query = `UPDATE statement_check_results SET type = $1, version = version + 1 WHERE statement_check_id = $2 AND type <> $1`
	result, err := r.exec(exec).ExecContext(ctx, query, checkType, statementCheckID)
	if err != nil {
		return 0, fmt.Errorf("retype statement check results: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retype rows affected: %w", err)
	}
	return affected, nil
}

// RetypeRetestStatementCheckResults is RetypeStatementCheckResults for the
// equality body retest rows.
func (r *AuditRepository) RetypeRetestStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, statementCheckID int64, checkType models.StatementCheckType) (int64, error) {
	const query = `UPDATE retest_statement_check_results SET type = $1, version = version + 1 WHERE statement_check_id = $2 AND type <> $1`
	result, err := r.exec(exec).ExecContext(ctx, query, checkType, statementCheckID)
	if err != nil {
		return 0, fmt.Errorf("retype retest statement check results: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retype rows affected: %w", err)
	}
	return affected, nil
}

// CreateRetestStatementCheckResult inserts one retest statement check result.
func (r *AuditRepository) CreateRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.RetestStatementCheckResult) error {
	result.Version = 1
	if err := namedInsert(ctx, r.exec(exec), retestResultInsert, result, &result.ID); err != nil {
		return fmt.Errorf("insert retest statement check result: %w", err)
	}
	return nil
}

// GetRetestStatementCheckResult loads one retest statement check result.
func (r *AuditRepository) GetRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.RetestStatementCheckResult, error) {
	var result models.RetestStatementCheckResult
	if err := sqlx.GetContext(ctx, r.exec(exec), &result, selectFrom("retest_statement_check_results", retestStatementCheckResultColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateRetestStatementCheckResult is a versioned write of a retest result.
func (r *AuditRepository) UpdateRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.RetestStatementCheckResult) error {
	if err := namedExecAffected(ctx, r.exec(exec), retestResultUpdate, result); err != nil {
		return err
	}
	result.Version++
	return nil
}

// ListRetestStatementCheckResults returns the live retest results of an audit.
func (r *AuditRepository) ListRetestStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.RetestStatementCheckResult, error) {
	var results []models.RetestStatementCheckResult
	query := selectFrom("retest_statement_check_results", retestStatementCheckResultColumns) + " WHERE audit_id = $1 AND is_deleted = FALSE ORDER BY id"
	if err := sqlx.SelectContext(ctx, r.exec(exec), &results, query, auditID); err != nil {
		return nil, fmt.Errorf("list retest statement check results: %w", err)
	}
	return results, nil
}

// LoadGraph loads an audit with every live child row.
func (r *AuditRepository) LoadGraph(ctx context.Context, exec sqlx.ExtContext, auditID int64) (*models.AuditGraph, error) {
	audit, err := r.Get(ctx, exec, auditID)
	if err != nil {
		return nil, err
	}
	graph := &models.AuditGraph{Audit: *audit}
	if graph.Pages, err = r.ListPages(ctx, exec, auditID); err != nil {
		return nil, err
	}
	if graph.CheckResults, err = r.ListCheckResults(ctx, exec, auditID); err != nil {
		return nil, err
	}
	if graph.StatementPages, err = r.ListStatementPages(ctx, exec, auditID); err != nil {
		return nil, err
	}
	if graph.StatementCheckResults, err = r.ListStatementCheckResults(ctx, exec, auditID); err != nil {
		return nil, err
	}
	if graph.RetestStatementCheckResults, err = r.ListRetestStatementCheckResults(ctx, exec, auditID); err != nil {
		return nil, err
	}
	return graph, nil
}

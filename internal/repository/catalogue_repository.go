package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

var wcagDefinitionColumns = []string{
	"id", "type", "name", "description", "hint", "url_on_w3", "report_boilerplate", "date_start",
	"date_end",
}
var statementCheckColumns = []string{
	"id", "issue_number", "type", "label", "success_criteria", "report_text", "position",
	"date_start", "date_end", "is_deleted",
}
// CatalogueRepository persists WCAG definitions and statement checks.
type CatalogueRepository struct {
	db *sqlx.DB
}

// NewCatalogueRepository constructs the repository.
func NewCatalogueRepository(db *sqlx.DB) *CatalogueRepository {
	return &CatalogueRepository{db: db}
}

func (r *CatalogueRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListWcagDefinitions returns every WCAG definition ordered by type and name.
func (r *CatalogueRepository) ListWcagDefinitions(ctx context.Context, exec sqlx.ExtContext) ([]models.WcagDefinition, error) {
	var defs []models.WcagDefinition
	if err := sqlx.SelectContext(ctx, r.exec(exec), &defs, selectFrom("wcag_definitions", wcagDefinitionColumns)+" ORDER BY type, name, id"); err != nil {
		return nil, fmt.Errorf("list wcag definitions: %w", err)
	}
	return defs, nil
}

// GetWcagDefinition loads one WCAG definition.
func (r *CatalogueRepository) GetWcagDefinition(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.WcagDefinition, error) {
	var def models.WcagDefinition
	if err := sqlx.GetContext(ctx, r.exec(exec), &def, selectFrom("wcag_definitions", wcagDefinitionColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &def, nil
}

// UpsertWcagDefinition inserts a definition or updates the stored one. A
// non-zero ID is the conflict key, otherwise type and name are.
func (r *CatalogueRepository) UpsertWcagDefinition(ctx context.Context, exec sqlx.ExtContext, def *models.WcagDefinition) error {
	const updates = ` DO UPDATE SET type = EXCLUDED.type, name = EXCLUDED.name, description = EXCLUDED.description,
 hint = EXCLUDED.hint, url_on_w3 = EXCLUDED.url_on_w3, report_boilerplate = EXCLUDED.report_boilerplate,
 date_start = EXCLUDED.date_start, date_end = EXCLUDED.date_end RETURNING id`
	columns := without(wcagDefinitionColumns, "id")
	conflict := " ON CONFLICT (type, name)"
	if def.ID != 0 {
		columns = wcagDefinitionColumns
		conflict = " ON CONFLICT (id)"
	}
	query := insertReturningID("wcag_definitions", columns)
	query = strings.TrimSuffix(query, " RETURNING id") + conflict + updates
	if err := namedInsert(ctx, r.exec(exec), query, def, &def.ID); err != nil {
		return fmt.Errorf("upsert wcag definition: %w", err)
	}
	return nil
}

// SetWcagDefinitionEnd sets the last active day of a definition.
func (r *CatalogueRepository) SetWcagDefinitionEnd(ctx context.Context, exec sqlx.ExtContext, def *models.WcagDefinition) error {
	const query = `UPDATE wcag_definitions SET date_end = $1 WHERE id = $2`
	return execAffected(ctx, r.exec(exec), query, def.DateEnd, def.ID)
}

// CountCheckResults counts the check results referring to a definition.
func (r *CatalogueRepository) CountCheckResults(ctx context.Context, exec sqlx.ExtContext, wcagDefinitionID int64) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, `SELECT COUNT(*) FROM check_results WHERE wcag_definition_id = $1`, wcagDefinitionID); err != nil {
		return 0, fmt.Errorf("count check results: %w", err)
	}
	return count, nil
}

// DeleteWcagDefinition removes an unreferenced definition.
func (r *CatalogueRepository) DeleteWcagDefinition(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	return execAffected(ctx, r.exec(exec), `DELETE FROM wcag_definitions WHERE id = $1`, id)
}

// ListStatementChecks returns statement checks ordered for display.
func (r *CatalogueRepository) ListStatementChecks(ctx context.Context, exec sqlx.ExtContext, includeDeleted bool) ([]models.StatementCheck, error) {
	query := selectFrom("statement_checks", statementCheckColumns)
	if !includeDeleted {
		query += " WHERE is_deleted = FALSE"
	}
	query += " ORDER BY position, id"
	var checks []models.StatementCheck
	if err := sqlx.SelectContext(ctx, r.exec(exec), &checks, query); err != nil {
		return nil, fmt.Errorf("list statement checks: %w", err)
	}
	return checks, nil
}

// GetStatementCheck loads one statement check.
func (r *CatalogueRepository) GetStatementCheck(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.StatementCheck, error) {
	var check models.StatementCheck
	if err := sqlx.GetContext(ctx, r.exec(exec), &check, selectFrom("statement_checks", statementCheckColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &check, nil
}

// CreateStatementCheck inserts a statement check. A non-zero ID is kept so
// seeded rows keep their identifiers.
func (r *CatalogueRepository) CreateStatementCheck(ctx context.Context, exec sqlx.ExtContext, check *models.StatementCheck) error {
	columns := without(statementCheckColumns, "id")
	if check.ID != 0 {
		columns = statementCheckColumns
	}
	if err := namedInsert(ctx, r.exec(exec), insertReturningID("statement_checks", columns), check, &check.ID); err != nil {
		return fmt.Errorf("insert statement check: %w", err)
	}
	return nil
}

// UpdateStatementCheck writes every column of a statement check.
func (r *CatalogueRepository) UpdateStatementCheck(ctx context.Context, exec sqlx.ExtContext, check *models.StatementCheck) error {
	const query = `UPDATE statement_checks SET issue_number = :issue_number, type = :type, label = :label,
 success_criteria = :success_criteria, report_text = :report_text, position = :position,
 date_start = :date_start, date_end = :date_end, is_deleted = :is_deleted WHERE id = :id`
	return namedExecAffected(ctx, r.exec(exec), query, check)
}

// SyncSequences moves the id sequences past seeded ids.
func (r *CatalogueRepository) SyncSequences(ctx context.Context, exec sqlx.ExtContext) error {
	for _, table := range []string{"wcag_definitions", "statement_checks"} {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s", table, table)
		if _, err := r.exec(exec).ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sync %s sequence: %w", table, err)
		}
	}
	return nil
}

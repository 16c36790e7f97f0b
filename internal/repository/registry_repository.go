package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

const (
	axeRuleSelect   = `SELECT rule_id, name, description, impact, selector, tags, help FROM axe_rule`
	axeWcagSelect   = `SELECT axe_rule_id, wcag_criterion_number FROM axe_wcag`
	axeHeaderSelect = `SELECT test_id, test_timestamp, url, domain_name, axe_version, test_environment, time_taken, test_succeeded, further_info FROM testresult_axe_header`
	axeDataSelect   = `SELECT test_data_id, test_id, rule_name, test_status, nodes FROM testresult_axe_data`
)

// RegistryRepository reads the axe_data store. The store is owned by another
// system and the connection is opened read-only.
type RegistryRepository struct {
	db *sqlx.DB
}

// NewRegistryRepository constructs the repository.
func NewRegistryRepository(db *sqlx.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// ListAxeRules returns axe rules ordered by name.
func (r *RegistryRepository) ListAxeRules(ctx context.Context, filter models.RegistryFilter) ([]models.AxeRule, error) {
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := axeRuleSelect + fmt.Sprintf(" ORDER BY name LIMIT %d OFFSET %d", limit, offset)
	var rules []models.AxeRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list axe rules: %w", err)
	}
	return rules, nil
}

// GetAxeRule loads one rule by id.
func (r *RegistryRepository) GetAxeRule(ctx context.Context, ruleID int64) (*models.AxeRule, error) {
	var rule models.AxeRule
	if err := r.db.GetContext(ctx, &rule, axeRuleSelect+" WHERE rule_id = $1", ruleID); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListWcagMappings returns the WCAG criteria an axe rule maps to.
func (r *RegistryRepository) ListWcagMappings(ctx context.Context, ruleID int64) ([]models.AxeWcag, error) {
	var mappings []models.AxeWcag
	if err := r.db.SelectContext(ctx, &mappings, axeWcagSelect+" WHERE axe_rule_id = $1 ORDER BY wcag_criterion_number", ruleID); err != nil {
		return nil, fmt.Errorf("list axe wcag mappings: %w", err)
	}
	return mappings, nil
}

// ListTestHeaders returns automated test runs, newest first.
func (r *RegistryRepository) ListTestHeaders(ctx context.Context, filter models.RegistryFilter) ([]models.TestResultAxeHeader, error) {
	conditions := make([]string, 0, 1)
	args := make([]interface{}, 0, 1)
	if filter.DomainName != "" {
		args = append(args, filter.DomainName)
		conditions = append(conditions, fmt.Sprintf("domain_name = $%d", len(args)))
	}
	query := axeHeaderSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY test_timestamp DESC NULLS LAST, test_id DESC LIMIT %d OFFSET %d", limit, offset)

	var headers []models.TestResultAxeHeader
	if err := r.db.SelectContext(ctx, &headers, query, args...); err != nil {
		return nil, fmt.Errorf("list axe test headers: %w", err)
	}
	return headers, nil
}

// GetTestHeader loads one automated test run.
func (r *RegistryRepository) GetTestHeader(ctx context.Context, testID int64) (*models.TestResultAxeHeader, error) {
	var header models.TestResultAxeHeader
	if err := r.db.GetContext(ctx, &header, axeHeaderSelect+" WHERE test_id = $1", testID); err != nil {
		return nil, err
	}
	return &header, nil
}

// ListTestData returns the rule outcomes of one test run.
func (r *RegistryRepository) ListTestData(ctx context.Context, testID int64) ([]models.TestResultAxeData, error) {
	var data []models.TestResultAxeData
	if err := r.db.SelectContext(ctx, &data, axeDataSelect+" WHERE test_id = $1 ORDER BY rule_name, test_data_id", testID); err != nil {
		return nil, fmt.Errorf("list axe test data: %w", err)
	}
	return data, nil
}

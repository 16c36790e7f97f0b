package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

type registryStore interface {
	ListAxeRules(ctx context.Context, filter models.RegistryFilter) ([]models.AxeRule, error)
	GetAxeRule(ctx context.Context, ruleID int64) (*models.AxeRule, error)
	ListWcagMappings(ctx context.Context, ruleID int64) ([]models.AxeWcag, error)
	ListTestHeaders(ctx context.Context, filter models.RegistryFilter) ([]models.TestResultAxeHeader, error)
	GetTestHeader(ctx context.Context, testID int64) (*models.TestResultAxeHeader, error)
	ListTestData(ctx context.Context, testID int64) ([]models.TestResultAxeData, error)
}

// AxeRuleDetail is a rule with the WCAG criteria it maps to.
type AxeRuleDetail struct {
	Rule     models.AxeRule   `json:"rule"`
	Mappings []models.AxeWcag `json:"mappings"`
}

// AxeTestDetail is an automated test run with its rule outcomes.
type AxeTestDetail struct {
	Header models.TestResultAxeHeader `json:"header"`
	Rows   []models.TestResultAxeData `json:"rows"`
}

// RegistryService reads the automated test registry. It has no write surface.
type RegistryService struct {
	store  registryStore
	logger *zap.Logger
}

// NewRegistryService constructs the registry service.
func NewRegistryService(store registryStore, logger *zap.Logger) *RegistryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{store: store, logger: logger}
}

// ListAxeRules returns a page of axe rules.
func (s *RegistryService) ListAxeRules(ctx context.Context, filter models.RegistryFilter) ([]models.AxeRule, error) {
	rules, err := s.store.ListAxeRules(ctx, filter)
	if err != nil {
		return nil, storeError(err, "list axe rules")
	}
	return rules, nil
}

// AxeRule returns one rule with its WCAG mapping.
func (s *RegistryService) AxeRule(ctx context.Context, ruleID int64) (*AxeRuleDetail, error) {
	rule, err := s.store.GetAxeRule(ctx, ruleID)
	if err != nil {
		return nil, storeError(err, "axe rule")
	}
	mappings, err := s.store.ListWcagMappings(ctx, ruleID)
	if err != nil {
		return nil, storeError(err, "list axe wcag mappings")
	}
	return &AxeRuleDetail{Rule: *rule, Mappings: mappings}, nil
}

// ListTests returns automated test runs.
func (s *RegistryService) ListTests(ctx context.Context, filter models.RegistryFilter) ([]models.TestResultAxeHeader, error) {
	headers, err := s.store.ListTestHeaders(ctx, filter)
	if err != nil {
		return nil, storeError(err, "list axe tests")
	}
	return headers, nil
}

// Test returns one test run with its rows.
func (s *RegistryService) Test(ctx context.Context, testID int64) (*AxeTestDetail, error) {
	header, err := s.store.GetTestHeader(ctx, testID)
	if err != nil {
		return nil, storeError(err, "axe test")
	}
	rows, err := s.store.ListTestData(ctx, testID)
	if err != nil {
		return nil, storeError(err, "list axe test rows")
	}
	return &AxeTestDetail{Header: *header, Rows: rows}, nil
}

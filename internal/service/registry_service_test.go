package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type registryStoreStub struct {
	rules    map[int64]models.AxeRule
	mappings map[int64][]models.AxeWcag
	headers  map[int64]models.TestResultAxeHeader
	rows     map[int64][]models.TestResultAxeData
}

func (s *registryStoreStub) ListAxeRules(ctx context.Context, filter models.RegistryFilter) ([]models.AxeRule, error) {
	out := make([]models.AxeRule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (s *registryStoreStub) GetAxeRule(ctx context.Context, ruleID int64) (*models.AxeRule, error) {
	rule, ok := s.rules[ruleID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rule, nil
}

func (s *registryStoreStub) ListWcagMappings(ctx context.Context, ruleID int64) ([]models.AxeWcag, error) {
	return s.mappings[ruleID], nil
}

func (s *registryStoreStub) ListTestHeaders(ctx context.Context, filter models.RegistryFilter) ([]models.TestResultAxeHeader, error) {
	out := make([]models.TestResultAxeHeader, 0, len(s.headers))
	for _, header := range s.headers {
		out = append(out, header)
	}
	return out, nil
}

func (s *registryStoreStub) GetTestHeader(ctx context.Context, testID int64) (*models.TestResultAxeHeader, error) {
	header, ok := s.headers[testID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &header, nil
}

func (s *registryStoreStub) ListTestData(ctx context.Context, testID int64) ([]models.TestResultAxeData, error) {
	return s.rows[testID], nil
}

func newRegistryStoreStub() *registryStoreStub {
	return &registryStoreStub{
		rules: map[int64]models.AxeRule{4: {RuleID: 4, Name: "image-alt"}},
		mappings: map[int64][]models.AxeWcag{
			4: {{AxeRuleID: 4, WcagCriterionNumber: "1.1.1"}},
		},
		headers: map[int64]models.TestResultAxeHeader{8: {TestID: 8}},
		rows: map[int64][]models.TestResultAxeData{
			8: {
				{TestDataID: 1, TestID: 8, RuleName: "image-alt", TestStatus: "violation"},
				{TestDataID: 2, TestID: 8, RuleName: "label", TestStatus: "pass"},
			},
		},
	}
}

func TestRegistryServiceAxeRuleWithMappings(t *testing.T) {
	svc := NewRegistryService(newRegistryStoreStub(), nil)

	detail, err := svc.AxeRule(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "image-alt", detail.Rule.Name)
	require.Len(t, detail.Mappings, 1)
	assert.Equal(t, "1.1.1", detail.Mappings[0].WcagCriterionNumber)
}

func TestRegistryServiceAxeRuleNotFound(t *testing.T) {
	svc := NewRegistryService(newRegistryStoreStub(), nil)

	_, err := svc.AxeRule(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRegistryServiceTestRows(t *testing.T) {
	svc := NewRegistryService(newRegistryStoreStub(), nil)

	detail, err := svc.Test(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), detail.Header.TestID)
	assert.Len(t, detail.Rows, 2)

	_, err = svc.Test(context.Background(), 1)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

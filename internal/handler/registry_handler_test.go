package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type registryServiceMock struct {
	registryService

	err        error
	lastFilter models.RegistryFilter
}

func (m *registryServiceMock) ListTests(ctx context.Context, filter models.RegistryFilter) ([]models.TestResultAxeHeader, error) {
	m.lastFilter = filter
	return []models.TestResultAxeHeader{{TestID: 1}}, m.err
}

func (m *registryServiceMock) AxeRule(ctx context.Context, ruleID int64) (*service.AxeRuleDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &service.AxeRuleDetail{Rule: models.AxeRule{RuleID: ruleID, Name: "image-alt"}}, nil
}

func TestRegistryHandlerListTestsByDomain(t *testing.T) {
	mockSvc := &registryServiceMock{}
	handler := NewRegistryHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/registry/tests?domain=example.gov.uk&page=2&limit=10", nil)
	handler.ListTests(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "example.gov.uk", mockSvc.lastFilter.DomainName)
	assert.Equal(t, 10, mockSvc.lastFilter.Limit)
	assert.Equal(t, 10, mockSvc.lastFilter.Offset)
}

func TestRegistryHandlerGetRule(t *testing.T) {
	handler := NewRegistryHandler(&registryServiceMock{})

	c, w := newTestContext(http.MethodGet, "/registry/axe-rules/4", nil)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	handler.GetRule(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "image-alt")
}

func TestRegistryHandlerGetRuleBadID(t *testing.T) {
	handler := NewRegistryHandler(&registryServiceMock{})

	c, w := newTestContext(http.MethodGet, "/registry/axe-rules/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.GetRule(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, decodeErrorCode(t, w))
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

type registryService interface {
	ListAxeRules(ctx context.Context, filter models.RegistryFilter) ([]models.AxeRule, error)
	AxeRule(ctx context.Context, ruleID int64) (*service.AxeRuleDetail, error)
	ListTests(ctx context.Context, filter models.RegistryFilter) ([]models.TestResultAxeHeader, error)
	Test(ctx context.Context, testID int64) (*service.AxeTestDetail, error)
}

// RegistryHandler exposes the read-only automated test registry.
type RegistryHandler struct {
	service registryService
}

// NewRegistryHandler builds a new handler.
func NewRegistryHandler(service registryService) *RegistryHandler {
	return &RegistryHandler{service: service}
}

func registryFilter(c *gin.Context) models.RegistryFilter {
	filter := models.RegistryFilter{DomainName: c.Query("domain")}
	filter.Limit, filter.Offset = pageParams(c)
	return filter
}

// ListRules godoc
// @Summary List axe rules
// @Tags Registry
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /registry/axe-rules [get]
func (h *RegistryHandler) ListRules(c *gin.Context) {
	filter := registryFilter(c)
	rules, err := h.service.ListAxeRules(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Window(c, rules, len(rules), filter.Limit, filter.Offset)
}

// GetRule godoc
// @Summary Get an axe rule with its WCAG mappings
// @Tags Registry
// @Produce json
// @Param id path int true "Rule ID"
// @Success 200 {object} response.Envelope
// @Router /registry/axe-rules/{id} [get]
func (h *RegistryHandler) GetRule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rule, err := h.service.AxeRule(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rule)
}

// ListTests godoc
// @Summary List automated test runs
// @Tags Registry
// @Produce json
// @Param domain query string false "Domain name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /registry/tests [get]
func (h *RegistryHandler) ListTests(c *gin.Context) {
	filter := registryFilter(c)
	tests, err := h.service.ListTests(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Window(c, tests, len(tests), filter.Limit, filter.Offset)
}

// GetTest godoc
// @Summary Get an automated test run with its rule outcomes
// @Tags Registry
// @Produce json
// @Param id path int true "Test ID"
// @Success 200 {object} response.Envelope
// @Router /registry/tests/{id} [get]
func (h *RegistryHandler) GetTest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	test, err := h.service.Test(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, test)
}

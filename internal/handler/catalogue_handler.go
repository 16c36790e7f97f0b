package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

type catalogueService interface {
	ListWcagDefinitions(ctx context.Context, day *time.Time) ([]models.WcagDefinition, error)
	WcagDefinition(ctx context.Context, id int64) (*models.WcagDefinition, error)
	SeedWcagCSV(ctx context.Context, r io.Reader, user models.UserHandle) (*dto.SeedResult, error)
	ExportWcagCSV(ctx context.Context) ([]byte, error)
	DeprecateWcag(ctx context.Context, id int64, req dto.DeprecateWcagRequest, user models.UserHandle) (*models.WcagDefinition, error)
	DeleteWcag(ctx context.Context, id int64, user models.UserHandle) error
	ListStatementChecks(ctx context.Context, includeDeleted bool) ([]models.StatementCheck, error)
	SeedStatementChecksCSV(ctx context.Context, r io.Reader, user models.UserHandle) (*dto.SeedResult, error)
	ExportStatementChecksCSV(ctx context.Context) ([]byte, error)
	UpdateStatementCheck(ctx context.Context, id int64, req dto.UpdateStatementCheckRequest, user models.UserHandle) (*models.StatementCheck, error)
	DeleteStatementCheck(ctx context.Context, id int64, user models.UserHandle) error
}

// CatalogueHandler serves the WCAG and statement question reference data.
type CatalogueHandler struct {
	service catalogueService
}

// NewCatalogueHandler builds a new handler.
func NewCatalogueHandler(service catalogueService) *CatalogueHandler {
	return &CatalogueHandler{service: service}
}

// ListWcag godoc
// @Summary List WCAG definitions
// @Description With date set, only definitions active on that day are returned.
// @Tags Catalogue
// @Produce json
// @Param date query string false "Active on (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /catalogue/wcag [get]
func (h *CatalogueHandler) ListWcag(c *gin.Context) {
	day, err := parseDateParam(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	definitions, err := h.service.ListWcagDefinitions(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, definitions)
}

// GetWcag godoc
// @Summary Get a WCAG definition
// @Tags Catalogue
// @Produce json
// @Param id path int true "Definition ID"
// @Success 200 {object} response.Envelope
// @Router /catalogue/wcag/{id} [get]
func (h *CatalogueHandler) GetWcag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	definition, err := h.service.WcagDefinition(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, definition)
}

// SeedWcag godoc
// @Summary Upsert WCAG definitions from CSV
// @Tags Catalogue
// @Accept text/csv
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "CSV file"
// @Success 200 {object} response.Envelope
// @Router /catalogue/wcag/seed [post]
func (h *CatalogueHandler) SeedWcag(c *gin.Context) {
	h.seed(c, h.service.SeedWcagCSV)
}

// ExportWcag godoc
// @Summary Export WCAG definitions as CSV
// @Tags Catalogue
// @Produce text/csv
// @Success 200 {file} binary
// @Router /catalogue/wcag/export [get]
func (h *CatalogueHandler) ExportWcag(c *gin.Context) {
	data, err := h.service.ExportWcagCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="wcag_definitions.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// DeprecateWcag godoc
// @Summary Close the active window of a WCAG definition
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param id path int true "Definition ID"
// @Param payload body dto.DeprecateWcagRequest true "End date"
// @Success 200 {object} response.Envelope
// @Router /catalogue/wcag/{id}/deprecate [post]
func (h *CatalogueHandler) DeprecateWcag(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DeprecateWcagRequest
	if !bindJSON(c, &req, "deprecation") {
		return
	}
	definition, err := h.service.DeprecateWcag(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, definition)
}

// DeleteWcag godoc
// @Summary Delete a WCAG definition no check result references
// @Tags Catalogue
// @Param id path int true "Definition ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /catalogue/wcag/{id} [delete]
func (h *CatalogueHandler) DeleteWcag(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteWcag(c.Request.Context(), id, user); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListStatementChecks godoc
// @Summary List statement questions
// @Tags Catalogue
// @Produce json
// @Param includeDeleted query bool false "Include deleted questions"
// @Success 200 {object} response.Envelope
// @Router /catalogue/statement-checks [get]
func (h *CatalogueHandler) ListStatementChecks(c *gin.Context) {
	checks, err := h.service.ListStatementChecks(c.Request.Context(), c.Query("includeDeleted") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, checks)
}

// SeedStatementChecks godoc
// @Summary Upsert statement questions from CSV
// @Tags Catalogue
// @Accept text/csv
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "CSV file"
// @Success 200 {object} response.Envelope
// @Router /catalogue/statement-checks/seed [post]
func (h *CatalogueHandler) SeedStatementChecks(c *gin.Context) {
	h.seed(c, h.service.SeedStatementChecksCSV)
}

// ExportStatementChecks godoc
// @Summary Export statement questions as CSV
// @Tags Catalogue
// @Produce text/csv
// @Success 200 {file} binary
// @Router /catalogue/statement-checks/export [get]
func (h *CatalogueHandler) ExportStatementChecks(c *gin.Context) {
	data, err := h.service.ExportStatementChecksCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="statement_checks.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// UpdateStatementCheck godoc
// @Summary Edit a statement question
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param payload body dto.UpdateStatementCheckRequest true "Question"
// @Success 200 {object} response.Envelope
// @Router /catalogue/statement-checks/{id} [patch]
func (h *CatalogueHandler) UpdateStatementCheck(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatementCheckRequest
	if !bindJSON(c, &req, "statement check") {
		return
	}
	check, err := h.service.UpdateStatementCheck(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, check)
}

// DeleteStatementCheck godoc
// @Summary Soft delete a statement question
// @Tags Catalogue
// @Param id path int true "Question ID"
// @Success 204
// @Router /catalogue/statement-checks/{id} [delete]
func (h *CatalogueHandler) DeleteStatementCheck(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteStatementCheck(c.Request.Context(), id, user); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CatalogueHandler) seed(c *gin.Context, load func(context.Context, io.Reader, models.UserHandle) (*dto.SeedResult, error)) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	body, err := uploadBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer body.Close() //nolint:errcheck
	result, err := load(c.Request.Context(), body, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

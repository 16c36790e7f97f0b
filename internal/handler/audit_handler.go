package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/workflow"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

type auditService interface {
	CreateAudit(ctx context.Context, caseID int64, req dto.CreateAuditRequest, user models.UserHandle) (*models.AuditGraph, error)
	Graph(ctx context.Context, auditID int64) (*models.AuditGraph, error)
	GraphForCase(ctx context.Context, caseID int64) (*models.AuditGraph, error)
	UpdateAudit(ctx context.Context, auditID int64, req dto.UpdateAuditRequest, user models.UserHandle) (*models.Audit, error)
	CompleteSection(ctx context.Context, auditID int64, section models.AuditSection, req dto.CompleteSectionRequest, user models.UserHandle) (*models.Audit, error)
	StartRetest(ctx context.Context, auditID int64, req dto.StartRetestRequest, user models.UserHandle) (*models.Audit, error)
	AddPage(ctx context.Context, auditID int64, req dto.AddPageRequest, user models.UserHandle) (*models.Page, error)
	UpdatePage(ctx context.Context, auditID, pageID int64, req dto.UpdatePageRequest, user models.UserHandle) (*models.Page, error)
	DeletePage(ctx context.Context, auditID, pageID int64, req dto.VersionRequest, user models.UserHandle) error
	RecordCheckResult(ctx context.Context, auditID int64, req dto.RecordCheckResultRequest, user models.UserHandle) (*models.CheckResult, error)
	RecordRetest(ctx context.Context, auditID int64, req dto.RecordRetestRequest, user models.UserHandle) (*models.CheckResult, error)
	AddStatementPage(ctx context.Context, auditID int64, req dto.AddStatementPageRequest, user models.UserHandle) (*models.StatementPage, error)
	RecordStatementCheckResult(ctx context.Context, auditID, resultID int64, req dto.RecordStatementCheckResultRequest, user models.UserHandle) (*models.StatementCheckResult, error)
	RecordRetestStatementCheckResult(ctx context.Context, auditID, resultID int64, req dto.RecordRetestStatementCheckResultRequest, user models.UserHandle) (*models.RetestStatementCheckResult, error)
	ReportContent(ctx context.Context, auditID int64) (*workflow.ReportContent, error)
	ComplianceSuggestions(ctx context.Context, auditID int64) (*service.ComplianceSuggestions, error)
}

type notesHistoryService interface {
	ListNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultNotesHistory, error)
	ListRetestNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultRetestNotesHistory, error)
}

// AuditHandler exposes audits, their pages and test results.
type AuditHandler struct {
	service auditService
	history notesHistoryService
}

// NewAuditHandler builds a new handler.
func NewAuditHandler(service auditService, history notesHistoryService) *AuditHandler {
	return &AuditHandler{service: service, history: history}
}

// Create godoc
// @Summary Open the audit of a case
// @Tags Audits
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.CreateAuditRequest false "Test date"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cases/{id}/audit [post]
func (h *AuditHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	caseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateAuditRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "audit") {
		return
	}
	graph, err := h.service.CreateAudit(c.Request.Context(), caseID, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusCreated, graph, graph.Audit.Version)
}

// GetForCase godoc
// @Summary Get the audit of a case
// @Tags Audits
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/audit [get]
func (h *AuditHandler) GetForCase(c *gin.Context) {
	caseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	graph, err := h.service.GraphForCase(c.Request.Context(), caseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, graph, graph.Audit.Version)
}

// Get godoc
// @Summary Get an audit with every live child row
// @Tags Audits
// @Produce json
// @Param id path int true "Audit ID"
// @Success 200 {object} response.Envelope
// @Router /audits/{id} [get]
func (h *AuditHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	graph, err := h.service.Graph(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, graph, graph.Audit.Version)
}

// Update godoc
// @Summary Edit audit metadata and statement fields
// @Tags Audits
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param payload body dto.UpdateAuditRequest true "Versioned audit"
// @Success 200 {object} response.Envelope
// @Router /audits/{id} [patch]
func (h *AuditHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAuditRequest
	if !bindJSON(c, &req, "audit") {
		return
	}
	audit, err := h.service.UpdateAudit(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, audit, audit.Version)
}

// CompleteSection godoc
// @Summary Set or clear the completion date of an audit section
// @Tags Audits
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param section path string true "Section key"
// @Param payload body dto.CompleteSectionRequest true "Completion date"
// @Success 200 {object} response.Envelope
// @Router /audits/{id}/sections/{section} [put]
func (h *AuditHandler) CompleteSection(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CompleteSectionRequest
	if !bindJSON(c, &req, "section") {
		return
	}
	audit, err := h.service.CompleteSection(c.Request.Context(), id, models.AuditSection(c.Param("section")), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, audit, audit.Version)
}

// StartRetest godoc
// @Summary Start the 12-week retest
// @Tags Audits
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param payload body dto.StartRetestRequest true "Retest date"
// @Success 200 {object} response.Envelope
// @Router /audits/{id}/retest [post]
func (h *AuditHandler) StartRetest(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.StartRetestRequest
	if !bindJSON(c, &req, "retest") {
		return
	}
	audit, err := h.service.StartRetest(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, audit, audit.Version)
}

// AddPage godoc
// @Summary Add a page to an audit
// @Tags Audit pages
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param payload body dto.AddPageRequest true "Page"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /audits/{id}/pages [post]
func (h *AuditHandler) AddPage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddPageRequest
	if !bindJSON(c, &req, "page") {
		return
	}
	page, err := h.service.AddPage(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, page)
}

// UpdatePage godoc
// @Summary Edit a page
// @Tags Audit pages
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param pageId path int true "Page ID"
// @Param payload body dto.UpdatePageRequest true "Versioned page"
// @Success 200 {object} response.Envelope
// @Router /audits/{id}/pages/{pageId} [patch]
func (h *AuditHandler) UpdatePage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pageID, ok := pathID(c, "pageId")
	if !ok {
		return
	}
	var req dto.UpdatePageRequest
	if !bindJSON(c, &req, "page") {
		return
	}
	page, err := h.service.UpdatePage(c.Request.Context(), id, pageID, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, page, page.Version)
}

// DeletePage godoc
// @Summary Soft delete a page and its check results
// @Tags Audit pages
// @Param id path int true "Audit ID"
// @Param pageId path int true "Page ID"
// @Param version query int true "Expected version"
// @Success 204
// @Router /audits/{id}/pages/{pageId} [delete]
func (h *AuditHandler) DeletePage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pageID, ok := pathID(c, "pageId")
	if !ok {
		return
	}
	version, ok := versionParam(c)
	if !ok {
		return
	}
	if err := h.service.DeletePage(c.Request.Context(), id, pageID, dto.VersionRequest{Version: version}, user); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordCheckResult godoc
// @Summary Record the initial verdict of a WCAG test on a page
// @Tags Check results
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param payload body dto.RecordCheckResultRequest true "Verdict"
// @Success 200 {object} response.Envelope
// @Router /audits/{id}/check-results [put]
func (h *AuditHandler) RecordCheckResult(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordCheckResultRequest
	if !bindJSON(c, &req, "check result") {
		return
	}
	result, err := h.service.RecordCheckResult(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, result, result.Version)
}

// RecordRetest godoc
// @Summary Record the 12-week verdict of a WCAG test on a page
// @Tags Check results
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param payload body dto.RecordRetestRequest true "Retest verdict"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /audits/{id}/retest-results [put]
func (h *AuditHandler) RecordRetest(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordRetestRequest
	if !bindJSON(c, &req, "retest result") {
		return
	}
	result, err := h.service.RecordRetest(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, result, result.Version)
}

// AddStatementPage godoc
// @Summary Add a link to the accessibility statement
// @Tags Statement
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param payload body dto.AddStatementPageRequest true "Statement link"
// @Success 201 {object} response.Envelope
// @Router /audits/{id}/statement-pages [post]
func (h *AuditHandler) AddStatementPage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddStatementPageRequest
	if !bindJSON(c, &req, "statement page") {
		return
	}
	page, err := h.service.AddStatementPage(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, page)
}

// RecordStatementCheckResult godoc
// @Summary Answer a statement question
// @Tags Statement
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param resultId path int true "Statement check result ID"
// @Param payload body dto.RecordStatementCheckResultRequest true "Answer"
// @Success 200 {object} response.Envelope
// @Router /audits/{id}/statement-check-results/{resultId} [patch]
func (h *AuditHandler) RecordStatementCheckResult(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resultID, ok := pathID(c, "resultId")
	if !ok {
		return
	}
	var req dto.RecordStatementCheckResultRequest
	if !bindJSON(c, &req, "statement check result") {
		return
	}
	result, err := h.service.RecordStatementCheckResult(c.Request.Context(), id, resultID, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, result, result.Version)
}

// RecordRetestStatementCheckResult godoc
// @Summary Answer an equality body retest statement question
// @Tags Statement
// @Accept json
// @Produce json
// @Param id path int true "Audit ID"
// @Param resultId path int true "Retest statement check result ID"
// @Param payload body dto.RecordRetestStatementCheckResultRequest true "Answer"
// @Success 200 {object} response.Envelope
// @Router /audits/{id}/retest-statement-check-results/{resultId} [patch]
func (h *AuditHandler) RecordRetestStatementCheckResult(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resultID, ok := pathID(c, "resultId")
	if !ok {
		return
	}
	var req dto.RecordRetestStatementCheckResultRequest
	if !bindJSON(c, &req, "retest statement check result") {
		return
	}
	result, err := h.service.RecordRetestStatementCheckResult(c.Request.Context(), id, resultID, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, result, result.Version)
}

// ReportContent godoc
// @Summary Derive the report buckets of an audit
// @Tags Reports
// @Produce json
// @Param id path int true "Audit ID"
// @Success 200 {object} response.Envelope
// @Router /audits/{id}/report-content [get]
func (h *AuditHandler) ReportContent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	content, err := h.service.ReportContent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, content)
}

// ComplianceSuggestions godoc
// @Summary Suggested website and statement verdicts
// @Tags Reports
// @Produce json
// @Param id path int true "Audit ID"
// @Success 200 {object} response.Envelope
// @Router /audits/{id}/compliance-suggestions [get]
func (h *AuditHandler) ComplianceSuggestions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	suggestions, err := h.service.ComplianceSuggestions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, suggestions)
}

// NotesHistory godoc
// @Summary Revisions of the notes of a check result
// @Tags Check results
// @Produce json
// @Param id path int true "Check result ID"
// @Param retest query bool false "Retest notes instead of initial notes"
// @Success 200 {object} response.Envelope
// @Router /check-results/{id}/notes-history [get]
func (h *AuditHandler) NotesHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if c.Query("retest") == "true" {
		rows, err := h.history.ListRetestNotes(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, rows)
		return
	}
	rows, err := h.history.ListNotes(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

type caseService interface {
	Create(ctx context.Context, req dto.CreateCaseRequest, user models.UserHandle) (*service.CaseDetail, error)
	Get(ctx context.Context, id int64) (*service.CaseDetail, error)
	List(ctx context.Context, filter models.CaseFilter) ([]models.Case, *models.Pagination, error)
	Overdue(ctx context.Context, filter models.CaseFilter) ([]service.CaseDetail, error)
	UpdateSection(ctx context.Context, id int64, section service.CaseSection, req dto.UpdateCaseSectionRequest, user models.UserHandle) (*service.CaseDetail, error)
	SetCompletion(ctx context.Context, id int64, section service.CaseSection, req dto.SetCompletionRequest, user models.UserHandle) (*service.CaseDetail, error)
	RecordCorrespondence(ctx context.Context, id int64, req dto.RecordCorrespondenceRequest, user models.UserHandle) (*service.CaseDetail, error)
	SoftDelete(ctx context.Context, id int64, req dto.VersionRequest, user models.UserHandle) error
	UpdateCompliance(ctx context.Context, caseID int64, req dto.UpdateComplianceRequest, user models.UserHandle) (*models.CaseCompliance, error)
	StartReport(ctx context.Context, caseID int64, user models.UserHandle) (*models.Report, error)
	ListContacts(ctx context.Context, caseID int64) ([]models.Contact, error)
	CreateContact(ctx context.Context, caseID int64, req dto.ContactRequest, user models.UserHandle) (*models.Contact, error)
	UpdateContact(ctx context.Context, caseID, contactID int64, req dto.UpdateContactRequest, user models.UserHandle) (*models.Contact, error)
	DeleteContact(ctx context.Context, caseID, contactID int64, req dto.VersionRequest, user models.UserHandle) error
	ListEqualityBodyCorrespondence(ctx context.Context, caseID int64, outstandingOnly bool) ([]models.EqualityBodyCorrespondence, error)
	CreateEqualityBodyCorrespondence(ctx context.Context, caseID int64, req dto.EqualityBodyCorrespondenceRequest, user models.UserHandle) (*models.EqualityBodyCorrespondence, error)
	UpdateEqualityBodyCorrespondence(ctx context.Context, caseID, itemID int64, req dto.UpdateEqualityBodyCorrespondenceRequest, user models.UserHandle) (*models.EqualityBodyCorrespondence, error)
}

// CaseHandler exposes the case aggregate.
type CaseHandler struct {
	service caseService
}

// NewCaseHandler builds a new handler.
func NewCaseHandler(service caseService) *CaseHandler {
	return &CaseHandler{service: service}
}

func caseFilter(c *gin.Context) models.CaseFilter {
	filter := models.CaseFilter{
		AuditorID:       c.Query("auditorId"),
		QAAuditorID:     c.Query("qaAuditorId"),
		EnforcementBody: models.EnforcementBody(c.Query("enforcementBody")),
		Search:          strings.TrimSpace(c.Query("search")),
	}
	for _, status := range c.QueryArray("status") {
		filter.Statuses = append(filter.Statuses, models.CaseStatusCode(status))
	}
	filter.Limit, filter.Offset = pageParams(c)
	return filter
}

// List godoc
// @Summary List cases
// @Tags Cases
// @Produce json
// @Param auditorId query string false "Auditor filter"
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Param search query string false "Organisation, domain or website search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	cases, pagination, err := h.service.List(c.Request.Context(), caseFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cases, pagination)
}

// Overdue godoc
// @Summary List cases with an overdue chaser
// @Tags Cases
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cases/overdue [get]
func (h *CaseHandler) Overdue(c *gin.Context) {
	filter := caseFilter(c)
	filter.Limit, filter.Offset = 0, 0
	cases, err := h.service.Overdue(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cases)
}

// Create godoc
// @Summary Open a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body dto.CreateCaseRequest true "Case payload"
// @Success 201 {object} response.Envelope
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateCaseRequest
	if !bindJSON(c, &req, "case") {
		return
	}
	detail, err := h.service.Create(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusCreated, detail, detail.Case.Version)
}

// Get godoc
// @Summary Get a case with its derived values
// @Tags Cases
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, detail, detail.Case.Version)
}

// Update godoc
// @Summary Patch the case details section
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.UpdateCaseSectionRequest true "Versioned patch"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cases/{id} [patch]
func (h *CaseHandler) Update(c *gin.Context) {
	h.updateSection(c, service.SectionCaseDetails)
}

// UpdateSection godoc
// @Summary Patch one case section
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param section path string true "Section key"
// @Param payload body dto.UpdateCaseSectionRequest true "Versioned patch"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cases/{id}/sections/{section} [patch]
func (h *CaseHandler) UpdateSection(c *gin.Context) {
	h.updateSection(c, service.CaseSection(c.Param("section")))
}

func (h *CaseHandler) updateSection(c *gin.Context, section service.CaseSection) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCaseSectionRequest
	if !bindJSON(c, &req, "case section") {
		return
	}
	detail, err := h.service.UpdateSection(c.Request.Context(), id, section, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, detail, detail.Case.Version)
}

// SetCompletion godoc
// @Summary Set or clear the completion date of a case section
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param section path string true "Section key"
// @Param payload body dto.SetCompletionRequest true "Completion date"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/sections/{section}/complete [put]
func (h *CaseHandler) SetCompletion(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetCompletionRequest
	if !bindJSON(c, &req, "completion") {
		return
	}
	detail, err := h.service.SetCompletion(c.Request.Context(), id, service.CaseSection(c.Param("section")), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, detail, detail.Case.Version)
}

// RecordCorrespondence godoc
// @Summary Record one correspondence step
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.RecordCorrespondenceRequest true "Step and date"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /cases/{id}/correspondence [post]
func (h *CaseHandler) RecordCorrespondence(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordCorrespondenceRequest
	if !bindJSON(c, &req, "correspondence") {
		return
	}
	detail, err := h.service.RecordCorrespondence(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, detail, detail.Case.Version)
}

// Delete godoc
// @Summary Soft delete a case
// @Tags Cases
// @Param id path int true "Case ID"
// @Param version query int true "Expected version"
// @Success 204
// @Router /cases/{id} [delete]
func (h *CaseHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	version, ok := versionParam(c)
	if !ok {
		return
	}
	if err := h.service.SoftDelete(c.Request.Context(), id, dto.VersionRequest{Version: version}, user); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateCompliance godoc
// @Summary Replace the stored compliance verdicts of a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.UpdateComplianceRequest true "Verdicts"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/compliance [patch]
func (h *CaseHandler) UpdateCompliance(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateComplianceRequest
	if !bindJSON(c, &req, "compliance") {
		return
	}
	compliance, err := h.service.UpdateCompliance(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, compliance, compliance.Version)
}

// StartReport godoc
// @Summary Start the report of a case
// @Tags Cases
// @Produce json
// @Param id path int true "Case ID"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/report [post]
func (h *CaseHandler) StartReport(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.service.StartReport(c.Request.Context(), id, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// ListContacts godoc
// @Summary List the contacts of a case
// @Tags Contacts
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/contacts [get]
func (h *CaseHandler) ListContacts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contacts, err := h.service.ListContacts(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, contacts)
}

// CreateContact godoc
// @Summary Add a contact to a case
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.ContactRequest true "Contact"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/contacts [post]
func (h *CaseHandler) CreateContact(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ContactRequest
	if !bindJSON(c, &req, "contact") {
		return
	}
	contact, err := h.service.CreateContact(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contact)
}

// UpdateContact godoc
// @Summary Edit a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param contactId path int true "Contact ID"
// @Param payload body dto.UpdateContactRequest true "Versioned contact"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/contacts/{contactId} [patch]
func (h *CaseHandler) UpdateContact(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contactID, ok := pathID(c, "contactId")
	if !ok {
		return
	}
	var req dto.UpdateContactRequest
	if !bindJSON(c, &req, "contact") {
		return
	}
	contact, err := h.service.UpdateContact(c.Request.Context(), id, contactID, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, contact, contact.Version)
}

// DeleteContact godoc
// @Summary Soft delete a contact
// @Tags Contacts
// @Param id path int true "Case ID"
// @Param contactId path int true "Contact ID"
// @Param version query int true "Expected version"
// @Success 204
// @Router /cases/{id}/contacts/{contactId} [delete]
func (h *CaseHandler) DeleteContact(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contactID, ok := pathID(c, "contactId")
	if !ok {
		return
	}
	version, ok := versionParam(c)
	if !ok {
		return
	}
	if err := h.service.DeleteContact(c.Request.Context(), id, contactID, dto.VersionRequest{Version: version}, user); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEqualityBodyCorrespondence godoc
// @Summary List correspondence with the enforcement body
// @Tags Equality body
// @Produce json
// @Param id path int true "Case ID"
// @Param outstanding query bool false "Only rows still open"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/equality-body-correspondence [get]
func (h *CaseHandler) ListEqualityBodyCorrespondence(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.ListEqualityBodyCorrespondence(c.Request.Context(), id, c.Query("outstanding") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// CreateEqualityBodyCorrespondence godoc
// @Summary Record a message from the enforcement body
// @Tags Equality body
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.EqualityBodyCorrespondenceRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/equality-body-correspondence [post]
func (h *CaseHandler) CreateEqualityBodyCorrespondence(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.EqualityBodyCorrespondenceRequest
	if !bindJSON(c, &req, "equality body correspondence") {
		return
	}
	item, err := h.service.CreateEqualityBodyCorrespondence(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateEqualityBodyCorrespondence godoc
// @Summary Edit or resolve a message from the enforcement body
// @Tags Equality body
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param itemId path int true "Correspondence ID"
// @Param payload body dto.UpdateEqualityBodyCorrespondenceRequest true "Versioned message"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/equality-body-correspondence/{itemId} [patch]
func (h *CaseHandler) UpdateEqualityBodyCorrespondence(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var req dto.UpdateEqualityBodyCorrespondenceRequest
	if !bindJSON(c, &req, "equality body correspondence") {
		return
	}
	item, err := h.service.UpdateEqualityBodyCorrespondence(c.Request.Context(), id, itemID, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, item, item.Version)
}

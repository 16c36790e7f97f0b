package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

type exportService interface {
	Create(ctx context.Context, req dto.CreateExportRequest, user models.UserHandle) (*service.ExportDetail, error)
	Get(ctx context.Context, id int64) (*service.ExportDetail, error)
	List(ctx context.Context, filter models.ExportFilter) ([]models.Export, error)
	SetCaseStatus(ctx context.Context, exportID, caseID int64, req dto.SetExportCaseStatusRequest, user models.UserHandle) (*models.ExportCase, error)
	MarkExported(ctx context.Context, id int64, req dto.MarkExportedRequest, user models.UserHandle) (*models.Export, error)
	SoftDelete(ctx context.Context, id int64, user models.UserHandle) error
	Render(ctx context.Context, id int64, req dto.RenderExportRequest) (*dto.ExportFile, error)
	Download(ctx context.Context, id int64, token string) (*service.ExportDownload, error)
}

// ExportHandler manages equality body export batches.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// List godoc
// @Summary List export batches
// @Tags Exports
// @Produce json
// @Param enforcementBody query string false "ehrc or ecni"
// @Param status query string false "Export status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exports [get]
func (h *ExportHandler) List(c *gin.Context) {
	filter := models.ExportFilter{
		EnforcementBody: models.EnforcementBody(c.Query("enforcementBody")),
		Status:          models.ExportStatus(c.Query("status")),
	}
	filter.Limit, filter.Offset = pageParams(c)
	exports, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Window(c, exports, len(exports), filter.Limit, filter.Offset)
}

// Create godoc
// @Summary Open an export batch of closed cases
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.CreateExportRequest true "Cutoff date and enforcement body"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateExportRequest
	if !bindJSON(c, &req, "export") {
		return
	}
	detail, err := h.service.Create(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Get godoc
// @Summary Get an export batch and its cases
// @Tags Exports
// @Produce json
// @Param id path int true "Export ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// SetCaseStatus godoc
// @Summary Tag a case within a batch
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path int true "Export ID"
// @Param caseId path int true "Case ID"
// @Param payload body dto.SetExportCaseStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /exports/{id}/cases/{caseId} [put]
func (h *ExportHandler) SetCaseStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caseID, ok := pathID(c, "caseId")
	if !ok {
		return
	}
	var req dto.SetExportCaseStatusRequest
	if !bindJSON(c, &req, "export case") {
		return
	}
	exportCase, err := h.service.SetCaseStatus(c.Request.Context(), id, caseID, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exportCase)
}

// MarkExported godoc
// @Summary Mark a batch exported
// @Description Every ready case of the batch is moved to sent to equality body.
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path int true "Export ID"
// @Param payload body dto.MarkExportedRequest false "Export date"
// @Success 200 {object} response.Envelope
// @Router /exports/{id}/mark-exported [post]
func (h *ExportHandler) MarkExported(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MarkExportedRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "export") {
		return
	}
	exp, err := h.service.MarkExported(c.Request.Context(), id, req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exp)
}

// Delete godoc
// @Summary Soft delete an export batch
// @Tags Exports
// @Param id path int true "Export ID"
// @Success 204
// @Router /exports/{id} [delete]
func (h *ExportHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.SoftDelete(c.Request.Context(), id, user); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Render godoc
// @Summary Render the ready cases of a batch to a file
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path int true "Export ID"
// @Param payload body dto.RenderExportRequest true "Format"
// @Success 201 {object} response.Envelope
// @Router /exports/{id}/render [post]
func (h *ExportHandler) Render(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RenderExportRequest
	if !bindJSON(c, &req, "render") {
		return
	}
	file, err := h.service.Render(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// Download godoc
// @Summary Download a rendered batch via signed token
// @Tags Exports
// @Produce octet-stream
// @Param id path int true "Export ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /exports/{id}/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Download(c.Request.Context(), id, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}
	contentType := "text/csv"
	if strings.HasSuffix(result.Filename, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, result.File, nil)
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

type taskService interface {
	Create(ctx context.Context, req dto.CreateTaskRequest, user models.UserHandle) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	ListDue(ctx context.Context, userID string, today time.Time) ([]models.Task, error)
	MarkRead(ctx context.Context, id int64, user models.UserHandle) (*models.Task, error)
	SetReminder(ctx context.Context, req dto.SetReminderRequest, user models.UserHandle) (*models.Task, error)
	DeleteReminder(ctx context.Context, caseID int64, user models.UserHandle) error
}

// TaskHandler serves the notification inbox and case reminders.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler builds a new handler.
func NewTaskHandler(service taskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List godoc
// @Summary List tasks of a user
// @Description Defaults to the unread tasks of the caller.
// @Tags Tasks
// @Produce json
// @Param user query string false "User ID"
// @Param caseId query int false "Case ID"
// @Param type query string false "Task type"
// @Param includeRead query bool false "Include read tasks"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	filter := models.TaskFilter{
		UserID:      c.DefaultQuery("user", user.ID),
		Type:        models.TaskType(c.Query("type")),
		IncludeRead: c.Query("includeRead") == "true",
	}
	if raw := c.Query("caseId"); raw != "" {
		caseID := int64(parseQueryInt(c, "caseId", 0))
		filter.CaseID = &caseID
	}
	filter.Limit, filter.Offset = pageParams(c)
	tasks, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Window(c, tasks, len(tasks), filter.Limit, filter.Offset)
}

// Due godoc
// @Summary Unread tasks of the caller dated today or earlier
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks/due [get]
func (h *TaskHandler) Due(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	tasks, err := h.service.ListDue(c.Request.Context(), user.ID, today())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tasks)
}

// Create godoc
// @Summary Create a task for a user
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.CreateTaskRequest true "Task"
// @Success 201 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req, "task") {
		return
	}
	task, err := h.service.Create(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// MarkRead godoc
// @Summary Mark a task read
// @Tags Tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/read [post]
func (h *TaskHandler) MarkRead(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.service.MarkRead(c.Request.Context(), id, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, task)
}

// SetReminder godoc
// @Summary Set the reminder of the caller on a case
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.SetReminderRequest true "Reminder"
// @Success 200 {object} response.Envelope
// @Router /reminders [put]
func (h *TaskHandler) SetReminder(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.SetReminderRequest
	if !bindJSON(c, &req, "reminder") {
		return
	}
	task, err := h.service.SetReminder(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// DeleteReminder godoc
// @Summary Remove the reminder of the caller on a case
// @Tags Tasks
// @Param caseId path int true "Case ID"
// @Success 204
// @Router /reminders/{caseId} [delete]
func (h *TaskHandler) DeleteReminder(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	caseID, ok := pathID(c, "caseId")
	if !ok {
		return
	}
	if err := h.service.DeleteReminder(c.Request.Context(), caseID, user); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

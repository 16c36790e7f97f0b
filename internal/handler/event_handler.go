package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

type eventQuerier interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
}

// EventHandler reads the change journal.
type EventHandler struct {
	events eventQuerier
}

// NewEventHandler builds a new handler.
func NewEventHandler(events eventQuerier) *EventHandler {
	return &EventHandler{events: events}
}

// List godoc
// @Summary Query journal entries
// @Tags Events
// @Produce json
// @Param contentType query string false "Content type, e.g. cases.case"
// @Param objectId query int false "Object ID"
// @Param type query string false "model_create, model_update or model_delete"
// @Param since query string false "Created on or after (YYYY-MM-DD)"
// @Param contains query []string false "Substring of the value" collectionFormat(multi)
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter, err := eventFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.list(c, filter)
}

// ListForCase godoc
// @Summary Journal entries of a case
// @Tags Events
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/events [get]
func (h *EventHandler) ListForCase(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	filter, err := eventFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.ContentType = models.ContentCase
	filter.ObjectID = id
	h.list(c, filter)
}

func (h *EventHandler) list(c *gin.Context, filter models.EventFilter) {
	events, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Window(c, events, len(events), filter.Limit, filter.Offset)
}

func eventFilter(c *gin.Context) (models.EventFilter, error) {
	since, err := parseDateParam(c.Query("since"))
	if err != nil {
		return models.EventFilter{}, err
	}
	filter := models.EventFilter{
		ContentType: models.ContentType(c.Query("contentType")),
		Type:        models.EventType(c.Query("type")),
		Since:       since,
		Contains:    c.QueryArray("contains"),
	}
	if objectID, err := strconv.ParseInt(c.Query("objectId"), 10, 64); err == nil {
		filter.ObjectID = objectID
	}
	filter.Limit, filter.Offset = pageParams(c)
	return filter, nil
}

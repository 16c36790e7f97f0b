package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type taskServiceMock struct {
	taskService

	err           error
	lastFilter    models.TaskFilter
	dueUser       string
	dueDay        time.Time
	reminderReq   dto.SetReminderRequest
	deletedCaseID int64
}

func (m *taskServiceMock) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	m.lastFilter = filter
	return []models.Task{{ID: 1, UserID: filter.UserID}}, m.err
}

func (m *taskServiceMock) ListDue(ctx context.Context, userID string, today time.Time) ([]models.Task, error) {
	m.dueUser, m.dueDay = userID, today
	return nil, m.err
}

func (m *taskServiceMock) SetReminder(ctx context.Context, req dto.SetReminderRequest, user models.UserHandle) (*models.Task, error) {
	m.reminderReq = req
	if m.err != nil {
		return nil, m.err
	}
	caseID := req.CaseID
	return &models.Task{ID: 9, CaseID: &caseID, UserID: user.ID, Type: models.TaskReminder}, nil
}

func (m *taskServiceMock) DeleteReminder(ctx context.Context, caseID int64, user models.UserHandle) error {
	m.deletedCaseID = caseID
	return m.err
}

func TestTaskHandlerListDefaultsToCaller(t *testing.T) {
	mockSvc := &taskServiceMock{}
	handler := NewTaskHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/tasks?caseId=12&includeRead=true", nil)
	withUser(c)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handlerUser.ID, mockSvc.lastFilter.UserID)
	require.NotNil(t, mockSvc.lastFilter.CaseID)
	assert.Equal(t, int64(12), *mockSvc.lastFilter.CaseID)
	assert.True(t, mockSvc.lastFilter.IncludeRead)
}

func TestTaskHandlerListRequiresUser(t *testing.T) {
	handler := NewTaskHandler(&taskServiceMock{})

	c, w := newTestContext(http.MethodGet, "/tasks", nil)
	handler.List(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, decodeErrorCode(t, w))
}

func TestTaskHandlerDueUsesToday(t *testing.T) {
	mockSvc := &taskServiceMock{}
	handler := NewTaskHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/tasks/due", nil)
	withUser(c)
	handler.Due(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handlerUser.ID, mockSvc.dueUser)
	assert.Equal(t, today(), mockSvc.dueDay)
}

func TestTaskHandlerSetReminder(t *testing.T) {
	mockSvc := &taskServiceMock{}
	handler := NewTaskHandler(mockSvc)

	c, w := newTestContext(http.MethodPut, "/reminders", []byte(`{"caseId":5,"date":"2026-11-02T00:00:00Z","description":"chase"}`))
	withUser(c)
	handler.SetReminder(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), mockSvc.reminderReq.CaseID)
	assert.Equal(t, "chase", mockSvc.reminderReq.Description)
}

func TestTaskHandlerDeleteReminder(t *testing.T) {
	mockSvc := &taskServiceMock{}
	handler := NewTaskHandler(mockSvc)

	c, w := newTestContext(http.MethodDelete, "/reminders/5", nil)
	c.Params = gin.Params{{Key: "caseId", Value: "5"}}
	withUser(c)
	handler.DeleteReminder(c)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(5), mockSvc.deletedCaseID)
}

func TestTaskHandlerDeleteReminderNotFound(t *testing.T) {
	mockSvc := &taskServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "reminder: not found")}
	handler := NewTaskHandler(mockSvc)

	c, w := newTestContext(http.MethodDelete, "/reminders/5", nil)
	c.Params = gin.Params{{Key: "caseId", Value: "5"}}
	withUser(c)
	handler.DeleteReminder(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, decodeErrorCode(t, w))
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/workflow"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type auditServiceMock struct {
	auditService

	graph        *models.AuditGraph
	createReq    dto.CreateAuditRequest
	createCalled bool
	deleteReq    dto.VersionRequest
	checkReq     dto.RecordCheckResultRequest
	content      *workflow.ReportContent
	err          error
}

func (m *auditServiceMock) CreateAudit(ctx context.Context, caseID int64, req dto.CreateAuditRequest, user models.UserHandle) (*models.AuditGraph, error) {
	m.createCalled = true
	m.createReq = req
	return m.graph, m.err
}

func (m *auditServiceMock) DeletePage(ctx context.Context, auditID, pageID int64, req dto.VersionRequest, user models.UserHandle) error {
	m.deleteReq = req
	return m.err
}

func (m *auditServiceMock) RecordCheckResult(ctx context.Context, auditID int64, req dto.RecordCheckResultRequest, user models.UserHandle) (*models.CheckResult, error) {
	m.checkReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.CheckResult{ID: 11, AuditID: auditID, PageID: req.PageID, WcagDefinitionID: req.WcagDefinitionID, Version: 2}, nil
}

func (m *auditServiceMock) ReportContent(ctx context.Context, auditID int64) (*workflow.ReportContent, error) {
	return m.content, m.err
}

type notesHistoryMock struct {
	notesCalled  bool
	retestCalled bool
}

func (m *notesHistoryMock) ListNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultNotesHistory, error) {
	m.notesCalled = true
	return []models.CheckResultNotesHistory{{ID: 1, CheckResultID: checkResultID, Notes: "first"}}, nil
}

func (m *notesHistoryMock) ListRetestNotes(ctx context.Context, checkResultID int64) ([]models.CheckResultRetestNotesHistory, error) {
	m.retestCalled = true
	return nil, nil
}

func TestAuditHandlerCreateWithoutBody(t *testing.T) {
	mockSvc := &auditServiceMock{graph: &models.AuditGraph{Audit: models.Audit{ID: 3, CaseID: 7, Version: 1}}}
	handler := NewAuditHandler(mockSvc, &notesHistoryMock{})

	c, w := newTestContext(http.MethodPost, "/cases/7/audit", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withUser(c)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
	assert.Nil(t, mockSvc.createReq.Date)
	assert.Equal(t, `W/"1"`, w.Header().Get("ETag"))
}

func TestAuditHandlerCreateDuplicate(t *testing.T) {
	mockSvc := &auditServiceMock{err: appErrors.Clone(appErrors.ErrDuplicate, "case already has an audit")}
	handler := NewAuditHandler(mockSvc, &notesHistoryMock{})

	c, w := newTestContext(http.MethodPost, "/cases/7/audit", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withUser(c)
	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, appErrors.ErrDuplicate.Code, decodeErrorCode(t, w))
}

func TestAuditHandlerDeletePageVersionQuery(t *testing.T) {
	mockSvc := &auditServiceMock{}
	handler := NewAuditHandler(mockSvc, &notesHistoryMock{})

	c, w := newTestContext(http.MethodDelete, "/audits/3/pages/5?version=2", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}, {Key: "pageId", Value: "5"}}
	withUser(c)
	handler.DeletePage(c)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 2, mockSvc.deleteReq.Version)
}

func TestAuditHandlerRecordCheckResult(t *testing.T) {
	mockSvc := &auditServiceMock{}
	handler := NewAuditHandler(mockSvc, &notesHistoryMock{})

	body := []byte(`{"pageId":5,"wcagDefinitionId":1,"checkResultState":"error","notes":"Missing alt text"}`)
	c, w := newTestContext(http.MethodPut, "/audits/3/check-results", body)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	withUser(c)
	handler.RecordCheckResult(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), mockSvc.checkReq.PageID)
	assert.Equal(t, int64(1), mockSvc.checkReq.WcagDefinitionID)
	assert.Equal(t, `W/"2"`, w.Header().Get("ETag"))
}

func TestAuditHandlerRecordCheckResultInactiveDefinition(t *testing.T) {
	mockSvc := &auditServiceMock{err: appErrors.Clone(appErrors.ErrInvalidTransition, "definition is not active")}
	handler := NewAuditHandler(mockSvc, &notesHistoryMock{})

	c, w := newTestContext(http.MethodPut, "/audits/3/check-results", []byte(`{"pageId":5,"wcagDefinitionId":3,"checkResultState":"error"}`))
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	withUser(c)
	handler.RecordCheckResult(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAuditHandlerReportContent(t *testing.T) {
	mockSvc := &auditServiceMock{content: &workflow.ReportContent{}}
	handler := NewAuditHandler(mockSvc, &notesHistoryMock{})

	c, w := newTestContext(http.MethodGet, "/audits/3/report-content", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	handler.ReportContent(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Contains(t, envelope, "data")
}

func TestAuditHandlerNotesHistory(t *testing.T) {
	history := &notesHistoryMock{}
	handler := NewAuditHandler(&auditServiceMock{}, history)

	c, w := newTestContext(http.MethodGet, "/check-results/11/notes-history", nil)
	c.Params = gin.Params{{Key: "id", Value: "11"}}
	handler.NotesHistory(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, history.notesCalled)
	assert.False(t, history.retestCalled)

	c, w = newTestContext(http.MethodGet, "/check-results/11/notes-history?retest=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "11"}}
	handler.NotesHistory(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, history.retestCalled)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/middleware"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

var handlerUser = models.UserHandle{ID: "auditor-1", Name: "Ada Auditor", Email: "ada@example.gov.uk"}

// caseServiceMock overrides the calls a test makes; anything else panics
// through the nil embedded interface.
type caseServiceMock struct {
	caseService

	listFilter    models.CaseFilter
	listResp      []models.Case
	detail        *service.CaseDetail
	err           error
	lastSection   service.CaseSection
	lastVersion   int
	deleteCalled  bool
	sectionCalled bool
}

func (m *caseServiceMock) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, *models.Pagination, error) {
	m.listFilter = filter
	return m.listResp, &models.Pagination{Page: 1, PageSize: filter.Limit, TotalCount: len(m.listResp)}, m.err
}

func (m *caseServiceMock) Get(ctx context.Context, id int64) (*service.CaseDetail, error) {
	return m.detail, m.err
}

func (m *caseServiceMock) UpdateSection(ctx context.Context, id int64, section service.CaseSection, req dto.UpdateCaseSectionRequest, user models.UserHandle) (*service.CaseDetail, error) {
	m.sectionCalled = true
	m.lastSection = section
	m.lastVersion = req.Version
	return m.detail, m.err
}

func (m *caseServiceMock) SoftDelete(ctx context.Context, id int64, req dto.VersionRequest, user models.UserHandle) error {
	m.deleteCalled = true
	m.lastVersion = req.Version
	return m.err
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	return c, w
}

func withUser(c *gin.Context) {
	user := handlerUser
	c.Set(middleware.ContextUserKey, &user)
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestCaseHandlerListParsesFilter(t *testing.T) {
	mockSvc := &caseServiceMock{listResp: []models.Case{{ID: 1}}}
	handler := NewCaseHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/cases?status=010-unassigned-case&status=020-test-in-progress&auditorId=auditor-1&page=2&limit=10", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.CaseStatusCode{models.StatusUnassignedCase, models.StatusTestInProgress}, mockSvc.listFilter.Statuses)
	assert.Equal(t, "auditor-1", mockSvc.listFilter.AuditorID)
	assert.Equal(t, 10, mockSvc.listFilter.Limit)
	assert.Equal(t, 10, mockSvc.listFilter.Offset)
}

func TestCaseHandlerGetSetsETag(t *testing.T) {
	mockSvc := &caseServiceMock{detail: &service.CaseDetail{Case: models.Case{ID: 7, Version: 3}}}
	handler := NewCaseHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/cases/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `W/"3"`, w.Header().Get("ETag"))
}

func TestCaseHandlerGetRejectsMalformedID(t *testing.T) {
	handler := NewCaseHandler(&caseServiceMock{})

	c, w := newTestContext(http.MethodGet, "/cases/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaseHandlerUpdateRequiresUser(t *testing.T) {
	mockSvc := &caseServiceMock{}
	handler := NewCaseHandler(mockSvc)

	c, w := newTestContext(http.MethodPatch, "/cases/7", []byte(`{"version":1,"fields":{}}`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.Update(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, mockSvc.sectionCalled)
}

func TestCaseHandlerUpdateUsesCaseDetailsSection(t *testing.T) {
	mockSvc := &caseServiceMock{detail: &service.CaseDetail{Case: models.Case{ID: 7, Version: 2}}}
	handler := NewCaseHandler(mockSvc)

	c, w := newTestContext(http.MethodPatch, "/cases/7", []byte(`{"version":1,"fields":{"organisationName":"Example Council"}}`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withUser(c)
	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.SectionCaseDetails, mockSvc.lastSection)
	assert.Equal(t, 1, mockSvc.lastVersion)
	assert.Equal(t, `W/"2"`, w.Header().Get("ETag"))
}

func TestCaseHandlerUpdateSectionConflict(t *testing.T) {
	mockSvc := &caseServiceMock{err: appErrors.Clone(appErrors.ErrConcurrentModification, "case changed")}
	handler := NewCaseHandler(mockSvc)

	c, w := newTestContext(http.MethodPatch, "/cases/7/sections/qa-process", []byte(`{"version":1,"fields":{}}`))
	c.Params = gin.Params{{Key: "id", Value: "7"}, {Key: "section", Value: "qa-process"}}
	withUser(c)
	handler.UpdateSection(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.CaseSection("qa-process"), mockSvc.lastSection)
	assert.Equal(t, appErrors.ErrConcurrentModification.Code, decodeErrorCode(t, w))
}

func TestCaseHandlerUpdateInvalidBody(t *testing.T) {
	handler := NewCaseHandler(&caseServiceMock{})

	c, w := newTestContext(http.MethodPatch, "/cases/7", []byte(`{"version":`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withUser(c)
	handler.Update(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeErrorCode(t, w))
}

func TestCaseHandlerDeleteReadsIfMatch(t *testing.T) {
	mockSvc := &caseServiceMock{}
	handler := NewCaseHandler(mockSvc)

	c, w := newTestContext(http.MethodDelete, "/cases/7", nil)
	c.Request.Header.Set("If-Match", `W/"4"`)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withUser(c)
	handler.Delete(c)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.deleteCalled)
	assert.Equal(t, 4, mockSvc.lastVersion)
}

func TestCaseHandlerDeleteRequiresVersion(t *testing.T) {
	mockSvc := &caseServiceMock{}
	handler := NewCaseHandler(mockSvc)

	c, w := newTestContext(http.MethodDelete, "/cases/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withUser(c)
	handler.Delete(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.deleteCalled)
}

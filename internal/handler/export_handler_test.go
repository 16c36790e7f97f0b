package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type exportServiceMock struct {
	exportService

	filePath    string
	err         error
	lastFilter  models.ExportFilter
	lastToken   string
	renderReq   dto.RenderExportRequest
	markedCalls int
}

func (m *exportServiceMock) List(ctx context.Context, filter models.ExportFilter) ([]models.Export, error) {
	m.lastFilter = filter
	return []models.Export{{ID: 1, EnforcementBody: filter.EnforcementBody}}, m.err
}

func (m *exportServiceMock) MarkExported(ctx context.Context, id int64, req dto.MarkExportedRequest, user models.UserHandle) (*models.Export, error) {
	m.markedCalls++
	return &models.Export{ID: id, Status: models.ExportStatusExported}, m.err
}

func (m *exportServiceMock) Render(ctx context.Context, id int64, req dto.RenderExportRequest) (*dto.ExportFile, error) {
	m.renderReq = req
	return &dto.ExportFile{Format: req.Format, Token: "signed", Rows: 2}, m.err
}

func (m *exportServiceMock) Download(ctx context.Context, id int64, token string) (*service.ExportDownload, error) {
	m.lastToken = token
	if m.err != nil {
		return nil, m.err
	}
	file, err := os.Open(m.filePath)
	if err != nil {
		return nil, err
	}
	return &service.ExportDownload{File: file, Filename: filepath.Base(m.filePath)}, nil
}

func TestExportHandlerListFilter(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/exports?enforcementBody=ecni", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EnforcementBody("ecni"), mockSvc.lastFilter.EnforcementBody)
	assert.Equal(t, 20, mockSvc.lastFilter.Limit)
}

func TestExportHandlerMarkExportedWithoutBody(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/exports/4/mark-exported", nil)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	withUser(c)
	handler.MarkExported(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mockSvc.markedCalls)
}

func TestExportHandlerRender(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/exports/4/render", []byte(`{"format":"pdf"}`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	withUser(c)
	handler.Render(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pdf", mockSvc.renderReq.Format)
}

func TestExportHandlerDownloadRequiresToken(t *testing.T) {
	handler := NewExportHandler(&exportServiceMock{})

	c, w := newTestContext(http.MethodGet, "/exports/4/download", nil)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	handler.Download(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerDownloadStreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export_4.csv")
	require.NoError(t, os.WriteFile(path, []byte("Case no.,Organisation\n1,Example Council\n"), 0o600))
	mockSvc := &exportServiceMock{filePath: path}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/exports/4/download?token=abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", mockSvc.lastToken)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export_4.csv")
	assert.Contains(t, w.Body.String(), "Example Council")
}

func TestExportHandlerDownloadForbidden(t *testing.T) {
	handler := NewExportHandler(&exportServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "token does not match export")})

	c, w := newTestContext(http.MethodGet, "/exports/4/download?token=abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	handler.Download(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}

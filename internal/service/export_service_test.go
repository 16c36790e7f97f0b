package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/storage"
)

type exportStoreStub struct {
	exports  map[int64]models.Export
	cases    map[int64][]models.ExportCase
	eligible []int64
}

func newExportStoreStub() *exportStoreStub {
	return &exportStoreStub{exports: map[int64]models.Export{}, cases: map[int64][]models.ExportCase{}}
}

func (s *exportStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, export *models.Export) error {
	export.ID = int64(len(s.exports) + 1)
	export.Created = time.Now().UTC()
	s.exports[export.ID] = *export
	return nil
}

func (s *exportStoreStub) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Export, error) {
	export, ok := s.exports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &export, nil
}

func (s *exportStoreStub) Update(ctx context.Context, exec sqlx.ExtContext, export *models.Export) error {
	s.exports[export.ID] = *export
	return nil
}

func (s *exportStoreStub) List(ctx context.Context, filter models.ExportFilter) ([]models.Export, error) {
	out := make([]models.Export, 0)
	for _, export := range s.exports {
		if !export.IsDeleted {
			out = append(out, export)
		}
	}
	return out, nil
}

func (s *exportStoreStub) EligibleCaseIDs(ctx context.Context, exec sqlx.ExtContext, export *models.Export) ([]int64, error) {
	return s.eligible, nil
}

func (s *exportStoreStub) AddCase(ctx context.Context, exec sqlx.ExtContext, member *models.ExportCase) error {
	member.ID = int64(len(s.cases[member.ExportID]) + 1)
	member.OrganisationName = "Org " + string(rune('A' + int(member.CaseID) - 1))
	member.HomePageURL = "https://example.com"
	s.cases[member.ExportID] = append(s.cases[member.ExportID], *member)
	return nil
}

func (s *exportStoreStub) ListCases(ctx context.Context, exec sqlx.ExtContext, exportID int64) ([]models.ExportCase, error) {
	return append([]models.ExportCase(nil), s.cases[exportID]...), nil
}

func (s *exportStoreStub) GetCase(ctx context.Context, exec sqlx.ExtContext, exportID, caseID int64) (*models.ExportCase, error) {
	for _, member := range s.cases[exportID] {
		if member.CaseID == caseID {
			return &member, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *exportStoreStub) SetCaseStatus(ctx context.Context, exec sqlx.ExtContext, member *models.ExportCase) error {
	for i := range s.cases[member.ExportID] {
		if s.cases[member.ExportID][i].CaseID == member.CaseID {
			s.cases[member.ExportID][i].Status = member.Status
		}
	}
	return nil
}

func newExportServiceForTest(t *testing.T, store *exportStoreStub) (*ExportService, *eventStoreStub, sqlmock.Sqlmock) {
	t.Helper()
	cases := newCaseStoreStub()
	seedClosedCase(cases, 1)
	seedClosedCase(cases, 2)
	return newExportServiceWithCases(t, store, cases)
}

func newExportServiceWithCases(t *testing.T, store *exportStoreStub, cases *caseStoreStub) (*ExportService, *eventStoreStub, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newTxProviderMock(t)
	files, err := storage.NewFiles(t.TempDir())
	require.NoError(t, err)
	events, journal := newTestEventLog()
	signer := storage.NewLinkSigner("secret", time.Hour)
	caseSvc := NewCaseService(db, cases, newCaseRelatedStoreStub(), &caseAuditReaderStub{audits: map[int64]models.Audit{}}, events, nil, zap.NewNop())
	svc := NewExportService(db, store, caseSvc, files, signer, events, nil, nil, zap.NewNop(), ExportConfig{FileRetention: time.Hour}, nil, nil)
	return svc, journal, mock
}

// seedClosedCase stores a case that was closed with a send decision and is
// waiting to go to its enforcement body.
func seedClosedCase(cases *caseStoreStub, id int64) {
	emailSent := day("2024-03-10")
	cases.cases[id] = models.Case{
		ID:                      id,
		Version:                 1,
		OrganisationName:        "Example Council",
		CaseCompleted:           models.CaseCompletedSend,
		ComplianceEmailSentDate: &emailSent,
		Variant:                 models.VariantArchived,
	}
	cases.statuses[id] = models.CaseStatus{
		ID:             id,
		CaseID:         id,
		Status:         models.StatusCaseClosedWaitingToBeSent,
		FarthestStatus: models.StatusCaseClosedWaitingToBeSent,
	}
	if id > cases.nextID {
		cases.nextID = id
	}
}

func createTestExport(t *testing.T, svc *ExportService, mock sqlmock.Sqlmock) *ExportDetail {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectCommit()
	detail, err := svc.Create(context.Background(), dto.CreateExportRequest{
		CutoffDate:      day("2024-03-31"),
		EnforcementBody: models.EnforcementBodyEHRC,
	}, testUser)
	require.NoError(t, err)
	return detail
}

func TestExportCreateAddsEligibleCasesUnready(t *testing.T) {
	store := newExportStoreStub()
	store.eligible = []int64{1, 2}
	svc, journal, mock := newExportServiceForTest(t, store)

	detail := createTestExport(t, svc, mock)
	assert.Equal(t, models.ExportStatusNot, detail.Export.Status)
	assert.Equal(t, testUser.ID, detail.Export.ExporterID)
	require.Len(t, detail.Cases, 2)
	for _, member := range detail.Cases {
		assert.Equal(t, models.ExportCaseUnready, member.Status)
	}
	assert.Len(t, journal.ofType(models.ContentExportCase, models.EventModelCreate), 2)
}

func TestMarkExportedRequiresNoUnreadyCases(t *testing.T) {
	store := newExportStoreStub()
	store.eligible = []int64{1, 2}
	svc, _, mock := newExportServiceForTest(t, store)
	detail := createTestExport(t, svc, mock)
	id := detail.Export.ID

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.MarkExported(context.Background(), id, dto.MarkExportedRequest{}, testUser)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))

	for caseID, status := range map[int64]models.ExportCaseStatus{1: models.ExportCaseReady, 2: models.ExportCaseExcluded} {
		mock.ExpectBegin()
		mock.ExpectCommit()
		_, err := svc.SetCaseStatus(context.Background(), id, caseID, dto.SetExportCaseStatusRequest{Status: status}, testUser)
		require.NoError(t, err)
	}

	mock.ExpectBegin()
	mock.ExpectCommit()
	exported, err := svc.MarkExported(context.Background(), id, dto.MarkExportedRequest{ExportDate: dayPtr("2024-04-02")}, testUser)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusExported, exported.Status)
	assert.Equal(t, "2024-04-02", exported.ExportDate.Format("2006-01-02"))

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.SetCaseStatus(context.Background(), id, 1, dto.SetExportCaseStatusRequest{Status: models.ExportCaseUnready}, testUser)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))

	mock.ExpectBegin()
	mock.ExpectRollback()
	err = svc.SoftDelete(context.Background(), id, testUser)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
}

func TestExportRenderAndDownload(t *testing.T) {
	store := newExportStoreStub()
	store.eligible = []int64{1, 2}
	svc, _, mock := newExportServiceForTest(t, store)
	detail := createTestExport(t, svc, mock)
	id := detail.Export.ID

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.SetCaseStatus(context.Background(), id, 2, dto.SetExportCaseStatusRequest{Status: models.ExportCaseReady}, testUser)
	require.NoError(t, err)

	file, err := svc.Render(context.Background(), id, dto.RenderExportRequest{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, file.Rows)

	download, err := svc.Download(context.Background(), id, file.Token)
	require.NoError(t, err)
	defer download.File.Close()
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Org B")
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))

	_, err = svc.Download(context.Background(), id+1, file.Token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	pdf, err := svc.Render(context.Background(), id, dto.RenderExportRequest{Format: "pdf"})
	require.NoError(t, err)
	assert.NotEmpty(t, pdf.Token)
}

func TestExportSoftDeleteHidesBatch(t *testing.T) {
	store := newExportStoreStub()
	svc, journal, mock := newExportServiceForTest(t, store)
	detail := createTestExport(t, svc, mock)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.SoftDelete(context.Background(), detail.Export.ID, testUser))

	_, err := svc.Get(context.Background(), detail.Export.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Len(t, journal.ofType(models.ContentExport, models.EventModelDelete), 1)
}

func TestMarkExportedSendsReadyCasesToEnforcementBody(t *testing.T) {
	store := newExportStoreStub()
	store.eligible = []int64{1, 2}
	cases := newCaseStoreStub()
	seedClosedCase(cases, 1)
	seedClosedCase(cases, 2)
	svc, journal, mock := newExportServiceWithCases(t, store, cases)
	detail := createTestExport(t, svc, mock)
	id := detail.Export.ID

	for caseID, status := range map[int64]models.ExportCaseStatus{1: models.ExportCaseReady, 2: models.ExportCaseExcluded} {
		mock.ExpectBegin()
		mock.ExpectCommit()
		_, err := svc.SetCaseStatus(context.Background(), id, caseID, dto.SetExportCaseStatusRequest{Status: status}, testUser)
		require.NoError(t, err)
	}

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.MarkExported(context.Background(), id, dto.MarkExportedRequest{ExportDate: dayPtr("2024-04-02")}, testUser)
	require.NoError(t, err)

	ready := cases.cases[1]
	require.NotNil(t, ready.SentToEnforcementBodySentDate)
	assert.Equal(t, "2024-04-02", ready.SentToEnforcementBodySentDate.Format("2006-01-02"))
	assert.Equal(t, 2, ready.Version)
	assert.Equal(t, models.StatusCaseClosedSentToEquality, cases.statuses[1].Status)
	assert.Equal(t, models.StatusCaseClosedSentToEquality, cases.statuses[1].FarthestStatus)

	excluded := cases.cases[2]
	assert.Nil(t, excluded.SentToEnforcementBodySentDate)
	assert.Equal(t, 1, excluded.Version)
	assert.Equal(t, models.StatusCaseClosedWaitingToBeSent, cases.statuses[2].Status)

	caseUpdates := journal.ofType(models.ContentCase, models.EventModelUpdate)
	require.Len(t, caseUpdates, 1)
	assert.Equal(t, int64(1), caseUpdates[0].ObjectID)
	assert.Len(t, journal.ofType(models.ContentCaseStatus, models.EventModelUpdate), 1)
}

func TestMarkExportedRollsBackWhenReadyCaseIsGone(t *testing.T) {
	store := newExportStoreStub()
	store.eligible = []int64{3}
	svc, _, mock := newExportServiceForTest(t, store)
	detail := createTestExport(t, svc, mock)
	id := detail.Export.ID

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.SetCaseStatus(context.Background(), id, 3, dto.SetExportCaseStatusRequest{Status: models.ExportCaseReady}, testUser)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.MarkExported(context.Background(), id, dto.MarkExportedRequest{}, testUser)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

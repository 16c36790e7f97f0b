package service

import (
	"context"
	"database/sql"
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
)

type auditStoreStub struct {
	audits           map[int64]models.Audit
	pages            []models.Page
	results          []models.CheckResult
	statementPages   []models.StatementPage
	statementResults []models.StatementCheckResult
	retestResults    []models.RetestStatementCheckResult
}

func newAuditStoreStub() *auditStoreStub {
	return &auditStoreStub{audits: map[int64]models.Audit{}}
}

func (s *auditStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, audit *models.Audit) error {
	audit.ID = int64(len(s.audits) + 1)
	audit.Version = 1
	s.audits[audit.ID] = *audit
	return nil
}

func (s *auditStoreStub) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Audit, error) {
	audit, ok := s.audits[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &audit, nil
}

func (s *auditStoreStub) GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Audit, error) {
	return s.Get(ctx, exec, id)
}

func (s *auditStoreStub) GetByCase(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.Audit, error) {
	for _, audit := range s.audits {
		if audit.CaseID == caseID && !audit.IsDeleted {
			return &audit, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *auditStoreStub) Update(ctx context.Context, exec sqlx.ExtContext, audit *models.Audit) error {
	if s.audits[audit.ID].Version != audit.Version {
		return sql.ErrNoRows
	}
	audit.Version++
	s.audits[audit.ID] = *audit
	return nil
}

func (s *auditStoreStub) CreatePage(ctx context.Context, exec sqlx.ExtContext, page *models.Page) error {
	page.ID = int64(len(s.pages) + 1)
	page.Version = 1
	s.pages = append(s.pages, *page)
	return nil
}

func (s *auditStoreStub) GetPage(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Page, error) {
	if id < 1 || int(id) > len(s.pages) {
		return nil, sql.ErrNoRows
	}
	page := s.pages[id-1]
	return &page, nil
}

func (s *auditStoreStub) ListPages(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.Page, error) {
	out := make([]models.Page, 0)
	for _, page := range s.pages {
		if page.AuditID == auditID && !page.IsDeleted {
			out = append(out, page)
		}
	}
	return out, nil
}

func (s *auditStoreStub) CountPagesOfType(ctx context.Context, exec sqlx.ExtContext, auditID int64, pageType models.PageType) (int, error) {
	count := 0
	for _, page := range s.pages {
		if page.AuditID == auditID && page.PageType == pageType && !page.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (s *auditStoreStub) UpdatePage(ctx context.Context, exec sqlx.ExtContext, page *models.Page) error {
	if s.pages[page.ID-1].Version != page.Version {
		return sql.ErrNoRows
	}
	page.Version++
	s.pages[page.ID-1] = *page
	return nil
}

func (s *auditStoreStub) FindCheckResult(ctx context.Context, exec sqlx.ExtContext, pageID, wcagDefinitionID int64) (*models.CheckResult, error) {
	for _, result := range s.results {
		if result.PageID == pageID && result.WcagDefinitionID == wcagDefinitionID {
			return &result, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *auditStoreStub) ListCheckResults(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.CheckResult, error) {
	out := make([]models.CheckResult, 0)
	for _, result := range s.results {
		if result.AuditID == auditID && !result.IsDeleted {
			out = append(out, result)
		}
	}
	return out, nil
}

func (s *auditStoreStub) CreateCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.CheckResult) error {
	result.ID = int64(len(s.results) + 1)
	result.Version = 1
	s.results = append(s.results, *result)
	return nil
}

func (s *auditStoreStub) UpdateCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.CheckResult) error {
	if s.results[result.ID-1].Version != result.Version {
		return sql.ErrNoRows
	}
	result.Version++
	s.results[result.ID-1] = *result
	return nil
}

func (s *auditStoreStub) CreateStatementPage(ctx context.Context, exec sqlx.ExtContext, page *models.StatementPage) error {
	page.ID = int64(len(s.statementPages) + 1)
	s.statementPages = append(s.statementPages, *page)
	return nil
}

func (s *auditStoreStub) ListStatementPages(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.StatementPage, error) {
	out := make([]models.StatementPage, 0)
	for _, page := range s.statementPages {
		if page.AuditID == auditID && !page.IsDeleted {
			out = append(out, page)
		}
	}
	return out, nil
}

func (s *auditStoreStub) CreateStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.StatementCheckResult) error {
	result.ID = int64(len(s.statementResults) + 1)
	result.Version = 1
	s.statementResults = append(s.statementResults, *result)
	return nil
}

func (s *auditStoreStub) GetStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.StatementCheckResult, error) {
	if id < 1 || int(id) > len(s.statementResults) {
		return nil, sql.ErrNoRows
	}
	result := s.statementResults[id-1]
	return &result, nil
}

func (s *auditStoreStub) UpdateStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.StatementCheckResult) error {
	result.Version++
	s.statementResults[result.ID-1] = *result
	return nil
}

func (s *auditStoreStub) CreateRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.RetestStatementCheckResult) error {
	result.ID = int64(len(s.retestResults) + 1)
	result.Version = 1
	s.retestResults = append(s.retestResults, *result)
	return nil
}

func (s *auditStoreStub) GetRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.RetestStatementCheckResult, error) {
	if id < 1 || int(id) > len(s.retestResults) {
		return nil, sql.ErrNoRows
	}
	result := s.retestResults[id-1]
	return &result, nil
}

func (s *auditStoreStub) UpdateRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.RetestStatementCheckResult) error {
	result.Version++
	s.retestResults[result.ID-1] = *result
	return nil
}

func (s *auditStoreStub) ListRetestStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.RetestStatementCheckResult, error) {
	out := make([]models.RetestStatementCheckResult, 0)
	for _, result := range s.retestResults {
		if result.AuditID == auditID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (s *auditStoreStub) LoadGraph(ctx context.Context, exec sqlx.ExtContext, auditID int64) (*models.AuditGraph, error) {
	audit, err := s.Get(ctx, exec, auditID)
	if err != nil {
		return nil, err
	}
	graph := &models.AuditGraph{Audit: *audit}
	graph.Pages, _ = s.ListPages(ctx, exec, auditID)
	graph.CheckResults, _ = s.ListCheckResults(ctx, exec, auditID)
	graph.StatementPages, _ = s.ListStatementPages(ctx, exec, auditID)
	for _, result := range s.statementResults {
		if result.AuditID == auditID {
			graph.StatementCheckResults = append(graph.StatementCheckResults, result)
		}
	}
	graph.RetestStatementCheckResults, _ = s.ListRetestStatementCheckResults(ctx, exec, auditID)
	return graph, nil
}

type catalogueSourceStub struct {
	catalogue models.Catalogue
}

func (s *catalogueSourceStub) Active(ctx context.Context, day time.Time) (*models.Catalogue, error) {
	active := &models.Catalogue{}
	for _, def := range s.catalogue.WcagDefinitions {
		if def.ActiveOn(day) {
			active.WcagDefinitions = append(active.WcagDefinitions, def)
		}
	}
	active.StatementChecks = append(active.StatementChecks, s.catalogue.StatementChecks...)
	return active, nil
}

func (s *catalogueSourceStub) WcagDefinition(ctx context.Context, id int64) (*models.WcagDefinition, error) {
	for _, def := range s.catalogue.WcagDefinitions {
		if def.ID == id {
			return &def, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "wcag definition: not found")
}

type statusRecomputerStub struct {
	calls       []int64
	transitions []StatusChange
}

func (s *statusRecomputerStub) RecomputeStatus(ctx context.Context, exec sqlx.ExtContext, caseID int64, batch *EventBatch) (StatusChange, error) {
	s.calls = append(s.calls, caseID)
	return StatusChange{From: models.StatusTestInProgress, To: models.StatusTestInProgress}, nil
}

func (s *statusRecomputerStub) RecordTransition(change StatusChange) {
	s.transitions = append(s.transitions, change)
}

type auditServiceFixture struct {
	svc     *AuditService
	audits  *auditStoreStub
	cases   *caseStoreStub
	status  *statusRecomputerStub
	journal *eventStoreStub
	mock    sqlmock.Sqlmock
}

func newAuditServiceForTest(t *testing.T) auditServiceFixture {
	t.Helper()
	db, mock := newTxProviderMock(t)
	events, journal := newTestEventLog()
	cases := newCaseStoreStub()
	auditor := "auditor-1"
	require.NoError(t, cases.Create(context.Background(), nil, &models.Case{OrganisationName: "Example", AuditorID: &auditor}))

	catalogue := &catalogueSourceStub{catalogue: models.Catalogue{
		WcagDefinitions: []models.WcagDefinition{
			{ID: 1, Type: models.WcagTypeAxe, Name: "1.1.1 Non-text content"},
			{ID: 2, Type: models.WcagTypeManual, Name: "2.4.7 Focus visible"},
			{ID: 3, Type: models.WcagTypeManual, Name: "Retired check", DateEnd: dayPtr("2020-01-01")},
		},
		StatementChecks: []models.StatementCheck{
			{ID: 1, Type: models.StatementCheckOverview, Label: "Statement exists"},
			{ID: 2, Type: models.StatementCheckWebsite, Label: "Correct URL"},
			{ID: 3, Type: models.StatementCheckFeedback, Label: "Contact given"},
		},
	}}
	status := &statusRecomputerStub{}
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewAuditService(db, newAuditStoreStub(), cases, catalogue, status, events, nil, zap.NewNop(),
		WithAuditClock(func() time.Time { return now }))
	return auditServiceFixture{svc: svc, audits: svc.audits.(*auditStoreStub), cases: cases, status: status, journal: journal, mock: mock}
}

func (f auditServiceFixture) createAudit(t *testing.T) *models.AuditGraph {
	t.Helper()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	graph, err := f.svc.CreateAudit(context.Background(), 1, dto.CreateAuditRequest{}, testUser)
	require.NoError(t, err)
	return graph
}

func TestAuditServiceCreateAuditSeedsPagesAndResults(t *testing.T) {
	f := newAuditServiceForTest(t)

	graph := f.createAudit(t)

	assert.Len(t, graph.Pages, len(models.MandatoryPageTypes))
	// four testable pages times the two definitions active on the test date
	assert.Len(t, graph.CheckResults, 8)
	for _, result := range graph.CheckResults {
		assert.Equal(t, models.CheckResultNotTested, result.CheckResultState)
		assert.NotEqual(t, int64(3), result.WcagDefinitionID)
	}
	assert.Len(t, graph.StatementCheckResults, 3)
	assert.Equal(t, models.BurdenNotChecked, graph.Audit.InitialDisproportionateBurdenClaim)
	assert.Equal(t, []int64{1}, f.status.calls)

	assert.Len(t, f.journal.ofType(models.ContentAudit, models.EventModelCreate), 1)
	assert.Len(t, f.journal.ofType(models.ContentPage, models.EventModelCreate), 5)
	assert.Len(t, f.journal.ofType(models.ContentCheckResult, models.EventModelCreate), 8)
}

func TestAuditServiceCreateAuditTwice(t *testing.T) {
	f := newAuditServiceForTest(t)
	f.createAudit(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.CreateAudit(context.Background(), 1, dto.CreateAuditRequest{}, testUser)

	assert.ErrorIs(t, err, appErrors.ErrDuplicate)
}

func TestAuditServiceAddPage(t *testing.T) {
	f := newAuditServiceForTest(t)
	graph := f.createAudit(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.AddPage(context.Background(), graph.Audit.ID, dto.AddPageRequest{PageType: models.PageTypeHome}, testUser)
	assert.ErrorIs(t, err, appErrors.ErrDuplicate)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	page, err := f.svc.AddPage(context.Background(), graph.Audit.ID, dto.AddPageRequest{PageType: models.PageTypeExtra, Name: "Search", URL: "https://example.com/search"}, testUser)
	require.NoError(t, err)
	assert.Equal(t, models.BooleanNo, page.NotFound)

	results, err := f.audits.ListCheckResults(context.Background(), nil, graph.Audit.ID)
	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestAuditServiceAddPageAllowsRepeatedCoronavirusPage(t *testing.T) {
	f := newAuditServiceForTest(t)
	graph := f.createAudit(t)

	for _, name := range []string{"Covid guidance", "Covid testing"} {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
		page, err := f.svc.AddPage(context.Background(), graph.Audit.ID, dto.AddPageRequest{PageType: models.PageTypeCoronavirus, Name: name, URL: "https://example.com/covid"}, testUser)
		require.NoError(t, err)
		assert.Equal(t, name, page.Name)
	}

	count, err := f.audits.CountPagesOfType(context.Background(), nil, graph.Audit.ID, models.PageTypeCoronavirus)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.False(t, models.PageTypeCoronavirus.IsMandatory())
}

func TestAuditServiceDeletePageCascadesResults(t *testing.T) {
	f := newAuditServiceForTest(t)
	graph := f.createAudit(t)
	home := graph.Pages[0]

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	require.NoError(t, f.svc.DeletePage(context.Background(), graph.Audit.ID, home.ID, dto.VersionRequest{Version: home.Version}, testUser))

	results, err := f.audits.ListCheckResults(context.Background(), nil, graph.Audit.ID)
	require.NoError(t, err)
	assert.Len(t, results, 6)
	assert.Len(t, f.journal.ofType(models.ContentCheckResult, models.EventModelDelete), 2)
}

func TestAuditServiceRecordCheckResultIsIdempotent(t *testing.T) {
	f := newAuditServiceForTest(t)
	graph := f.createAudit(t)
	page := graph.Pages[0]
	req := dto.RecordCheckResultRequest{PageID: page.ID, WcagDefinitionID: 1, State: models.CheckResultError, Notes: "missing alt text"}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	result, err := f.svc.RecordCheckResult(context.Background(), graph.Audit.ID, req, testUser)
	require.NoError(t, err)
	assert.Equal(t, models.CheckResultError, result.CheckResultState)
	assert.Equal(t, 2, result.Version)
	updates := len(f.journal.ofType(models.ContentCheckResult, models.EventModelUpdate))
	assert.Equal(t, 1, updates)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	again, err := f.svc.RecordCheckResult(context.Background(), graph.Audit.ID, req, testUser)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Version)
	assert.Len(t, f.journal.ofType(models.ContentCheckResult, models.EventModelUpdate), updates)
}

func TestAuditServiceRecordCheckResultRejectsInactiveDefinition(t *testing.T) {
	f := newAuditServiceForTest(t)
	graph := f.createAudit(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.RecordCheckResult(context.Background(), graph.Audit.ID, dto.RecordCheckResultRequest{
		PageID:           graph.Pages[0].ID,
		WcagDefinitionID: 3,
		State:            models.CheckResultError,
	}, testUser)

	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestAuditServiceRetestRequiresRetestDate(t *testing.T) {
	f := newAuditServiceForTest(t)
	graph := f.createAudit(t)
	req := dto.RecordRetestRequest{PageID: graph.Pages[0].ID, WcagDefinitionID: 1, RetestState: models.RetestFixed}

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.RecordRetest(context.Background(), graph.Audit.ID, req, testUser)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	audit, err := f.svc.StartRetest(context.Background(), graph.Audit.ID, dto.StartRetestRequest{Version: graph.Audit.Version, RetestDate: day("2024-06-01")}, testUser)
	require.NoError(t, err)
	require.NotNil(t, audit.RetestDate)
	assert.Len(t, f.audits.retestResults, 3)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	result, err := f.svc.RecordRetest(context.Background(), graph.Audit.ID, req, testUser)
	require.NoError(t, err)
	assert.Equal(t, models.RetestFixed, result.RetestState)
}

func TestAuditServiceStatementPageStage(t *testing.T) {
	f := newAuditServiceForTest(t)
	graph := f.createAudit(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.AddStatementPage(context.Background(), graph.Audit.ID, dto.AddStatementPageRequest{
		URL:        "https://example.com/accessibility",
		AddedStage: models.StageTwelveWeekRetest,
	}, testUser)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	page, err := f.svc.AddStatementPage(context.Background(), graph.Audit.ID, dto.AddStatementPageRequest{
		URL:        "https://example.com/accessibility",
		AddedStage: models.StageInitial,
	}, testUser)
	require.NoError(t, err)
	assert.Equal(t, models.StageInitial, page.AddedStage)
}

func TestAuditServiceUpdateAuditStaleVersion(t *testing.T) {
	f := newAuditServiceForTest(t)
	graph := f.createAudit(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.UpdateAudit(context.Background(), graph.Audit.ID, dto.UpdateAuditRequest{Version: graph.Audit.Version + 1}, testUser)

	assert.ErrorIs(t, err, appErrors.ErrConcurrentModification)
}

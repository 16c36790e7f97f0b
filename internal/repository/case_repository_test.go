package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestCaseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO cases (version, created_by, updated, auditor_id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created"}).AddRow(int64(7), created))

	c := &models.Case{OrganisationName: "Example", HomePageURL: "https://example.com"}
	c.ApplyDefaults()
	require.NoError(t, repo.Create(context.Background(), nil, c))
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, created, c.Created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryUpdateAdvancesVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cases SET updated = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &models.Case{ID: 7, Version: 3}
	require.NoError(t, repo.Update(context.Background(), nil, c))
	assert.Equal(t, 4, c.Version)
	assert.NotNil(t, c.Updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryUpdateStaleVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cases SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c := &models.Case{ID: 7, Version: 2}
	err := repo.Update(context.Background(), nil, c)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, 2, c.Version)
}

func TestCaseRepositoryUpdateDerivedKeepsVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cases SET variant = $1, enable_correspondence_process = $2 WHERE id = $3")).
		WithArgs(models.VariantReporting, true, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &models.Case{ID: 7, Version: 3, Variant: models.VariantReporting, EnableCorrespondenceProcess: true}
	require.NoError(t, repo.UpdateDerived(context.Background(), nil, c))
	assert.Equal(t, 3, c.Version)
	assert.Nil(t, c.Updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version, created")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), nil, 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCaseRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cases c LEFT JOIN case_status s ON s.case_id = c.id WHERE c.is_deleted = FALSE AND c.auditor_id = $1 AND s.status IN ($2,$3) AND (c.organisation_name ILIKE $4")).
		WithArgs("u1", models.StatusTestInProgress, models.StatusReportInProgress, "%example%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.id, c.version")).
		WithArgs("u1", models.StatusTestInProgress, models.StatusReportInProgress, "%example%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "organisation_name"}).AddRow(int64(3), 1, "Example"))

	cases, total, err := repo.List(context.Background(), models.CaseFilter{
		AuditorID: "u1",
		Statuses:  []models.CaseStatusCode{models.StatusTestInProgress, models.StatusReportInProgress},
		Search:    " example ",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, cases, 1)
	assert.Equal(t, "Example", cases[0].OrganisationName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositorySaveStatusUpserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO case_status (case_id, status, farthest_status) VALUES ($1, $2, $3)")).
		WithArgs(int64(7), models.StatusQAInProgress, models.StatusQAInProgress).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	status := &models.CaseStatus{CaseID: 7, Status: models.StatusQAInProgress, FarthestStatus: models.StatusQAInProgress}
	require.NoError(t, repo.SaveStatus(context.Background(), nil, status))
	assert.Equal(t, int64(11), status.ID)
}

func TestCaseRepositoryCreateEqualityBodyCorrespondenceNumbersWithinCase(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(id_within_case), 0) + 1 FROM equality_body_correspondence WHERE case_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO equality_body_correspondence")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created"}).AddRow(int64(21), time.Now()))

	item := &models.EqualityBodyCorrespondence{CaseID: 7, Type: models.EqualityBodyQuestion, Message: "Hello"}
	require.NoError(t, repo.CreateEqualityBodyCorrespondence(context.Background(), nil, item))
	assert.Equal(t, 3, item.IDWithinCase)
	assert.Equal(t, int64(21), item.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

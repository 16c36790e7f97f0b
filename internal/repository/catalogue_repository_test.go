package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

func TestCatalogueRepositoryUpsertByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogueRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wcag_definitions (id, type, name")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	def := &models.WcagDefinition{ID: 12, Type: models.WcagTypeAxe, Name: "Contrast"}
	require.NoError(t, repo.UpsertWcagDefinition(context.Background(), nil, def))
	assert.Equal(t, int64(12), def.ID)
}

func TestCatalogueRepositoryUpsertByNaturalKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogueRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wcag_definitions (type, name")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(13)))

	def := &models.WcagDefinition{Type: models.WcagTypeManual, Name: "Focus order"}
	require.NoError(t, repo.UpsertWcagDefinition(context.Background(), nil, def))
	assert.Equal(t, int64(13), def.ID)
}

func TestCatalogueRepositoryListStatementChecksLiveOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogueRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM statement_checks WHERE is_deleted = FALSE ORDER BY position, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "label", "position"}).
			AddRow(int64(1), "overview", "Statement found", 1))

	checks, err := repo.ListStatementChecks(context.Background(), nil, false)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, models.StatementCheckOverview, checks[0].Type)
}

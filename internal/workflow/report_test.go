package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

func statementResult(id int64, checkType models.StatementCheckType, state models.StatementResultState) models.StatementCheckResult {
	return models.StatementCheckResult{ID: id, AuditID: 1, Type: checkType, CheckResultState: state}
}

func TestDeriveReportContentOverviewOnly(t *testing.T) {
	graph := models.AuditGraph{
		Audit: models.Audit{ID: 1},
		StatementCheckResults: []models.StatementCheckResult{
			statementResult(1, models.StatementCheckOverview, models.StatementResultNo),
			statementResult(2, models.StatementCheckWebsite, models.StatementResultYes),
		},
	}

	content := DeriveReportContent(graph)
	assert.Equal(t, PresentationOverviewOnly, content.Presentation)
	require.Len(t, content.OverviewFailedStatementCheckResults, 1)
	assert.Nil(t, content.SectionFailedStatementCheckResults)
}

func TestDeriveReportContentPerSection(t *testing.T) {
	graph := models.AuditGraph{
		Audit: models.Audit{ID: 1},
		StatementCheckResults: []models.StatementCheckResult{
			statementResult(1, models.StatementCheckOverview, models.StatementResultNo),
			statementResult(2, models.StatementCheckFeedback, models.StatementResultNo),
		},
	}

	content := DeriveReportContent(graph)
	assert.Equal(t, PresentationPerSection, content.Presentation)
	assert.Nil(t, content.OverviewFailedStatementCheckResults)
	assert.Empty(t, content.SectionFailedStatementCheckResults[models.StatementCheckWebsite])
	require.Len(t, content.SectionFailedStatementCheckResults[models.StatementCheckFeedback], 1)
	assert.Len(t, content.SectionFailedStatementCheckResults, len(StatementSections))
}

func TestDeriveReportContentLegacy(t *testing.T) {
	graph := models.AuditGraph{
		Audit: models.Audit{
			ID:                                     1,
			AccessibilityStatementState:            models.AccessibilityStatementFoundBut,
			AccessibilityStatementNotCorrectFormat: true,
		},
		StatementCheckResults: []models.StatementCheckResult{
			{ID: 3, Type: models.StatementCheckOverview, CheckResultState: models.StatementResultNo, IsDeleted: true},
		},
	}

	content := DeriveReportContent(graph)
	assert.Equal(t, PresentationLegacy, content.Presentation)
	assert.Equal(t, models.AccessibilityStatementFoundBut, content.AccessibilityStatementState)
	assert.Equal(t, []string{"it was not in the correct format"}, content.ReportAccessibilityIssues)
}

func TestReportAccessibilityIssuesOrderAndWording(t *testing.T) {
	audit := models.Audit{
		AccessibilityStatementDeadlineNotSufficient:        true,
		AccessibilityStatementDeadlineNotComplete:          true,
		AccessibilityStatementDeadlineNotCompleteWording:   "Incomplete deadline text",
		AccessibilityStatementMissingMandatoryWording:      true,
		AccessibilityStatementMissingMandatoryWordingNotes: "Missing contact details",
	}

	issues := ReportAccessibilityIssues(audit)
	assert.Equal(t, []string{
		"mandatory wording is missing\nMissing contact details",
		"Incomplete deadline text",
		"it includes a deadline of XXX for fixing XXX issues and this is not sufficient",
	}, issues)
	assert.Empty(t, ReportAccessibilityIssues(models.Audit{}))
}

func TestFailedCheckResultsGroupedByPage(t *testing.T) {
	graph := models.AuditGraph{
		Pages: []models.Page{
			{ID: 1, PageType: models.PageTypeHome},
			{ID: 2, PageType: models.PageTypeContact, NotFound: models.BooleanYes},
			{ID: 3, PageType: models.PageTypeForm, IsDeleted: true},
		},
		CheckResults: []models.CheckResult{
			{ID: 10, PageID: 1, CheckResultState: models.CheckResultError},
			{ID: 11, PageID: 1, CheckResultState: models.CheckResultNoError},
			{ID: 12, PageID: 2, CheckResultState: models.CheckResultError},
			{ID: 13, PageID: 3, CheckResultState: models.CheckResultError},
		},
	}

	groups := DeriveReportContent(graph).FailedCheckResultsByPage
	require.Len(t, groups, 1)
	assert.Equal(t, int64(1), groups[0].Page.ID)
	require.Len(t, groups[0].Results, 1)
	assert.Equal(t, int64(10), groups[0].Results[0].ID)
}

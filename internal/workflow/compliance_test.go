package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

func TestSuggestWebsiteCompliance(t *testing.T) {
	graph := models.AuditGraph{
		Pages: []models.Page{{ID: 1, PageType: models.PageTypeHome}},
		CheckResults: []models.CheckResult{
			{ID: 1, PageID: 1, CheckResultState: models.CheckResultNotTested},
		},
	}
	assert.Equal(t, models.WebsiteNotKnown, SuggestWebsiteCompliance(graph, false))

	graph.CheckResults[0].CheckResultState = models.CheckResultNoError
	assert.Equal(t, models.WebsiteCompliant, SuggestWebsiteCompliance(graph, false))

	graph.CheckResults[0].CheckResultState = models.CheckResultError
	assert.Equal(t, models.WebsitePartiallyCompliant, SuggestWebsiteCompliance(graph, false))

	graph.CheckResults[0].RetestState = models.RetestNotRetested
	assert.Equal(t, models.WebsiteNotKnown, SuggestWebsiteCompliance(graph, true))

	graph.CheckResults[0].RetestState = models.RetestNotFixed
	assert.Equal(t, models.WebsitePartiallyCompliant, SuggestWebsiteCompliance(graph, true))

	graph.CheckResults[0].RetestState = models.RetestFixed
	assert.Equal(t, models.WebsiteCompliant, SuggestWebsiteCompliance(graph, true))
}

func TestUnfixedCheckResultsSkipsMissingPages(t *testing.T) {
	missing := time.Now()
	graph := models.AuditGraph{
		Pages: []models.Page{{ID: 1, RetestPageMissingDate: &missing}, {ID: 2}},
		CheckResults: []models.CheckResult{
			{ID: 1, PageID: 1, CheckResultState: models.CheckResultError, RetestState: models.RetestNotFixed},
			{ID: 2, PageID: 2, CheckResultState: models.CheckResultError, RetestState: models.RetestNotFixed},
		},
	}
	unfixed := UnfixedCheckResults(graph)
	assert.Len(t, unfixed, 1)
	assert.Equal(t, int64(2), unfixed[0].ID)
}

func TestSuggestStatementCompliance(t *testing.T) {
	graph := models.AuditGraph{
		StatementCheckResults: []models.StatementCheckResult{
			statementResult(1, models.StatementCheckOverview, models.StatementResultYes),
			statementResult(2, models.StatementCheckWebsite, models.StatementResultNotTested),
		},
	}
	assert.Equal(t, models.StatementUnknown, SuggestStatementCompliance(graph, false))

	graph.StatementCheckResults[1].CheckResultState = models.StatementResultYes
	assert.Equal(t, models.StatementCompliant, SuggestStatementCompliance(graph, false))

	graph.StatementCheckResults[1].CheckResultState = models.StatementResultNo
	assert.Equal(t, models.StatementNotCompliant, SuggestStatementCompliance(graph, false))

	graph.StatementCheckResults[1].RetestState = models.StatementResultYes
	assert.Equal(t, models.StatementCompliant, SuggestStatementCompliance(graph, true))
}

func TestDeriveVariant(t *testing.T) {
	audit := &models.Audit{ID: 1}
	assert.Equal(t, models.VariantArchived, DeriveVariant(nil, 0, &models.Report{ID: 1}))
	assert.Equal(t, models.VariantStatementContent, DeriveVariant(audit, 3, nil))
	assert.Equal(t, models.VariantReporting, DeriveVariant(audit, 0, &models.Report{ID: 1}))
	assert.Equal(t, models.VariantArchived, DeriveVariant(audit, 0, nil))
}

func TestSplitBurdenClaim(t *testing.T) {
	assert.Equal(t, models.BurdenNoStatement, SplitBurdenClaim(models.BurdenNoClaim, 0))
	assert.Equal(t, models.BurdenNoClaim, SplitBurdenClaim(models.BurdenNoClaim, 1))
	assert.Equal(t, models.BurdenAssessment, SplitBurdenClaim(models.BurdenAssessment, 0))
}

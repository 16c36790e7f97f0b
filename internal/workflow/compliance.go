package workflow

import (
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

func livePages(graph models.AuditGraph) map[int64]models.Page {
	pages := make(map[int64]models.Page, len(graph.Pages))
	for _, page := range graph.Pages {
		if page.Found() {
			pages[page.ID] = page
		}
	}
	return pages
}

// FailedCheckResults returns the results in error on pages that were found.
func FailedCheckResults(graph models.AuditGraph) []models.CheckResult {
	pages := livePages(graph)
	failed := make([]models.CheckResult, 0)
	for _, result := range graph.CheckResults {
		if result.IsDeleted || result.CheckResultState != models.CheckResultError {
			continue
		}
		if _, ok := pages[result.PageID]; ok {
			failed = append(failed, result)
		}
	}
	return failed
}

// UnfixedCheckResults returns the initial failures still not fixed at the
// 12-week retest, ignoring pages since removed from the site.
func UnfixedCheckResults(graph models.AuditGraph) []models.CheckResult {
	pages := livePages(graph)
	unfixed := make([]models.CheckResult, 0)
	for _, result := range FailedCheckResults(graph) {
		if page := pages[result.PageID]; page.RetestPageMissingDate != nil {
			continue
		}
		if result.RetestState != models.RetestFixed {
			unfixed = append(unfixed, result)
		}
	}
	return unfixed
}

// SuggestWebsiteCompliance proposes the website verdict for a phase.
func SuggestWebsiteCompliance(graph models.AuditGraph, retest bool) models.WebsiteCompliance {
	tested := false
	for _, result := range graph.CheckResults {
		if !result.IsDeleted && result.CheckResultState != models.CheckResultNotTested && result.CheckResultState != "" {
			tested = true
			break
		}
	}
	failures := FailedCheckResults(graph)
	if retest && len(failures) > 0 {
		tested = false
		for _, result := range failures {
			if result.RetestState != "" && result.RetestState != models.RetestNotRetested {
				tested = true
				break
			}
		}
		failures = UnfixedCheckResults(graph)
	}
	switch {
	case !tested:
		return models.WebsiteNotKnown
	case len(failures) > 0:
		return models.WebsitePartiallyCompliant
	default:
		return models.WebsiteCompliant
	}
}

// SuggestStatementCompliance proposes the statement verdict for a phase.
func SuggestStatementCompliance(graph models.AuditGraph, retest bool) models.StatementCompliance {
	answered, total := 0, 0
	for _, result := range graph.StatementCheckResults {
		if result.IsDeleted {
			continue
		}
		total++
		state := result.CheckResultState
		if retest && result.CheckResultState == models.StatementResultNo {
			state = result.RetestState
		}
		if state == models.StatementResultNo {
			return models.StatementNotCompliant
		}
		if state == models.StatementResultYes {
			answered++
		}
	}
	if total > 0 && answered == total {
		return models.StatementCompliant
	}
	return models.StatementUnknown
}

// DeriveVariant picks the report flavour of a case from its audit graph.
func DeriveVariant(audit *models.Audit, statementCheckResults int, report *models.Report) models.Variant {
	switch {
	case audit == nil || audit.IsDeleted:
		return models.VariantArchived
	case statementCheckResults > 0:
		return models.VariantStatementContent
	case report != nil && !report.IsDeleted:
		return models.VariantReporting
	default:
		return models.VariantArchived
	}
}

// SplitBurdenClaim maps the legacy no-claim value onto no-statement when the
// audit found no accessibility statement.
func SplitBurdenClaim(claim models.DisproportionateBurden, statementPages int) models.DisproportionateBurden {
	if claim == models.BurdenNoClaim && statementPages == 0 {
		return models.BurdenNoStatement
	}
	return claim
}

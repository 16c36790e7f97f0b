package workflow

import (
	"strings"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// Presentation is the shape the statement section of a report takes.
type Presentation string

const (
	PresentationPerSection   Presentation = "per-section"
	PresentationOverviewOnly Presentation = "overview-only"
	PresentationLegacy       Presentation = "legacy"
)

const (
	issueNotCorrectFormat        = "it was not in the correct format"
	issueNotSpecificEnough       = "it was not specific enough"
	issueMissingIssues           = "accessibility issues were found during the test that were not included in the statement"
	issueMissingMandatoryWording = "mandatory wording is missing"
	issueNeedsMoreDisproportion  = "we require more information covering the disproportionate burden claim"
	issueNeedsMoreAccessibility  = "it required more information detailing the accessibility issues"
	issueDeadlineNotComplete     = "it includes a deadline of XXX for fixing XXX issues and this has not been completed"
	issueDeadlineNotSufficient   = "it includes a deadline of XXX for fixing XXX issues and this is not sufficient"
)

// StatementSections are the per-section buckets in report order.
var StatementSections = []models.StatementCheckType{
	models.StatementCheckWebsite,
	models.StatementCheckCompliance,
	models.StatementCheckNonAccessible,
	models.StatementCheckPreparation,
	models.StatementCheckFeedback,
	models.StatementCheckEnforcement,
	models.StatementCheckOther,
}

// PageFailures groups the failed check results of one page.
type PageFailures struct {
	Page    models.Page          `json:"page"`
	Results []models.CheckResult `json:"results"`
}

// ReportContent is the derived content of the statement and website
// sections of a report.
type ReportContent struct {
	Presentation                        Presentation                                                `json:"presentation"`
	OverviewFailedStatementCheckResults []models.StatementCheckResult                               `json:"overviewFailedStatementCheckResults,omitempty"`
	SectionFailedStatementCheckResults  map[models.StatementCheckType][]models.StatementCheckResult `json:"sectionFailedStatementCheckResults,omitempty"`
	CustomStatementCheckResults         []models.StatementCheckResult                               `json:"customStatementCheckResults"`
	AccessibilityStatementState         models.AccessibilityStatementState                          `json:"accessibilityStatementState,omitempty"`
	ReportAccessibilityIssues           []string                                                    `json:"reportAccessibilityIssues"`
	FailedCheckResultsByPage            []PageFailures                                              `json:"failedCheckResultsByPage"`
}

// FailedStatementCheckResults returns the live results of a type answered no.
func FailedStatementCheckResults(graph models.AuditGraph, checkType models.StatementCheckType) []models.StatementCheckResult {
	failed := make([]models.StatementCheckResult, 0)
	for _, result := range graph.StatementCheckResults {
		if result.IsDeleted || result.Type != checkType {
			continue
		}
		if result.CheckResultState == models.StatementResultNo {
			failed = append(failed, result)
		}
	}
	return failed
}

// ReportAccessibilityIssues lists the legacy statement issues flagged on an
// audit, in report order.
func ReportAccessibilityIssues(audit models.Audit) []string {
	issues := make([]string, 0)
	if audit.AccessibilityStatementNotCorrectFormat {
		issues = append(issues, issueNotCorrectFormat)
	}
	if audit.AccessibilityStatementNotSpecificEnough {
		issues = append(issues, issueNotSpecificEnough)
	}
	if audit.AccessibilityStatementMissingAccessibilityIssues {
		issues = append(issues, issueMissingIssues)
	}
	if audit.AccessibilityStatementMissingMandatoryWording {
		issue := issueMissingMandatoryWording
		if notes := strings.TrimSpace(audit.AccessibilityStatementMissingMandatoryWordingNotes); notes != "" {
			issue = issue + "\n" + notes
		}
		issues = append(issues, issue)
	}
	if audit.AccessibilityStatementNeedsMoreReDisproportionate {
		issues = append(issues, issueNeedsMoreDisproportion)
	}
	if audit.AccessibilityStatementNeedsMoreReAccessibility {
		issues = append(issues, issueNeedsMoreAccessibility)
	}
	if audit.AccessibilityStatementDeadlineNotComplete {
		issues = append(issues, wordingOr(audit.AccessibilityStatementDeadlineNotCompleteWording, issueDeadlineNotComplete))
	}
	if audit.AccessibilityStatementDeadlineNotSufficient {
		issues = append(issues, wordingOr(audit.AccessibilityStatementDeadlineNotSufficientWording, issueDeadlineNotSufficient))
	}
	return issues
}

func wordingOr(wording, fallback string) string {
	if strings.TrimSpace(wording) != "" {
		return wording
	}
	return fallback
}

// DeriveReportContent builds the report buckets for an audit. Per-section
// output wins over overview-only output, which wins over the legacy
// single-state output.
func DeriveReportContent(graph models.AuditGraph) ReportContent {
	content := ReportContent{
		ReportAccessibilityIssues:   ReportAccessibilityIssues(graph.Audit),
		CustomStatementCheckResults: make([]models.StatementCheckResult, 0),
		FailedCheckResultsByPage:    groupByPage(graph),
	}
	for _, result := range graph.StatementCheckResults {
		if !result.IsDeleted && result.Type == models.StatementCheckCustom {
			content.CustomStatementCheckResults = append(content.CustomStatementCheckResults, result)
		}
	}

	sections := make(map[models.StatementCheckType][]models.StatementCheckResult, len(StatementSections))
	anySection := false
	for _, section := range StatementSections {
		failed := FailedStatementCheckResults(graph, section)
		sections[section] = failed
		if len(failed) > 0 {
			anySection = true
		}
	}
	overview := FailedStatementCheckResults(graph, models.StatementCheckOverview)

	switch {
	case anySection:
		content.Presentation = PresentationPerSection
		content.SectionFailedStatementCheckResults = sections
	case len(overview) > 0:
		content.Presentation = PresentationOverviewOnly
		content.OverviewFailedStatementCheckResults = overview
	default:
		content.Presentation = PresentationLegacy
		content.AccessibilityStatementState = graph.Audit.AccessibilityStatementState
	}
	return content
}

func groupByPage(graph models.AuditGraph) []PageFailures {
	failed := FailedCheckResults(graph)
	byPage := make(map[int64][]models.CheckResult, len(graph.Pages))
	for _, result := range failed {
		byPage[result.PageID] = append(byPage[result.PageID], result)
	}
	groups := make([]PageFailures, 0, len(byPage))
	for _, page := range graph.Pages {
		if results, ok := byPage[page.ID]; ok {
			groups = append(groups, PageFailures{Page: page, Results: results})
		}
	}
	return groups
}

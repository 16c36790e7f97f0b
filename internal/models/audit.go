package models

import "time"

// AuditSection names a dated completion field on an audit.
type AuditSection string

const (
	SectionMetadata                     AuditSection = "audit_metadata"
	SectionPages                        AuditSection = "audit_pages"
	SectionWebsiteDecision              AuditSection = "audit_website_decision"
	SectionStatementDecision            AuditSection = "audit_statement_decision"
	SectionWcagSummary                  AuditSection = "audit_wcag_summary"
	SectionStatementSummary             AuditSection = "audit_statement_summary"
	SectionStatementPages               AuditSection = "audit_statement_pages"
	SectionStatementOverview            AuditSection = "audit_statement_overview"
	SectionStatementWebsite             AuditSection = "audit_statement_website"
	SectionStatementCompliance          AuditSection = "audit_statement_compliance"
	SectionStatementNonAccessible       AuditSection = "audit_statement_non_accessible"
	SectionStatementPreparation         AuditSection = "audit_statement_preparation"
	SectionStatementFeedback            AuditSection = "audit_statement_feedback"
	SectionStatementCustom              AuditSection = "audit_statement_custom"
	SectionDisproportionateBurden       AuditSection = "initial_disproportionate_burden"
	SectionRetestMetadata               AuditSection = "audit_retest_metadata"
	SectionRetestPages                  AuditSection = "audit_retest_pages"
	SectionRetestWebsiteDecision        AuditSection = "audit_retest_website_decision"
	SectionRetestStatementDecision      AuditSection = "audit_retest_statement_decision"
	SectionRetestWcagSummary            AuditSection = "audit_retest_wcag_summary"
	SectionRetestStatementSummary       AuditSection = "audit_retest_statement_summary"
	SectionRetestStatementPages         AuditSection = "audit_retest_statement_pages"
	SectionRetestStatementOverview      AuditSection = "audit_retest_statement_overview"
	SectionRetestStatementWebsite       AuditSection = "audit_retest_statement_website"
	SectionRetestStatementCompliance    AuditSection = "audit_retest_statement_compliance"
	SectionRetestStatementNonAccessible AuditSection = "audit_retest_statement_non_accessible"
	SectionRetestStatementPreparation   AuditSection = "audit_retest_statement_preparation"
	SectionRetestStatementFeedback      AuditSection = "audit_retest_statement_feedback"
	SectionRetestStatementCustom        AuditSection = "audit_retest_statement_custom"
	SectionRetestDisproportionateBurden AuditSection = "retest_disproportionate_burden"
)

// InitialTestSections must all be complete before the initial test counts as done.
var InitialTestSections = []AuditSection{
	SectionMetadata,
	SectionPages,
	SectionWebsiteDecision,
	SectionStatementDecision,
	SectionWcagSummary,
	SectionStatementSummary,
	SectionStatementPages,
}

// IsRetest reports whether the section belongs to the 12-week phase.
func (s AuditSection) IsRetest() bool {
	switch s {
	case SectionRetestMetadata, SectionRetestPages, SectionRetestWebsiteDecision,
		SectionRetestStatementDecision, SectionRetestWcagSummary, SectionRetestStatementSummary,
		SectionRetestStatementPages, SectionRetestStatementOverview, SectionRetestStatementWebsite,
		SectionRetestStatementCompliance, SectionRetestStatementNonAccessible,
		SectionRetestStatementPreparation, SectionRetestStatementFeedback,
		SectionRetestStatementCustom, SectionRetestDisproportionateBurden:
		return true
	}
	return false
}

// Column returns the database column holding the completion date.
func (s AuditSection) Column() string {
	return string(s) + "_complete_date"
}

// Audit is the test instance of a case, covering initial and 12-week phases.
type Audit struct {
	ID         int64      `db:"id" json:"id"`
	CaseID     int64      `db:"case_id" json:"caseId"`
	Version    int        `db:"version" json:"version"`
	Date       *time.Time `db:"date_of_test" json:"dateOfTest"`
	RetestDate *time.Time `db:"retest_date" json:"retestDate"`
	IsDeleted  bool       `db:"is_deleted" json:"isDeleted"`
	Created    time.Time  `db:"created" json:"created"`

	MetadataCompleteDate               *time.Time `db:"audit_metadata_complete_date" json:"auditMetadataCompleteDate"`
	PagesCompleteDate                  *time.Time `db:"audit_pages_complete_date" json:"auditPagesCompleteDate"`
	WebsiteDecisionCompleteDate        *time.Time `db:"audit_website_decision_complete_date" json:"auditWebsiteDecisionCompleteDate"`
	StatementDecisionCompleteDate      *time.Time `db:"audit_statement_decision_complete_date" json:"auditStatementDecisionCompleteDate"`
	WcagSummaryCompleteDate            *time.Time `db:"audit_wcag_summary_complete_date" json:"auditWcagSummaryCompleteDate"`
	StatementSummaryCompleteDate       *time.Time `db:"audit_statement_summary_complete_date" json:"auditStatementSummaryCompleteDate"`
	StatementPagesCompleteDate         *time.Time `db:"audit_statement_pages_complete_date" json:"auditStatementPagesCompleteDate"`
	StatementOverviewCompleteDate      *time.Time `db:"audit_statement_overview_complete_date" json:"auditStatementOverviewCompleteDate"`
	StatementWebsiteCompleteDate       *time.Time `db:"audit_statement_website_complete_date" json:"auditStatementWebsiteCompleteDate"`
	StatementComplianceCompleteDate    *time.Time `db:"audit_statement_compliance_complete_date" json:"auditStatementComplianceCompleteDate"`
	StatementNonAccessibleCompleteDate *time.Time `db:"audit_statement_non_accessible_complete_date" json:"auditStatementNonAccessibleCompleteDate"`
	StatementPreparationCompleteDate   *time.Time `db:"audit_statement_preparation_complete_date" json:"auditStatementPreparationCompleteDate"`
	StatementFeedbackCompleteDate      *time.Time `db:"audit_statement_feedback_complete_date" json:"auditStatementFeedbackCompleteDate"`
	StatementCustomCompleteDate        *time.Time `db:"audit_statement_custom_complete_date" json:"auditStatementCustomCompleteDate"`
	DisproportionateBurdenCompleteDate *time.Time `db:"initial_disproportionate_burden_complete_date" json:"initialDisproportionateBurdenCompleteDate"`

	RetestMetadataCompleteDate               *time.Time `db:"audit_retest_metadata_complete_date" json:"auditRetestMetadataCompleteDate"`
	RetestPagesCompleteDate                  *time.Time `db:"audit_retest_pages_complete_date" json:"auditRetestPagesCompleteDate"`
	RetestWebsiteDecisionCompleteDate        *time.Time `db:"audit_retest_website_decision_complete_date" json:"auditRetestWebsiteDecisionCompleteDate"`
	RetestStatementDecisionCompleteDate      *time.Time `db:"audit_retest_statement_decision_complete_date" json:"auditRetestStatementDecisionCompleteDate"`
	RetestWcagSummaryCompleteDate            *time.Time `db:"audit_retest_wcag_summary_complete_date" json:"auditRetestWcagSummaryCompleteDate"`
	RetestStatementSummaryCompleteDate       *time.Time `db:"audit_retest_statement_summary_complete_date" json:"auditRetestStatementSummaryCompleteDate"`
	RetestStatementPagesCompleteDate         *time.Time `db:"audit_retest_statement_pages_complete_date" json:"auditRetestStatementPagesCompleteDate"`
	RetestStatementOverviewCompleteDate      *time.Time `db:"audit_retest_statement_overview_complete_date" json:"auditRetestStatementOverviewCompleteDate"`
	RetestStatementWebsiteCompleteDate       *time.Time `db:"audit_retest_statement_website_complete_date" json:"auditRetestStatementWebsiteCompleteDate"`
	RetestStatementComplianceCompleteDate    *time.Time `db:"audit_retest_statement_compliance_complete_date" json:"auditRetestStatementComplianceCompleteDate"`
	RetestStatementNonAccessibleCompleteDate *time.Time `db:"audit_retest_statement_non_accessible_complete_date" json:"auditRetestStatementNonAccessibleCompleteDate"`
	RetestStatementPreparationCompleteDate   *time.Time `db:"audit_retest_statement_preparation_complete_date" json:"auditRetestStatementPreparationCompleteDate"`
	RetestStatementFeedbackCompleteDate      *time.Time `db:"audit_retest_statement_feedback_complete_date" json:"auditRetestStatementFeedbackCompleteDate"`
	RetestStatementCustomCompleteDate        *time.Time `db:"audit_retest_statement_custom_complete_date" json:"auditRetestStatementCustomCompleteDate"`
	RetestDisproportionateBurdenCompleteDate *time.Time `db:"retest_disproportionate_burden_complete_date" json:"retestDisproportionateBurdenCompleteDate"`

	InitialDisproportionateBurdenClaim DisproportionateBurden `db:"initial_disproportionate_burden_claim" json:"initialDisproportionateBurdenClaim"`
	InitialDisproportionateBurdenNotes string                 `db:"initial_disproportionate_burden_notes" json:"initialDisproportionateBurdenNotes"`
	RetestDisproportionateBurdenClaim  DisproportionateBurden `db:"retest_disproportionate_burden_claim" json:"retestDisproportionateBurdenClaim"`
	RetestDisproportionateBurdenNotes  string                 `db:"retest_disproportionate_burden_notes" json:"retestDisproportionateBurdenNotes"`

	AccessibilityStatementState                        AccessibilityStatementState `db:"accessibility_statement_state" json:"accessibilityStatementState"`
	AccessibilityStatementNotCorrectFormat             bool                        `db:"accessibility_statement_not_correct_format" json:"accessibilityStatementNotCorrectFormat"`
	AccessibilityStatementNotSpecificEnough            bool                        `db:"accessibility_statement_not_specific_enough" json:"accessibilityStatementNotSpecificEnough"`
	AccessibilityStatementMissingAccessibilityIssues   bool                        `db:"accessibility_statement_missing_accessibility_issues" json:"accessibilityStatementMissingAccessibilityIssues"`
	AccessibilityStatementMissingMandatoryWording      bool                        `db:"accessibility_statement_missing_mandatory_wording" json:"accessibilityStatementMissingMandatoryWording"`
	AccessibilityStatementMissingMandatoryWordingNotes string                      `db:"accessibility_statement_missing_mandatory_wording_notes" json:"accessibilityStatementMissingMandatoryWordingNotes"`
	AccessibilityStatementNeedsMoreReDisproportionate  bool                        `db:"accessibility_statement_needs_more_re_disproportionate" json:"accessibilityStatementNeedsMoreReDisproportionate"`
	AccessibilityStatementNeedsMoreReAccessibility     bool                        `db:"accessibility_statement_needs_more_re_accessibility" json:"accessibilityStatementNeedsMoreReAccessibility"`
	AccessibilityStatementDeadlineNotComplete          bool                        `db:"accessibility_statement_deadline_not_complete" json:"accessibilityStatementDeadlineNotComplete"`
	AccessibilityStatementDeadlineNotSufficient        bool                        `db:"accessibility_statement_deadline_not_sufficient" json:"accessibilityStatementDeadlineNotSufficient"`
	AccessibilityStatementDeadlineNotCompleteWording   string                      `db:"accessibility_statement_deadline_not_complete_wording" json:"accessibilityStatementDeadlineNotCompleteWording"`
	AccessibilityStatementDeadlineNotSufficientWording string                      `db:"accessibility_statement_deadline_not_sufficient_wording" json:"accessibilityStatementDeadlineNotSufficientWording"`
}

// ApplyDefaults fills the enum fields a new audit starts with.
func (a *Audit) ApplyDefaults() {
	if a.InitialDisproportionateBurdenClaim == "" {
		a.InitialDisproportionateBurdenClaim = BurdenNotChecked
	}
	if a.RetestDisproportionateBurdenClaim == "" {
		a.RetestDisproportionateBurdenClaim = BurdenNotChecked
	}
	if a.AccessibilityStatementState == "" {
		a.AccessibilityStatementState = AccessibilityStatementNotFound
	}
}

// CompletionDate returns a pointer to the completion field of a section, or
// nil when the section is unknown.
func (a *Audit) CompletionDate(section AuditSection) **time.Time {
	switch section {
	case SectionMetadata:
		return &a.MetadataCompleteDate
	case SectionPages:
		return &a.PagesCompleteDate
	case SectionWebsiteDecision:
		return &a.WebsiteDecisionCompleteDate
	case SectionStatementDecision:
		return &a.StatementDecisionCompleteDate
	case SectionWcagSummary:
		return &a.WcagSummaryCompleteDate
	case SectionStatementSummary:
		return &a.StatementSummaryCompleteDate
	case SectionStatementPages:
		return &a.StatementPagesCompleteDate
	case SectionStatementOverview:
		return &a.StatementOverviewCompleteDate
	case SectionStatementWebsite:
		return &a.StatementWebsiteCompleteDate
	case SectionStatementCompliance:
		return &a.StatementComplianceCompleteDate
	case SectionStatementNonAccessible:
		return &a.StatementNonAccessibleCompleteDate
	case SectionStatementPreparation:
		return &a.StatementPreparationCompleteDate
	case SectionStatementFeedback:
		return &a.StatementFeedbackCompleteDate
	case SectionStatementCustom:
		return &a.StatementCustomCompleteDate
	case SectionDisproportionateBurden:
		return &a.DisproportionateBurdenCompleteDate
	case SectionRetestMetadata:
		return &a.RetestMetadataCompleteDate
	case SectionRetestPages:
		return &a.RetestPagesCompleteDate
	case SectionRetestWebsiteDecision:
		return &a.RetestWebsiteDecisionCompleteDate
	case SectionRetestStatementDecision:
		return &a.RetestStatementDecisionCompleteDate
	case SectionRetestWcagSummary:
		return &a.RetestWcagSummaryCompleteDate
	case SectionRetestStatementSummary:
		return &a.RetestStatementSummaryCompleteDate
	case SectionRetestStatementPages:
		return &a.RetestStatementPagesCompleteDate
	case SectionRetestStatementOverview:
		return &a.RetestStatementOverviewCompleteDate
	case SectionRetestStatementWebsite:
		return &a.RetestStatementWebsiteCompleteDate
	case SectionRetestStatementCompliance:
		return &a.RetestStatementComplianceCompleteDate
	case SectionRetestStatementNonAccessible:
		return &a.RetestStatementNonAccessibleCompleteDate
	case SectionRetestStatementPreparation:
		return &a.RetestStatementPreparationCompleteDate
	case SectionRetestStatementFeedback:
		return &a.RetestStatementFeedbackCompleteDate
	case SectionRetestStatementCustom:
		return &a.RetestStatementCustomCompleteDate
	case SectionRetestDisproportionateBurden:
		return &a.RetestDisproportionateBurdenCompleteDate
	}
	return nil
}

// InitialTestComplete reports whether every initial test section has a date.
func (a *Audit) InitialTestComplete() bool {
	if a == nil {
		return false
	}
	for _, section := range InitialTestSections {
		if field := a.CompletionDate(section); field == nil || *field == nil {
			return false
		}
	}
	return true
}

// Page is a web page or document tested as part of an audit.
type Page struct {
	ID                    int64      `db:"id" json:"id"`
	AuditID               int64      `db:"audit_id" json:"auditId"`
	Version               int        `db:"version" json:"version"`
	PageType              PageType   `db:"page_type" json:"pageType"`
	Name                  string     `db:"name" json:"name"`
	URL                   string     `db:"url" json:"url"`
	NotFound              Boolean    `db:"not_found" json:"notFound"`
	IsContactPage         Boolean    `db:"is_contact_page" json:"isContactPage"`
	RetestPageMissingDate *time.Time `db:"retest_page_missing_date" json:"retestPageMissingDate"`
	CompleteDate          *time.Time `db:"complete_date" json:"completeDate"`
	RetestCompleteDate    *time.Time `db:"retest_complete_date" json:"retestCompleteDate"`
	IsDeleted             bool       `db:"is_deleted" json:"isDeleted"`
	Created               time.Time  `db:"created" json:"created"`
}

// Found reports whether the page exists and still counts towards results.
func (p Page) Found() bool {
	return !p.IsDeleted && p.NotFound != BooleanYes
}

// CheckResult is the verdict of one WCAG definition against one page.
type CheckResult struct {
	ID               int64              `db:"id" json:"id"`
	AuditID          int64              `db:"audit_id" json:"auditId"`
	PageID           int64              `db:"page_id" json:"pageId"`
	WcagDefinitionID int64              `db:"wcag_definition_id" json:"wcagDefinitionId"`
	Version          int                `db:"version" json:"version"`
	Type             WcagDefinitionType `db:"type" json:"type"`
	CheckResultState CheckResultState   `db:"check_result_state" json:"checkResultState"`
	Notes            string             `db:"notes" json:"notes"`
	RetestState      RetestState        `db:"retest_state" json:"retestState"`
	RetestNotes      string             `db:"retest_notes" json:"retestNotes"`
	IsDeleted        bool               `db:"is_deleted" json:"isDeleted"`
	Updated          *time.Time         `db:"updated" json:"updated,omitempty"`
}

// StatementPage is a link to the accessibility statement of the audited site.
type StatementPage struct {
	ID         int64              `db:"id" json:"id"`
	AuditID    int64              `db:"audit_id" json:"auditId"`
	URL        string             `db:"url" json:"url"`
	BackupURL  string             `db:"backup_url" json:"backupUrl"`
	AddedStage StatementPageStage `db:"added_stage" json:"addedStage"`
	IsDeleted  bool               `db:"is_deleted" json:"isDeleted"`
	Created    time.Time          `db:"created" json:"created"`
}

// StatementCheckResult answers one statement question for an audit.
type StatementCheckResult struct {
	ID               int64                `db:"id" json:"id"`
	AuditID          int64                `db:"audit_id" json:"auditId"`
	StatementCheckID *int64               `db:"statement_check_id" json:"statementCheckId"`
	Version          int                  `db:"version" json:"version"`
	Type             StatementCheckType   `db:"type" json:"type"`
	CheckResultState StatementResultState `db:"check_result_state" json:"checkResultState"`
	RetestState      StatementResultState `db:"retest_state" json:"retestState"`
	ReportComment    string               `db:"report_comment" json:"reportComment"`
	RetestComment    string               `db:"retest_comment" json:"retestComment"`
	AuditorNotes     string               `db:"auditor_notes" json:"auditorNotes"`
	IsDeleted        bool                 `db:"is_deleted" json:"isDeleted"`
}

// RetestStatementCheckResult answers one statement question during an equality
// body retest.
type RetestStatementCheckResult struct {
	ID               int64                `db:"id" json:"id"`
	AuditID          int64                `db:"audit_id" json:"auditId"`
	StatementCheckID *int64               `db:"statement_check_id" json:"statementCheckId"`
	Version          int                  `db:"version" json:"version"`
	Type             StatementCheckType   `db:"type" json:"type"`
	CheckResultState StatementResultState `db:"check_result_state" json:"checkResultState"`
	Comment          string               `db:"comment" json:"comment"`
	IsDeleted        bool                 `db:"is_deleted" json:"isDeleted"`
}

// AuditGraph is an audit with every child row loaded.
type AuditGraph struct {
	Audit                       Audit                        `json:"audit"`
	Pages                       []Page                       `json:"pages"`
	CheckResults                []CheckResult                `json:"checkResults"`
	StatementPages              []StatementPage              `json:"statementPages"`
	StatementCheckResults       []StatementCheckResult       `json:"statementCheckResults"`
	RetestStatementCheckResults []RetestStatementCheckResult `json:"retestStatementCheckResults"`
}

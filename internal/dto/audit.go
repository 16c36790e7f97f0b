package dto

import (
	"time"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// CreateAuditRequest opens the audit of a case.
type CreateAuditRequest struct {
	Date *time.Time `json:"dateOfTest"`
}

// AddPageRequest adds a page to an audit.
type AddPageRequest struct {
	PageType models.PageType `json:"pageType" validate:"required,oneof=extra home contact statement coronavirus pdf form"`
	Name     string          `json:"name"`
	URL      string          `json:"url" validate:"omitempty,url"`
}

// UpdatePageRequest is a versioned page edit.
type UpdatePageRequest struct {
	Version               int            `json:"version" validate:"required,min=1"`
	Name                  string         `json:"name"`
	URL                   string         `json:"url" validate:"omitempty,url"`
	NotFound              models.Boolean `json:"notFound" validate:"omitempty,oneof=yes no"`
	IsContactPage         models.Boolean `json:"isContactPage" validate:"omitempty,oneof=yes no"`
	RetestPageMissingDate *time.Time     `json:"retestPageMissingDate"`
	CompleteDate          *time.Time     `json:"completeDate"`
	RetestCompleteDate    *time.Time     `json:"retestCompleteDate"`
}

// RecordCheckResultRequest records the initial verdict of one WCAG test on a page.
type RecordCheckResultRequest struct {
	PageID           int64                   `json:"pageId" validate:"required"`
	WcagDefinitionID int64                   `json:"wcagDefinitionId" validate:"required"`
	Version          int                     `json:"version"`
	State            models.CheckResultState `json:"checkResultState" validate:"required,oneof=error no-error not-tested"`
	Notes            string                  `json:"notes"`
}

// RecordRetestRequest records the 12-week verdict of one WCAG test on a page.
type RecordRetestRequest struct {
	PageID           int64              `json:"pageId" validate:"required"`
	WcagDefinitionID int64              `json:"wcagDefinitionId" validate:"required"`
	Version          int                `json:"version"`
	RetestState      models.RetestState `json:"retestState" validate:"required,oneof=fixed not-fixed not-retested yes no partial not-applicable"`
	RetestNotes      string             `json:"retestNotes"`
}

// AddStatementPageRequest appends a link to the accessibility statement.
type AddStatementPageRequest struct {
	URL        string                    `json:"url" validate:"required,url"`
	BackupURL  string                    `json:"backupUrl" validate:"omitempty,url"`
	AddedStage models.StatementPageStage `json:"addedStage" validate:"required,oneof=initial 12-week-retest retest"`
}

// RecordStatementCheckResultRequest answers one statement question.
type RecordStatementCheckResultRequest struct {
	Version          int                         `json:"version" validate:"required,min=1"`
	CheckResultState models.StatementResultState `json:"checkResultState" validate:"omitempty,oneof=yes no not-tested"`
	RetestState      models.StatementResultState `json:"retestState" validate:"omitempty,oneof=yes no not-tested"`
	ReportComment    string                      `json:"reportComment"`
	RetestComment    string                      `json:"retestComment"`
	AuditorNotes     string                      `json:"auditorNotes"`
}

// RecordRetestStatementCheckResultRequest answers one equality body retest question.
type RecordRetestStatementCheckResultRequest struct {
	Version          int                         `json:"version" validate:"required,min=1"`
	CheckResultState models.StatementResultState `json:"checkResultState" validate:"required,oneof=yes no not-tested"`
	Comment          string                      `json:"comment"`
}

// CompleteSectionRequest sets or clears the completion date of an audit section.
type CompleteSectionRequest struct {
	Version int        `json:"version" validate:"required,min=1"`
	Date    *time.Time `json:"date"`
}

// StartRetestRequest opens the 12-week retest of an audit.
type StartRetestRequest struct {
	Version    int       `json:"version" validate:"required,min=1"`
	RetestDate time.Time `json:"retestDate" validate:"required"`
}

// UpdateAuditRequest edits the audit metadata, disproportionate burden and
// legacy statement fields.
type UpdateAuditRequest struct {
	Version                                            int                                `json:"version" validate:"required,min=1"`
	Date                                               *time.Time                         `json:"dateOfTest"`
	InitialDisproportionateBurdenClaim                 models.DisproportionateBurden      `json:"initialDisproportionateBurdenClaim" validate:"omitempty,oneof=no-assessment assessment no-claim no-statement not-checked"`
	InitialDisproportionateBurdenNotes                 string                             `json:"initialDisproportionateBurdenNotes"`
	RetestDisproportionateBurdenClaim                  models.DisproportionateBurden      `json:"retestDisproportionateBurdenClaim" validate:"omitempty,oneof=no-assessment assessment no-claim no-statement not-checked"`
	RetestDisproportionateBurdenNotes                  string                             `json:"retestDisproportionateBurdenNotes"`
	AccessibilityStatementState                        models.AccessibilityStatementState `json:"accessibilityStatementState" validate:"omitempty,oneof=found not-found found-but"`
	AccessibilityStatementNotCorrectFormat             bool                               `json:"accessibilityStatementNotCorrectFormat"`
	AccessibilityStatementNotSpecificEnough            bool                               `json:"accessibilityStatementNotSpecificEnough"`
	AccessibilityStatementMissingAccessibilityIssues   bool                               `json:"accessibilityStatementMissingAccessibilityIssues"`
	AccessibilityStatementMissingMandatoryWording      bool                               `json:"accessibilityStatementMissingMandatoryWording"`
	AccessibilityStatementMissingMandatoryWordingNotes string                             `json:"accessibilityStatementMissingMandatoryWordingNotes"`
	AccessibilityStatementNeedsMoreReDisproportionate  bool                               `json:"accessibilityStatementNeedsMoreReDisproportionate"`
	AccessibilityStatementNeedsMoreReAccessibility     bool                               `json:"accessibilityStatementNeedsMoreReAccessibility"`
	AccessibilityStatementDeadlineNotComplete          bool                               `json:"accessibilityStatementDeadlineNotComplete"`
	AccessibilityStatementDeadlineNotSufficient        bool                               `json:"accessibilityStatementDeadlineNotSufficient"`
	AccessibilityStatementDeadlineNotCompleteWording   string                             `json:"accessibilityStatementDeadlineNotCompleteWording"`
	AccessibilityStatementDeadlineNotSufficientWording string                             `json:"accessibilityStatementDeadlineNotSufficientWording"`
}

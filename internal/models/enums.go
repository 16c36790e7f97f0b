package models

// Boolean is the yes/no choice used throughout case workflow fields.
type Boolean string

const (
	BooleanYes Boolean = "yes"
	BooleanNo  Boolean = "no"
)

// EnforcementBody identifies the equality body a case may be escalated to.
type EnforcementBody string

const (
	EnforcementBodyEHRC EnforcementBody = "ehrc"
	EnforcementBodyECNI EnforcementBody = "ecni"
)

// Variant records which report flavour a case uses.
type Variant string

const (
	VariantCloseCase        Variant = "close-case"
	VariantStatementContent Variant = "statement-content"
	VariantReporting        Variant = "reporting"
	VariantArchived         Variant = "archived"
)

// ReportApprovedStatus tracks QA approval of the report.
type ReportApprovedStatus string

const (
	ReportApprovedYes        ReportApprovedStatus = "yes"
	ReportApprovedInProgress ReportApprovedStatus = "in-progress"
	ReportApprovedNotStarted ReportApprovedStatus = "not-started"
)

// CaseCompleted is the final decision on a case.
type CaseCompleted string

const (
	CaseCompletedSend       CaseCompleted = "complete-send"
	CaseCompletedNoSend     CaseCompleted = "complete-no-send"
	CaseCompletedNoDecision CaseCompleted = "no-decision"
)

// EnforcementBodyPursuing tracks whether the equality body is acting on the case.
type EnforcementBodyPursuing string

const (
	PursuingYesCompleted  EnforcementBodyPursuing = "yes-completed"
	PursuingYesInProgress EnforcementBodyPursuing = "yes-in-progress"
	PursuingNo            EnforcementBodyPursuing = "no"
)

// EnforcementBodyClosedCase tracks whether the equality body has closed the case.
type EnforcementBodyClosedCase string

const (
	ClosedCaseYes        EnforcementBodyClosedCase = "yes"
	ClosedCaseInProgress EnforcementBodyClosedCase = "in-progress"
	ClosedCaseNo         EnforcementBodyClosedCase = "no"
)

// OrganisationResponse records how the organisation answered the 12-week request.
type OrganisationResponse string

const (
	OrganisationResponseNotApplicable OrganisationResponse = "not-applicable"
	OrganisationResponseNoResponse    OrganisationResponse = "no-response"
)

// WebsiteCompliance is the website verdict per phase.
type WebsiteCompliance string

const (
	WebsiteCompliant          WebsiteCompliance = "compliant"
	WebsitePartiallyCompliant WebsiteCompliance = "partially-compliant"
	WebsiteNotKnown           WebsiteCompliance = "not-known"
)

// StatementCompliance is the accessibility statement verdict per phase.
type StatementCompliance string

const (
	StatementCompliant    StatementCompliance = "compliant"
	StatementNotCompliant StatementCompliance = "not-compliant"
	StatementUnknown      StatementCompliance = "unknown"
)

// QAStatus is derived from the report review fields.
type QAStatus string

const (
	QAStatusUnknown    QAStatus = "unknown"
	QAStatusUnassigned QAStatus = "unassigned-qa-case"
	QAStatusInQA       QAStatus = "in-qa"
	QAStatusApproved   QAStatus = "qa-approved"
)

// ContactPreferred flags the preferred contact of a case.
type ContactPreferred string

const (
	ContactPreferredYes     ContactPreferred = "yes"
	ContactPreferredNo      ContactPreferred = "no"
	ContactPreferredUnknown ContactPreferred = "unknown"
)

// EqualityBodyCorrespondenceType distinguishes questions from retest requests.
type EqualityBodyCorrespondenceType string

const (
	EqualityBodyQuestion EqualityBodyCorrespondenceType = "question"
	EqualityBodyRetest   EqualityBodyCorrespondenceType = "retest"
)

// EqualityBodyCorrespondenceStatus tracks whether a message still needs an answer.
type EqualityBodyCorrespondenceStatus string

const (
	EqualityBodyOutstanding EqualityBodyCorrespondenceStatus = "outstanding"
	EqualityBodyResolved    EqualityBodyCorrespondenceStatus = "resolved"
)

// PageType types the pages of an audit.
type PageType string

const (
	PageTypeExtra       PageType = "extra"
	PageTypeHome        PageType = "home"
	PageTypeContact     PageType = "contact"
	PageTypeStatement   PageType = "statement"
	PageTypeCoronavirus PageType = "coronavirus"
	PageTypePDF         PageType = "pdf"
	PageTypeForm        PageType = "form"
)

// MandatoryPageTypes are created with every audit, at most once each.
var MandatoryPageTypes = []PageType{PageTypeHome, PageTypeContact, PageTypeStatement, PageTypePDF, PageTypeForm}

// IsMandatory reports whether an audit may hold at most one live page of this type.
func (p PageType) IsMandatory() bool {
	for _, t := range MandatoryPageTypes {
		if t == p {
			return true
		}
	}
	return false
}

// CheckResultState is the initial verdict of a WCAG check on a page.
type CheckResultState string

const (
	CheckResultError     CheckResultState = "error"
	CheckResultNoError   CheckResultState = "no-error"
	CheckResultNotTested CheckResultState = "not-tested"
)

// RetestState is the 12-week verdict of a WCAG check on a page.
type RetestState string

const (
	RetestFixed         RetestState = "fixed"
	RetestNotFixed      RetestState = "not-fixed"
	RetestNotRetested   RetestState = "not-retested"
	RetestYes           RetestState = "yes"
	RetestNo            RetestState = "no"
	RetestPartial       RetestState = "partial"
	RetestNotApplicable RetestState = "not-applicable"
)

// StatementResultState answers one statement check question.
type StatementResultState string

const (
	StatementResultYes       StatementResultState = "yes"
	StatementResultNo        StatementResultState = "no"
	StatementResultNotTested StatementResultState = "not-tested"
)

// StatementCheckType groups statement questions by report section.
type StatementCheckType string

const (
	StatementCheckOverview      StatementCheckType = "overview"
	StatementCheckWebsite       StatementCheckType = "website"
	StatementCheckCompliance    StatementCheckType = "compliance"
	StatementCheckNonAccessible StatementCheckType = "non-accessible"
	StatementCheckPreparation   StatementCheckType = "preparation"
	StatementCheckFeedback      StatementCheckType = "feedback"
	StatementCheckEnforcement   StatementCheckType = "enforcement"
	StatementCheckCustom        StatementCheckType = "custom"
	StatementCheckOther         StatementCheckType = "other"
	StatementCheckTwelveWeek    StatementCheckType = "12-week"
)

// DisproportionateBurden is the disproportionate burden claim state per phase.
type DisproportionateBurden string

const (
	BurdenNoAssessment DisproportionateBurden = "no-assessment"
	BurdenAssessment   DisproportionateBurden = "assessment"
	BurdenNoClaim      DisproportionateBurden = "no-claim"
	BurdenNoStatement  DisproportionateBurden = "no-statement"
	BurdenNotChecked   DisproportionateBurden = "not-checked"
)

// StatementPageStage records at which phase a statement link was added.
type StatementPageStage string

const (
	StageInitial            StatementPageStage = "initial"
	StageTwelveWeekRetest   StatementPageStage = "12-week-retest"
	StageEqualityBodyRetest StatementPageStage = "retest"
)

// AccessibilityStatementState is the legacy single statement verdict.
type AccessibilityStatementState string

const (
	AccessibilityStatementFound    AccessibilityStatementState = "found"
	AccessibilityStatementNotFound AccessibilityStatementState = "not-found"
	AccessibilityStatementFoundBut AccessibilityStatementState = "found-but"
)

// WcagDefinitionType classifies a WCAG test.
type WcagDefinitionType string

const (
	WcagTypeManual WcagDefinitionType = "manual"
	WcagTypeAxe    WcagDefinitionType = "axe"
	WcagTypePDF    WcagDefinitionType = "pdf"
)

// TaskType classifies user tasks.
type TaskType string

const (
	TaskQAComment      TaskType = "qa-comment"
	TaskReportApproved TaskType = "report-approved"
	TaskReminder       TaskType = "reminder"
	TaskOverdue        TaskType = "overdue"
	TaskPostCase       TaskType = "postcase"
)

// ExportStatus tracks an export batch.
type ExportStatus string

const (
	ExportStatusNot      ExportStatus = "not"
	ExportStatusExported ExportStatus = "exported"
)

// ExportCaseStatus tags one case within an export batch.
type ExportCaseStatus string

const (
	ExportCaseUnready  ExportCaseStatus = "unready"
	ExportCaseReady    ExportCaseStatus = "ready"
	ExportCaseExcluded ExportCaseStatus = "excluded"
)

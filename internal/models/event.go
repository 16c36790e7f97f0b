package models

import "time"

// EventType classifies journal entries.
type EventType string

const (
	EventModelCreate EventType = "model_create"
	EventModelUpdate EventType = "model_update"
	EventModelDelete EventType = "model_delete"
)

// ContentType names the journalled entity kinds.
type ContentType string

const (
	ContentCase                       ContentType = "cases.case"
	ContentCaseCompliance             ContentType = "cases.casecompliance"
	ContentCaseStatus                 ContentType = "cases.casestatus"
	ContentContact                    ContentType = "cases.contact"
	ContentEqualityBodyCorrespondence ContentType = "cases.equalitybodycorrespondence"
	ContentAudit                      ContentType = "audits.audit"
	ContentPage                       ContentType = "audits.page"
	ContentCheckResult                ContentType = "audits.checkresult"
	ContentStatementPage              ContentType = "audits.statementpage"
	ContentStatementCheck             ContentType = "audits.statementcheck"
	ContentStatementCheckResult       ContentType = "audits.statementcheckresult"
	ContentRetestStatementCheckResult ContentType = "audits.reteststatementcheckresult"
	ContentWcagDefinition             ContentType = "audits.wcagdefinition"
	ContentReport                     ContentType = "reports.report"
	ContentTask                       ContentType = "notifications.task"
	ContentExport                     ContentType = "exports.export"
	ContentExportCase                 ContentType = "exports.exportcase"
)

// Event is one append-only journal entry.
type Event struct {
	ID          int64       `db:"id" json:"id"`
	ContentType ContentType `db:"content_type" json:"contentType"`
	ObjectID    int64       `db:"object_id" json:"objectId"`
	Type        EventType   `db:"type" json:"type"`
	Value       string      `db:"value" json:"value"`
	CreatedBy   *string     `db:"created_by" json:"createdBy,omitempty"`
	Created     time.Time   `db:"created" json:"created"`
}

// EventFilter constrains journal queries.
type EventFilter struct {
	ContentType ContentType
	ObjectID    int64
	Type        EventType
	Since       *time.Time
	Contains    []string
	Limit       int
	Offset      int
}

// CheckResultNotesHistory is one derived revision of CheckResult.notes.
type CheckResultNotesHistory struct {
	ID            int64     `db:"id" json:"id"`
	CheckResultID int64     `db:"check_result_id" json:"checkResultId"`
	Notes         string    `db:"notes" json:"notes"`
	CreatedBy     *string   `db:"created_by" json:"createdBy,omitempty"`
	Created       time.Time `db:"created" json:"created"`
}

// CheckResultRetestNotesHistory is one derived revision of the retest fields.
type CheckResultRetestNotesHistory struct {
	ID            int64       `db:"id" json:"id"`
	CheckResultID int64       `db:"check_result_id" json:"checkResultId"`
	RetestState   RetestState `db:"retest_state" json:"retestState"`
	RetestNotes   string      `db:"retest_notes" json:"retestNotes"`
	CreatedBy     *string     `db:"created_by" json:"createdBy,omitempty"`
	Created       time.Time   `db:"created" json:"created"`
}

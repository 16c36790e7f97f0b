package models

import "time"

// Case is the workflow root of one monitoring cycle against one organisation.
type Case struct {
	ID                       int64           `db:"id" json:"id"`
	Version                  int             `db:"version" json:"version"`
	Created                  time.Time       `db:"created" json:"created"`
	CreatedBy                *string         `db:"created_by" json:"createdBy,omitempty"`
	Updated                  *time.Time      `db:"updated" json:"updated,omitempty"`
	AuditorID                *string         `db:"auditor_id" json:"auditorId"`
	QAAuditorID              *string         `db:"qa_auditor_id" json:"qaAuditorId"`
	OrganisationName         string          `db:"organisation_name" json:"organisationName"`
	HomePageURL              string          `db:"home_page_url" json:"homePageUrl"`
	Domain                   string          `db:"domain" json:"domain"`
	WebsiteName              string          `db:"website_name" json:"websiteName"`
	ParentalOrganisationName string          `db:"parental_organisation_name" json:"parentalOrganisationName"`
	EnforcementBody          EnforcementBody `db:"enforcement_body" json:"enforcementBody"`
	IsComplaint              Boolean         `db:"is_complaint" json:"isComplaint"`
	Sector                   *string         `db:"sector" json:"sector"`
	Subcategory              *string         `db:"subcategory" json:"subcategory"`
	Variant                  Variant         `db:"variant" json:"variant"`

	CaseDetailsCompleteDate               *time.Time `db:"case_details_complete_date" json:"caseDetailsCompleteDate"`
	TestingDetailsCompleteDate            *time.Time `db:"testing_details_complete_date" json:"testingDetailsCompleteDate"`
	ReportingDetailsCompleteDate          *time.Time `db:"reporting_details_complete_date" json:"reportingDetailsCompleteDate"`
	QAProcessCompleteDate                 *time.Time `db:"qa_process_complete_date" json:"qaProcessCompleteDate"`
	ContactDetailsCompleteDate            *time.Time `db:"contact_details_complete_date" json:"contactDetailsCompleteDate"`
	ReportCorrespondenceCompleteDate      *time.Time `db:"report_correspondence_complete_date" json:"reportCorrespondenceCompleteDate"`
	TwelveWeekCorrespondenceCompleteDate  *time.Time `db:"twelve_week_correspondence_complete_date" json:"twelveWeekCorrespondenceCompleteDate"`
	ReviewChangesCompleteDate             *time.Time `db:"review_changes_complete_date" json:"reviewChangesCompleteDate"`
	CaseCloseCompleteDate                 *time.Time `db:"case_close_complete_date" json:"caseCloseCompleteDate"`
	EnforcementCorrespondenceCompleteDate *time.Time `db:"enforcement_correspondence_complete_date" json:"enforcementCorrespondenceCompleteDate"`

	ReadyForQA           Boolean              `db:"ready_for_qa" json:"readyForQa"`
	ReportApprovedStatus ReportApprovedStatus `db:"report_approved_status" json:"reportApprovedStatus"`

	ReportSentDate              *time.Time `db:"report_sent_date" json:"reportSentDate"`
	ReportFollowupWeek1SentDate *time.Time `db:"report_followup_week_1_sent_date" json:"reportFollowupWeek1SentDate"`
	ReportFollowupWeek4SentDate *time.Time `db:"report_followup_week_4_sent_date" json:"reportFollowupWeek4SentDate"`
	ReportAcknowledgedDate      *time.Time `db:"report_acknowledged_date" json:"reportAcknowledgedDate"`

	TwelveWeekUpdateRequestedDate            *time.Time `db:"twelve_week_update_requested_date" json:"twelveWeekUpdateRequestedDate"`
	TwelveWeek1WeekChaserSentDate            *time.Time `db:"twelve_week_1_week_chaser_sent_date" json:"twelveWeek1WeekChaserSentDate"`
	TwelveWeek4WeekChaserSentDate            *time.Time `db:"twelve_week_4_week_chaser_sent_date" json:"twelveWeek4WeekChaserSentDate"`
	TwelveWeekCorrespondenceAcknowledgedDate *time.Time `db:"twelve_week_correspondence_acknowledged_date" json:"twelveWeekCorrespondenceAcknowledgedDate"`

	SevenDayNoContactEmailSentDate  *time.Time `db:"seven_day_no_contact_email_sent_date" json:"sevenDayNoContactEmailSentDate"`
	NoContactOneWeekChaserSentDate  *time.Time `db:"no_contact_one_week_chaser_sent_date" json:"noContactOneWeekChaserSentDate"`
	NoContactFourWeekChaserSentDate *time.Time `db:"no_contact_four_week_chaser_sent_date" json:"noContactFourWeekChaserSentDate"`
	NoPSBContact                    Boolean    `db:"no_psb_contact" json:"noPsbContact"`
	NoPSBContactNotes               string     `db:"no_psb_contact_notes" json:"noPsbContactNotes"`
	CorrespondenceNotes             string     `db:"correspondence_notes" json:"correspondenceNotes"`
	EnableCorrespondenceProcess     bool       `db:"enable_correspondence_process" json:"enableCorrespondenceProcess"`

	OrganisationResponse    OrganisationResponse `db:"organisation_response" json:"organisationResponse"`
	IsReadyForFinalDecision Boolean              `db:"is_ready_for_final_decision" json:"isReadyForFinalDecision"`
	CaseCompleted           CaseCompleted        `db:"case_completed" json:"caseCompleted"`
	CompletedDate           *time.Time           `db:"completed_date" json:"completedDate"`
	ComplianceEmailSentDate *time.Time           `db:"compliance_email_sent_date" json:"complianceEmailSentDate"`

	SentToEnforcementBodySentDate      *time.Time                `db:"sent_to_enforcement_body_sent_date" json:"sentToEnforcementBodySentDate"`
	EnforcementBodyPursuing            EnforcementBodyPursuing   `db:"enforcement_body_pursuing" json:"enforcementBodyPursuing"`
	EnforcementBodyClosedCase          EnforcementBodyClosedCase `db:"enforcement_body_closed_case" json:"enforcementBodyClosedCase"`
	EnforcementBodyCorrespondenceNotes string                    `db:"enforcement_body_correspondence_notes" json:"enforcementBodyCorrespondenceNotes"`

	IsDeactivated   bool       `db:"is_deactivated" json:"isDeactivated"`
	DeactivateDate  *time.Time `db:"deactivate_date" json:"deactivateDate"`
	DeactivateNotes string     `db:"deactivate_notes" json:"deactivateNotes"`
	IsDeleted       bool       `db:"is_deleted" json:"isDeleted"`
}

// ApplyDefaults fills the enum fields a new case starts with.
func (c *Case) ApplyDefaults() {
	if c.IsComplaint == "" {
		c.IsComplaint = BooleanNo
	}
	if c.Variant == "" {
		c.Variant = VariantArchived
	}
	if c.ReadyForQA == "" {
		c.ReadyForQA = BooleanNo
	}
	if c.ReportApprovedStatus == "" {
		c.ReportApprovedStatus = ReportApprovedNotStarted
	}
	if c.NoPSBContact == "" {
		c.NoPSBContact = BooleanNo
	}
	if c.OrganisationResponse == "" {
		c.OrganisationResponse = OrganisationResponseNotApplicable
	}
	if c.IsReadyForFinalDecision == "" {
		c.IsReadyForFinalDecision = BooleanNo
	}
	if c.CaseCompleted == "" {
		c.CaseCompleted = CaseCompletedNoDecision
	}
	if c.EnforcementBodyPursuing == "" {
		c.EnforcementBodyPursuing = PursuingNo
	}
	if c.EnforcementBodyClosedCase == "" {
		c.EnforcementBodyClosedCase = ClosedCaseNo
	}
	if c.EnforcementBody == "" {
		c.EnforcementBody = EnforcementBodyEHRC
	}
}

// CaseFilter constrains case listing queries.
type CaseFilter struct {
	AuditorID       string
	QAAuditorID     string
	Statuses        []CaseStatusCode
	EnforcementBody EnforcementBody
	Search          string
	IncludeDeleted  bool
	Limit           int
	Offset          int
}

// CaseCompliance holds the website and statement verdicts of a case.
type CaseCompliance struct {
	ID                              int64               `db:"id" json:"id"`
	CaseID                          int64               `db:"case_id" json:"caseId"`
	Version                         int                 `db:"version" json:"version"`
	WebsiteComplianceStateInitial   WebsiteCompliance   `db:"website_compliance_state_initial" json:"websiteComplianceStateInitial"`
	WebsiteComplianceNotesInitial   string              `db:"website_compliance_notes_initial" json:"websiteComplianceNotesInitial"`
	StatementComplianceStateInitial StatementCompliance `db:"statement_compliance_state_initial" json:"statementComplianceStateInitial"`
	StatementComplianceNotesInitial string              `db:"statement_compliance_notes_initial" json:"statementComplianceNotesInitial"`
	WebsiteComplianceState12Week    WebsiteCompliance   `db:"website_compliance_state_12_week" json:"websiteComplianceState12Week"`
	WebsiteComplianceNotes12Week    string              `db:"website_compliance_notes_12_week" json:"websiteComplianceNotes12Week"`
	StatementComplianceState12Week  StatementCompliance `db:"statement_compliance_state_12_week" json:"statementComplianceState12Week"`
	StatementComplianceNotes12Week  string              `db:"statement_compliance_notes_12_week" json:"statementComplianceNotes12Week"`
}

// NewCaseCompliance returns the compliance record a new case starts with.
func NewCaseCompliance(caseID int64) CaseCompliance {
	return CaseCompliance{
		CaseID:                          caseID,
		Version:                         1,
		WebsiteComplianceStateInitial:   WebsiteNotKnown,
		StatementComplianceStateInitial: StatementUnknown,
		WebsiteComplianceState12Week:    WebsiteNotKnown,
		StatementComplianceState12Week:  StatementUnknown,
	}
}

// Contact is a person at the organisation the case corresponds with.
type Contact struct {
	ID        int64            `db:"id" json:"id"`
	CaseID    int64            `db:"case_id" json:"caseId"`
	Version   int              `db:"version" json:"version"`
	Name      string           `db:"name" json:"name"`
	JobTitle  string           `db:"job_title" json:"jobTitle"`
	Email     string           `db:"email" json:"email"`
	Preferred ContactPreferred `db:"preferred" json:"preferred"`
	IsDeleted bool             `db:"is_deleted" json:"isDeleted"`
	Created   time.Time        `db:"created" json:"created"`
	CreatedBy *string          `db:"created_by" json:"createdBy,omitempty"`
}

// EqualityBodyCorrespondence is one message exchanged with the enforcement body.
type EqualityBodyCorrespondence struct {
	ID           int64                            `db:"id" json:"id"`
	CaseID       int64                            `db:"case_id" json:"caseId"`
	IDWithinCase int                              `db:"id_within_case" json:"idWithinCase"`
	Version      int                              `db:"version" json:"version"`
	Type         EqualityBodyCorrespondenceType   `db:"type" json:"type"`
	Status       EqualityBodyCorrespondenceStatus `db:"status" json:"status"`
	Message      string                           `db:"message" json:"message"`
	Notes        string                           `db:"notes" json:"notes"`
	ZendeskURL   string                           `db:"zendesk_url" json:"zendeskUrl"`
	IsDeleted    bool                             `db:"is_deleted" json:"isDeleted"`
	Created      time.Time                        `db:"created" json:"created"`
	CreatedBy    *string                          `db:"created_by" json:"createdBy,omitempty"`
}

// Report is the authoring root of a case report. Only its existence drives the
// workflow here.
type Report struct {
	ID        int64     `db:"id" json:"id"`
	CaseID    int64     `db:"case_id" json:"caseId"`
	Version   int       `db:"version" json:"version"`
	IsDeleted bool      `db:"is_deleted" json:"isDeleted"`
	Created   time.Time `db:"created" json:"created"`
}

package models

import (
	"strconv"
	"strings"
)

// CaseStatusCode is the wire code of a case lifecycle status. The numeric
// prefix defines the total order.
type CaseStatusCode string

const (
	StatusUnknown                    CaseStatusCode = "000-unknown"
	StatusUnassignedCase             CaseStatusCode = "010-unassigned-case"
	StatusTestInProgress             CaseStatusCode = "020-test-in-progress"
	StatusReportInProgress           CaseStatusCode = "030-report-in-progress"
	StatusUnassignedQACase           CaseStatusCode = "040-unassigned-qa-case"
	StatusQAInProgress               CaseStatusCode = "050-qa-in-progress"
	StatusReportReadyToSend          CaseStatusCode = "060-report-ready-to-send"
	StatusInReportCorrespondence     CaseStatusCode = "070-in-report-correspondence"
	StatusInProbationPeriod          CaseStatusCode = "080-in-probation-period"
	StatusInTwelveWeekCorrespondence CaseStatusCode = "090-in-12-week-correspondence"
	StatusReviewingChanges           CaseStatusCode = "100-reviewing-changes"
	StatusFinalDecisionDue           CaseStatusCode = "110-final-decision-due"
	StatusCaseClosedWaitingToBeSent  CaseStatusCode = "120-case-closed-waiting-to-be-sent"
	StatusCaseClosedSentToEquality   CaseStatusCode = "130-case-closed-sent-to-equalities-body"
	StatusInCorrespondenceEquality   CaseStatusCode = "140-in-correspondence-with-equalities-body"
	StatusComplete                   CaseStatusCode = "150-complete"
	StatusDeactivated                CaseStatusCode = "160-deactivated"
)

// AllStatuses lists every status in order.
var AllStatuses = []CaseStatusCode{
	StatusUnknown,
	StatusUnassignedCase,
	StatusTestInProgress,
	StatusReportInProgress,
	StatusUnassignedQACase,
	StatusQAInProgress,
	StatusReportReadyToSend,
	StatusInReportCorrespondence,
	StatusInProbationPeriod,
	StatusInTwelveWeekCorrespondence,
	StatusReviewingChanges,
	StatusFinalDecisionDue,
	StatusCaseClosedWaitingToBeSent,
	StatusCaseClosedSentToEquality,
	StatusInCorrespondenceEquality,
	StatusComplete,
	StatusDeactivated,
}

var statusLabels = map[CaseStatusCode]string{
	StatusUnknown:                    "Unknown",
	StatusUnassignedCase:             "Unassigned case",
	StatusTestInProgress:             "Test in progress",
	StatusReportInProgress:           "Report in progress",
	StatusUnassignedQACase:           "Report ready to QA",
	StatusQAInProgress:               "QA in progress",
	StatusReportReadyToSend:          "Report ready to send",
	StatusInReportCorrespondence:     "Report sent",
	StatusInProbationPeriod:          "Report acknowledged waiting for 12-week deadline",
	StatusInTwelveWeekCorrespondence: "After 12-week correspondence",
	StatusReviewingChanges:           "Reviewing changes",
	StatusFinalDecisionDue:           "Final decision due",
	StatusCaseClosedWaitingToBeSent:  "Case closed and waiting to be sent to equalities body",
	StatusCaseClosedSentToEquality:   "Case closed and sent to equalities body",
	StatusInCorrespondenceEquality:   "In correspondence with equalities body",
	StatusComplete:                   "Complete",
	StatusDeactivated:                "Deactivated",
}

// Rank returns the numeric prefix, or -1 when the code is malformed.
func (s CaseStatusCode) Rank() int {
	prefix, _, ok := strings.Cut(string(s), "-")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return -1
	}
	return n
}

// Valid reports whether s is one of the known codes.
func (s CaseStatusCode) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable name of the status.
func (s CaseStatusCode) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// MaxStatus returns the later of two statuses under the prefix order.
func MaxStatus(a, b CaseStatusCode) CaseStatusCode {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// CaseStatus holds the derived status of a case and its high-water mark.
type CaseStatus struct {
	ID             int64          `db:"id" json:"id"`
	CaseID         int64          `db:"case_id" json:"caseId"`
	Status         CaseStatusCode `db:"status" json:"status"`
	FarthestStatus CaseStatusCode `db:"farthest_status" json:"farthestStatus"`
}

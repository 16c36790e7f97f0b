package workflow

import (
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// StatusInput is the field graph the status rules read.
type StatusInput struct {
	Case   models.Case
	Audit  *models.Audit
	Report *models.Report
}

func (in StatusInput) auditorAssigned() bool {
	return in.Case.AuditorID != nil && *in.Case.AuditorID != ""
}

func (in StatusInput) qaAuditorAssigned() bool {
	return in.Case.QAAuditorID != nil && *in.Case.QAAuditorID != ""
}

func (in StatusInput) testComplete() bool {
	return in.Audit != nil && !in.Audit.IsDeleted && in.Audit.InitialTestComplete()
}

// Rule maps a predicate over the case graph to the status it implies.
type Rule struct {
	Status models.CaseStatusCode
	Match  func(StatusInput) bool
}

// Rules is the ordered status rule list. Rules are evaluated in ascending
// order and the highest matching status wins.
var Rules = []Rule{
	{models.StatusUnassignedCase, func(in StatusInput) bool {
		return !in.auditorAssigned()
	}},
	{models.StatusTestInProgress, func(in StatusInput) bool {
		return in.auditorAssigned() && !in.testComplete()
	}},
	{models.StatusReportInProgress, func(in StatusInput) bool {
		return in.auditorAssigned() && in.testComplete() && in.Case.ReadyForQA != models.BooleanYes
	}},
	{models.StatusUnassignedQACase, func(in StatusInput) bool {
		return in.auditorAssigned() && in.testComplete() &&
			in.Case.ReadyForQA == models.BooleanYes &&
			!in.qaAuditorAssigned() &&
			in.Case.ReportApprovedStatus != models.ReportApprovedYes
	}},
	{models.StatusQAInProgress, func(in StatusInput) bool {
		return in.auditorAssigned() && in.testComplete() &&
			in.Case.ReadyForQA == models.BooleanYes &&
			in.qaAuditorAssigned() &&
			in.Case.ReportApprovedStatus != models.ReportApprovedYes
	}},
	{models.StatusReportReadyToSend, func(in StatusInput) bool {
		return in.auditorAssigned() &&
			in.Case.ReportApprovedStatus == models.ReportApprovedYes &&
			in.Case.ReportSentDate == nil
	}},
	{models.StatusInReportCorrespondence, func(in StatusInput) bool {
		return in.auditorAssigned() &&
			in.Case.ReportSentDate != nil &&
			in.Case.ReportAcknowledgedDate == nil
	}},
	{models.StatusInProbationPeriod, func(in StatusInput) bool {
		return in.auditorAssigned() &&
			in.Case.ReportAcknowledgedDate != nil &&
			in.Case.TwelveWeekUpdateRequestedDate == nil &&
			in.Case.TwelveWeekCorrespondenceAcknowledgedDate == nil
	}},
	{models.StatusInTwelveWeekCorrespondence, func(in StatusInput) bool {
		return in.auditorAssigned() &&
			in.Case.TwelveWeekUpdateRequestedDate != nil &&
			in.Case.TwelveWeekCorrespondenceAcknowledgedDate == nil &&
			in.Case.OrganisationResponse == models.OrganisationResponseNotApplicable
	}},
	{models.StatusReviewingChanges, func(in StatusInput) bool {
		return in.auditorAssigned() &&
			(in.Case.TwelveWeekCorrespondenceAcknowledgedDate != nil ||
				in.Case.OrganisationResponse != models.OrganisationResponseNotApplicable) &&
			in.Case.IsReadyForFinalDecision != models.BooleanYes
	}},
	{models.StatusFinalDecisionDue, func(in StatusInput) bool {
		return (in.Case.IsReadyForFinalDecision == models.BooleanYes &&
			in.Case.CaseCompleted == models.CaseCompletedNoDecision) ||
			in.Case.NoPSBContact == models.BooleanYes
	}},
	{models.StatusCaseClosedWaitingToBeSent, func(in StatusInput) bool {
		return in.Case.CaseCompleted == models.CaseCompletedSend &&
			in.Case.SentToEnforcementBodySentDate == nil
	}},
	{models.StatusCaseClosedSentToEquality, func(in StatusInput) bool {
		return in.Case.SentToEnforcementBodySentDate != nil
	}},
	{models.StatusInCorrespondenceEquality, func(in StatusInput) bool {
		return in.Case.EnforcementBodyPursuing == models.PursuingYesInProgress ||
			in.Case.EnforcementBodyClosedCase == models.ClosedCaseInProgress
	}},
	{models.StatusComplete, func(in StatusInput) bool {
		return in.Case.CaseCompleted == models.CaseCompletedNoSend ||
			in.Case.EnforcementBodyPursuing == models.PursuingYesCompleted ||
			in.Case.EnforcementBodyClosedCase == models.ClosedCaseYes
	}},
	{models.StatusDeactivated, func(in StatusInput) bool {
		return in.Case.IsDeactivated
	}},
}

// ComputeStatus evaluates the rule list. When nothing matches the previous
// status is kept, or the case is treated as unassigned when there is none.
func ComputeStatus(in StatusInput, previous models.CaseStatusCode) models.CaseStatusCode {
	result := models.StatusUnknown
	for _, rule := range Rules {
		if rule.Status.Rank() > result.Rank() && rule.Match(in) {
			result = rule.Status
		}
	}
	if result != models.StatusUnknown {
		return result
	}
	if previous.Valid() && previous != models.StatusUnknown {
		return previous
	}
	return models.StatusUnassignedCase
}

// Recompute derives the next CaseStatus row from the previous one. The
// farthest status never regresses.
func Recompute(previous models.CaseStatus, in StatusInput) models.CaseStatus {
	next := previous
	next.Status = ComputeStatus(in, previous.Status)
	farthest := previous.FarthestStatus
	if !farthest.Valid() {
		farthest = models.StatusUnknown
	}
	next.FarthestStatus = models.MaxStatus(farthest, next.Status)
	return next
}

// MatchingStatuses lists every status whose rule currently holds, in order.
func MatchingStatuses(in StatusInput) []models.CaseStatusCode {
	matches := make([]models.CaseStatusCode, 0, 2)
	for _, rule := range Rules {
		if rule.Match(in) {
			matches = append(matches, rule.Status)
		}
	}
	return matches
}

var transitions = map[models.CaseStatusCode][]models.CaseStatusCode{
	models.StatusUnknown:                    {models.StatusUnassignedCase},
	models.StatusUnassignedCase:             {models.StatusTestInProgress, models.StatusFinalDecisionDue},
	models.StatusTestInProgress:             {models.StatusReportInProgress, models.StatusUnassignedCase, models.StatusFinalDecisionDue},
	models.StatusReportInProgress:           {models.StatusUnassignedQACase, models.StatusQAInProgress, models.StatusTestInProgress, models.StatusFinalDecisionDue},
	models.StatusUnassignedQACase:           {models.StatusQAInProgress, models.StatusReportInProgress},
	models.StatusQAInProgress:               {models.StatusReportReadyToSend, models.StatusUnassignedQACase, models.StatusReportInProgress},
	models.StatusReportReadyToSend:          {models.StatusInReportCorrespondence, models.StatusQAInProgress, models.StatusFinalDecisionDue},
	models.StatusInReportCorrespondence:     {models.StatusInProbationPeriod, models.StatusReportReadyToSend, models.StatusFinalDecisionDue},
	models.StatusInProbationPeriod:          {models.StatusInTwelveWeekCorrespondence, models.StatusReviewingChanges, models.StatusInReportCorrespondence},
	models.StatusInTwelveWeekCorrespondence: {models.StatusReviewingChanges, models.StatusInProbationPeriod},
	models.StatusReviewingChanges:           {models.StatusFinalDecisionDue, models.StatusInTwelveWeekCorrespondence},
	models.StatusFinalDecisionDue:           {models.StatusCaseClosedWaitingToBeSent, models.StatusComplete, models.StatusReviewingChanges},
	models.StatusCaseClosedWaitingToBeSent:  {models.StatusCaseClosedSentToEquality, models.StatusComplete, models.StatusFinalDecisionDue},
	models.StatusCaseClosedSentToEquality:   {models.StatusInCorrespondenceEquality, models.StatusComplete, models.StatusCaseClosedWaitingToBeSent},
	models.StatusInCorrespondenceEquality:   {models.StatusComplete, models.StatusCaseClosedSentToEquality},
	models.StatusComplete:                   {models.StatusInCorrespondenceEquality},
}

// AllowedTransitions returns the statuses reachable from status in one
// workflow step. Deactivation is reachable from every status and reactivation
// returns to whatever the rules derive.
func AllowedTransitions(status models.CaseStatusCode) []models.CaseStatusCode {
	if status == models.StatusDeactivated {
		out := make([]models.CaseStatusCode, 0, len(models.AllStatuses))
		for _, s := range models.AllStatuses {
			if s != models.StatusUnknown && s != models.StatusDeactivated {
				out = append(out, s)
			}
		}
		return out
	}
	next := append([]models.CaseStatusCode{}, transitions[status]...)
	return append(next, models.StatusDeactivated)
}

// QAStatus derives the QA sub-status of a case.
func QAStatus(c models.Case) models.QAStatus {
	switch {
	case c.ReadyForQA == models.BooleanYes && c.ReportApprovedStatus != models.ReportApprovedYes &&
		(c.QAAuditorID == nil || *c.QAAuditorID == ""):
		return models.QAStatusUnassigned
	case c.ReadyForQA == models.BooleanYes && c.ReportApprovedStatus != models.ReportApprovedYes:
		return models.QAStatusInQA
	case c.ReadyForQA == models.BooleanYes && c.ReportApprovedStatus == models.ReportApprovedYes:
		return models.QAStatusApproved
	}
	return models.QAStatusUnknown
}

package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

// CaseSection names an editable group of case fields.
type CaseSection string

const (
	SectionCaseDetails               CaseSection = "case-details"
	SectionTestingDetails            CaseSection = "testing-details"
	SectionReportingDetails          CaseSection = "reporting-details"
	SectionQAProcess                 CaseSection = "qa-process"
	SectionContactDetails            CaseSection = "contact-details"
	SectionReportCorrespondence      CaseSection = "report-correspondence"
	SectionTwelveWeekCorrespondence  CaseSection = "twelve-week-correspondence"
	SectionReviewChanges             CaseSection = "review-changes"
	SectionCaseClose                 CaseSection = "case-close"
	SectionEnforcementCorrespondence CaseSection = "enforcement-correspondence"
	SectionDeactivate                CaseSection = "deactivate"
)

// sectionFields lists the json keys each section may patch.
var sectionFields = map[CaseSection][]string{
	SectionCaseDetails: {
		"auditorId", "organisationName", "homePageUrl", "domain", "websiteName",
		"parentalOrganisationName", "enforcementBody", "isComplaint", "sector", "subcategory",
	},
	SectionTestingDetails:   {},
	SectionReportingDetails: {},
	SectionQAProcess:        {"readyForQa", "qaAuditorId", "reportApprovedStatus"},
	SectionContactDetails:   {"noPsbContact", "noPsbContactNotes"},
	SectionReportCorrespondence: {
		"sevenDayNoContactEmailSentDate", "noContactOneWeekChaserSentDate", "noContactFourWeekChaserSentDate",
		"reportSentDate", "reportFollowupWeek1SentDate", "reportFollowupWeek4SentDate",
		"reportAcknowledgedDate", "correspondenceNotes",
	},
	SectionTwelveWeekCorrespondence: {
		"twelveWeekUpdateRequestedDate", "twelveWeek1WeekChaserSentDate", "twelveWeek4WeekChaserSentDate",
		"twelveWeekCorrespondenceAcknowledgedDate", "organisationResponse",
	},
	SectionReviewChanges: {"isReadyForFinalDecision"},
	SectionCaseClose:     {"caseCompleted", "complianceEmailSentDate"},
	SectionEnforcementCorrespondence: {
		"sentToEnforcementBodySentDate", "enforcementBodyPursuing", "enforcementBodyClosedCase",
		"enforcementBodyCorrespondenceNotes",
	},
	SectionDeactivate: {"isDeactivated", "deactivateDate", "deactivateNotes"},
}

// completionField returns the dated completion field of a section, or nil
// when the section carries none.
func completionField(c *models.Case, section CaseSection) **time.Time {
	switch section {
	case SectionCaseDetails:
		return &c.CaseDetailsCompleteDate
	case SectionTestingDetails:
		return &c.TestingDetailsCompleteDate
	case SectionReportingDetails:
		return &c.ReportingDetailsCompleteDate
	case SectionQAProcess:
		return &c.QAProcessCompleteDate
	case SectionContactDetails:
		return &c.ContactDetailsCompleteDate
	case SectionReportCorrespondence:
		return &c.ReportCorrespondenceCompleteDate
	case SectionTwelveWeekCorrespondence:
		return &c.TwelveWeekCorrespondenceCompleteDate
	case SectionReviewChanges:
		return &c.ReviewChangesCompleteDate
	case SectionCaseClose:
		return &c.CaseCloseCompleteDate
	case SectionEnforcementCorrespondence:
		return &c.EnforcementCorrespondenceCompleteDate
	}
	return nil
}

// applyPatch overlays the whitelisted keys of patch onto a copy of c.
func applyPatch(c models.Case, section CaseSection, patch map[string]json.RawMessage) (models.Case, error) {
	allowed, ok := sectionFields[section]
	if !ok {
		return c, appErrors.Clone(appErrors.ErrNotFound, "unknown case section")
	}
	permitted := make(map[string]struct{}, len(allowed))
	for _, key := range allowed {
		permitted[key] = struct{}{}
	}
	rejected := map[string]string{}
	for key := range patch {
		if _, ok := permitted[key]; !ok {
			rejected[key] = "not editable in " + string(section)
		}
	}
	if len(rejected) > 0 {
		return c, appErrors.WithDetails(appErrors.ErrValidation, "invalid payload", rejected)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode case")
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode case")
	}
	for key, value := range patch {
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode case")
	}
	var next models.Case
	if err := json.Unmarshal(merged, &next); err != nil {
		return c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return next, nil
}

type enumCheck struct {
	field string
	value string
	tag   string
}

// validateCase checks the URL and enum fields of a case.
func validateCase(v *validator.Validate, c models.Case) error {
	checks := []enumCheck{
		{"homePageUrl", c.HomePageURL, "required,url"},
		{"organisationName", c.OrganisationName, "required"},
		{"enforcementBody", string(c.EnforcementBody), "oneof=ehrc ecni"},
		{"isComplaint", string(c.IsComplaint), "oneof=yes no"},
		{"readyForQa", string(c.ReadyForQA), "oneof=yes no"},
		{"reportApprovedStatus", string(c.ReportApprovedStatus), "oneof=yes in-progress not-started"},
		{"noPsbContact", string(c.NoPSBContact), "oneof=yes no"},
		{"organisationResponse", string(c.OrganisationResponse), "oneof=not-applicable no-response"},
		{"isReadyForFinalDecision", string(c.IsReadyForFinalDecision), "oneof=yes no"},
		{"caseCompleted", string(c.CaseCompleted), "oneof=complete-send complete-no-send no-decision"},
		{"enforcementBodyPursuing", string(c.EnforcementBodyPursuing), "oneof=yes-completed yes-in-progress no"},
		{"enforcementBodyClosedCase", string(c.EnforcementBodyClosedCase), "oneof=yes in-progress no"},
		{"variant", string(c.Variant), "oneof=close-case statement-content reporting archived"},
	}
	details := map[string]string{}
	for _, check := range checks {
		if err := v.Var(check.value, check.tag); err != nil {
			var fieldErrors validator.ValidationErrors
			if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
				details[check.field] = fieldErrors[0].Tag()
				continue
			}
			details[check.field] = "invalid"
		}
	}
	if len(details) > 0 {
		return appErrors.WithDetails(appErrors.ErrValidation, "invalid payload", details)
	}
	return nil
}

package dto

import (
	"encoding/json"
	"time"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// CreateCaseRequest defines the payload for opening a case.
type CreateCaseRequest struct {
	OrganisationName         string                 `json:"organisationName" validate:"required"`
	HomePageURL              string                 `json:"homePageUrl" validate:"required,url"`
	WebsiteName              string                 `json:"websiteName"`
	ParentalOrganisationName string                 `json:"parentalOrganisationName"`
	EnforcementBody          models.EnforcementBody `json:"enforcementBody" validate:"omitempty,oneof=ehrc ecni"`
	IsComplaint              models.Boolean         `json:"isComplaint" validate:"omitempty,oneof=yes no"`
	Sector                   *string                `json:"sector"`
	Subcategory              *string                `json:"subcategory"`
	AuditorID                *string                `json:"auditorId"`
}

// UpdateCaseSectionRequest patches the fields owned by one case section.
type UpdateCaseSectionRequest struct {
	Version int                        `json:"version" validate:"required,min=1"`
	Fields  map[string]json.RawMessage `json:"fields" validate:"required"`
}

// SetCompletionRequest sets or, with a nil date, clears a completion date.
type SetCompletionRequest struct {
	Version int        `json:"version" validate:"required,min=1"`
	Date    *time.Time `json:"date"`
}

// RecordCorrespondenceRequest stamps one correspondence step.
type RecordCorrespondenceRequest struct {
	Version int        `json:"version" validate:"required,min=1"`
	Step    string     `json:"step" validate:"required"`
	Date    *time.Time `json:"date"`
}

// VersionRequest carries only the optimistic version of the target row.
type VersionRequest struct {
	Version int `json:"version" validate:"required,min=1"`
}

// UpdateComplianceRequest replaces the stored website and statement verdicts.
type UpdateComplianceRequest struct {
	Version                         int                        `json:"version" validate:"required,min=1"`
	WebsiteComplianceStateInitial   models.WebsiteCompliance   `json:"websiteComplianceStateInitial" validate:"required,oneof=compliant partially-compliant not-known"`
	WebsiteComplianceNotesInitial   string                     `json:"websiteComplianceNotesInitial"`
	StatementComplianceStateInitial models.StatementCompliance `json:"statementComplianceStateInitial" validate:"required,oneof=compliant not-compliant unknown"`
	StatementComplianceNotesInitial string                     `json:"statementComplianceNotesInitial"`
	WebsiteComplianceState12Week    models.WebsiteCompliance   `json:"websiteComplianceState12Week" validate:"required,oneof=compliant partially-compliant not-known"`
	WebsiteComplianceNotes12Week    string                     `json:"websiteComplianceNotes12Week"`
	StatementComplianceState12Week  models.StatementCompliance `json:"statementComplianceState12Week" validate:"required,oneof=compliant not-compliant unknown"`
	StatementComplianceNotes12Week  string                     `json:"statementComplianceNotes12Week"`
}

// ContactRequest defines payload for creating a contact.
type ContactRequest struct {
	Name      string                  `json:"name"`
	JobTitle  string                  `json:"jobTitle"`
	Email     string                  `json:"email" validate:"omitempty,email"`
	Preferred models.ContactPreferred `json:"preferred" validate:"omitempty,oneof=yes no unknown"`
}

// UpdateContactRequest is a versioned contact edit.
type UpdateContactRequest struct {
	Version int `json:"version" validate:"required,min=1"`
	ContactRequest
}

// EqualityBodyCorrespondenceRequest records a message from the enforcement body.
type EqualityBodyCorrespondenceRequest struct {
	Type       models.EqualityBodyCorrespondenceType `json:"type" validate:"omitempty,oneof=question retest"`
	Message    string                                `json:"message" validate:"required"`
	Notes      string                                `json:"notes"`
	ZendeskURL string                                `json:"zendeskUrl" validate:"omitempty,url"`
}

// UpdateEqualityBodyCorrespondenceRequest is a versioned correspondence edit.
type UpdateEqualityBodyCorrespondenceRequest struct {
	Version    int                                     `json:"version" validate:"required,min=1"`
	Status     models.EqualityBodyCorrespondenceStatus `json:"status" validate:"required,oneof=outstanding resolved"`
	Message    string                                  `json:"message" validate:"required"`
	Notes      string                                  `json:"notes"`
	ZendeskURL string                                  `json:"zendeskUrl" validate:"omitempty,url"`
}

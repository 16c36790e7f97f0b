package models

import "time"

// WcagDefinition is one WCAG test from the reference catalogue.
type WcagDefinition struct {
	ID                int64              `db:"id" json:"id"`
	Type              WcagDefinitionType `db:"type" json:"type"`
	Name              string             `db:"name" json:"name"`
	Description       string             `db:"description" json:"description"`
	Hint              string             `db:"hint" json:"hint"`
	URLOnW3           string             `db:"url_on_w3" json:"urlOnW3"`
	ReportBoilerplate string             `db:"report_boilerplate" json:"reportBoilerplate"`
	DateStart         *time.Time         `db:"date_start" json:"dateStart"`
	DateEnd           *time.Time         `db:"date_end" json:"dateEnd"`
}

// ActiveOn reports whether the definition applies to tests started on day.
func (w WcagDefinition) ActiveOn(day time.Time) bool {
	if w.DateStart != nil && day.Before(*w.DateStart) {
		return false
	}
	if w.DateEnd != nil && !day.Before(*w.DateEnd) {
		return false
	}
	return true
}

// StatementCheck is one question of the accessibility statement question bank.
type StatementCheck struct {
	ID              int64              `db:"id" json:"id"`
	IssueNumber     int                `db:"issue_number" json:"issueNumber"`
	Type            StatementCheckType `db:"type" json:"type"`
	Label           string             `db:"label" json:"label"`
	SuccessCriteria string             `db:"success_criteria" json:"successCriteria"`
	ReportText      string             `db:"report_text" json:"reportText"`
	Position        int                `db:"position" json:"position"`
	DateStart       *time.Time         `db:"date_start" json:"dateStart"`
	DateEnd         *time.Time         `db:"date_end" json:"dateEnd"`
	IsDeleted       bool               `db:"is_deleted" json:"isDeleted"`
}

// ActiveOn reports whether the question applies to audits created on day.
func (s StatementCheck) ActiveOn(day time.Time) bool {
	if s.IsDeleted {
		return false
	}
	if s.DateStart != nil && day.Before(*s.DateStart) {
		return false
	}
	if s.DateEnd != nil && !day.Before(*s.DateEnd) {
		return false
	}
	return true
}

// Catalogue bundles the active reference data used when building an audit.
type Catalogue struct {
	WcagDefinitions []WcagDefinition `json:"wcagDefinitions"`
	StatementChecks []StatementCheck `json:"statementChecks"`
}

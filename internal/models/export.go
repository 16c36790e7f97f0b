package models

import "time"

// Export is a cohort of closed cases handed to an enforcement body.
type Export struct {
	ID              int64           `db:"id" json:"id"`
	CutoffDate      time.Time       `db:"cutoff_date" json:"cutoffDate"`
	EnforcementBody EnforcementBody `db:"enforcement_body" json:"enforcementBody"`
	Status          ExportStatus    `db:"status" json:"status"`
	ExporterID      string          `db:"exporter_id" json:"exporterId"`
	ExportDate      *time.Time      `db:"export_date" json:"exportDate"`
	IsDeleted       bool            `db:"is_deleted" json:"isDeleted"`
	Created         time.Time       `db:"created" json:"created"`
}

// ExportCase is the membership of one case within an export.
type ExportCase struct {
	ID               int64            `db:"id" json:"id"`
	ExportID         int64            `db:"export_id" json:"exportId"`
	CaseID           int64            `db:"case_id" json:"caseId"`
	Status           ExportCaseStatus `db:"status" json:"status"`
	OrganisationName string           `db:"organisation_name" json:"organisationName"`
	HomePageURL      string           `db:"home_page_url" json:"homePageUrl"`
}

// ExportFilter constrains export listing queries.
type ExportFilter struct {
	EnforcementBody EnforcementBody
	Status          ExportStatus
	Limit           int
	Offset          int
}

package dto

import (
	"time"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// CreateExportRequest opens an export batch.
type CreateExportRequest struct {
	CutoffDate      time.Time              `json:"cutoffDate" validate:"required"`
	EnforcementBody models.EnforcementBody `json:"enforcementBody" validate:"required,oneof=ehrc ecni"`
}

// SetExportCaseStatusRequest tags a case within a batch.
type SetExportCaseStatusRequest struct {
	Status models.ExportCaseStatus `json:"status" validate:"required,oneof=unready ready excluded"`
}

// MarkExportedRequest stamps the export date of a batch.
type MarkExportedRequest struct {
	ExportDate *time.Time `json:"exportDate"`
}

// RenderExportRequest selects the file format of a rendered batch.
type RenderExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportFile describes a rendered batch file and its signed download link.
type ExportFile struct {
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rows      int       `json:"rows"`
}

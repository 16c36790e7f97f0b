package dto

import (
	"time"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// DeprecateWcagRequest closes the active window of a definition.
type DeprecateWcagRequest struct {
	DateEnd time.Time `json:"dateEnd" validate:"required"`
}

// UpdateStatementCheckRequest edits a statement question.
type UpdateStatementCheckRequest struct {
	Type            models.StatementCheckType `json:"type" validate:"required,oneof=overview website compliance non-accessible preparation feedback enforcement custom other 12-week"`
	Label           string                    `json:"label" validate:"required"`
	SuccessCriteria string                    `json:"successCriteria"`
	ReportText      string                    `json:"reportText"`
	Position        int                       `json:"position" validate:"min=0"`
	DateStart       *time.Time                `json:"dateStart"`
	DateEnd         *time.Time                `json:"dateEnd"`
}

// SeedResult summarises a catalogue seed load.
type SeedResult struct {
	Upserted int `json:"upserted"`
}

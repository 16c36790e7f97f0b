package dto

import (
	"time"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// CreateTaskRequest defines payload for a user task.
type CreateTaskRequest struct {
	UserID      string          `json:"userId" validate:"required"`
	CaseID      *int64          `json:"caseId"`
	Type        models.TaskType `json:"type" validate:"required,oneof=qa-comment report-approved reminder overdue postcase"`
	Date        time.Time       `json:"date" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Action      string          `json:"action"`
}

// SetReminderRequest replaces the reminder of the caller on a case.
type SetReminderRequest struct {
	CaseID      int64     `json:"caseId" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Description string    `json:"description" validate:"required"`
}

// ReminderBatchResult summarises the weekly reminder mail run.
type ReminderBatchResult struct {
	Ran         bool     `json:"ran"`
	UsersMailed int      `json:"usersMailed"`
	Failures    int      `json:"failures"`
	FailedUsers []string `json:"failedUsers,omitempty"`
}

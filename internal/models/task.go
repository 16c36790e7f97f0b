package models

import "time"

// DefaultTaskAction is stored when a task carries no explicit call to action.
const DefaultTaskAction = "N/A"

// Task is a dated notification for a user, optionally about a case.
type Task struct {
	ID          int64      `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"userId"`
	CaseID      *int64     `db:"case_id" json:"caseId"`
	Type        TaskType   `db:"type" json:"type"`
	Date        time.Time  `db:"date" json:"date"`
	Description string     `db:"description" json:"description"`
	Read        bool       `db:"read" json:"read"`
	Action      string     `db:"action" json:"action"`
	Created     time.Time  `db:"created" json:"created"`
	Updated     *time.Time `db:"updated" json:"updated,omitempty"`
}

// TaskFilter constrains task listing queries.
type TaskFilter struct {
	UserID      string
	CaseID      *int64
	Type        TaskType
	IncludeRead bool
	DueBy       *time.Time
	Limit       int
	Offset      int
}

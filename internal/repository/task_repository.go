package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

var taskColumns = []string{
	"id", "user_id", "case_id", "type", "date", "description", "read", "action", "created", "updated",
}

var (
	taskInsertQuery = insertReturning("tasks", without(taskColumns, "id", "created"))
	taskUpdateQuery = "UPDATE tasks SET date = :date, description = :description, read = :read, action = :action, updated = :updated WHERE id = :id"
)

// TaskRepository persists tasks and reminders.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, exec sqlx.ExtContext, task *models.Task) error {
	if task.Action == "" {
		task.Action = models.DefaultTaskAction
	}
	if err := namedInsert(ctx, r.exec(exec), taskInsertQuery, task, &task.ID, &task.Created); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Get loads a task by id.
func (r *TaskRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Task, error) {
	var task models.Task
	if err := sqlx.GetContext(ctx, r.exec(exec), &task, selectFrom("tasks", taskColumns)+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update writes the mutable columns of a task.
func (r *TaskRepository) Update(ctx context.Context, exec sqlx.ExtContext, task *models.Task) error {
	now := time.Now().UTC()
	task.Updated = &now
	return namedExecAffected(ctx, r.exec(exec), taskUpdateQuery, task)
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	return execAffected(ctx, r.exec(exec), `DELETE FROM tasks WHERE id = $1`, id)
}

// List returns tasks matching the filter, soonest first.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.CaseID != nil {
		args = append(args, *filter.CaseID)
		conditions = append(conditions, fmt.Sprintf("case_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if !filter.IncludeRead {
		conditions = append(conditions, "read = FALSE")
	}
	if filter.DueBy != nil {
		args = append(args, *filter.DueBy)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}

	query := selectFrom("tasks", taskColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY date, id LIMIT %d OFFSET %d", limit, offset)

	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListDue returns every unread task of the given type dated on or before day.
func (r *TaskRepository) ListDue(ctx context.Context, taskType models.TaskType, day time.Time) ([]models.Task, error) {
	query := selectFrom("tasks", taskColumns) + " WHERE type = $1 AND read = FALSE AND date <= $2 ORDER BY user_id, date, id"
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, taskType, day); err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

// DeleteForCase removes unread tasks of one type attached to a case.
func (r *TaskRepository) DeleteForCase(ctx context.Context, exec sqlx.ExtContext, caseID int64, taskType models.TaskType) (int64, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM tasks WHERE case_id = $1 AND type = $2 AND read = FALSE`, caseID, taskType)
	if err != nil {
		return 0, fmt.Errorf("delete case tasks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete case tasks rows affected: %w", err)
	}
	return affected, nil
}

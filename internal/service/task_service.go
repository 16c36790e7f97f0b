package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/jobs"
)

const reminderMailJob = "reminder-mail"

type taskStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, task *models.Task) error
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Task, error)
	Update(ctx context.Context, exec sqlx.ExtContext, task *models.Task) error
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	ListDue(ctx context.Context, taskType models.TaskType, day time.Time) ([]models.Task, error)
}

// TaskServiceConfig configures reminder mail delivery.
type TaskServiceConfig struct {
	EmailFrom   string
	MailWorkers int
	MailRetries int
	RetryDelay  time.Duration
}

// TaskService manages user tasks and reminders and mails the weekly digest.
type TaskService struct {
	db        txProvider
	tasks     taskStore
	events    *EventLog
	mailer    Mailer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TaskServiceConfig
	now       func() time.Time
}

// NewTaskService constructs the task service. A nil mailer logs digests.
func NewTaskService(db txProvider, tasks taskStore, events *EventLog, mailer Mailer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg TaskServiceConfig) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	if cfg.MailWorkers <= 0 {
		cfg.MailWorkers = 2
	}
	return &TaskService{
		db:        db,
		tasks:     tasks,
		events:    events,
		mailer:    mailer,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a task.
func (s *TaskService) Create(ctx context.Context, req dto.CreateTaskRequest, user models.UserHandle) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	task := &models.Task{
		UserID:      req.UserID,
		CaseID:      req.CaseID,
		Type:        req.Type,
		Date:        req.Date,
		Description: req.Description,
		Action:      req.Action,
	}
	if task.Action == "" {
		task.Action = models.DefaultTaskAction
	}
	err := s.write(ctx, user, func(ctx context.Context, tx *sqlx.Tx, batch *EventBatch) error {
		return s.insert(ctx, tx, batch, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List returns tasks matching the filter.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "list tasks")
	}
	return tasks, nil
}

// ListDue returns the unread tasks of user dated today or earlier.
func (s *TaskService) ListDue(ctx context.Context, userID string, today time.Time) ([]models.Task, error) {
	day := endOfDay(today)
	return s.List(ctx, models.TaskFilter{UserID: userID, DueBy: &day})
}

// MarkRead marks a task read. Marking a read task again changes nothing.
func (s *TaskService) MarkRead(ctx context.Context, id int64, user models.UserHandle) (*models.Task, error) {
	var task *models.Task
	err := s.write(ctx, user, func(ctx context.Context, tx *sqlx.Tx, batch *EventBatch) error {
		before, err := s.tasks.Get(ctx, tx, id)
		if err != nil {
			return storeError(err, "task")
		}
		if before.Read {
			task = before
			return nil
		}
		after := *before
		after.Read = true
		if err := s.tasks.Update(ctx, tx, &after); err != nil {
			return storeError(err, "update task")
		}
		task = &after
		return batch.Updated(ctx, models.ContentTask, id, before, &after)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SetReminder replaces the unread reminder of the caller on a case.
func (s *TaskService) SetReminder(ctx context.Context, req dto.SetReminderRequest, user models.UserHandle) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if user.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "reminders need a user")
	}
	caseID := req.CaseID
	task := &models.Task{
		UserID:      user.ID,
		CaseID:      &caseID,
		Type:        models.TaskReminder,
		Date:        req.Date,
		Description: req.Description,
		Action:      models.DefaultTaskAction,
	}
	err := s.write(ctx, user, func(ctx context.Context, tx *sqlx.Tx, batch *EventBatch) error {
		if err := s.retireReminders(ctx, tx, batch, user.ID, caseID); err != nil {
			return err
		}
		return s.insert(ctx, tx, batch, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteReminder marks the caller's reminder on a case read.
func (s *TaskService) DeleteReminder(ctx context.Context, caseID int64, user models.UserHandle) error {
	return s.write(ctx, user, func(ctx context.Context, tx *sqlx.Tx, batch *EventBatch) error {
		return s.retireReminders(ctx, tx, batch, user.ID, caseID)
	})
}

// EmailAllDue mails every user a digest of their due reminders. It only runs
// on Mondays; on other days it reports Ran=false.
func (s *TaskService) EmailAllDue(ctx context.Context, today time.Time) (*dto.ReminderBatchResult, error) {
	result := &dto.ReminderBatchResult{}
	if today.Weekday() != time.Monday {
		s.logger.Info("reminder mail skipped", zap.String("weekday", today.Weekday().String()))
		return result, nil
	}
	result.Ran = true

	due, err := s.tasks.ListDue(ctx, models.TaskReminder, endOfDay(today))
	if err != nil {
		return nil, storeError(err, "list due reminders")
	}
	byUser := make(map[string][]models.Task)
	order := make([]string, 0)
	for _, task := range due {
		if _, seen := byUser[task.UserID]; !seen {
			order = append(order, task.UserID)
		}
		byUser[task.UserID] = append(byUser[task.UserID], task)
	}
	if len(order) == 0 {
		return result, nil
	}

	queue := jobs.NewQueue(reminderMailJob, s.sendDigest, jobs.QueueConfig{
		Workers:    s.cfg.MailWorkers,
		BufferSize: len(order),
		MaxRetries: s.cfg.MailRetries,
		RetryDelay: s.cfg.RetryDelay,
		Logger:     s.logger,
	})
	queue.Start(ctx)
	defer queue.Stop()

	enqueueFailures := 0
	for _, userID := range order {
		job := jobs.Job[ReminderMail]{
			ID:      userID,
			Payload: ReminderMail{From: s.cfg.EmailFrom, UserID: userID, Tasks: byUser[userID]},
		}
		if err := queue.Enqueue(job); err != nil {
			enqueueFailures++
			result.FailedUsers = append(result.FailedUsers, userID)
			s.metrics.RecordReminderMail(false)
			s.logger.Warn("enqueue reminder mail", zap.String("userId", userID), zap.Error(err))
		}
	}
	done, err := queue.Drain(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reminder mail interrupted")
	}
	result.UsersMailed = done.Succeeded
	result.Failures = len(done.Failed) + enqueueFailures
	result.FailedUsers = append(result.FailedUsers, done.Failed...)
	s.logger.Info("reminder mail finished",
		zap.String("date", today.Format(seedDateLayout)),
		zap.Int("users", len(order)),
		zap.Int("mailed", result.UsersMailed),
		zap.Int("failures", result.Failures),
		zap.Strings("failedUsers", result.FailedUsers))
	return result, nil
}

func (s *TaskService) sendDigest(ctx context.Context, job jobs.Job[ReminderMail]) error {
	err := s.mailer.SendReminders(ctx, job.Payload)
	s.metrics.RecordReminderMail(err == nil)
	return err
}

func (s *TaskService) retireReminders(ctx context.Context, tx *sqlx.Tx, batch *EventBatch, userID string, caseID int64) error {
	current, err := s.tasks.List(ctx, models.TaskFilter{UserID: userID, CaseID: &caseID, Type: models.TaskReminder})
	if err != nil {
		return storeError(err, "list reminders")
	}
	for i := range current {
		before := current[i]
		after := before
		after.Read = true
		if err := s.tasks.Update(ctx, tx, &after); err != nil {
			return storeError(err, "update reminder")
		}
		if err := batch.Updated(ctx, models.ContentTask, after.ID, &before, &after); err != nil {
			return err
		}
	}
	return nil
}

func (s *TaskService) insert(ctx context.Context, tx *sqlx.Tx, batch *EventBatch, task *models.Task) error {
	if err := s.tasks.Create(ctx, tx, task); err != nil {
		return storeError(err, "create task")
	}
	return batch.Created(ctx, models.ContentTask, task.ID, task)
}

func (s *TaskService) write(ctx context.Context, user models.UserHandle, fn func(ctx context.Context, tx *sqlx.Tx, batch *EventBatch) error) error {
	var batch *EventBatch
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		batch = s.events.Begin(tx, user)
		return fn(ctx, tx, batch)
	})
	if err != nil {
		return err
	}
	s.events.Publish(ctx, batch)
	return nil
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, day.Location())
}

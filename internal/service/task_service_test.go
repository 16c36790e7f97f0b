package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

type taskStoreStub struct {
	mu     sync.Mutex
	tasks  map[int64]models.Task
	nextID int64
}

func newTaskStoreStub(tasks ...models.Task) *taskStoreStub {
	s := &taskStoreStub{tasks: map[int64]models.Task{}}
	for _, task := range tasks {
		s.tasks[task.ID] = task
		if task.ID > s.nextID {
			s.nextID = task.ID
		}
	}
	return s
}

func (s *taskStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	task.ID = s.nextID
	s.tasks[task.ID] = *task
	return nil
}

func (s *taskStoreStub) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &task, nil
}

func (s *taskStoreStub) Update(ctx context.Context, exec sqlx.ExtContext, task *models.Task) error {
	s.tasks[task.ID] = *task
	return nil
}

func (s *taskStoreStub) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	out := make([]models.Task, 0)
	for id := int64(1); id <= s.nextID; id++ {
		task, ok := s.tasks[id]
		if !ok {
			continue
		}
		if filter.UserID != "" && task.UserID != filter.UserID {
			continue
		}
		if filter.CaseID != nil && (task.CaseID == nil || *task.CaseID != *filter.CaseID) {
			continue
		}
		if filter.Type != "" && task.Type != filter.Type {
			continue
		}
		if !filter.IncludeRead && task.Read {
			continue
		}
		if filter.DueBy != nil && task.Date.After(*filter.DueBy) {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (s *taskStoreStub) ListDue(ctx context.Context, taskType models.TaskType, today time.Time) ([]models.Task, error) {
	return s.List(ctx, models.TaskFilter{Type: taskType, DueBy: &today})
}

type mailerStub struct {
	mu     sync.Mutex
	sent   []string
	failed map[string]bool
}

func (m *mailerStub) SendReminders(ctx context.Context, mail ReminderMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed[mail.UserID] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, mail.UserID)
	return nil
}

func int64Ptr(v int64) *int64 {
	return &v
}

func newTaskServiceForTest(t *testing.T, store *taskStoreStub, mailer Mailer) (*TaskService, *eventStoreStub, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newTxProviderMock(t)
	events, journal := newTestEventLog()
	svc := NewTaskService(db, store, events, mailer, nil, nil, zap.NewNop(), TaskServiceConfig{
		EmailFrom:   "reminders@example.com",
		MailWorkers: 2,
		MailRetries: 1,
		RetryDelay:  time.Millisecond,
	})
	return svc, journal, mock
}

func TestEmailAllDueOnlyRunsOnMonday(t *testing.T) {
	store := newTaskStoreStub(models.Task{ID: 1, UserID: "u1", Type: models.TaskReminder, Date: day("2024-05-01")})
	mailer := &mailerStub{}
	svc, _, _ := newTaskServiceForTest(t, store, mailer)

	result, err := svc.EmailAllDue(context.Background(), day("2024-05-07"))
	require.NoError(t, err)
	assert.False(t, result.Ran)
	assert.Empty(t, mailer.sent)
}

func TestEmailAllDueMailsEachUserOnceAndCountsFailures(t *testing.T) {
	store := newTaskStoreStub(
		models.Task{ID: 1, UserID: "u1", Type: models.TaskReminder, Date: day("2024-05-01")},
		models.Task{ID: 2, UserID: "u1", Type: models.TaskReminder, Date: day("2024-05-06")},
		models.Task{ID: 3, UserID: "u2", Type: models.TaskReminder, Date: day("2024-05-02")},
		models.Task{ID: 4, UserID: "u3", Type: models.TaskReminder, Date: day("2024-05-02")},
		models.Task{ID: 5, UserID: "u4", Type: models.TaskReminder, Date: day("2024-06-01")},
		models.Task{ID: 6, UserID: "u5", Type: models.TaskReminder, Date: day("2024-05-01"), Read: true},
	)
	mailer := &mailerStub{failed: map[string]bool{"u3": true}}
	svc, _, _ := newTaskServiceForTest(t, store, mailer)

	result, err := svc.EmailAllDue(context.Background(), day("2024-05-06"))
	require.NoError(t, err)
	assert.True(t, result.Ran)
	assert.Equal(t, 2, result.UsersMailed)
	assert.Equal(t, 1, result.Failures)
	assert.Equal(t, []string{"u3"}, result.FailedUsers)
	assert.ElementsMatch(t, []string{"u1", "u2"}, mailer.sent)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	store := newTaskStoreStub(models.Task{ID: 1, UserID: "u1", Type: models.TaskQAComment, Date: day("2024-05-01")})
	svc, journal, mock := newTaskServiceForTest(t, store, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	task, err := svc.MarkRead(context.Background(), 1, testUser)
	require.NoError(t, err)
	assert.True(t, task.Read)
	task, err = svc.MarkRead(context.Background(), 1, testUser)
	require.NoError(t, err)
	assert.True(t, task.Read)
	assert.Len(t, journal.ofType(models.ContentTask, models.EventModelUpdate), 1)
}

func TestSetReminderReplacesExisting(t *testing.T) {
	store := newTaskStoreStub(models.Task{ID: 1, UserID: testUser.ID, CaseID: int64Ptr(9), Type: models.TaskReminder, Date: day("2024-05-01")})
	svc, _, mock := newTaskServiceForTest(t, store, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	task, err := svc.SetReminder(context.Background(), dto.SetReminderRequest{CaseID: 9, Date: day("2024-06-01"), Description: "Chase"}, testUser)
	require.NoError(t, err)
	assert.Equal(t, models.TaskReminder, task.Type)

	open, err := svc.List(context.Background(), models.TaskFilter{UserID: testUser.ID, CaseID: int64Ptr(9), Type: models.TaskReminder})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, task.ID, open[0].ID)
	assert.True(t, store.tasks[1].Read)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.DeleteReminder(context.Background(), 9, testUser))
	open, err = svc.List(context.Background(), models.TaskFilter{UserID: testUser.ID, CaseID: int64Ptr(9)})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestListDueIncludesToday(t *testing.T) {
	store := newTaskStoreStub(
		models.Task{ID: 1, UserID: "u1", Type: models.TaskQAComment, Date: day("2024-05-06").Add(9 * time.Hour)},
		models.Task{ID: 2, UserID: "u1", Type: models.TaskQAComment, Date: day("2024-05-07")},
	)
	svc, _, _ := newTaskServiceForTest(t, store, nil)

	due, err := svc.ListDue(context.Background(), "u1", day("2024-05-06"))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(1), due[0].ID)
}

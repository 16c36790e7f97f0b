package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
)

// ReminderMail is the weekly digest of due reminders for one user.
type ReminderMail struct {
	From   string
	UserID string
	Tasks  []models.Task
}

// Mailer delivers reminder digests.
type Mailer interface {
	SendReminders(ctx context.Context, mail ReminderMail) error
}

// LogMailer writes digests to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a log mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// SendReminders logs the digest.
func (m *LogMailer) SendReminders(_ context.Context, mail ReminderMail) error {
	caseIDs := make([]int64, 0, len(mail.Tasks))
	for _, task := range mail.Tasks {
		if task.CaseID != nil {
			caseIDs = append(caseIDs, *task.CaseID)
		}
	}
	m.logger.Info("reminder digest",
		zap.String("from", mail.From),
		zap.String("userId", mail.UserID),
		zap.Int("tasks", len(mail.Tasks)),
		zap.Int64s("caseIds", caseIDs))
	return nil
}

package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/workflow"
)

type migrationAuditStore interface {
	ListAuditIDsWithClaim(ctx context.Context, claim models.DisproportionateBurden, firstCaseID int64) ([]int64, error)
	GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Audit, error)
	ListStatementPages(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.StatementPage, error)
	Update(ctx context.Context, exec sqlx.ExtContext, audit *models.Audit) error
}

type migrationCaseStore interface {
	ListIDsFrom(ctx context.Context, firstID int64) ([]int64, error)
	GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Case, error)
	Update(ctx context.Context, exec sqlx.ExtContext, c *models.Case) error
}

// DataMigrationService runs one-off data fixes. Each row commits on its own so
// a failing row is counted and the job carries on.
type DataMigrationService struct {
	db     txProvider
	audits migrationAuditStore
	cases  migrationCaseStore
	events *EventLog
	user   models.UserHandle
	logger *zap.Logger
}

// NewDataMigrationService constructs the service. Events are attributed to user.
func NewDataMigrationService(db txProvider, audits migrationAuditStore, cases migrationCaseStore, events *EventLog, user models.UserHandle, logger *zap.Logger) *DataMigrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataMigrationService{db: db, audits: audits, cases: cases, events: events, user: user, logger: logger}
}

// MigrateBurden splits the legacy no-claim answer of audits of cases from
// firstCaseID on: audits without a statement page get no-statement.
func (s *DataMigrationService) MigrateBurden(ctx context.Context, firstCaseID int64) (*dto.DataMigrationResult, error) {
	ids, err := s.audits.ListAuditIDsWithClaim(ctx, models.BurdenNoClaim, firstCaseID)
	if err != nil {
		return nil, storeError(err, "list audits")
	}
	result := &dto.DataMigrationResult{}
	for _, id := range ids {
		result.Examined++
		updated, err := s.migrateBurden(ctx, id)
		if err != nil {
			result.Failures++
			s.logger.Warn("burden migration failed", zap.Int64("auditId", id), zap.Error(err))
			continue
		}
		if updated {
			result.Updated++
		}
	}
	s.logger.Info("burden migration finished",
		zap.Int64("firstCaseId", firstCaseID),
		zap.Int("examined", result.Examined),
		zap.Int("updated", result.Updated),
		zap.Int("failures", result.Failures))
	return result, nil
}

func (s *DataMigrationService) migrateBurden(ctx context.Context, auditID int64) (bool, error) {
	var (
		updated bool
		batch   *EventBatch
	)
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		before, err := s.audits.GetForUpdate(ctx, tx, auditID)
		if err != nil {
			return storeError(err, "audit")
		}
		pages, err := s.audits.ListStatementPages(ctx, tx, auditID)
		if err != nil {
			return storeError(err, "list statement pages")
		}
		live := 0
		for _, page := range pages {
			if !page.IsDeleted {
				live++
			}
		}
		after := *before
		after.InitialDisproportionateBurdenClaim = workflow.SplitBurdenClaim(before.InitialDisproportionateBurdenClaim, live)
		after.RetestDisproportionateBurdenClaim = workflow.SplitBurdenClaim(before.RetestDisproportionateBurdenClaim, live)
		if after.InitialDisproportionateBurdenClaim == before.InitialDisproportionateBurdenClaim &&
			after.RetestDisproportionateBurdenClaim == before.RetestDisproportionateBurdenClaim {
			return nil
		}
		if err := s.audits.Update(ctx, tx, &after); err != nil {
			return versionedError(err, "update audit")
		}
		batch = s.events.Begin(tx, s.user)
		if err := batch.Updated(ctx, models.ContentAudit, auditID, before, &after); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	s.events.Publish(ctx, batch)
	return updated, nil
}

// EnableCorrespondence turns the correspondence process on for cases from
// firstCaseID on whose notes or contact flags require it.
func (s *DataMigrationService) EnableCorrespondence(ctx context.Context, firstCaseID int64) (*dto.DataMigrationResult, error) {
	ids, err := s.cases.ListIDsFrom(ctx, firstCaseID)
	if err != nil {
		return nil, storeError(err, "list cases")
	}
	result := &dto.DataMigrationResult{}
	for _, id := range ids {
		result.Examined++
		updated, err := s.enableCorrespondence(ctx, id)
		if err != nil {
			result.Failures++
			s.logger.Warn("correspondence migration failed", zap.Int64("caseId", id), zap.Error(err))
			continue
		}
		if updated {
			result.Updated++
		}
	}
	s.logger.Info("correspondence migration finished",
		zap.Int64("firstCaseId", firstCaseID),
		zap.Int("examined", result.Examined),
		zap.Int("updated", result.Updated),
		zap.Int("failures", result.Failures))
	return result, nil
}

func (s *DataMigrationService) enableCorrespondence(ctx context.Context, caseID int64) (bool, error) {
	var (
		updated bool
		batch   *EventBatch
	)
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		before, err := s.cases.GetForUpdate(ctx, tx, caseID)
		if err != nil {
			return storeError(err, "case")
		}
		if before.EnableCorrespondenceProcess || !workflow.EnableCorrespondence(*before) {
			return nil
		}
		after := *before
		after.EnableCorrespondenceProcess = true
		if err := s.cases.Update(ctx, tx, &after); err != nil {
			return versionedError(err, "update case")
		}
		batch = s.events.Begin(tx, s.user)
		if err := batch.Updated(ctx, models.ContentCase, caseID, before, &after); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	s.events.Publish(ctx, batch)
	return updated, nil
}

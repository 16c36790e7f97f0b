package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/workflow"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type caseStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, c *models.Case) error
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Case, error)
	GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Case, error)
	Update(ctx context.Context, exec sqlx.ExtContext, c *models.Case) error
	UpdateDerived(ctx context.Context, exec sqlx.ExtContext, c *models.Case) error
	List(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error)
	ListIDsFrom(ctx context.Context, firstID int64) ([]int64, error)
	GetStatus(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.CaseStatus, error)
	SaveStatus(ctx context.Context, exec sqlx.ExtContext, status *models.CaseStatus) error
	GetCompliance(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.CaseCompliance, error)
	CreateCompliance(ctx context.Context, exec sqlx.ExtContext, compliance *models.CaseCompliance) error
	UpdateCompliance(ctx context.Context, exec sqlx.ExtContext, compliance *models.CaseCompliance) error
	GetReport(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.Report, error)
	CreateReport(ctx context.Context, exec sqlx.ExtContext, report *models.Report) error
}

type caseAuditReader interface {
	GetByCase(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.Audit, error)
	ListStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.StatementCheckResult, error)
}

// CaseDetail is a case together with every value derived from it.
type CaseDetail struct {
	Case               models.Case             `json:"case"`
	Status             models.CaseStatus       `json:"status"`
	Compliance         models.CaseCompliance   `json:"compliance"`
	QAStatus           models.QAStatus         `json:"qaStatus"`
	DueDates           workflow.DueDates       `json:"dueDates"`
	Reminders          []workflow.Reminder     `json:"reminders"`
	Overdue            *workflow.Overdue       `json:"overdue,omitempty"`
	NextActionDueDate  *time.Time              `json:"nextActionDueDate"`
	AllowedTransitions []models.CaseStatusCode `json:"allowedTransitions"`
}

// StatusChange is the outcome of one status recomputation.
type StatusChange struct {
	From models.CaseStatusCode
	To   models.CaseStatusCode
}

// CaseService owns the case aggregate: the case row, its compliance and
// status rows, contacts and equality body correspondence.
type CaseService struct {
	db        txProvider
	cases     caseStore
	related   caseRelatedStore
	audits    caseAuditReader
	events    *EventLog
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// CaseServiceOption configures the service.
type CaseServiceOption func(*CaseService)

// WithCaseClock overrides the clock used for derived dates.
func WithCaseClock(now func() time.Time) CaseServiceOption {
	return func(s *CaseService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCaseMetrics records status transitions.
func WithCaseMetrics(metrics *MetricsService) CaseServiceOption {
	return func(s *CaseService) {
		s.metrics = metrics
	}
}

// NewCaseService constructs the case service.
func NewCaseService(db txProvider, cases caseStore, related caseRelatedStore, audits caseAuditReader, events *EventLog, validate *validator.Validate, logger *zap.Logger, opts ...CaseServiceOption) *CaseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CaseService{
		db:        db,
		cases:     cases,
		related:   related,
		audits:    audits,
		events:    events,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create opens a case with its compliance and status rows.
func (s *CaseService) Create(ctx context.Context, req dto.CreateCaseRequest, user models.UserHandle) (*CaseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	c := models.Case{
		OrganisationName:         strings.TrimSpace(req.OrganisationName),
		HomePageURL:              strings.TrimSpace(req.HomePageURL),
		WebsiteName:              req.WebsiteName,
		ParentalOrganisationName: req.ParentalOrganisationName,
		EnforcementBody:          req.EnforcementBody,
		IsComplaint:              req.IsComplaint,
		Sector:                   req.Sector,
		Subcategory:              req.Subcategory,
		AuditorID:                req.AuditorID,
	}
	c.Domain = domainOf(c.HomePageURL)
	c.CreatedBy = createdBy(user)
	c.ApplyDefaults()
	if err := validateCase(s.validator, c); err != nil {
		return nil, err
	}

	var batch *EventBatch
	var change StatusChange
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		batch = s.events.Begin(tx, user)
		if err := s.cases.Create(ctx, tx, &c); err != nil {
			return storeError(err, "failed to create case")
		}
		if err := batch.Created(ctx, models.ContentCase, c.ID, c); err != nil {
			return err
		}
		compliance := models.NewCaseCompliance(c.ID)
		if err := s.cases.CreateCompliance(ctx, tx, &compliance); err != nil {
			return storeError(err, "failed to create case compliance")
		}
		if err := batch.Created(ctx, models.ContentCaseCompliance, compliance.ID, compliance); err != nil {
			return err
		}
		var err error
		change, err = s.recompute(ctx, tx, c, caseContext{}, batch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch, change)
	s.logger.Info("case created", zap.Int64("case_id", c.ID), zap.String("status", string(change.To)))
	return s.Get(ctx, c.ID)
}

// Get loads a case and derives its read-only values.
func (s *CaseService) Get(ctx context.Context, id int64) (*CaseDetail, error) {
	c, err := s.cases.Get(ctx, nil, id)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if c.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "case: not found")
	}
	status, err := s.cases.GetStatus(ctx, nil, id)
	if err != nil {
		return nil, storeError(err, "case status")
	}
	compliance, err := s.cases.GetCompliance(ctx, nil, id)
	if err != nil {
		return nil, storeError(err, "case compliance")
	}
	return s.detail(*c, *status, *compliance), nil
}

func (s *CaseService) detail(c models.Case, status models.CaseStatus, compliance models.CaseCompliance) *CaseDetail {
	today := s.now()
	return &CaseDetail{
		Case:               c,
		Status:             status,
		Compliance:         compliance,
		QAStatus:           workflow.QAStatus(c),
		DueDates:           workflow.ComputeDueDates(c),
		Reminders:          workflow.PendingReminders(c, today),
		Overdue:            workflow.CheckOverdue(c, status.Status, today),
		NextActionDueDate:  workflow.NextActionDueDate(c, status.Status),
		AllowedTransitions: workflow.AllowedTransitions(status.Status),
	}
}

// List returns live cases matching the filter and the total count.
func (s *CaseService) List(ctx context.Context, filter models.CaseFilter) ([]models.Case, *models.Pagination, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid filter", map[string]string{"status": string(status)})
		}
	}
	cases, total, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "failed to list cases")
	}
	pageSize := filter.Limit
	if pageSize <= 0 {
		pageSize = len(cases)
	}
	page := 1
	if pageSize > 0 {
		page = filter.Offset/pageSize + 1
	}
	return cases, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Overdue lists the live cases with a chaser past due on today.
func (s *CaseService) Overdue(ctx context.Context, filter models.CaseFilter) ([]CaseDetail, error) {
	cases, _, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "failed to list cases")
	}
	out := make([]CaseDetail, 0)
	for _, c := range cases {
		status, err := s.cases.GetStatus(ctx, nil, c.ID)
		if err != nil {
			return nil, storeError(err, "case status")
		}
		if workflow.CheckOverdue(c, status.Status, s.now()) == nil {
			continue
		}
		compliance, err := s.cases.GetCompliance(ctx, nil, c.ID)
		if err != nil {
			return nil, storeError(err, "case compliance")
		}
		out = append(out, *s.detail(c, *status, *compliance))
	}
	return out, nil
}

// UpdateSection patches the fields of one section under optimistic
// concurrency. A patch that changes nothing still advances the version.
func (s *CaseService) UpdateSection(ctx context.Context, id int64, section CaseSection, req dto.UpdateCaseSectionRequest, user models.UserHandle) (*CaseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.mutate(ctx, id, req.Version, user, func(current models.Case) (models.Case, error) {
		next, err := applyPatch(current, section, req.Fields)
		if err != nil {
			return current, err
		}
		if section == SectionCaseDetails {
			next.Domain = domainOf(next.HomePageURL)
		}
		if section == SectionCaseClose && next.CaseCompleted != current.CaseCompleted {
			if next.CaseCompleted == models.CaseCompletedNoDecision {
				next.CompletedDate = nil
			} else {
				now := s.now()
				next.CompletedDate = &now
			}
		}
		if section == SectionDeactivate && next.IsDeactivated && next.DeactivateDate == nil {
			now := s.now()
			next.DeactivateDate = &now
		}
		return next, nil
	})
}

// SetCompletion sets or clears the completion date of a case section.
func (s *CaseService) SetCompletion(ctx context.Context, id int64, section CaseSection, req dto.SetCompletionRequest, user models.UserHandle) (*CaseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.mutate(ctx, id, req.Version, user, func(current models.Case) (models.Case, error) {
		next := current
		field := completionField(&next, section)
		if field == nil {
			return current, appErrors.Clone(appErrors.ErrNotFound, "unknown case section")
		}
		*field = req.Date
		return next, nil
	})
}

// correspondencePrerequisites names the step that must be recorded before
// each step may be.
var correspondencePrerequisites = map[workflow.CorrespondenceStep]workflow.CorrespondenceStep{
	workflow.StepNoContactOneWeekChaser:   workflow.StepSevenDayNoContactEmail,
	workflow.StepNoContactFourWeekChaser:  workflow.StepNoContactOneWeekChaser,
	workflow.StepReportOneWeekFollowup:    workflow.StepReportSent,
	workflow.StepReportFourWeekFollowup:   workflow.StepReportOneWeekFollowup,
	workflow.StepReportAcknowledged:       workflow.StepReportSent,
	workflow.StepTwelveWeekUpdateRequest:  workflow.StepReportSent,
	workflow.StepTwelveWeekOneWeekChaser:  workflow.StepTwelveWeekUpdateRequest,
	workflow.StepTwelveWeekFourWeekChaser: workflow.StepTwelveWeekOneWeekChaser,
	workflow.StepTwelveWeekAcknowledged:   workflow.StepTwelveWeekUpdateRequest,
}

// RecordCorrespondence stamps one dated correspondence field. A nil date
// defaults to today.
func (s *CaseService) RecordCorrespondence(ctx context.Context, id int64, req dto.RecordCorrespondenceRequest, user models.UserHandle) (*CaseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	step := workflow.CorrespondenceStep(req.Step)
	return s.mutate(ctx, id, req.Version, user, func(current models.Case) (models.Case, error) {
		next := current
		field := workflow.SentDate(&next, step)
		if field == nil {
			return current, appErrors.WithDetails(appErrors.ErrValidation, "invalid payload", map[string]string{"step": "unknown"})
		}
		if prior, ok := correspondencePrerequisites[step]; ok {
			if sent := workflow.SentDate(&next, prior); sent != nil && *sent == nil {
				return current, appErrors.WithDetails(appErrors.ErrInvalidTransition, "correspondence step recorded out of order",
					map[string]string{"step": string(step), "requires": string(prior)})
			}
		}
		date := req.Date
		if date == nil {
			now := s.now()
			date = &now
		}
		*field = date
		return next, nil
	})
}

// SoftDelete marks the case deleted.
func (s *CaseService) SoftDelete(ctx context.Context, id int64, req dto.VersionRequest, user models.UserHandle) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	_, err := s.mutate(ctx, id, req.Version, user, func(current models.Case) (models.Case, error) {
		next := current
		next.IsDeleted = true
		return next, nil
	})
	return err
}

// mutate runs one versioned case write: lock, apply, derive, validate, write,
// journal and recompute, all in one transaction.
func (s *CaseService) mutate(ctx context.Context, id int64, version int, user models.UserHandle, apply func(models.Case) (models.Case, error)) (*CaseDetail, error) {
	var batch *EventBatch
	var change StatusChange
	var deleted bool
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := s.cases.GetForUpdate(ctx, tx, id)
		if err != nil {
			return storeError(err, "case")
		}
		if current.IsDeleted {
			return appErrors.Clone(appErrors.ErrNotFound, "case: not found")
		}
		if err := checkVersion(current.Version, version, "case"); err != nil {
			return err
		}
		next, err := apply(*current)
		if err != nil {
			return err
		}
		next.ID, next.Version, next.Created, next.CreatedBy = current.ID, current.Version, current.Created, current.CreatedBy

		cc, err := s.loadContext(ctx, tx, id)
		if err != nil {
			return err
		}
		derive(&next, cc)
		if err := validateCase(s.validator, next); err != nil {
			return err
		}

		batch = s.events.Begin(tx, user)
		if err := s.cases.Update(ctx, tx, &next); err != nil {
			return versionedError(err, "failed to update case")
		}
		if next.IsDeleted {
			deleted = true
			return batch.Deleted(ctx, models.ContentCase, id, next)
		}
		if err := batch.Updated(ctx, models.ContentCase, id, *current, next); err != nil {
			return err
		}
		change, err = s.recompute(ctx, tx, next, cc, batch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch, change)
	if deleted {
		return nil, nil
	}
	return s.Get(ctx, id)
}

// UpdateCompliance replaces the user-set verdicts of a case.
func (s *CaseService) UpdateCompliance(ctx context.Context, caseID int64, req dto.UpdateComplianceRequest, user models.UserHandle) (*models.CaseCompliance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var batch *EventBatch
	var compliance models.CaseCompliance
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.liveCase(ctx, tx, caseID); err != nil {
			return err
		}
		current, err := s.cases.GetCompliance(ctx, tx, caseID)
		if err != nil {
			return storeError(err, "case compliance")
		}
		if err := checkVersion(current.Version, req.Version, "case compliance"); err != nil {
			return err
		}
		compliance = *current
		compliance.WebsiteComplianceStateInitial = req.WebsiteComplianceStateInitial
		compliance.WebsiteComplianceNotesInitial = req.WebsiteComplianceNotesInitial
		compliance.StatementComplianceStateInitial = req.StatementComplianceStateInitial
		compliance.StatementComplianceNotesInitial = req.StatementComplianceNotesInitial
		compliance.WebsiteComplianceState12Week = req.WebsiteComplianceState12Week
		compliance.WebsiteComplianceNotes12Week = req.WebsiteComplianceNotes12Week
		compliance.StatementComplianceState12Week = req.StatementComplianceState12Week
		compliance.StatementComplianceNotes12Week = req.StatementComplianceNotes12Week
		if err := s.cases.UpdateCompliance(ctx, tx, &compliance); err != nil {
			return versionedError(err, "failed to update case compliance")
		}
		batch = s.events.Begin(tx, user)
		return batch.Updated(ctx, models.ContentCaseCompliance, compliance.ID, *current, compliance)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &compliance, nil
}

// StartReport creates the report root of a case.
func (s *CaseService) StartReport(ctx context.Context, caseID int64, user models.UserHandle) (*models.Report, error) {
	var batch *EventBatch
	var change StatusChange
	var report models.Report
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		c, err := s.lockedCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if _, err := s.cases.GetReport(ctx, tx, caseID); err == nil {
			return appErrors.Clone(appErrors.ErrDuplicate, "case already has a report")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return storeError(err, "report")
		}
		report = models.Report{CaseID: caseID}
		if err := s.cases.CreateReport(ctx, tx, &report); err != nil {
			return storeError(err, "failed to create report")
		}
		batch = s.events.Begin(tx, user)
		if err := batch.Created(ctx, models.ContentReport, report.ID, report); err != nil {
			return err
		}
		change, err = s.refresh(ctx, tx, *c, batch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch, change)
	return &report, nil
}

// RecomputeStatus re-derives the variant and status of a case inside the
// caller's transaction. Audit and report mutations call it after their own
// writes.
func (s *CaseService) RecomputeStatus(ctx context.Context, exec sqlx.ExtContext, caseID int64, batch *EventBatch) (StatusChange, error) {
	c, err := s.lockedCase(ctx, exec, caseID)
	if err != nil {
		return StatusChange{}, err
	}
	return s.refresh(ctx, exec, *c, batch)
}

// MarkSentToEnforcementBody stamps the date a closed case was handed to its
// enforcement body inside the caller's transaction, then recomputes status.
// A case already stamped keeps its original date.
func (s *CaseService) MarkSentToEnforcementBody(ctx context.Context, exec sqlx.ExtContext, caseID int64, sent time.Time, batch *EventBatch) (StatusChange, error) {
	before, err := s.lockedCase(ctx, exec, caseID)
	if err != nil {
		return StatusChange{}, err
	}
	after := *before
	if after.SentToEnforcementBodySentDate == nil {
		after.SentToEnforcementBodySentDate = &sent
		if err := s.cases.Update(ctx, exec, &after); err != nil {
			return StatusChange{}, versionedError(err, "failed to update case")
		}
		if err := batch.Updated(ctx, models.ContentCase, caseID, before, &after); err != nil {
			return StatusChange{}, err
		}
	}
	return s.refresh(ctx, exec, after, batch)
}

// RecordTransition counts a committed status change.
func (s *CaseService) RecordTransition(change StatusChange) {
	s.metrics.RecordStatusTransition(change.From, change.To)
}

// refresh writes changed derived columns back to the case and recomputes
// status. Derived columns do not advance the case version.
func (s *CaseService) refresh(ctx context.Context, exec sqlx.ExtContext, c models.Case, batch *EventBatch) (StatusChange, error) {
	cc, err := s.loadContext(ctx, exec, c.ID)
	if err != nil {
		return StatusChange{}, err
	}
	next := c
	derive(&next, cc)
	if next.Variant != c.Variant || next.EnableCorrespondenceProcess != c.EnableCorrespondenceProcess {
		if err := s.cases.UpdateDerived(ctx, exec, &next); err != nil {
			return StatusChange{}, storeError(err, "failed to update case")
		}
		if err := batch.Updated(ctx, models.ContentCase, c.ID, c, next); err != nil {
			return StatusChange{}, err
		}
	}
	return s.recompute(ctx, exec, next, cc, batch)
}

func (s *CaseService) lockedCase(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.Case, error) {
	c, err := s.cases.GetForUpdate(ctx, exec, caseID)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if c.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "case: not found")
	}
	return c, nil
}

func (s *CaseService) liveCase(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.Case, error) {
	c, err := s.cases.Get(ctx, exec, caseID)
	if err != nil {
		return nil, storeError(err, "case")
	}
	if c.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "case: not found")
	}
	return c, nil
}

// caseContext is the part of the case graph the derivations read.
type caseContext struct {
	audit            *models.Audit
	report           *models.Report
	statementResults int
}

func (s *CaseService) loadContext(ctx context.Context, exec sqlx.ExtContext, caseID int64) (caseContext, error) {
	var cc caseContext
	audit, err := s.audits.GetByCase(ctx, exec, caseID)
	switch {
	case err == nil:
		cc.audit = audit
		results, err := s.audits.ListStatementCheckResults(ctx, exec, audit.ID)
		if err != nil {
			return cc, storeError(err, "statement check results")
		}
		cc.statementResults = len(results)
	case !errors.Is(err, sql.ErrNoRows):
		return cc, storeError(err, "audit")
	}
	report, err := s.cases.GetReport(ctx, exec, caseID)
	switch {
	case err == nil:
		cc.report = report
	case !errors.Is(err, sql.ErrNoRows):
		return cc, storeError(err, "report")
	}
	return cc, nil
}

// derive fills the fields a case never takes from user input.
func derive(c *models.Case, cc caseContext) {
	c.Variant = workflow.DeriveVariant(cc.audit, cc.statementResults, cc.report)
	if workflow.EnableCorrespondence(*c) {
		c.EnableCorrespondenceProcess = true
	}
}

// recompute derives and stores the status row of c.
func (s *CaseService) recompute(ctx context.Context, exec sqlx.ExtContext, c models.Case, cc caseContext, batch *EventBatch) (StatusChange, error) {
	previous := models.CaseStatus{CaseID: c.ID, Status: models.StatusUnknown, FarthestStatus: models.StatusUnknown}
	existing := false
	stored, err := s.cases.GetStatus(ctx, exec, c.ID)
	switch {
	case err == nil:
		previous = *stored
		existing = true
	case !errors.Is(err, sql.ErrNoRows):
		return StatusChange{}, storeError(err, "case status")
	}

	next := workflow.Recompute(previous, workflow.StatusInput{Case: c, Audit: cc.audit, Report: cc.report})
	change := StatusChange{From: previous.Status, To: next.Status}
	if existing && next == previous {
		return change, nil
	}
	if err := s.cases.SaveStatus(ctx, exec, &next); err != nil {
		return StatusChange{}, storeError(err, "failed to save case status")
	}
	if !existing {
		return change, batch.Created(ctx, models.ContentCaseStatus, next.ID, next)
	}
	return change, batch.Updated(ctx, models.ContentCaseStatus, next.ID, previous, next)
}

func (s *CaseService) committed(ctx context.Context, batch *EventBatch, change StatusChange) {
	s.events.Publish(ctx, batch)
	if change.From != change.To {
		s.RecordTransition(change)
		s.logger.Debug("case status changed", zap.String("from", string(change.From)), zap.String("to", string(change.To)))
	}
}

// domainOf returns the host of a home page URL without a leading www.
func domainOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/workflow"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type auditStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, audit *models.Audit) error
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Audit, error)
	GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Audit, error)
	GetByCase(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.Audit, error)
	Update(ctx context.Context, exec sqlx.ExtContext, audit *models.Audit) error
	CreatePage(ctx context.Context, exec sqlx.ExtContext, page *models.Page) error
	GetPage(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Page, error)
	ListPages(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.Page, error)
	CountPagesOfType(ctx context.Context, exec sqlx.ExtContext, auditID int64, pageType models.PageType) (int, error)
	UpdatePage(ctx context.Context, exec sqlx.ExtContext, page *models.Page) error
	FindCheckResult(ctx context.Context, exec sqlx.ExtContext, pageID, wcagDefinitionID int64) (*models.CheckResult, error)
	ListCheckResults(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.CheckResult, error)
	CreateCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.CheckResult) error
	UpdateCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.CheckResult) error
	CreateStatementPage(ctx context.Context, exec sqlx.ExtContext, page *models.StatementPage) error
	ListStatementPages(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.StatementPage, error)
	CreateStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.StatementCheckResult) error
	GetStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.StatementCheckResult, error)
	UpdateStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.StatementCheckResult) error
	CreateRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.RetestStatementCheckResult) error
	GetRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.RetestStatementCheckResult, error)
	UpdateRetestStatementCheckResult(ctx context.Context, exec sqlx.ExtContext, result *models.RetestStatementCheckResult) error
	ListRetestStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, auditID int64) ([]models.RetestStatementCheckResult, error)
	LoadGraph(ctx context.Context, exec sqlx.ExtContext, auditID int64) (*models.AuditGraph, error)
}

type auditCaseReader interface {
	GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Case, error)
	GetStatus(ctx context.Context, exec sqlx.ExtContext, caseID int64) (*models.CaseStatus, error)
}

type catalogueSource interface {
	Active(ctx context.Context, day time.Time) (*models.Catalogue, error)
	WcagDefinition(ctx context.Context, id int64) (*models.WcagDefinition, error)
}

type statusRecomputer interface {
	RecomputeStatus(ctx context.Context, exec sqlx.ExtContext, caseID int64, batch *EventBatch) (StatusChange, error)
	RecordTransition(change StatusChange)
}

// ComplianceSuggestions are the read-only verdicts derived from test results.
type ComplianceSuggestions struct {
	WebsiteInitial   models.WebsiteCompliance   `json:"websiteInitial"`
	Website12Week    models.WebsiteCompliance   `json:"website12Week"`
	StatementInitial models.StatementCompliance `json:"statementInitial"`
	Statement12Week  models.StatementCompliance `json:"statement12Week"`
}

var mandatoryPageNames = map[models.PageType]string{
	models.PageTypeHome:      "Home",
	models.PageTypeContact:   "Contact",
	models.PageTypeStatement: "Accessibility statement",
	models.PageTypePDF:       "PDF",
	models.PageTypeForm:      "Form",
}

// AuditService manages the audit of a case and its test results.
type AuditService struct {
	db        txProvider
	audits    auditStore
	cases     auditCaseReader
	catalogue catalogueSource
	status    statusRecomputer
	events    *EventLog
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// AuditServiceOption configures the service.
type AuditServiceOption func(*AuditService)

// WithAuditClock overrides the clock.
func WithAuditClock(now func() time.Time) AuditServiceOption {
	return func(s *AuditService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAuditService constructs the audit service.
func NewAuditService(db txProvider, audits auditStore, cases auditCaseReader, catalogue catalogueSource, status statusRecomputer, events *EventLog, validate *validator.Validate, logger *zap.Logger, opts ...AuditServiceOption) *AuditService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{
		db:        db,
		audits:    audits,
		cases:     cases,
		catalogue: catalogue,
		status:    status,
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

// CreateAudit opens the audit of a case with its mandatory pages, one check
// result per active WCAG definition per non-statement page and one statement
// check result per active statement question.
func (s *AuditService) CreateAudit(ctx context.Context, caseID int64, req dto.CreateAuditRequest, user models.UserHandle) (*models.AuditGraph, error) {
	testDate := s.now()
	if req.Date != nil {
		testDate = *req.Date
	}
	catalogue, err := s.catalogue.Active(ctx, testDate)
	if err != nil {
		return nil, err
	}

	var batch *EventBatch
	var change StatusChange
	var audit models.Audit
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		c, err := s.cases.GetForUpdate(ctx, tx, caseID)
		if err != nil {
			return storeError(err, "case")
		}
		if c.IsDeleted {
			return appErrors.Clone(appErrors.ErrNotFound, "case: not found")
		}
		if _, err := s.audits.GetByCase(ctx, tx, caseID); err == nil {
			return appErrors.Clone(appErrors.ErrDuplicate, "case already has an audit")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return storeError(err, "audit")
		}

		batch = s.events.Begin(tx, user)
		audit = models.Audit{CaseID: caseID, Date: &testDate}
		audit.ApplyDefaults()
		if err := s.audits.Create(ctx, tx, &audit); err != nil {
			return storeError(err, "failed to create audit")
		}
		if err := batch.Created(ctx, models.ContentAudit, audit.ID, audit); err != nil {
			return err
		}
		for _, pageType := range models.MandatoryPageTypes {
			page := models.Page{AuditID: audit.ID, PageType: pageType, Name: mandatoryPageNames[pageType]}
			if err := s.createPage(ctx, tx, batch, &page, catalogue.WcagDefinitions); err != nil {
				return err
			}
		}
		for _, check := range catalogue.StatementChecks {
			checkID := check.ID
			result := models.StatementCheckResult{
				AuditID:          audit.ID,
				StatementCheckID: &checkID,
				Type:             check.Type,
				CheckResultState: models.StatementResultNotTested,
				RetestState:      models.StatementResultNotTested,
			}
			if err := s.audits.CreateStatementCheckResult(ctx, tx, &result); err != nil {
				return storeError(err, "failed to create statement check result")
			}
			if err := batch.Created(ctx, models.ContentStatementCheckResult, result.ID, result); err != nil {
				return err
			}
		}
		change, err = s.status.RecomputeStatus(ctx, tx, caseID, batch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch, change)
	s.logger.Info("audit created", zap.Int64("case_id", caseID), zap.Int64("audit_id", audit.ID))
	return s.Graph(ctx, audit.ID)
}

// createPage inserts a page and, unless it is a statement page, its check results.
func (s *AuditService) createPage(ctx context.Context, exec sqlx.ExtContext, batch *EventBatch, page *models.Page, definitions []models.WcagDefinition) error {
	if page.NotFound == "" {
		page.NotFound = models.BooleanNo
	}
	if page.IsContactPage == "" {
		page.IsContactPage = models.BooleanNo
		if page.PageType == models.PageTypeContact {
			page.IsContactPage = models.BooleanYes
		}
	}
	if err := s.audits.CreatePage(ctx, exec, page); err != nil {
		return storeError(err, "failed to create page")
	}
	if err := batch.Created(ctx, models.ContentPage, page.ID, *page); err != nil {
		return err
	}
	if page.PageType == models.PageTypeStatement {
		return nil
	}
	for _, def := range definitions {
		result := models.CheckResult{
			AuditID:          page.AuditID,
			PageID:           page.ID,
			WcagDefinitionID: def.ID,
			Type:             def.Type,
			CheckResultState: models.CheckResultNotTested,
			RetestState:      models.RetestNotRetested,
		}
		if err := s.audits.CreateCheckResult(ctx, exec, &result); err != nil {
			return storeError(err, "failed to create check result")
		}
		if err := batch.Created(ctx, models.ContentCheckResult, result.ID, result); err != nil {
			return err
		}
	}
	return nil
}

// Graph loads an audit with every live child row.
func (s *AuditService) Graph(ctx context.Context, auditID int64) (*models.AuditGraph, error) {
	graph, err := s.audits.LoadGraph(ctx, nil, auditID)
	if err != nil {
		return nil, storeError(err, "audit")
	}
	if graph.Audit.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "audit: not found")
	}
	return graph, nil
}

// GraphForCase loads the live audit of a case.
func (s *AuditService) GraphForCase(ctx context.Context, caseID int64) (*models.AuditGraph, error) {
	audit, err := s.audits.GetByCase(ctx, nil, caseID)
	if err != nil {
		return nil, storeError(err, "audit")
	}
	return s.Graph(ctx, audit.ID)
}

// UpdateAudit edits the audit metadata and statement fields.
func (s *AuditService) UpdateAudit(ctx context.Context, auditID int64, req dto.UpdateAuditRequest, user models.UserHandle) (*models.Audit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.writeAudit(ctx, auditID, req.Version, user, func(current models.Audit) (models.Audit, error) {
		next := current
		if req.Date != nil {
			next.Date = req.Date
		}
		if req.InitialDisproportionateBurdenClaim != "" {
			next.InitialDisproportionateBurdenClaim = req.InitialDisproportionateBurdenClaim
		}
		next.InitialDisproportionateBurdenNotes = req.InitialDisproportionateBurdenNotes
		if req.RetestDisproportionateBurdenClaim != "" || req.RetestDisproportionateBurdenNotes != "" {
			if current.RetestDate == nil {
				return current, appErrors.Clone(appErrors.ErrInvalidTransition, "retest fields require a retest date")
			}
			if req.RetestDisproportionateBurdenClaim != "" {
				next.RetestDisproportionateBurdenClaim = req.RetestDisproportionateBurdenClaim
			}
			next.RetestDisproportionateBurdenNotes = req.RetestDisproportionateBurdenNotes
		}
		if req.AccessibilityStatementState != "" {
			next.AccessibilityStatementState = req.AccessibilityStatementState
		}
		next.AccessibilityStatementNotCorrectFormat = req.AccessibilityStatementNotCorrectFormat
		next.AccessibilityStatementNotSpecificEnough = req.AccessibilityStatementNotSpecificEnough
		next.AccessibilityStatementMissingAccessibilityIssues = req.AccessibilityStatementMissingAccessibilityIssues
		next.AccessibilityStatementMissingMandatoryWording = req.AccessibilityStatementMissingMandatoryWording
		next.AccessibilityStatementMissingMandatoryWordingNotes = req.AccessibilityStatementMissingMandatoryWordingNotes
		next.AccessibilityStatementNeedsMoreReDisproportionate = req.AccessibilityStatementNeedsMoreReDisproportionate
		next.AccessibilityStatementNeedsMoreReAccessibility = req.AccessibilityStatementNeedsMoreReAccessibility
		next.AccessibilityStatementDeadlineNotComplete = req.AccessibilityStatementDeadlineNotComplete
		next.AccessibilityStatementDeadlineNotSufficient = req.AccessibilityStatementDeadlineNotSufficient
		next.AccessibilityStatementDeadlineNotCompleteWording = req.AccessibilityStatementDeadlineNotCompleteWording
		next.AccessibilityStatementDeadlineNotSufficientWording = req.AccessibilityStatementDeadlineNotSufficientWording
		return next, nil
	})
}

// CompleteSection sets or clears the completion date of an audit section and
// recomputes the case status.
func (s *AuditService) CompleteSection(ctx context.Context, auditID int64, section models.AuditSection, req dto.CompleteSectionRequest, user models.UserHandle) (*models.Audit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.writeAudit(ctx, auditID, req.Version, user, func(current models.Audit) (models.Audit, error) {
		next := current
		field := next.CompletionDate(section)
		if field == nil {
			return current, appErrors.Clone(appErrors.ErrNotFound, "unknown audit section")
		}
		if section.IsRetest() && req.Date != nil && current.RetestDate == nil {
			return current, appErrors.Clone(appErrors.ErrInvalidTransition, "retest sections require a retest date")
		}
		*field = req.Date
		return next, nil
	})
}

// StartRetest sets the retest date and creates the retest statement check
// results the first time it runs.
func (s *AuditService) StartRetest(ctx context.Context, auditID int64, req dto.StartRetestRequest, user models.UserHandle) (*models.Audit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	catalogue, err := s.catalogue.Active(ctx, req.RetestDate)
	if err != nil {
		return nil, err
	}
	return s.writeAudit(ctx, auditID, req.Version, user, func(current models.Audit) (models.Audit, error) {
		next := current
		retestDate := req.RetestDate
		next.RetestDate = &retestDate
		return next, nil
	}, func(ctx context.Context, tx sqlx.ExtContext, audit models.Audit, batch *EventBatch) error {
		existing, err := s.audits.ListRetestStatementCheckResults(ctx, tx, audit.ID)
		if err != nil {
			return storeError(err, "retest statement check results")
		}
		if len(existing) > 0 {
			return nil
		}
		for _, check := range catalogue.StatementChecks {
			checkID := check.ID
			result := models.RetestStatementCheckResult{
				AuditID:          audit.ID,
				StatementCheckID: &checkID,
				Type:             check.Type,
				CheckResultState: models.StatementResultNotTested,
			}
			if err := s.audits.CreateRetestStatementCheckResult(ctx, tx, &result); err != nil {
				return storeError(err, "failed to create retest statement check result")
			}
			if err := batch.Created(ctx, models.ContentRetestStatementCheckResult, result.ID, result); err != nil {
				return err
			}
		}
		return nil
	})
}

type auditFollowUp func(ctx context.Context, tx sqlx.ExtContext, audit models.Audit, batch *EventBatch) error

// writeAudit runs one versioned audit write followed by any follow-up writes
// and a case status recompute.
func (s *AuditService) writeAudit(ctx context.Context, auditID int64, version int, user models.UserHandle, apply func(models.Audit) (models.Audit, error), followUps ...auditFollowUp) (*models.Audit, error) {
	var batch *EventBatch
	var change StatusChange
	var audit models.Audit
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := s.liveAudit(ctx, tx, auditID, true)
		if err != nil {
			return err
		}
		if err := checkVersion(current.Version, version, "audit"); err != nil {
			return err
		}
		audit, err = apply(*current)
		if err != nil {
			return err
		}
		if err := s.audits.Update(ctx, tx, &audit); err != nil {
			return versionedError(err, "failed to update audit")
		}
		batch = s.events.Begin(tx, user)
		if err := batch.Updated(ctx, models.ContentAudit, audit.ID, *current, audit); err != nil {
			return err
		}
		for _, followUp := range followUps {
			if err := followUp(ctx, tx, audit, batch); err != nil {
				return err
			}
		}
		change, err = s.status.RecomputeStatus(ctx, tx, audit.CaseID, batch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch, change)
	return &audit, nil
}

func (s *AuditService) liveAudit(ctx context.Context, exec sqlx.ExtContext, auditID int64, lock bool) (*models.Audit, error) {
	var audit *models.Audit
	var err error
	if lock {
		audit, err = s.audits.GetForUpdate(ctx, exec, auditID)
	} else {
		audit, err = s.audits.Get(ctx, exec, auditID)
	}
	if err != nil {
		return nil, storeError(err, "audit")
	}
	if audit.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "audit: not found")
	}
	return audit, nil
}

// AddPage adds a page to an audit. A second live page of a mandatory type is
// a duplicate.
func (s *AuditService) AddPage(ctx context.Context, auditID int64, req dto.AddPageRequest, user models.UserHandle) (*models.Page, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var batch *EventBatch
	var page models.Page
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		audit, err := s.liveAudit(ctx, tx, auditID, true)
		if err != nil {
			return err
		}
		if req.PageType.IsMandatory() {
			count, err := s.audits.CountPagesOfType(ctx, tx, auditID, req.PageType)
			if err != nil {
				return storeError(err, "pages")
			}
			if count > 0 {
				return appErrors.WithDetails(appErrors.ErrDuplicate, "audit already has a page of this type",
					map[string]string{"pageType": string(req.PageType)})
			}
		}
		testDate := s.now()
		if audit.Date != nil {
			testDate = *audit.Date
		}
		catalogue, err := s.catalogue.Active(ctx, testDate)
		if err != nil {
			return err
		}
		name := req.Name
		if name == "" {
			name = mandatoryPageNames[req.PageType]
		}
		page = models.Page{AuditID: auditID, PageType: req.PageType, Name: name, URL: req.URL}
		batch = s.events.Begin(tx, user)
		return s.createPage(ctx, tx, batch, &page, catalogue.WcagDefinitions)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &page, nil
}

// UpdatePage is a versioned page edit. Retest fields require a retest date.
func (s *AuditService) UpdatePage(ctx context.Context, auditID, pageID int64, req dto.UpdatePageRequest, user models.UserHandle) (*models.Page, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.writePage(ctx, auditID, pageID, req.Version, user, func(audit models.Audit, page *models.Page) error {
		if (req.RetestPageMissingDate != nil || req.RetestCompleteDate != nil) && audit.RetestDate == nil {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "retest fields require a retest date")
		}
		if req.Name != "" {
			page.Name = req.Name
		}
		page.URL = req.URL
		if req.NotFound != "" {
			page.NotFound = req.NotFound
		}
		if req.IsContactPage != "" {
			page.IsContactPage = req.IsContactPage
		}
		page.RetestPageMissingDate = req.RetestPageMissingDate
		page.CompleteDate = req.CompleteDate
		page.RetestCompleteDate = req.RetestCompleteDate
		return nil
	})
}

// DeletePage soft deletes a page together with its check results.
func (s *AuditService) DeletePage(ctx context.Context, auditID, pageID int64, req dto.VersionRequest, user models.UserHandle) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	_, err := s.writePage(ctx, auditID, pageID, req.Version, user, func(_ models.Audit, page *models.Page) error {
		page.IsDeleted = true
		return nil
	})
	return err
}

func (s *AuditService) writePage(ctx context.Context, auditID, pageID int64, version int, user models.UserHandle, apply func(models.Audit, *models.Page) error) (*models.Page, error) {
	var batch *EventBatch
	var page models.Page
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		audit, err := s.liveAudit(ctx, tx, auditID, true)
		if err != nil {
			return err
		}
		current, err := s.livePage(ctx, tx, auditID, pageID)
		if err != nil {
			return err
		}
		if err := checkVersion(current.Version, version, "page"); err != nil {
			return err
		}
		page = *current
		if err := apply(*audit, &page); err != nil {
			return err
		}
		if err := s.audits.UpdatePage(ctx, tx, &page); err != nil {
			return versionedError(err, "failed to update page")
		}
		batch = s.events.Begin(tx, user)
		if !page.IsDeleted {
			return batch.Updated(ctx, models.ContentPage, page.ID, *current, page)
		}
		if err := batch.Deleted(ctx, models.ContentPage, page.ID, page); err != nil {
			return err
		}
		results, err := s.audits.ListCheckResults(ctx, tx, auditID)
		if err != nil {
			return storeError(err, "check results")
		}
		for _, result := range results {
			if result.PageID != page.ID {
				continue
			}
			result.IsDeleted = true
			if err := s.audits.UpdateCheckResult(ctx, tx, &result); err != nil {
				return versionedError(err, "failed to delete check result")
			}
			if err := batch.Deleted(ctx, models.ContentCheckResult, result.ID, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &page, nil
}

func (s *AuditService) livePage(ctx context.Context, exec sqlx.ExtContext, auditID, pageID int64) (*models.Page, error) {
	page, err := s.audits.GetPage(ctx, exec, pageID)
	if err != nil {
		return nil, storeError(err, "page")
	}
	if page.AuditID != auditID || page.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "page: not found")
	}
	return page, nil
}

// RecordCheckResult upserts the initial verdict of one WCAG test on one page.
// Recording the stored values again writes nothing.
func (s *AuditService) RecordCheckResult(ctx context.Context, auditID int64, req dto.RecordCheckResultRequest, user models.UserHandle) (*models.CheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.upsertCheckResult(ctx, auditID, req.PageID, req.WcagDefinitionID, req.Version, user, func(_ models.Audit, result *models.CheckResult) error {
		result.CheckResultState = req.State
		result.Notes = req.Notes
		return nil
	})
}

// RecordRetest upserts the 12-week verdict of one WCAG test on one page. The
// audit must have a retest date.
func (s *AuditService) RecordRetest(ctx context.Context, auditID int64, req dto.RecordRetestRequest, user models.UserHandle) (*models.CheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.upsertCheckResult(ctx, auditID, req.PageID, req.WcagDefinitionID, req.Version, user, func(audit models.Audit, result *models.CheckResult) error {
		if audit.RetestDate == nil {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "retest results require a retest date")
		}
		result.RetestState = req.RetestState
		result.RetestNotes = req.RetestNotes
		return nil
	})
}

func (s *AuditService) upsertCheckResult(ctx context.Context, auditID, pageID, wcagID int64, version int, user models.UserHandle, apply func(models.Audit, *models.CheckResult) error) (*models.CheckResult, error) {
	def, err := s.catalogue.WcagDefinition(ctx, wcagID)
	if err != nil {
		return nil, err
	}
	var batch *EventBatch
	var result models.CheckResult
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		audit, err := s.liveAudit(ctx, tx, auditID, false)
		if err != nil {
			return err
		}
		if _, err := s.livePage(ctx, tx, auditID, pageID); err != nil {
			return err
		}
		batch = s.events.Begin(tx, user)

		current, err := s.audits.FindCheckResult(ctx, tx, pageID, wcagID)
		if errors.Is(err, sql.ErrNoRows) {
			testDate := s.now()
			if audit.Date != nil {
				testDate = *audit.Date
			}
			if !def.ActiveOn(testDate) {
				return appErrors.WithDetails(appErrors.ErrInvalidTransition, "wcag definition is not active",
					map[string]int64{"wcagDefinitionId": def.ID})
			}
			result = models.CheckResult{
				AuditID:          auditID,
				PageID:           pageID,
				WcagDefinitionID: wcagID,
				Type:             def.Type,
				CheckResultState: models.CheckResultNotTested,
				RetestState:      models.RetestNotRetested,
			}
			if err := apply(*audit, &result); err != nil {
				return err
			}
			if err := s.audits.CreateCheckResult(ctx, tx, &result); err != nil {
				return storeError(err, "failed to create check result")
			}
			return batch.Created(ctx, models.ContentCheckResult, result.ID, result)
		}
		if err != nil {
			return storeError(err, "check result")
		}
		if err := checkVersion(current.Version, version, "check result"); err != nil {
			return err
		}
		result = *current
		result.IsDeleted = false
		if err := apply(*audit, &result); err != nil {
			return err
		}
		if sameCheckResult(*current, result) {
			return nil
		}
		if err := s.audits.UpdateCheckResult(ctx, tx, &result); err != nil {
			return versionedError(err, "failed to update check result")
		}
		return batch.Updated(ctx, models.ContentCheckResult, result.ID, *current, result)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &result, nil
}

func sameCheckResult(a, b models.CheckResult) bool {
	return a.CheckResultState == b.CheckResultState && a.Notes == b.Notes &&
		a.RetestState == b.RetestState && a.RetestNotes == b.RetestNotes &&
		a.IsDeleted == b.IsDeleted
}

// currentStage returns the statement page stage the case is in.
func (s *AuditService) currentStage(ctx context.Context, exec sqlx.ExtContext, audit models.Audit) (models.StatementPageStage, error) {
	status, err := s.cases.GetStatus(ctx, exec, audit.CaseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", storeError(err, "case status")
	}
	switch {
	case status != nil && status.Status.Rank() >= models.StatusCaseClosedSentToEquality.Rank() && status.Status != models.StatusDeactivated:
		return models.StageEqualityBodyRetest, nil
	case audit.RetestDate != nil:
		return models.StageTwelveWeekRetest, nil
	default:
		return models.StageInitial, nil
	}
}

// AddStatementPage appends a statement link. The stage must match the phase
// the case is in.
func (s *AuditService) AddStatementPage(ctx context.Context, auditID int64, req dto.AddStatementPageRequest, user models.UserHandle) (*models.StatementPage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var batch *EventBatch
	var page models.StatementPage
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		audit, err := s.liveAudit(ctx, tx, auditID, true)
		if err != nil {
			return err
		}
		stage, err := s.currentStage(ctx, tx, *audit)
		if err != nil {
			return err
		}
		if req.AddedStage != stage {
			return appErrors.WithDetails(appErrors.ErrInvalidTransition, "statement page stage does not match the case phase",
				map[string]string{"expected": string(stage), "addedStage": string(req.AddedStage)})
		}
		page = models.StatementPage{AuditID: auditID, URL: req.URL, BackupURL: req.BackupURL, AddedStage: req.AddedStage}
		if err := s.audits.CreateStatementPage(ctx, tx, &page); err != nil {
			return storeError(err, "failed to create statement page")
		}
		batch = s.events.Begin(tx, user)
		return batch.Created(ctx, models.ContentStatementPage, page.ID, page)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &page, nil
}

// RecordStatementCheckResult answers one statement question. Retest answers
// require a retest date.
func (s *AuditService) RecordStatementCheckResult(ctx context.Context, auditID, resultID int64, req dto.RecordStatementCheckResultRequest, user models.UserHandle) (*models.StatementCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var batch *EventBatch
	var result models.StatementCheckResult
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		audit, err := s.liveAudit(ctx, tx, auditID, false)
		if err != nil {
			return err
		}
		current, err := s.audits.GetStatementCheckResult(ctx, tx, resultID)
		if err != nil {
			return storeError(err, "statement check result")
		}
		if current.AuditID != auditID || current.IsDeleted {
			return appErrors.Clone(appErrors.ErrNotFound, "statement check result: not found")
		}
		if err := checkVersion(current.Version, req.Version, "statement check result"); err != nil {
			return err
		}
		retestTouched := (req.RetestState != "" && req.RetestState != current.RetestState) || req.RetestComment != current.RetestComment
		if retestTouched && audit.RetestDate == nil {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "retest answers require a retest date")
		}
		result = *current
		if req.CheckResultState != "" {
			result.CheckResultState = req.CheckResultState
		}
		if req.RetestState != "" {
			result.RetestState = req.RetestState
		}
		result.ReportComment = req.ReportComment
		result.RetestComment = req.RetestComment
		result.AuditorNotes = req.AuditorNotes
		if err := s.audits.UpdateStatementCheckResult(ctx, tx, &result); err != nil {
			return versionedError(err, "failed to update statement check result")
		}
		batch = s.events.Begin(tx, user)
		return batch.Updated(ctx, models.ContentStatementCheckResult, result.ID, *current, result)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &result, nil
}

// RecordRetestStatementCheckResult answers one equality body retest question.
func (s *AuditService) RecordRetestStatementCheckResult(ctx context.Context, auditID, resultID int64, req dto.RecordRetestStatementCheckResultRequest, user models.UserHandle) (*models.RetestStatementCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var batch *EventBatch
	var result models.RetestStatementCheckResult
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		audit, err := s.liveAudit(ctx, tx, auditID, false)
		if err != nil {
			return err
		}
		if audit.RetestDate == nil {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "retest answers require a retest date")
		}
		current, err := s.audits.GetRetestStatementCheckResult(ctx, tx, resultID)
		if err != nil {
			return storeError(err, "retest statement check result")
		}
		if current.AuditID != auditID || current.IsDeleted {
			return appErrors.Clone(appErrors.ErrNotFound, "retest statement check result: not found")
		}
		if err := checkVersion(current.Version, req.Version, "retest statement check result"); err != nil {
			return err
		}
		result = *current
		result.CheckResultState = req.CheckResultState
		result.Comment = req.Comment
		if err := s.audits.UpdateRetestStatementCheckResult(ctx, tx, &result); err != nil {
			return versionedError(err, "failed to update retest statement check result")
		}
		batch = s.events.Begin(tx, user)
		return batch.Updated(ctx, models.ContentRetestStatementCheckResult, result.ID, *current, result)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &result, nil
}

// ReportContent derives the report buckets of an audit.
func (s *AuditService) ReportContent(ctx context.Context, auditID int64) (*workflow.ReportContent, error) {
	graph, err := s.Graph(ctx, auditID)
	if err != nil {
		return nil, err
	}
	content := workflow.DeriveReportContent(*graph)
	return &content, nil
}

// ComplianceSuggestions derives the suggested verdicts of both phases.
func (s *AuditService) ComplianceSuggestions(ctx context.Context, auditID int64) (*ComplianceSuggestions, error) {
	graph, err := s.Graph(ctx, auditID)
	if err != nil {
		return nil, err
	}
	return &ComplianceSuggestions{
		WebsiteInitial:   workflow.SuggestWebsiteCompliance(*graph, false),
		Website12Week:    workflow.SuggestWebsiteCompliance(*graph, true),
		StatementInitial: workflow.SuggestStatementCompliance(*graph, false),
		Statement12Week:  workflow.SuggestStatementCompliance(*graph, true),
	}, nil
}

func (s *AuditService) committed(ctx context.Context, batch *EventBatch, change StatusChange) {
	s.events.Publish(ctx, batch)
	if change.From != change.To {
		s.status.RecordTransition(change)
	}
}

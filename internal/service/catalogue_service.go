package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/export"
)

const (
	catalogueCacheKey = "catalogue"
	seedDateLayout    = "2006-01-02"
)

var (
	wcagSeedRequired = []string{"id", "type", "name", "description", "url_on_w3", "report_boilerplate"}
	wcagSeedHeaders  = append(append([]string{}, wcagSeedRequired...), "hint", "date_start", "date_end")

	statementCheckSeedRequired = []string{"type", "label", "success_criteria", "report_text", "position"}
	statementCheckSeedHeaders  = append([]string{"id"}, statementCheckSeedRequired...)
)

type catalogueStore interface {
	ListWcagDefinitions(ctx context.Context, exec sqlx.ExtContext) ([]models.WcagDefinition, error)
	GetWcagDefinition(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.WcagDefinition, error)
	UpsertWcagDefinition(ctx context.Context, exec sqlx.ExtContext, def *models.WcagDefinition) error
	SetWcagDefinitionEnd(ctx context.Context, exec sqlx.ExtContext, def *models.WcagDefinition) error
	CountCheckResults(ctx context.Context, exec sqlx.ExtContext, wcagDefinitionID int64) (int, error)
	DeleteWcagDefinition(ctx context.Context, exec sqlx.ExtContext, id int64) error
	ListStatementChecks(ctx context.Context, exec sqlx.ExtContext, includeDeleted bool) ([]models.StatementCheck, error)
	GetStatementCheck(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.StatementCheck, error)
	CreateStatementCheck(ctx context.Context, exec sqlx.ExtContext, check *models.StatementCheck) error
	UpdateStatementCheck(ctx context.Context, exec sqlx.ExtContext, check *models.StatementCheck) error
	SyncSequences(ctx context.Context, exec sqlx.ExtContext) error
}

type statementResultRetyper interface {
	RetypeStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, statementCheckID int64, checkType models.StatementCheckType) (int64, error)
	RetypeRetestStatementCheckResults(ctx context.Context, exec sqlx.ExtContext, statementCheckID int64, checkType models.StatementCheckType) (int64, error)
}

// CatalogueService owns the WCAG definitions and the statement question bank.
// The full catalogue is cached and filtered per day on read.
type CatalogueService struct {
	db        txProvider
	store     catalogueStore
	results   statementResultRetyper
	cache     *CacheService
	cacheTTL  time.Duration
	events    *EventLog
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogueService constructs the catalogue service. A nil cache reads
// straight from the store.
func NewCatalogueService(db txProvider, store catalogueStore, results statementResultRetyper, cache *CacheService, cacheTTL time.Duration, events *EventLog, validate *validator.Validate, logger *zap.Logger) *CatalogueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogueService{
		db:        db,
		store:     store,
		results:   results,
		cache:     cache,
		cacheTTL:  cacheTTL,
		events:    events,
		csv:       export.NewCSVExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Active returns the definitions and statement checks active on day.
func (s *CatalogueService) Active(ctx context.Context, day time.Time) (*models.Catalogue, error) {
	full, err := s.full(ctx)
	if err != nil {
		return nil, err
	}
	active := &models.Catalogue{}
	for _, def := range full.WcagDefinitions {
		if def.ActiveOn(day) {
			active.WcagDefinitions = append(active.WcagDefinitions, def)
		}
	}
	for _, check := range full.StatementChecks {
		if check.ActiveOn(day) {
			active.StatementChecks = append(active.StatementChecks, check)
		}
	}
	return active, nil
}

// WcagDefinition loads one definition.
func (s *CatalogueService) WcagDefinition(ctx context.Context, id int64) (*models.WcagDefinition, error) {
	def, err := s.store.GetWcagDefinition(ctx, nil, id)
	if err != nil {
		return nil, storeError(err, "wcag definition")
	}
	return def, nil
}

func (s *CatalogueService) full(ctx context.Context) (*models.Catalogue, error) {
	var cached models.Catalogue
	if s.cache.Get(ctx, catalogueCacheKey, &cached) {
		return &cached, nil
	}
	defs, err := s.store.ListWcagDefinitions(ctx, nil)
	if err != nil {
		return nil, storeError(err, "list wcag definitions")
	}
	checks, err := s.store.ListStatementChecks(ctx, nil, false)
	if err != nil {
		return nil, storeError(err, "list statement checks")
	}
	full := &models.Catalogue{WcagDefinitions: defs, StatementChecks: checks}
	s.cache.Set(ctx, catalogueCacheKey, full, s.cacheTTL)
	return full, nil
}

// ListWcagDefinitions returns every definition, or only those active on day.
func (s *CatalogueService) ListWcagDefinitions(ctx context.Context, day *time.Time) ([]models.WcagDefinition, error) {
	if day != nil {
		active, err := s.Active(ctx, *day)
		if err != nil {
			return nil, err
		}
		return active.WcagDefinitions, nil
	}
	defs, err := s.store.ListWcagDefinitions(ctx, nil)
	if err != nil {
		return nil, storeError(err, "list wcag definitions")
	}
	return defs, nil
}

// SeedWcagCSV upserts definitions by id from a CSV file.
func (s *CatalogueService) SeedWcagCSV(ctx context.Context, r io.Reader, user models.UserHandle) (*dto.SeedResult, error) {
	data, err := s.csv.Parse(r, wcagSeedRequired...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wcag seed file")
	}
	defs := make([]models.WcagDefinition, 0, len(data.Rows))
	for i, row := range data.Rows {
		def, err := wcagFromRow(row)
		if err != nil {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid wcag seed row", map[string]string{"row": strconv.Itoa(i + 2), "error": err.Error()})
		}
		defs = append(defs, def)
	}

	var batch *EventBatch
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		batch = s.events.Begin(tx, user)
		for i := range defs {
			def := &defs[i]
			before, err := s.store.GetWcagDefinition(ctx, tx, def.ID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return storeError(err, "load wcag definition")
			}
			if err := s.store.UpsertWcagDefinition(ctx, tx, def); err != nil {
				return storeError(err, "upsert wcag definition")
			}
			if before == nil {
				err = batch.Created(ctx, models.ContentWcagDefinition, def.ID, def)
			} else {
				err = batch.Updated(ctx, models.ContentWcagDefinition, def.ID, before, def)
			}
			if err != nil {
				return err
			}
		}
		return storeError(s.store.SyncSequences(ctx, tx), "sync sequences")
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch)
	s.logger.Info("wcag definitions seeded", zap.Int("rows", len(defs)))
	return &dto.SeedResult{Upserted: len(defs)}, nil
}

// ExportWcagCSV writes every definition in the seed format.
func (s *CatalogueService) ExportWcagCSV(ctx context.Context) ([]byte, error) {
	defs, err := s.store.ListWcagDefinitions(ctx, nil)
	if err != nil {
		return nil, storeError(err, "list wcag definitions")
	}
	data := export.Dataset{Headers: wcagSeedHeaders}
	for _, def := range defs {
		data.Rows = append(data.Rows, map[string]string{
			"id":                 strconv.FormatInt(def.ID, 10),
			"type":               string(def.Type),
			"name":               def.Name,
			"description":        def.Description,
			"url_on_w3":          def.URLOnW3,
			"report_boilerplate": def.ReportBoilerplate,
			"hint":               def.Hint,
			"date_start":         formatSeedDate(def.DateStart),
			"date_end":           formatSeedDate(def.DateEnd),
		})
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render wcag csv")
	}
	return out, nil
}

// DeprecateWcag sets the end of the active window of a definition.
func (s *CatalogueService) DeprecateWcag(ctx context.Context, id int64, req dto.DeprecateWcagRequest, user models.UserHandle) (*models.WcagDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var (
		def   *models.WcagDefinition
		batch *EventBatch
	)
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		before, err := s.store.GetWcagDefinition(ctx, tx, id)
		if err != nil {
			return storeError(err, "wcag definition")
		}
		after := *before
		end := req.DateEnd
		after.DateEnd = &end
		if after.DateStart != nil && !after.DateStart.Before(end) {
			return appErrors.WithDetails(appErrors.ErrValidation, "end date must follow start date", map[string]string{"dateEnd": "gtfield"})
		}
		if err := s.store.SetWcagDefinitionEnd(ctx, tx, &after); err != nil {
			return storeError(err, "deprecate wcag definition")
		}
		batch = s.events.Begin(tx, user)
		if err := batch.Updated(ctx, models.ContentWcagDefinition, id, before, &after); err != nil {
			return err
		}
		def = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch)
	return def, nil
}

// DeleteWcag removes a definition no check result refers to.
func (s *CatalogueService) DeleteWcag(ctx context.Context, id int64, user models.UserHandle) error {
	var batch *EventBatch
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		def, err := s.store.GetWcagDefinition(ctx, tx, id)
		if err != nil {
			return storeError(err, "wcag definition")
		}
		count, err := s.store.CountCheckResults(ctx, tx, id)
		if err != nil {
			return storeError(err, "count check results")
		}
		if count > 0 {
			return appErrors.WithDetails(appErrors.ErrInvalidTransition, "wcag definition is referenced by check results", map[string]int{"checkResults": count})
		}
		if err := s.store.DeleteWcagDefinition(ctx, tx, id); err != nil {
			return storeError(err, "delete wcag definition")
		}
		batch = s.events.Begin(tx, user)
		return batch.Deleted(ctx, models.ContentWcagDefinition, id, def)
	})
	if err != nil {
		return err
	}
	s.committed(ctx, batch)
	return nil
}

// ListStatementChecks returns the question bank.
func (s *CatalogueService) ListStatementChecks(ctx context.Context, includeDeleted bool) ([]models.StatementCheck, error) {
	checks, err := s.store.ListStatementChecks(ctx, nil, includeDeleted)
	if err != nil {
		return nil, storeError(err, "list statement checks")
	}
	return checks, nil
}

// SeedStatementChecksCSV loads statement checks. Rows with an id update that
// check; rows without one match on type and label, otherwise they are new.
func (s *CatalogueService) SeedStatementChecksCSV(ctx context.Context, r io.Reader, user models.UserHandle) (*dto.SeedResult, error) {
	data, err := s.csv.Parse(r, statementCheckSeedRequired...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid statement check seed file")
	}
	rows := make([]models.StatementCheck, 0, len(data.Rows))
	for i, row := range data.Rows {
		check, err := statementCheckFromRow(row)
		if err != nil {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid statement check seed row", map[string]string{"row": strconv.Itoa(i + 2), "error": err.Error()})
		}
		rows = append(rows, check)
	}

	var batch *EventBatch
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		existing, err := s.store.ListStatementChecks(ctx, tx, true)
		if err != nil {
			return storeError(err, "list statement checks")
		}
		byID := make(map[int64]models.StatementCheck, len(existing))
		byLabel := make(map[string]models.StatementCheck, len(existing))
		for _, check := range existing {
			byID[check.ID] = check
			byLabel[string(check.Type)+"\x00"+check.Label] = check
		}
		batch = s.events.Begin(tx, user)
		for i := range rows {
			check := &rows[i]
			before, found := byID[check.ID]
			if check.ID == 0 {
				before, found = byLabel[string(check.Type)+"\x00"+check.Label]
			}
			if !found {
				if err := s.store.CreateStatementCheck(ctx, tx, check); err != nil {
					return storeError(err, "create statement check")
				}
				if err := batch.Created(ctx, models.ContentStatementCheck, check.ID, check); err != nil {
					return err
				}
				continue
			}
			check.ID = before.ID
			check.IssueNumber = before.IssueNumber
			check.DateStart = before.DateStart
			check.DateEnd = before.DateEnd
			if err := s.writeStatementCheck(ctx, tx, batch, &before, check); err != nil {
				return err
			}
		}
		return storeError(s.store.SyncSequences(ctx, tx), "sync sequences")
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch)
	s.logger.Info("statement checks seeded", zap.Int("rows", len(rows)))
	return &dto.SeedResult{Upserted: len(rows)}, nil
}

// ExportStatementChecksCSV writes the live question bank in the seed format.
func (s *CatalogueService) ExportStatementChecksCSV(ctx context.Context) ([]byte, error) {
	checks, err := s.store.ListStatementChecks(ctx, nil, false)
	if err != nil {
		return nil, storeError(err, "list statement checks")
	}
	data := export.Dataset{Headers: statementCheckSeedHeaders}
	for _, check := range checks {
		data.Rows = append(data.Rows, map[string]string{
			"id":               strconv.FormatInt(check.ID, 10),
			"type":             string(check.Type),
			"label":            check.Label,
			"success_criteria": check.SuccessCriteria,
			"report_text":      check.ReportText,
			"position":         strconv.Itoa(check.Position),
		})
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement check csv")
	}
	return out, nil
}

// UpdateStatementCheck edits a question. A type change is copied onto the
// results of the question in the same transaction.
func (s *CatalogueService) UpdateStatementCheck(ctx context.Context, id int64, req dto.UpdateStatementCheckRequest, user models.UserHandle) (*models.StatementCheck, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var (
		check *models.StatementCheck
		batch *EventBatch
	)
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		before, err := s.store.GetStatementCheck(ctx, tx, id)
		if err != nil {
			return storeError(err, "statement check")
		}
		if before.IsDeleted {
			return appErrors.Clone(appErrors.ErrNotFound, "statement check: not found")
		}
		after := *before
		after.Type = req.Type
		after.Label = req.Label
		after.SuccessCriteria = req.SuccessCriteria
		after.ReportText = req.ReportText
		after.Position = req.Position
		after.DateStart = req.DateStart
		after.DateEnd = req.DateEnd
		batch = s.events.Begin(tx, user)
		if err := s.writeStatementCheck(ctx, tx, batch, before, &after); err != nil {
			return err
		}
		check = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, batch)
	return check, nil
}

// DeleteStatementCheck soft deletes a question. Existing results keep it.
func (s *CatalogueService) DeleteStatementCheck(ctx context.Context, id int64, user models.UserHandle) error {
	var batch *EventBatch
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		before, err := s.store.GetStatementCheck(ctx, tx, id)
		if err != nil {
			return storeError(err, "statement check")
		}
		if before.IsDeleted {
			return nil
		}
		after := *before
		after.IsDeleted = true
		if err := s.store.UpdateStatementCheck(ctx, tx, &after); err != nil {
			return storeError(err, "delete statement check")
		}
		batch = s.events.Begin(tx, user)
		return batch.Deleted(ctx, models.ContentStatementCheck, id, &after)
	})
	if err != nil {
		return err
	}
	s.committed(ctx, batch)
	return nil
}

func (s *CatalogueService) writeStatementCheck(ctx context.Context, tx *sqlx.Tx, batch *EventBatch, before, after *models.StatementCheck) error {
	if err := s.store.UpdateStatementCheck(ctx, tx, after); err != nil {
		return storeError(err, "update statement check")
	}
	if before.Type != after.Type {
		n, err := s.results.RetypeStatementCheckResults(ctx, tx, after.ID, after.Type)
		if err != nil {
			return storeError(err, "retype statement check results")
		}
		m, err := s.results.RetypeRetestStatementCheckResults(ctx, tx, after.ID, after.Type)
		if err != nil {
			return storeError(err, "retype retest statement check results")
		}
		s.logger.Info("statement check retyped",
			zap.Int64("statementCheckId", after.ID),
			zap.String("type", string(after.Type)),
			zap.Int64("results", n),
			zap.Int64("retestResults", m))
	}
	return batch.Updated(ctx, models.ContentStatementCheck, after.ID, before, after)
}

func (s *CatalogueService) committed(ctx context.Context, batch *EventBatch) {
	s.cache.Invalidate(ctx, catalogueCacheKey)
	s.events.Publish(ctx, batch)
}

func wcagFromRow(row map[string]string) (models.WcagDefinition, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(row["id"]), 10, 64)
	if err != nil || id <= 0 {
		return models.WcagDefinition{}, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer")
	}
	def := models.WcagDefinition{
		ID:                id,
		Type:              models.WcagDefinitionType(strings.TrimSpace(row["type"])),
		Name:              row["name"],
		Description:       row["description"],
		Hint:              row["hint"],
		URLOnW3:           row["url_on_w3"],
		ReportBoilerplate: row["report_boilerplate"],
	}
	switch def.Type {
	case models.WcagTypeManual, models.WcagTypeAxe, models.WcagTypePDF:
	default:
		return def, appErrors.Clone(appErrors.ErrValidation, "unknown type "+strconv.Quote(string(def.Type)))
	}
	if def.DateStart, err = parseSeedDate(row["date_start"]); err != nil {
		return def, err
	}
	if def.DateEnd, err = parseSeedDate(row["date_end"]); err != nil {
		return def, err
	}
	return def, nil
}

func statementCheckFromRow(row map[string]string) (models.StatementCheck, error) {
	check := models.StatementCheck{
		Type:            models.StatementCheckType(strings.TrimSpace(row["type"])),
		Label:           row["label"],
		SuccessCriteria: row["success_criteria"],
		ReportText:      row["report_text"],
	}
	if raw := strings.TrimSpace(row["id"]); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return check, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer")
		}
		check.ID = id
	}
	if check.Label == "" {
		return check, appErrors.Clone(appErrors.ErrValidation, "label is required")
	}
	if err := validator.New().Var(string(check.Type), "oneof=overview website compliance non-accessible preparation feedback enforcement custom other 12-week"); err != nil {
		return check, appErrors.Clone(appErrors.ErrValidation, "unknown type "+strconv.Quote(string(check.Type)))
	}
	if raw := strings.TrimSpace(row["position"]); raw != "" {
		position, err := strconv.Atoi(raw)
		if err != nil {
			return check, appErrors.Clone(appErrors.ErrValidation, "position must be an integer")
		}
		check.Position = position
	}
	return check, nil
}

func parseSeedDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	day, err := time.Parse(seedDateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dates use the YYYY-MM-DD format")
	}
	return &day, nil
}

func formatSeedDate(day *time.Time) string {
	if day == nil {
		return ""
	}
	return day.Format(seedDateLayout)
}

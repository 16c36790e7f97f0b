package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/export"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/storage"
)

type exportStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, export *models.Export) error
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Export, error)
	Update(ctx context.Context, exec sqlx.ExtContext, export *models.Export) error
	List(ctx context.Context, filter models.ExportFilter) ([]models.Export, error)
	EligibleCaseIDs(ctx context.Context, exec sqlx.ExtContext, export *models.Export) ([]int64, error)
	AddCase(ctx context.Context, exec sqlx.ExtContext, exportCase *models.ExportCase) error
	ListCases(ctx context.Context, exec sqlx.ExtContext, exportID int64) ([]models.ExportCase, error)
	GetCase(ctx context.Context, exec sqlx.ExtContext, exportID, caseID int64) (*models.ExportCase, error)
	SetCaseStatus(ctx context.Context, exec sqlx.ExtContext, exportCase *models.ExportCase) error
}

type caseSender interface {
	MarkSentToEnforcementBody(ctx context.Context, exec sqlx.ExtContext, caseID int64, sent time.Time, batch *EventBatch) (StatusChange, error)
	RecordTransition(change StatusChange)
}

type exportFiles interface {
	Write(exportID int64, name string, data []byte) (string, error)
	Open(rel string) (*os.File, error)
	RemoveExport(exportID int64) error
	Prune(retention time.Duration) ([]string, error)
}

type linkSigner interface {
	Sign(exportID int64, path string) (storage.Link, error)
	Verify(token string) (storage.Link, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

var exportFileHeaders = []string{"Case no.", "Organisation", "Website", "Enforcement body", "Cutoff date"}

// ExportConfig tunes export file handling.
type ExportConfig struct {
	FileRetention time.Duration
}

// ExportDetail is an export with its case memberships.
type ExportDetail struct {
	Export models.Export       `json:"export"`
	Cases  []models.ExportCase `json:"cases"`
}

// ExportDownload is an open rendered file.
type ExportDownload struct {
	File     *os.File
	Filename string
}

// ExportService manages export batches of closed cases and renders them.
type ExportService struct {
	db        txProvider
	exports   exportStore
	cases     caseSender
	files     exportFiles
	signer    linkSigner
	csv       csvRenderer
	pdf       pdfRenderer
	events    *EventLog
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the default CSV and PDF exporters.
func NewExportService(db txProvider, exports exportStore, cases caseSender, files exportFiles, signer linkSigner, events *EventLog, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FileRetention <= 0 {
		cfg.FileRetention = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		db:        db,
		exports:   exports,
		cases:     cases,
		files:     files,
		signer:    signer,
		csv:       csv,
		pdf:       pdf,
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a batch with every eligible case marked unready.
func (s *ExportService) Create(ctx context.Context, req dto.CreateExportRequest, user models.UserHandle) (*ExportDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var (
		batch  *EventBatch
		detail = &ExportDetail{}
	)
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		batch = s.events.Begin(tx, user)
		item := models.Export{
			CutoffDate:      req.CutoffDate,
			EnforcementBody: req.EnforcementBody,
			Status:          models.ExportStatusNot,
			ExporterID:      user.ID,
		}
		if err := s.exports.Create(ctx, tx, &item); err != nil {
			return storeError(err, "create export")
		}
		if err := batch.Created(ctx, models.ContentExport, item.ID, &item); err != nil {
			return err
		}
		ids, err := s.exports.EligibleCaseIDs(ctx, tx, &item)
		if err != nil {
			return storeError(err, "eligible cases")
		}
		for _, caseID := range ids {
			member := models.ExportCase{ExportID: item.ID, CaseID: caseID, Status: models.ExportCaseUnready}
			if err := s.exports.AddCase(ctx, tx, &member); err != nil {
				return storeError(err, "add export case")
			}
			if err := batch.Created(ctx, models.ContentExportCase, member.ID, &member); err != nil {
				return err
			}
		}
		cases, err := s.exports.ListCases(ctx, tx, item.ID)
		if err != nil {
			return storeError(err, "list export cases")
		}
		detail.Export, detail.Cases = item, cases
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	s.logger.Info("export created",
		zap.Int64("exportId", detail.Export.ID),
		zap.String("enforcementBody", string(req.EnforcementBody)),
		zap.Int("cases", len(detail.Cases)))
	return detail, nil
}

// Get returns a live export with its cases.
func (s *ExportService) Get(ctx context.Context, id int64) (*ExportDetail, error) {
	item, err := s.liveExport(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	cases, err := s.exports.ListCases(ctx, nil, id)
	if err != nil {
		return nil, storeError(err, "list export cases")
	}
	return &ExportDetail{Export: *item, Cases: cases}, nil
}

// List returns live exports.
func (s *ExportService) List(ctx context.Context, filter models.ExportFilter) ([]models.Export, error) {
	items, err := s.exports.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "list exports")
	}
	return items, nil
}

// SetCaseStatus tags a case of a batch that has not been exported yet.
func (s *ExportService) SetCaseStatus(ctx context.Context, exportID, caseID int64, req dto.SetExportCaseStatusRequest, user models.UserHandle) (*models.ExportCase, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var (
		member *models.ExportCase
		batch  *EventBatch
	)
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		item, err := s.liveExport(ctx, tx, exportID)
		if err != nil {
			return err
		}
		if item.Status == models.ExportStatusExported {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "export already exported")
		}
		before, err := s.exports.GetCase(ctx, tx, exportID, caseID)
		if err != nil {
			return storeError(err, "export case")
		}
		after := *before
		after.Status = req.Status
		if after.Status == before.Status {
			member = before
			return nil
		}
		if err := s.exports.SetCaseStatus(ctx, tx, &after); err != nil {
			return storeError(err, "update export case")
		}
		batch = s.events.Begin(tx, user)
		if err := batch.Updated(ctx, models.ContentExportCase, after.ID, before, &after); err != nil {
			return err
		}
		member = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return member, nil
}

// MarkExported stamps the batch exported and hands every ready case to the
// enforcement body, moving it on to the sent status. Every case must be ready
// or excluded.
func (s *ExportService) MarkExported(ctx context.Context, id int64, req dto.MarkExportedRequest, user models.UserHandle) (*models.Export, error) {
	var (
		item    *models.Export
		batch   *EventBatch
		changes []StatusChange
	)
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		before, err := s.liveExport(ctx, tx, id)
		if err != nil {
			return err
		}
		if before.Status == models.ExportStatusExported {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "export already exported")
		}
		cases, err := s.exports.ListCases(ctx, tx, id)
		if err != nil {
			return storeError(err, "list export cases")
		}
		unready := make([]int64, 0)
		for _, member := range cases {
			if member.Status == models.ExportCaseUnready {
				unready = append(unready, member.CaseID)
			}
		}
		if len(unready) > 0 {
			return appErrors.WithDetails(appErrors.ErrPreconditionFailed, "export has unready cases", map[string][]int64{"unready": unready})
		}
		after := *before
		after.Status = models.ExportStatusExported
		exportDate := s.now()
		if req.ExportDate != nil {
			exportDate = *req.ExportDate
		}
		after.ExportDate = &exportDate
		if err := s.exports.Update(ctx, tx, &after); err != nil {
			return storeError(err, "update export")
		}
		batch = s.events.Begin(tx, user)
		if err := batch.Updated(ctx, models.ContentExport, id, before, &after); err != nil {
			return err
		}
		for _, member := range cases {
			if member.Status != models.ExportCaseReady {
				continue
			}
			change, err := s.cases.MarkSentToEnforcementBody(ctx, tx, member.CaseID, exportDate, batch)
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}
		item = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	for _, change := range changes {
		if change.From != change.To {
			s.cases.RecordTransition(change)
		}
	}
	s.logger.Info("export marked exported", zap.Int64("exportId", id), zap.Int("casesSent", len(changes)))
	return item, nil
}

// SoftDelete removes a batch that has not been exported.
func (s *ExportService) SoftDelete(ctx context.Context, id int64, user models.UserHandle) error {
	var batch *EventBatch
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		before, err := s.liveExport(ctx, tx, id)
		if err != nil {
			return err
		}
		if before.Status == models.ExportStatusExported {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "exported batches cannot be deleted")
		}
		after := *before
		after.IsDeleted = true
		if err := s.exports.Update(ctx, tx, &after); err != nil {
			return storeError(err, "delete export")
		}
		batch = s.events.Begin(tx, user)
		return batch.Deleted(ctx, models.ContentExport, id, &after)
	})
	if err != nil {
		return err
	}
	s.events.Publish(ctx, batch)
	if err := s.files.RemoveExport(id); err != nil {
		s.logger.Warn("failed to remove export files", zap.Int64("exportId", id), zap.Error(err))
	}
	return nil
}

// Render writes the ready cases of a batch to a CSV or PDF file and returns a
// signed download token for it.
func (s *ExportService) Render(ctx context.Context, id int64, req dto.RenderExportRequest) (*dto.ExportFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{Headers: exportFileHeaders}
	for _, member := range detail.Cases {
		if member.Status != models.ExportCaseReady {
			continue
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Case no.":         strconv.FormatInt(member.CaseID, 10),
			"Organisation":     member.OrganisationName,
			"Website":          member.HomePageURL,
			"Enforcement body": string(detail.Export.EnforcementBody),
			"Cutoff date":      detail.Export.CutoffDate.Format(seedDateLayout),
		})
	}

	var payload []byte
	switch req.Format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(export.Document{
			Title: fmt.Sprintf("Export %d for %s", id, detail.Export.EnforcementBody),
			Summary: []string{
				"Cutoff date: " + detail.Export.CutoffDate.Format(seedDateLayout),
				"Status: " + string(detail.Export.Status),
				fmt.Sprintf("Ready cases: %d of %d", len(dataset.Rows), len(detail.Cases)),
			},
			Data: dataset,
		})
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	relPath, err := s.files.Write(id, s.filename(id, req.Format), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	link, err := s.signer.Sign(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.metrics.RecordExportFile(req.Format)
	s.logger.Info("export rendered", zap.Int64("exportId", id), zap.String("format", req.Format), zap.Int("rows", len(dataset.Rows)))
	return &dto.ExportFile{Format: req.Format, Token: link.Token, ExpiresAt: link.ExpiresAt, Rows: len(dataset.Rows)}, nil
}

// Download opens the file a signed token points to.
func (s *ExportService) Download(ctx context.Context, id int64, token string) (*ExportDownload, error) {
	link, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrLinkExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	if link.ExportID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token does not match export")
	}
	if _, err := s.liveExport(ctx, nil, id); err != nil {
		return nil, err
	}
	file, err := s.files.Open(link.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{File: file, Filename: filepath.Base(link.Path)}, nil
}

// Cleanup removes rendered files older than the retention period.
func (s *ExportService) Cleanup() ([]string, error) {
	removed, err := s.files.Prune(s.cfg.FileRetention)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clean export files")
	}
	return removed, nil
}

func (s *ExportService) liveExport(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Export, error) {
	item, err := s.exports.Get(ctx, exec, id)
	if err != nil {
		return nil, storeError(err, "export")
	}
	if item.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export: not found")
	}
	return item, nil
}

func (s *ExportService) filename(id int64, format string) string {
	return fmt.Sprintf("export_%d_%s_%s.%s", id, s.now().Format("20060102_150405"), uuid.NewString()[:8], format)
}

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/handler"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/repository"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/service"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/cache"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/config"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/database"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/eventbus"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/storage"
)

const cachePrefix = "amp:"

// App holds the opened backing stores and every wired service.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB       *sqlx.DB
	Registry *sqlx.DB
	Redis    *redis.Client

	Metrics    *service.MetricsService
	Events     *service.EventLog
	Catalogue  *service.CatalogueService
	Cases      *service.CaseService
	Audits     *service.AuditService
	Tasks      *service.TaskService
	Exports    *service.ExportService
	History    *service.HistoryService
	Registries *service.RegistryService
	Auth       *service.AuthService

	publisher eventbus.Publisher
}

// New opens the databases, cache and event bus named by cfg and wires the
// services on top of them.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.DB = db

	if cfg.Migrations.Auto {
		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	if cfg.Registry.URL != "" {
		registryDB, err := database.NewRegistry(cfg.Registry)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect registry: %w", err)
		}
		a.Registry = registryDB
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, catalogue cache disabled", zap.Error(err))
	}
	a.Redis = redisClient

	a.publisher = eventbus.Nop{}
	if cfg.Kafka.Enabled {
		publisher, err := eventbus.NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		a.publisher = publisher
	}

	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	cfg := a.Config
	validate := validator.New()

	var cacheClient redis.Cmdable
	if a.Redis != nil {
		cacheClient = a.Redis
	}
	a.Metrics = service.NewMetricsService()
	cacheSvc := service.NewCacheService(cache.NewStore(cacheClient, cachePrefix), a.Metrics, cfg.Catalogue.CacheTTL, a.Logger, cfg.Catalogue.CacheEnabled && a.Redis != nil)

	eventRepo := repository.NewEventRepository(a.DB)
	caseRepo := repository.NewCaseRepository(a.DB)
	auditRepo := repository.NewAuditRepository(a.DB)
	catalogueRepo := repository.NewCatalogueRepository(a.DB)
	taskRepo := repository.NewTaskRepository(a.DB)
	exportRepo := repository.NewExportRepository(a.DB)
	historyRepo := repository.NewHistoryRepository(a.DB)

	a.Events = service.NewEventLog(eventRepo, a.publisher, a.Metrics, a.Logger)
	a.Catalogue = service.NewCatalogueService(a.DB, catalogueRepo, auditRepo, cacheSvc, cfg.Catalogue.CacheTTL, a.Events, validate, a.Logger)
	a.Cases = service.NewCaseService(a.DB, caseRepo, caseRepo, auditRepo, a.Events, validate, a.Logger, service.WithCaseMetrics(a.Metrics))
	a.Audits = service.NewAuditService(a.DB, auditRepo, caseRepo, a.Catalogue, a.Cases, a.Events, validate, a.Logger)
	a.Tasks = service.NewTaskService(a.DB, taskRepo, a.Events, service.NewLogMailer(a.Logger), a.Metrics, validate, a.Logger, service.TaskServiceConfig{
		EmailFrom:   cfg.Reminders.EmailFrom,
		MailWorkers: cfg.Reminders.Workers,
	})
	a.History = service.NewHistoryService(a.DB, historyRepo, auditRepo, a.Events, a.Metrics, a.Logger)

	files, err := storage.NewFiles(cfg.Exports.Dir)
	if err != nil {
		return fmt.Errorf("open export storage: %w", err)
	}
	signer := storage.NewLinkSigner(cfg.Exports.URLSecret, cfg.Exports.URLTTL)
	a.Exports = service.NewExportService(a.DB, exportRepo, a.Cases, files, signer, a.Events, a.Metrics, validate, a.Logger,
		service.ExportConfig{FileRetention: cfg.Exports.FileRetention}, nil, nil)

	if a.Registry != nil {
		a.Registries = service.NewRegistryService(repository.NewRegistryRepository(a.Registry), a.Logger)
	}

	a.Auth = service.NewAuthService(a.Logger, service.AuthConfig{Secret: cfg.JWT.Secret})
	return nil
}

// DataMigrations builds the one-off data migration runner acting as user.
func (a *App) DataMigrations(user models.UserHandle) *service.DataMigrationService {
	return service.NewDataMigrationService(a.DB, repository.NewAuditRepository(a.DB), repository.NewCaseRepository(a.DB), a.Events, user, a.Logger)
}

// Handlers builds the HTTP handlers over the wired services.
func (a *App) Handlers() handler.Handlers {
	h := handler.Handlers{
		Cases:     handler.NewCaseHandler(a.Cases),
		Audits:    handler.NewAuditHandler(a.Audits, a.History),
		Catalogue: handler.NewCatalogueHandler(a.Catalogue),
		Tasks:     handler.NewTaskHandler(a.Tasks),
		Exports:   handler.NewExportHandler(a.Exports),
		Events:    handler.NewEventHandler(a.Events),
	}
	if a.Registries != nil {
		h.Registry = handler.NewRegistryHandler(a.Registries)
	}
	return h
}

// HealthChecks names the stores /health pings.
func (a *App) HealthChecks() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": a.DB}
	if a.Registry != nil {
		checks["registry"] = a.Registry
	}
	if a.Redis != nil {
		checks["redis"] = redisPinger{a.Redis}
	}
	return checks
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases every opened resource.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Registry != nil {
		errs = append(errs, a.Registry.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

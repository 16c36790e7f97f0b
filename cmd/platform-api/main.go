package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/alphagov/accessibility-monitoring-platform-sub003/api/swagger"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/app"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/handler"
	internalmiddleware "github.com/alphagov/accessibility-monitoring-platform-sub003/internal/middleware"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/config"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/logger"
	corsmiddleware "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/middleware/cors"
	reqidmiddleware "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/middleware/requestid"
)

// @title Accessibility Monitoring Platform API
// @version 1.0.0
// @description Case management core for public sector website accessibility monitoring
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	platform, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to build platform", zap.Error(err))
	}
	defer func() {
		if err := platform.Close(); err != nil {
			logr.Warn("failed to close resources", zap.Error(err))
		}
	}()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(platform.Metrics))
	}

	observability := handler.NewMetricsHandler(platform.Metrics, platform.HealthChecks())
	r.GET("/health", observability.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", observability.Prometheus)
		r.GET("/metrics/summary", observability.Summary)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), platform.Handlers(),
		internalmiddleware.JWT(platform.Auth), internalmiddleware.OptionalJWT(platform.Auth))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

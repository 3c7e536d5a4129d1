package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/institute-crm-api/api/swagger"
	"github.com/noah-isme/institute-crm-api/internal/handler"
	"github.com/noah-isme/institute-crm-api/internal/repository"
	"github.com/noah-isme/institute-crm-api/internal/router"
	"github.com/noah-isme/institute-crm-api/internal/service"
	"github.com/noah-isme/institute-crm-api/pkg/cache"
	"github.com/noah-isme/institute-crm-api/pkg/config"
	"github.com/noah-isme/institute-crm-api/pkg/database"
	"github.com/noah-isme/institute-crm-api/pkg/logger"
)

// @title Institute CRM API
// @version 1.0.0
// @description Inquiry pipeline, registrations and fee ledger for an education institute
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

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(context.Background(), db, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report caching disabled", zap.Error(err))
	}

	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	inquiryRepo := repository.NewInquiryRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	agencyRepo := repository.NewAgencyRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)
	inquirySvc := service.NewInquiryService(inquiryRepo, cacheSvc, validate, logr)
	statusSvc := service.NewStatusService(historyRepo, inquiryRepo, cacheSvc, metrics, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, cacheSvc, metrics, validate, logr, cfg.Institute.AcademicSession, service.ReceiptLabels{
		InstituteName:    cfg.Institute.Name,
		InstituteAddress: cfg.Institute.Address,
		InstitutePhone:   cfg.Institute.Phone,
	})
	conversionSvc := service.NewConversionService(inquiryRepo, registrationSvc, validate, logr)
	agencySvc := service.NewAgencyService(agencyRepo, validate, logr)
	reportSvc := service.NewReportService(statusSvc, reportRepo, cacheSvc, metrics, logr, cfg.Reports.TopUpdatersLimit)
	exportSvc := service.NewExportService(registrationRepo, registrationSvc, logr, nil, nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)

	if err := userSvc.EnsureSuperAdmin(context.Background(), cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminPassword); err != nil {
		logr.Fatal("failed to seed super admin", zap.Error(err))
	}

	engine := router.New(router.Options{
		Env:            cfg.Env,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Tokens:         authSvc,
		Audit:          userRepo,
		Observer:       metrics,
		Logger:         logr,
	}, router.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Inquiries:     handler.NewInquiryHandler(inquirySvc),
		Statuses:      handler.NewStatusHandler(statusSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc, conversionSvc, exportSvc),
		Reports:       handler.NewReportHandler(reportSvc),
		Agencies:      handler.NewAgencyHandler(agencySvc),
		Users:         handler.NewUserHandler(userSvc),
		Metrics: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"cache":    cacheRepo.Ping,
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

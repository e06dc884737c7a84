package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sikap-pkl-api/api/swagger"
	"github.com/noah-isme/sikap-pkl-api/internal/handler"
	"github.com/noah-isme/sikap-pkl-api/internal/middleware"
	"github.com/noah-isme/sikap-pkl-api/internal/models"
	"github.com/noah-isme/sikap-pkl-api/internal/repository"
	"github.com/noah-isme/sikap-pkl-api/internal/service"
	"github.com/noah-isme/sikap-pkl-api/pkg/cache"
	"github.com/noah-isme/sikap-pkl-api/pkg/config"
	"github.com/noah-isme/sikap-pkl-api/pkg/database"
	"github.com/noah-isme/sikap-pkl-api/pkg/export"
	"github.com/noah-isme/sikap-pkl-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sikap-pkl-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sikap-pkl-api/pkg/middleware/requestid"
)

// @title SIKAP PKL API
// @version 1.0.0
// @description Final report scoring and certificate issuance for internship placements
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog caching disabled", "error", err)
		redisClient = nil
	}

	competencyRepo := repository.NewCompetencyRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	taskScoreRepo := repository.NewTaskScoreRepository(db)
	reportRepo := repository.NewFinalReportRepository(db)
	snapshotRepo := repository.NewWizardSnapshotRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(cfg.JWT.Secret, logr)
	catalogSvc := service.NewCatalogService(competencyRepo, cacheRepo, cfg.Catalog.CacheTTL, logr)
	sequencer := service.NewCertificateSequencer(reportRepo)
	scoreSvc := service.NewScoreService(placementRepo, reportRepo, validate, logr, metricsSvc)
	draftSvc := service.NewDraftService(placementRepo, reportRepo, snapshotRepo, catalogSvc, taskScoreRepo, sequencer, cfg.Certificate, logr)
	wizardSvc := service.NewWizardService(placementRepo, reportRepo, snapshotRepo, scoreSvc, validate, logr)
	finalizeSvc := service.NewFinalizeService(reportRepo, placementRepo, sequencer, cfg.Certificate, validate, logr, metricsSvc)
	reportSvc := service.NewReportService(reportRepo, placementRepo, logr)
	certificateSvc := service.NewCertificateExportService(
		reportRepo, placementRepo, snapshotRepo,
		export.NewCertificatePDFExporter(), cfg.Certificate.DefaultPlace, logr)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	reportHandler := handler.NewFinalReportHandler(draftSvc, scoreSvc, wizardSvc, finalizeSvc, reportSvc, certificateSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.JWT(authSvc))
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleMentor)

	api.GET("/competency-templates", staff, catalogHandler.List)

	api.GET("/placements/:id/final-report/draft", staff, reportHandler.Draft)
	api.PUT("/placements/:id/final-report/scores", staff, reportHandler.UpsertScores)
	api.POST("/placements/:id/final-report/wizard", staff, reportHandler.WizardSave)

	api.GET("/final-reports", staff, reportHandler.List)
	api.GET("/final-reports/:id", staff, reportHandler.Detail)
	api.POST("/final-reports/:id/finalize", staff, reportHandler.Finalize)
	api.GET("/final-reports/:id/certificate.pdf", staff, reportHandler.Certificate)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

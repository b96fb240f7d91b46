package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/slp-progress-api/api/swagger"
	"github.com/noah-isme/slp-progress-api/internal/handler"
	"github.com/noah-isme/slp-progress-api/internal/middleware"
	"github.com/noah-isme/slp-progress-api/internal/repository"
	"github.com/noah-isme/slp-progress-api/internal/service"
	"github.com/noah-isme/slp-progress-api/pkg/config"
	"github.com/noah-isme/slp-progress-api/pkg/database"
	"github.com/noah-isme/slp-progress-api/pkg/jobs"
	"github.com/noah-isme/slp-progress-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/slp-progress-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/slp-progress-api/pkg/middleware/requestid"

	rediscache "github.com/noah-isme/slp-progress-api/pkg/cache"
)

// @title SLP Progress API
// @version 1.0.0
// @description Student curriculum progress, graduation reconciliation and enrollment lifecycle
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Graduation.CacheEnabled {
		redisClient, err := rediscache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Graduation.CacheTTL, logr, true)
		}
	}

	studentRepo := repository.NewStudentRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	graduationRepo := repository.NewGraduationRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	// The queue handler closes over the reconciler, which is built after the
	// grade service it depends on. Assignment happens before Start.
	var reconciler *service.ReconcileService
	queue := jobs.NewQueue("reconcile", func(ctx context.Context, job jobs.Job) error {
		_, err := reconciler.ReconcileStudent(ctx, job.StudentID)
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Reconciler.QueueWorkers,
		MaxRetries: cfg.Reconciler.QueueRetries,
		RetryDelay: cfg.Reconciler.QueueRetryDelay,
		Logger:     logr,
	})
	reconcileQueue := service.NewReconcileQueue(queue)

	gradeSvc := service.NewGradeService(enrollmentRepo, reconcileQueue, nil, logr)
	syncSvc := service.NewSyncService(studentRepo, curriculumRepo, enrollmentRepo, logr)
	reconciler = service.NewReconcileService(studentRepo, graduationRepo, gradeSvc, cacheSvc, metricsSvc, cfg.Reconciler.WorkerConcurrency, logr)
	studentSvc := service.NewStudentService(studentRepo, curriculumRepo, noteRepo, syncSvc, reconcileQueue, nil, logr)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, moduleRepo, syncSvc, reconcileQueue, nil, logr)
	moduleSvc := service.NewModuleService(moduleRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, logr)
	reregistrationSvc := service.NewReregistrationService(enrollmentRepo, moduleRepo, reconcileQueue, nil, logr)
	graduationSvc := service.NewGraduationService(graduationRepo, cacheSvc, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)
	defer queue.Stop()

	studentHandler := handler.NewStudentHandler(studentSvc, syncSvc)
	curriculumHandler := handler.NewCurriculumHandler(curriculumSvc)
	moduleHandler := handler.NewModuleHandler(moduleSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, gradeSvc, reregistrationSvc)
	graduationHandler := handler.NewGraduationHandler(graduationSvc, reconciler, gradeSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		students := api.Group("/students")
		{
			students.GET("", studentHandler.List)
			students.POST("", studentHandler.Create)
			students.GET("/:id", studentHandler.Get)
			students.PUT("/:id", studentHandler.Update)
			students.PUT("/:id/curriculum", studentHandler.AssignCurriculum)
			students.PUT("/:id/status", studentHandler.UpdateStatus)
			students.GET("/:id/notes", studentHandler.Notes)
			students.POST("/:id/sync", studentHandler.SyncRoster)
		}

		curricula := api.Group("/curricula")
		{
			curricula.GET("", curriculumHandler.List)
			curricula.POST("", curriculumHandler.Create)
			curricula.GET("/:id", curriculumHandler.Get)
			curricula.PUT("/:id", curriculumHandler.Update)
			curricula.DELETE("/:id", curriculumHandler.Delete)
			curricula.GET("/:id/modules", curriculumHandler.Modules)
			curricula.POST("/:id/modules", curriculumHandler.LinkModule)
			curricula.DELETE("/:id/modules/:moduleId", curriculumHandler.UnlinkModule)
		}

		modules := api.Group("/modules")
		{
			modules.GET("", moduleHandler.List)
			modules.POST("", moduleHandler.Create)
			modules.GET("/:id", moduleHandler.Get)
			modules.PUT("/:id", moduleHandler.Update)
		}

		enrollments := api.Group("/enrollments")
		{
			enrollments.GET("", enrollmentHandler.List)
			enrollments.PATCH("/:id/scores", enrollmentHandler.UpdateScores)
			enrollments.POST("/:id/reregister", enrollmentHandler.Reregister)
		}

		graduation := api.Group("/graduation")
		{
			graduation.GET("/flags", graduationHandler.List)
			graduation.PUT("/flags/:studentId/transcript", graduationHandler.SetTranscript)
			graduation.POST("/reconcile", graduationHandler.Reconcile)
			graduation.POST("/reconcile/:studentId", graduationHandler.ReconcileStudent)
			graduation.GET("/check/:studentId", graduationHandler.Check)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

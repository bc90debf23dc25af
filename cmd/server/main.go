package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/cache"
	"github.com/SAP-F-2025/grading-workflow-service/internal/clients"
	"github.com/SAP-F-2025/grading-workflow-service/internal/config"
	"github.com/SAP-F-2025/grading-workflow-service/internal/handlers"
	"github.com/SAP-F-2025/grading-workflow-service/internal/repositories"
	"github.com/SAP-F-2025/grading-workflow-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/grading-workflow-service/internal/services"
	"github.com/SAP-F-2025/grading-workflow-service/internal/utils"
	"github.com/SAP-F-2025/grading-workflow-service/internal/validator"
	"github.com/SAP-F-2025/grading-workflow-service/pkg"
	"github.com/gin-gonic/gin"
)

const (
	janitorInterval = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewDefaultLogger().Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slogger := utils.ToSlogLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := pkg.InitDatabase(ctx, cfg)
	if err != nil {
		logger.LogError(err, "database init failed")
		os.Exit(1)
	}
	defer func() {
		if err := pkg.CloseDatabase(db); err != nil {
			logger.LogError(err, "database close error")
		}
	}()

	var store cache.CacheService
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.LogError(err, "redis init failed")
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.LogError(err, "redis close error")
			}
		}()
		store = cache.NewRedisCache(redisClient, slogger)
	} else {
		logger.Warn("REDIS_URL not set, workflow snapshots are kept in process memory")
		store = cache.NewMemoryCache()
	}

	schoolAPI, err := clients.NewSchoolAPIClient(clients.SchoolAPIConfig{
		BaseURL: cfg.SchoolAPIBaseURL,
		Token:   cfg.SchoolAPIToken,
		Timeout: cfg.SchoolAPITimeout,
	}, slogger)
	if err != nil {
		logger.LogError(err, "school api client init failed")
		os.Exit(1)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "event publisher init failed")
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.LogError(err, "event publisher close error")
		}
	}()

	serviceLogger := services.NewServiceLogger(slogger, services.LogConfig{
		Service:     "grading-workflow-service",
		Component:   "workflow",
		EnableDebug: !cfg.IsProduction(),
	})
	ledger := postgres.NewPageSubmissionPostgreSQL(db)
	roster := services.NewCachedRosterProvider(schoolAPI, store, cfg.RosterCacheTTL, slogger)

	workflowService := services.NewWorkflowService(
		roster,
		schoolAPI,
		repositories.NewSnapshotStore(store, cfg.WorkflowTTL),
		ledger,
		publisher,
		validator.New(),
		serviceLogger,
		services.WorkflowServiceConfig{
			DefaultPageSize: cfg.DefaultPageSize,
			SubmitTimeout:   cfg.SinkTimeout,
		},
	)
	exportService := services.NewExportService(workflowService, ledger, serviceLogger)
	go workflowService.RunJanitor(ctx, janitorInterval, cfg.WorkflowTTL)

	var verifier handlers.TokenVerifier
	if cfg.Auth.Enabled {
		verifier = handlers.NewCasdoorVerifier(cfg.Auth)
	} else {
		logger.Warn("AUTH_ENABLED is false, trusting the X-Teacher-ID header")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))
	handlers.NewHandlerManager(workflowService, exportService, logger).
		SetupRoutes(router, handlers.AuthMiddleware(verifier))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("grading workflow http listening", "addr", httpServer.Addr, "environment", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "http server error")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "shutdown error")
	}
	logger.Info("grading workflow service stopped")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mestero/estimate-api/docs"
	"github.com/mestero/estimate-api/internal/billing"
	"github.com/mestero/estimate-api/internal/config"
	"github.com/mestero/estimate-api/internal/database"
	"github.com/mestero/estimate-api/internal/http/handler"
	"github.com/mestero/estimate-api/internal/http/middleware"
	"github.com/mestero/estimate-api/internal/http/router"
	"github.com/mestero/estimate-api/internal/jobs"
	"github.com/mestero/estimate-api/internal/logger"
	"github.com/mestero/estimate-api/internal/parser"
	"github.com/mestero/estimate-api/internal/render"
	"github.com/mestero/estimate-api/internal/repository"
	"github.com/mestero/estimate-api/internal/service"
	"github.com/mestero/estimate-api/internal/sheets"
	"github.com/mestero/estimate-api/internal/storage"
	"github.com/mestero/estimate-api/internal/worklog"
	"go.uber.org/zap"
)

// @title Mestero Estimate API
// @version 1.0
// @description Construction estimate API for project pricing, versioned snapshots, completion acts, and payment tracking
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@mestero.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for all protected operations
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "estimate-api-staging.mestero.io"
	case "production":
		docs.SwaggerInfo.Host = "api.mestero.io"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to run auto-migration: %w", err)
		}
		log.Info("Auto-migration completed")
	}

	// Initialize storage for act artifacts
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize worklog warehouse connection (optional, read-only completion feed)
	// The app continues without it if not configured
	var worklogClient *worklog.Client
	if cfg.Worklog.Enabled {
		worklogClient, err = worklog.NewClient(&cfg.Worklog, log)
		if err != nil {
			log.Warn("Worklog connection failed, continuing without it",
				zap.Error(err),
			)
		} else if worklogClient != nil {
			log.Info("Worklog warehouse connected",
				zap.Int("max_open_conns", cfg.Worklog.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.Worklog.QueryTimeout),
			)
		}
	} else {
		log.Info("Worklog warehouse not configured, skipping",
			zap.Bool("enabled", cfg.Worklog.Enabled),
		)
	}

	// Initialize invoice gateway for provider-backed payments
	invoiceGateway, err := billing.NewMercadoPagoGateway(&cfg.Billing, log)
	if err != nil {
		return fmt.Errorf("failed to initialize invoice gateway: %w", err)
	}

	// Remaining HTTP collaborators
	actRenderer := render.NewHTTPRenderer(&cfg.Render, log)
	sheetsClient := sheets.NewHTTPClient(&cfg.Sheets, log)
	productParser := parser.NewHTTPClient(&cfg.Parser, log)

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	viewRepo := repository.NewViewRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	itemRepo := repository.NewItemRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	actRepo := repository.NewActRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	materialsRepo := repository.NewMaterialsRepository(db)

	// Initialize services
	projectService := service.NewProjectService(projectRepo, ledgerRepo, log)
	viewService := service.NewViewService(viewRepo, projectRepo, log)
	estimateService := service.NewEstimateService(projectRepo, sectionRepo, itemRepo, viewRepo, ledgerRepo, sheetsClient, log)
	versionService := service.NewVersionService(versionRepo, projectRepo, log)
	actService := service.NewActService(actRepo, projectRepo, viewRepo, actRenderer, fileStorage, log)
	paymentService := service.NewPaymentService(paymentRepo, ledgerRepo, projectRepo, itemRepo, invoiceGateway, cfg.Billing.InvoiceCap, log)
	materialsService := service.NewMaterialsService(materialsRepo, projectRepo, productParser, log)
	worklogSyncService := service.NewWorklogSyncService(worklogClient, ledgerRepo, log)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	projectHandler := handler.NewProjectHandler(projectService, log)
	estimateHandler := handler.NewEstimateHandler(estimateService, log)
	viewHandler := handler.NewViewHandler(viewService, log)
	versionHandler := handler.NewVersionHandler(versionService, log)
	actHandler := handler.NewActHandler(actService, log)
	paymentHandler := handler.NewPaymentHandler(paymentService, log)
	materialsHandler := handler.NewMaterialsHandler(materialsService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		rateLimiter,
		projectHandler,
		estimateHandler,
		viewHandler,
		versionHandler,
		actHandler,
		paymentHandler,
		materialsHandler,
	)

	// Initialize and start scheduler for the periodic completion sync
	var scheduler *jobs.Scheduler
	if worklogClient != nil && worklogClient.IsEnabled() && cfg.Worklog.SyncSchedule != "" {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterWorklogSyncJob(
			scheduler,
			worklogSyncService,
			log,
			cfg.Worklog.SyncSchedule,
			cfg.Worklog.QueryTimeoutDuration(),
			cfg.Worklog.SyncOnStartup,
		); err != nil {
			log.Error("Failed to register worklog sync job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with worklog sync job",
				zap.String("cron_expr", cfg.Worklog.SyncSchedule),
				zap.Bool("startup_sync", cfg.Worklog.SyncOnStartup),
			)
		}
	} else {
		log.Info("Worklog periodic sync disabled",
			zap.Bool("worklog_enabled", cfg.Worklog.Enabled),
			zap.Bool("client_available", worklogClient != nil),
		)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close worklog connection if initialized
		if worklogClient != nil {
			if err := worklogClient.Close(); err != nil {
				log.Warn("Error closing worklog connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

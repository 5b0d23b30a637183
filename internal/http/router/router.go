package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mestero/estimate-api/internal/config"
	"github.com/mestero/estimate-api/internal/database"
	"github.com/mestero/estimate-api/internal/http/handler"
	"github.com/mestero/estimate-api/internal/http/middleware"

	_ "github.com/mestero/estimate-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	rateLimiter      *middleware.RateLimiter
	projectHandler   *handler.ProjectHandler
	estimateHandler  *handler.EstimateHandler
	viewHandler      *handler.ViewHandler
	versionHandler   *handler.VersionHandler
	actHandler       *handler.ActHandler
	paymentHandler   *handler.PaymentHandler
	materialsHandler *handler.MaterialsHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	rateLimiter *middleware.RateLimiter,
	projectHandler *handler.ProjectHandler,
	estimateHandler *handler.EstimateHandler,
	viewHandler *handler.ViewHandler,
	versionHandler *handler.VersionHandler,
	actHandler *handler.ActHandler,
	paymentHandler *handler.PaymentHandler,
	materialsHandler *handler.MaterialsHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		rateLimiter:      rateLimiter,
		projectHandler:   projectHandler,
		estimateHandler:  estimateHandler,
		viewHandler:      viewHandler,
		versionHandler:   versionHandler,
		actHandler:       actHandler,
		paymentHandler:   paymentHandler,
		materialsHandler: materialsHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": map[bool]string{true: "healthy", false: "unhealthy"}[allHealthy],
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public shared-view resolution by link token
		r.Get("/shared/{token}", rt.viewHandler.GetByToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKey(&rt.cfg.ApiKey, rt.logger))

			// Projects
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Post("/", rt.projectHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", rt.projectHandler.Get)
					r.Put("/", rt.projectHandler.Update)
					r.Delete("/", rt.projectHandler.Delete)
					r.Get("/tree", rt.projectHandler.GetTree)
					r.Get("/balance", rt.paymentHandler.Balance)
					r.Post("/sync", rt.estimateHandler.SyncFromSpreadsheet)

					// Sections
					r.Post("/sections", rt.estimateHandler.AddSection)
					r.Put("/sections/reorder", rt.estimateHandler.ReorderSections)

					// Views
					r.Get("/views", rt.viewHandler.List)
					r.Post("/views", rt.viewHandler.Create)
					r.Get("/views/{viewId}/totals", rt.projectHandler.Totals)

					// Versions
					r.Get("/versions", rt.versionHandler.List)
					r.Post("/versions", rt.versionHandler.Create)

					// Acts
					r.Get("/acts", rt.actHandler.List)
					r.Post("/acts", rt.actHandler.Create)
					r.Get("/acts/used-items", rt.actHandler.UsedItems)

					// Payments
					r.Get("/payments", rt.paymentHandler.List)
					r.Post("/payments", rt.paymentHandler.Record)
					r.Post("/payments/invoice", rt.paymentHandler.RecordProviderInvoice)
					r.Get("/payments/item-statuses", rt.paymentHandler.ItemStatuses)

					// Materials
					r.Get("/materials", rt.materialsHandler.List)
					r.Post("/materials", rt.materialsHandler.Create)
				})
			})

			// Sections
			r.Route("/sections/{id}", func(r chi.Router) {
				r.Put("/", rt.estimateHandler.RenameSection)
				r.Delete("/", rt.estimateHandler.DeleteSection)
				r.Put("/visibility", rt.estimateHandler.SetSectionVisibility)
				r.Post("/items", rt.estimateHandler.AddItem)
				r.Put("/items/reorder", rt.estimateHandler.ReorderItems)
			})

			// Items
			r.Route("/items/{id}", func(r chi.Router) {
				r.Put("/", rt.estimateHandler.UpdateItem)
				r.Delete("/", rt.estimateHandler.DeleteItem)
				r.Put("/settings", rt.estimateHandler.SetItemViewSetting)
			})

			// Views
			r.Route("/views/{id}", func(r chi.Router) {
				r.Put("/", rt.viewHandler.Rename)
				r.Delete("/", rt.viewHandler.Delete)
				r.Put("/password", rt.viewHandler.SetPassword)
				r.Delete("/password", rt.viewHandler.ClearPassword)
				r.Post("/duplicate", rt.viewHandler.Duplicate)
				r.Put("/customer", rt.viewHandler.SetCustomerFlag)
			})

			// Versions
			r.Route("/versions/{id}", func(r chi.Router) {
				r.Get("/", rt.versionHandler.Get)
				r.Post("/restore", rt.versionHandler.Restore)
			})

			// Acts
			r.Route("/acts/{id}", func(r chi.Router) {
				r.Get("/", rt.actHandler.Get)
				r.Delete("/", rt.actHandler.Delete)
			})

			// Payments
			r.Delete("/payments/{id}", rt.paymentHandler.Delete)

			// Materials
			r.Route("/materials/{id}", func(r chi.Router) {
				r.Get("/", rt.materialsHandler.Get)
				r.Delete("/", rt.materialsHandler.Delete)
			})
		})
	})

	return r
}

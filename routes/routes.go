package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/sketch-gateway/app"
	"github.com/upb/sketch-gateway/handlers"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if deps.Config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.Config.Server.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", handlers.PathHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	generationHandler := handlers.NewGenerationHandler(deps.Gateway, deps.Logger)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Gateway, deps.Logger)
	healthHandler := handlers.NewHealthHandler(databaseChecker(deps), deps.Gateway, deps.Logger)
	statusHandler := handlers.NewStatusHandler(handlers.StatusInfo{
		Environment:  deps.Config.Environment,
		BackendURL:   deps.Config.Backend.BaseURL,
		LiveGenerate: deps.Config.Backend.LiveGenerate,
	}, deps.Metrics, statsSource(deps), deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Generated and reference images live on the backend
	if imageProxy, err := handlers.NewImageProxy(deps.Config.Backend.BaseURL, deps.Logger); err != nil {
		deps.Logger.Warn("image proxy disabled", zap.Error(err))
	} else {
		r.Get("/generated/*", imageProxy.ServeHTTP)
		r.Get("/reference-images/*", imageProxy.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		if deps.AuthMiddleware != nil {
			r.Use(deps.AuthMiddleware.RequireAuth)
		}

		r.Get("/generations", generationHandler.HandleHistory)
		r.Post("/generate", generationHandler.HandleGenerate)
		r.Post("/generate-stream", generationHandler.HandleGenerateStream)
		r.Post("/refine", generationHandler.HandleRefine)
		r.Get("/styles", generationHandler.HandleStyles)

		r.Post("/feedback", feedbackHandler.HandleSubmit)
		r.Post("/feedback/summarize", feedbackHandler.HandleSummarize)

		r.Get("/backend/health", healthHandler.HandleBackendHealth)
		r.Get("/status", statusHandler.HandleStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	return r
}

// databaseChecker returns the audit pool for readiness checks, or nil when auditing is off
func databaseChecker(deps *app.Dependencies) handlers.DatabaseChecker {
	if deps.DB == nil {
		return nil
	}
	return deps.DB
}

// statsSource avoids handing a typed nil to the status handler
func statsSource(deps *app.Dependencies) handlers.DispatchStatsSource {
	if deps.Audit == nil {
		return nil
	}
	return deps.Audit
}

package handler

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/config"
	"github.com/suar-net/foodscan-be/internal/repository"
)

// NutritionAnalyzer is what the API needs from the nutrition service.
type NutritionAnalyzer interface {
	FoodAnalyzer
	ConnectivityTester
}

// Dependencies are injected into the handlers. DB, History and Tokens are
// nil when the matching feature is disabled.
type Dependencies struct {
	Config   *config.Config
	Analyzer NutritionAnalyzer
	DB       *sql.DB
	History  repository.IAnalysisRepository
	Tokens   TokenValidator
	Logger   *zap.Logger
}

// SetupRouter creates the main Chi router for the application.
func SetupRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Use(corsNegotiation())
	r.Use(corsHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithFailure(w, http.StatusNotFound, "Not found")
	})

	cfg := deps.Config
	hasAPIKey := cfg.Model.APIKey != ""

	healthHandler := NewHealthHandler(hasAPIKey, deps.DB, deps.Logger)
	diagnosticHandler := NewDiagnosticHandler(cfg.Model.APIKey, deps.Analyzer, deps.Logger)

	var analyzeHandler http.Handler = NewAnalyzeHandler(cfg.Model, cfg.Server.MaxUploadBytes, deps.Analyzer, deps.History, deps.Logger)

	var authMiddleware *AuthMiddleware
	if deps.Tokens != nil {
		authMiddleware = NewAuthMiddleware(deps.Tokens, deps.Logger)
		analyzeHandler = authMiddleware.AuthenticateMethods(analyzeHandler, http.MethodPost)
	}

	r.HandleFunc("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.HandleFunc("/health", healthHandler.Check)
		r.HandleFunc("/proxy", healthHandler.CORSProbe)

		// The handler answers every method itself.
		r.Handle("/analyze-food", analyzeHandler)

		r.HandleFunc("/debug-food", diagnosticHandler.Debug)
		r.HandleFunc("/test-openai", diagnosticHandler.TestModel)

		if deps.History != nil {
			historyHandler := NewHistoryHandler(deps.History, deps.Logger)
			if authMiddleware != nil {
				r.With(authMiddleware.Authenticate).Get("/analyses", historyHandler.List)
			} else {
				r.Get("/analyses", historyHandler.List)
			}
		}
	})

	return r
}

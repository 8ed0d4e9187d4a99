package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/model"
)

const (
	serviceVersion = "1.0.0"

	statusConfigured = "configured"
	statusMissing    = "missing"
)

type HealthHandler struct {
	hasAPIKey bool
	db        *sql.DB
	logger    *zap.Logger
}

// NewHealthHandler builds the liveness endpoints. db is nil when history
// is disabled.
func NewHealthHandler(hasAPIKey bool, db *sql.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		hasAPIKey: hasAPIKey,
		db:        db,
		logger:    logger,
	}
}

func (h *HealthHandler) openAIStatus() string {
	if h.hasAPIKey {
		return statusConfigured
	}
	return statusMissing
}

// Check reports liveness and whether the model credential is present.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := model.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(model.TimestampLayout),
		OpenAI:    h.openAIStatus(),
		Version:   serviceVersion,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("health check: history database unreachable", zap.Error(err))
			status.History = "unavailable"
		} else {
			status.History = "connected"
		}
	}

	respondWithJson(w, http.StatusOK, status)
}

// CORSProbe confirms cross-origin access from the browser.
func (h *HealthHandler) CORSProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	respondWithJson(w, http.StatusOK, model.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(model.TimestampLayout),
		OpenAI:    h.openAIStatus(),
		CORS:      "enabled",
	})
}

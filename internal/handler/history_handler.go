package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/model"
	"github.com/suar-net/foodscan-be/internal/repository"
)

const defaultHistoryLimit = 20

type HistoryHandler struct {
	repo   repository.IAnalysisRepository
	logger *zap.Logger
}

func NewHistoryHandler(repo repository.IAnalysisRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: logger,
	}
}

// List returns the most recent analyses, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	query := model.HistoryQuery{Limit: defaultHistoryLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondWithFailure(w, http.StatusBadRequest, "Query parameter 'limit' must be an integer")
			return
		}
		query.Limit = limit
	}

	if err := validate.Struct(query); err != nil {
		respondWithFailure(w, http.StatusBadRequest, ValidationError(err))
		return
	}

	records, err := h.repo.ListRecent(r.Context(), query.Limit)
	if err != nil {
		h.logger.Error("failed to list analysis history", zap.Error(err), zap.Int("limit", query.Limit))
		respondWithFailure(w, http.StatusInternalServerError, "Failed to load analysis history")
		return
	}

	respondWithSuccess(w, records)
}

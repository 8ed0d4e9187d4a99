package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/model"
)

// respondWithError sends {"error": message}, the shape used by the
// diagnostic endpoints.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJson(w, code, map[string]string{"error": message})
}

// respondWithFailure sends the {success:false, error} envelope used by the
// analysis endpoints.
func respondWithFailure(w http.ResponseWriter, code int, message string) {
	respondWithJson(w, code, model.APIResponse{Success: false, Error: message})
}

func respondWithSuccess(w http.ResponseWriter, data interface{}) {
	respondWithJson(w, http.StatusOK, model.APIResponse{Success: true, Data: data})
}

func respondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	dat, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("failed to marshal JSON response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(dat)
}

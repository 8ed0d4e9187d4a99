package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/model"
	"github.com/suar-net/foodscan-be/internal/service"
)

const keyPrefixLength = 7

// ConnectivityTester sends a minimal prompt to the model service.
type ConnectivityTester interface {
	TestConnection(ctx context.Context) (string, error)
}

type DiagnosticHandler struct {
	apiKey string
	tester ConnectivityTester
	logger *zap.Logger
}

func NewDiagnosticHandler(apiKey string, tester ConnectivityTester, logger *zap.Logger) *DiagnosticHandler {
	return &DiagnosticHandler{
		apiKey: apiKey,
		tester: tester,
		logger: logger,
	}
}

// keyPrefix shows enough of the credential to identify it.
func keyPrefix(key string) string {
	if key == "" {
		return "Not found"
	}
	if len(key) > keyPrefixLength {
		key = key[:keyPrefixLength]
	}
	return key + "..."
}

// Debug echoes request metadata. It never calls the model service.
func (h *DiagnosticHandler) Debug(w http.ResponseWriter, r *http.Request) {
	info := model.DebugInfo{
		Method:      r.Method,
		HasAPIKey:   h.apiKey != "",
		KeyPrefix:   keyPrefix(h.apiKey),
		ContentType: r.Header.Get("Content-Type"),
		HasBody:     r.ContentLength != 0,
	}

	if r.Method != http.MethodPost {
		respondWithJson(w, http.StatusOK, model.DebugResponse{
			Message: "This endpoint requires POST method",
			Debug:   info,
		})
		return
	}

	success := true
	respondWithJson(w, http.StatusOK, model.DebugResponse{
		Success: &success,
		Message: "Debug endpoint reached successfully",
		Debug:   info,
		Note:    "Model client initialized successfully",
	})
}

// TestModel checks that the credential and the model service work together.
func (h *DiagnosticHandler) TestModel(w http.ResponseWriter, r *http.Request) {
	if h.apiKey == "" {
		respondWithError(w, http.StatusInternalServerError, "OpenAI API key not found in environment variables")
		return
	}

	answer, err := h.tester.TestConnection(r.Context())
	if err != nil {
		h.logger.Error("model connectivity test failed", zap.Error(err))
		keyExists := true
		respondWithJson(w, http.StatusInternalServerError, model.ConnectivityResponse{
			Success:   false,
			Error:     err.Error(),
			ErrorType: errorType(err),
			KeyExists: &keyExists,
			KeyPrefix: keyPrefix(h.apiKey),
		})
		return
	}

	respondWithJson(w, http.StatusOK, model.ConnectivityResponse{
		Success:   true,
		Message:   "OpenAI API is working!",
		Response:  answer,
		KeyPrefix: keyPrefix(h.apiKey),
	})
}

func errorType(err error) string {
	switch {
	case errors.Is(err, service.ErrRequestTimeout):
		return "timeout"
	case errors.Is(err, service.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, service.ErrEmptyCompletion):
		return "empty_completion"
	case errors.Is(err, service.ErrNotConfigured):
		return "not_configured"
	default:
		return "network_error"
	}
}

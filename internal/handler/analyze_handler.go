package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/config"
	"github.com/suar-net/foodscan-be/internal/formdata"
	"github.com/suar-net/foodscan-be/internal/model"
	"github.com/suar-net/foodscan-be/internal/repository"
	"github.com/suar-net/foodscan-be/internal/service"
)

const (
	msgMethodNotAllowed = "Method not allowed. Use POST."
	msgKeyNotConfigured = "OpenAI API key not configured"
	msgParseFailed      = "Failed to parse form data. Please send multipart/form-data with an image field."
	msgNoImage          = "No image provided. Please upload a food photo."
	msgAnalysisFailed   = "Food analysis failed. Please try again."

	historyWriteTimeout = 3 * time.Second
)

// FoodAnalyzer produces a nutrition estimate for one image.
type FoodAnalyzer interface {
	AnalyzeImage(ctx context.Context, req service.AnalysisRequest) (model.AnalysisResult, error)
}

type AnalyzeHandler struct {
	modelCfg       config.ModelConfig
	maxUploadBytes int64
	analyzer       FoodAnalyzer
	history        repository.IAnalysisRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewAnalyzeHandler builds the analysis endpoint. history may be nil.
func NewAnalyzeHandler(modelCfg config.ModelConfig, maxUploadBytes int64, analyzer FoodAnalyzer, history repository.IAnalysisRepository, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		modelCfg:       modelCfg,
		maxUploadBytes: maxUploadBytes,
		analyzer:       analyzer,
		history:        history,
		logger:         logger,
		now:            time.Now,
	}
}

func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := h.now()
	if preflight(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		respondWithFailure(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	log := h.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("analysis panicked", zap.Any("panic", rec), zap.Stack("stack"))
			h.respondWithAnalysisError(w, startTime)
		}
	}()

	if h.modelCfg.APIKey == "" {
		log.Error("analysis requested without a model credential")
		respondWithFailure(w, http.StatusInternalServerError, msgKeyNotConfigured)
		return
	}

	form, err := h.readForm(w, r)
	if err != nil {
		log.Warn("failed to parse upload", zap.Error(err), zap.String("content_type", r.Header.Get("Content-Type")))
		respondWithFailure(w, http.StatusBadRequest, msgParseFailed)
		return
	}

	image, ok := form.Image()
	if !ok {
		log.Warn("upload has no image field", zap.Int("fields", len(form)))
		respondWithFailure(w, http.StatusBadRequest, msgNoImage)
		return
	}

	goal, ok := form.Text("goal")
	if !ok {
		goal = service.DefaultGoal
	}
	mimeType := service.DetectImageType(image)

	var subject string
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		subject = claims.Subject
		log = log.With(zap.String("subject", subject))
	}

	log.Info("analyzing food image",
		zap.String("goal", goal),
		zap.Int("image_size", len(image)),
		zap.String("image_type", mimeType),
	)

	result, err := h.analyzer.AnalyzeImage(r.Context(), service.AnalysisRequest{
		Image:    image,
		MIMEType: mimeType,
		Goal:     goal,
	})
	if err != nil {
		log.Error("food analysis failed", zap.Error(err), zap.Bool("timeout", errors.Is(err, service.ErrRequestTimeout)))
		h.respondWithAnalysisError(w, startTime)
		return
	}

	result.Analysis.Finalize(startTime, h.now())

	log.Info("food analysis completed",
		zap.String("name", result.Analysis.Name),
		zap.Float64("confidence", result.Analysis.Confidence),
		zap.String("source", string(result.Source)),
		zap.Int64("processing_ms", result.Analysis.ProcessingTime),
	)

	h.recordHistory(r.Context(), log, result, goal, model.ImageInfo{Size: len(image), MIMEType: mimeType, Subject: subject})

	respondWithSuccess(w, result.Analysis)
}

func (h *AnalyzeHandler) readForm(w http.ResponseWriter, r *http.Request) (formdata.Form, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return formdata.Parse(body, r.Header.Get("Content-Type"))
}

// recordHistory stores the outcome when history is enabled. A failed write
// never changes the response.
func (h *AnalyzeHandler) recordHistory(ctx context.Context, log *zap.Logger, result model.AnalysisResult, goal string, image model.ImageInfo) {
	if h.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	record := model.NewAnalysisRecord(result, goal, image)
	if err := h.history.Create(ctx, record); err != nil {
		log.Warn("failed to record analysis history", zap.Error(err))
		return
	}
	log.Debug("analysis history recorded", zap.String("id", record.ID.String()))
}

func (h *AnalyzeHandler) respondWithAnalysisError(w http.ResponseWriter, startTime time.Time) {
	elapsed := h.now().Sub(startTime).Milliseconds()
	respondWithJson(w, http.StatusInternalServerError, model.APIResponse{
		Success:        false,
		Error:          msgAnalysisFailed,
		ProcessingTime: &elapsed,
	})
}

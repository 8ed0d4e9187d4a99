package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/config"
	"github.com/suar-net/foodscan-be/internal/model"
)

const (
	defaultImageType = "image/jpeg"

	connectivityPrompt    = "Say 'API test successful'"
	connectivityMaxTokens = 10
)

// AnalysisRequest is one image to analyze.
type AnalysisRequest struct {
	Image    []byte
	MIMEType string
	Goal     string
}

// CompletionClient is the model service the nutrition service depends on.
type CompletionClient interface {
	CreateCompletion(ctx context.Context, req *model.ChatCompletionRequest) (string, error)
}

type NutritionService struct {
	client CompletionClient
	cfg    config.ModelConfig
	logger *zap.Logger
}

func NewNutritionService(client CompletionClient, cfg config.ModelConfig, logger *zap.Logger) *NutritionService {
	logger.Info("nutrition service initialized",
		zap.Bool("has_api_key", cfg.APIKey != ""),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("max_tokens", cfg.MaxTokens),
	)

	return &NutritionService{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// AnalyzeImage asks the vision model for a nutrition estimate. A reachable
// model with an unusable answer is not an error: the result is the
// fallback variant. Errors are returned only when the call itself fails.
func (s *NutritionService) AnalyzeImage(ctx context.Context, req AnalysisRequest) (model.AnalysisResult, error) {
	if len(req.Image) == 0 {
		return model.AnalysisResult{}, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = DetectImageType(req.Image)
	}

	temperature := s.cfg.Temperature
	completionRequest := &model.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []model.ChatMessage{
			{
				Role: "user",
				Content: []model.ContentPart{
					{
						Type: model.ContentTypeText,
						Text: BuildAnalysisPrompt(req.Goal),
					},
					{
						Type: model.ContentTypeImageURL,
						ImageURL: &model.ImageURL{
							URL:    DataURL(mimeType, req.Image),
							Detail: model.ImageDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: &temperature,
	}

	start := time.Now()
	answer, err := s.client.CreateCompletion(ctx, completionRequest)
	if errors.Is(err, ErrEmptyCompletion) {
		// no choices or null content, e.g. a content-filter refusal
		s.logger.Warn("model returned no completion, using fallback analysis", zap.Error(err))
		return fallback(err), nil
	}
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("failed to get analysis completion: %w", err)
	}

	s.logger.Debug("model answered",
		zap.Duration("latency", time.Since(start)),
		zap.Int("answer_length", len(answer)),
	)

	result := CoerceAnalysis(answer)
	if result.IsFallback() {
		s.logger.Warn("failed to parse model answer, using fallback analysis",
			zap.Error(result.Reason),
		)
	}
	return result, nil
}

// TestConnection runs a trivial text completion against the test model.
func (s *NutritionService) TestConnection(ctx context.Context) (string, error) {
	answer, err := s.client.CreateCompletion(ctx, &model.ChatCompletionRequest{
		Model: s.cfg.TestModel,
		Messages: []model.ChatMessage{
			{Role: "user", Content: connectivityPrompt},
		},
		MaxTokens: connectivityMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("connectivity test failed: %w", err)
	}
	return answer, nil
}

// DetectImageType sniffs the image MIME type, defaulting to JPEG for
// anything that is not recognizably an image.
func DetectImageType(image []byte) string {
	mtype := mimetype.Detect(image)
	if strings.HasPrefix(mtype.String(), "image/") {
		return mtype.String()
	}
	return defaultImageType
}

// DataURL inlines the image as a base64 data URL.
func DataURL(mimeType string, image []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

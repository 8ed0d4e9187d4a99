package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AnalysisRecord is one row of analysis history. Image bytes are never kept.
type AnalysisRecord struct {
	ID             uuid.UUID      `json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	Goal           string         `json:"goal"`
	Name           string         `json:"name"`
	CaloriesMin    float64        `json:"calories_min"`
	CaloriesMax    float64        `json:"calories_max"`
	NutritionScore float64        `json:"nutrition_score"`
	Confidence     float64        `json:"confidence"`
	Source         AnalysisSource `json:"source"`
	DurationMs     int64          `json:"duration_ms"`
	ImageSize      int            `json:"image_size"`
	ImageType      string         `json:"image_type"`
	Subject        string         `json:"subject,omitempty"`
}

// NewAnalysisRecord captures a finalized analysis for history.
func NewAnalysisRecord(result AnalysisResult, goal string, image ImageInfo) *AnalysisRecord {
	a := result.Analysis
	rec := &AnalysisRecord{
		ID:             uuid.New(),
		CreatedAt:      time.Now().UTC(),
		Goal:           goal,
		Name:           a.Name,
		NutritionScore: a.NutritionScore,
		Confidence:     a.Confidence,
		Source:         result.Source,
		DurationMs:     a.ProcessingTime,
		ImageSize:      image.Size,
		ImageType:      image.MIMEType,
		Subject:        image.Subject,
	}
	if a.Calories != nil {
		rec.CaloriesMin = a.Calories.Min
		rec.CaloriesMax = a.Calories.Max
	}
	return rec
}

// ImageInfo describes an uploaded image without its content. Subject is
// the authenticated caller, empty when the API is open.
type ImageInfo struct {
	Size     int
	MIMEType string
	Subject  string
}

// Claims are the bearer-token claims accepted by the API.
type Claims struct {
	jwt.RegisteredClaims
}

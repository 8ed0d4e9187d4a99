package model

import "time"

// Calories is an estimated energy range in kcal.
type Calories struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FoodAnalysis is the nutrition estimate returned to the caller.
// Name and Calories are required for a model answer to be accepted.
type FoodAnalysis struct {
	Name           string    `json:"name" validate:"required"`
	Description    string    `json:"description"`
	Calories       *Calories `json:"calories" validate:"required"`
	NutritionScore float64   `json:"nutritionScore"`
	Confidence     float64   `json:"confidence"`
	Insights       []string  `json:"insights"`
	ProcessingTime int64     `json:"processingTime"`
	Timestamp      string    `json:"timestamp"`
}

// Finalize stamps the derived metadata onto the analysis.
func (a *FoodAnalysis) Finalize(startedAt, now time.Time) {
	elapsed := now.Sub(startedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	a.ProcessingTime = elapsed
	a.Timestamp = now.UTC().Format(TimestampLayout)
}

// TimestampLayout is ISO 8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FallbackAnalysis is substituted when the model answer cannot be used.
func FallbackAnalysis() FoodAnalysis {
	return FoodAnalysis{
		Name:           "Unknown Food",
		Description:    "Could not analyze this image clearly",
		Calories:       &Calories{Min: 200, Max: 400},
		NutritionScore: 5.0,
		Confidence:     30,
		Insights:       []string{"Please try taking another photo with better lighting"},
	}
}

type AnalysisSource string

const (
	SourceParsed   AnalysisSource = "parsed"
	SourceFallback AnalysisSource = "fallback"
)

// AnalysisResult is the outcome of coercing a model answer: either the
// parsed analysis or the fallback. Reason explains a fallback and is only
// meant for logs.
type AnalysisResult struct {
	Source   AnalysisSource
	Analysis FoodAnalysis
	Reason   error
}

func (r AnalysisResult) IsFallback() bool {
	return r.Source == SourceFallback
}

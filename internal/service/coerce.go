package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/suar-net/foodscan-be/internal/model"
)

var (
	validate     = validator.New()
	fencePattern = regexp.MustCompile("```(?:json)?\n?")
)

// StripCodeFences removes markdown code fences, tagged json or not.
func StripCodeFences(answer string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(answer, ""))
}

// CoerceAnalysis turns a model answer into an AnalysisResult. It never
// fails: an answer that is not a JSON object with a name and calories
// yields the fallback analysis.
func CoerceAnalysis(answer string) model.AnalysisResult {
	var analysis model.FoodAnalysis
	if err := json.Unmarshal([]byte(StripCodeFences(answer)), &analysis); err != nil {
		return fallback(fmt.Errorf("model answer is not a JSON object: %w", err))
	}
	if err := validate.Struct(&analysis); err != nil {
		return fallback(fmt.Errorf("model answer is missing required fields: %w", err))
	}

	if analysis.Calories.Min > analysis.Calories.Max {
		analysis.Calories.Min, analysis.Calories.Max = analysis.Calories.Max, analysis.Calories.Min
	}

	return model.AnalysisResult{
		Source:   model.SourceParsed,
		Analysis: analysis,
	}
}

func fallback(reason error) model.AnalysisResult {
	return model.AnalysisResult{
		Source:   model.SourceFallback,
		Analysis: model.FallbackAnalysis(),
		Reason:   reason,
	}
}

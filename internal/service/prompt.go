package service

import "fmt"

// DefaultGoal is used when the caller sends no goal.
const DefaultGoal = "general"

const analysisPromptTemplate = `Analyze this food image and return ONLY a JSON response with this exact structure:

{
  "name": "Food name",
  "description": "Brief description",
  "calories": {"min": 300, "max": 450},
  "nutritionScore": 8.0,
  "confidence": 85,
  "insights": ["Health insight 1", "Health insight 2"]
}

Guidelines:
- Be conservative with calorie estimates
- Score nutrition 1-10 (whole foods = higher)
- Confidence should reflect how clearly you can see the food
- Include 2-3 helpful insights
- Consider the user goal: %s

Return ONLY the JSON, no other text.`

// BuildAnalysisPrompt returns the instruction sent alongside the image.
func BuildAnalysisPrompt(goal string) string {
	if goal == "" {
		goal = DefaultGoal
	}
	return fmt.Sprintf(analysisPromptTemplate, goal)
}

package coach

type RecommendationType string

const (
	TypeWorkoutAdjustment RecommendationType = "workout_adjustment"
	TypeMealSuggestion    RecommendationType = "meal_suggestion"
	TypeMotivation        RecommendationType = "motivation"
	TypeRecovery          RecommendationType = "recovery"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Confidence  float64            `json:"confidence"`
	Priority    Priority           `json:"priority"`
	Actionable  bool               `json:"actionable"`
}

package coach

import "time"

// Difficulty is how hard a finished workout felt, one of:
//   - too_easy
//   - just_right
//   - too_hard
type Difficulty string

const (
	DifficultyTooEasy   Difficulty = "too_easy"
	DifficultyJustRight Difficulty = "just_right"
	DifficultyTooHard   Difficulty = "too_hard"
)

func (d Difficulty) String() string {
	return string(d)
}

// score maps the perceived difficulty to [0.3, 0.9]; anything unknown
// counts as too hard.
func (d Difficulty) score() float64 {
	switch d {
	case DifficultyTooEasy:
		return 0.3
	case DifficultyJustRight:
		return 0.6
	default:
		return 0.9
	}
}

// WorkoutFeedback is submitted after a completed workout session.
// Values are not range checked: Enjoyment is expected in [1,5],
// CompletionRate in [0,100].
type WorkoutFeedback struct {
	WorkoutID      string     `json:"workoutId"`
	Difficulty     Difficulty `json:"difficulty"`
	Enjoyment      int        `json:"enjoyment"`
	CompletionRate float64    `json:"completionRate"`
	Timestamp      time.Time  `json:"timestamp"`
}

type MealFeedback struct {
	MealID    string    `json:"mealId"`
	Rating    int       `json:"rating"`
	Liked     bool      `json:"liked"`
	TooSalty  *bool     `json:"tooSalty,omitempty"`
	TooSpicy  *bool     `json:"tooSpicy,omitempty"`
	TooSweet  *bool     `json:"tooSweet,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressData is a single progress check-in. A nil field was not measured.
type ProgressData struct {
	Weight             *float64            `json:"weight,omitempty"`
	Measurements       *Measurements       `json:"measurements,omitempty"`
	WorkoutPerformance *WorkoutPerformance `json:"workoutPerformance,omitempty"`
	Date               time.Time           `json:"date"`
}

type Measurements struct {
	Chest  *float64 `json:"chest,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Arms   *float64 `json:"arms,omitempty"`
	Thighs *float64 `json:"thighs,omitempty"`
}

type WorkoutPerformance struct {
	Strength    float64 `json:"strength"`    // relative improvement
	Endurance   float64 `json:"endurance"`   // relative improvement
	Consistency float64 `json:"consistency"` // percentage
}

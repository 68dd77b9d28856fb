package profile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	GoalWeightLoss  = "weight_loss"
	GoalMuscleGain  = "muscle_gain"
	GoalMaintenance = "maintenance"
	GoalEndurance   = "endurance"
	GoalStrength    = "strength"
	GoalFlexibility = "flexibility"

	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"

	DefaultWorkoutDays = 3
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// UserProfile holds the attributes collected by the onboarding flow.
type UserProfile struct {
	// personal info
	Age           int     `json:"age" validate:"gte=13,lte=100"`
	Gender        string  `json:"gender" validate:"oneof=male female other"`
	Height        float64 `json:"height" validate:"gte=100,lte=250"` // cm
	Weight        float64 `json:"weight" validate:"gte=30,lte=300"`  // kg
	ActivityLevel string  `json:"activityLevel" validate:"oneof=sedentary light moderate very extra"`

	// goals
	PrimaryGoal  string   `json:"primaryGoal" validate:"oneof=weight_loss muscle_gain maintenance endurance strength flexibility"`
	TargetWeight *float64 `json:"targetWeight,omitempty" validate:"omitempty,gte=30,lte=300"`
	Timeframe    string   `json:"timeframe"`

	// dietary preferences
	DietaryRestrictions []string `json:"dietaryRestrictions"`
	Allergies           []string `json:"allergies"`
	PreferredMeals      int      `json:"preferredMeals" validate:"omitempty,gte=3,lte=6"`

	// injuries & limitations
	Injuries    []string `json:"injuries"`
	Limitations string   `json:"limitations"`

	// experience
	FitnessLevel         string `json:"fitnessLevel" validate:"oneof=beginner intermediate advanced"`
	WorkoutFrequency     string `json:"workoutFrequency"`
	PreferredWorkoutTime string `json:"preferredWorkoutTime"`
}

// Validate checks the onboarding constraints. The coach engine never calls it,
// it accepts whatever profile it is given.
func (p UserProfile) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid profile: %s", strings.Join(msgs, "; "))
}

// WorkoutFrequencyDays parses the "<N>_days" workout frequency token.
// Falls back to DefaultWorkoutDays when absent or unparsable.
func (p UserProfile) WorkoutFrequencyDays() int {
	days, err := strconv.Atoi(strings.TrimSuffix(p.WorkoutFrequency, "_days"))
	if err != nil || days < 0 {
		return DefaultWorkoutDays
	}
	return days
}

func (p UserProfile) IsBeginner() bool {
	return p.FitnessLevel == LevelBeginner
}

func (p UserProfile) HasInjury(injury string) bool {
	for _, in := range p.Injuries {
		if in == injury {
			return true
		}
	}
	return false
}

// Humanize turns tokens like "weight_loss" or "4_days" into "weight loss" / "4 days".
func Humanize(token string) string {
	return strings.ReplaceAll(token, "_", " ")
}

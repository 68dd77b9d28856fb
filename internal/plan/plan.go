// Package plan computes the dashboard content for a profile: BMI, the weekly
// workout plan, the nutrition targets and supplement suggestions. Everything
// is derived from fixed tables, nothing is stored.
package plan

import (
	"math"
	"slices"
	"strings"

	"github.com/2beens/fitmate/internal/profile"
)

const (
	InjuryKneePain       = "Knee Pain"
	InjuryBackPain       = "Back Pain"
	InjuryShoulderIssues = "Shoulder Issues"

	defaultMeals = 4
)

type BMICategory string

const (
	BMIUnderweight BMICategory = "underweight"
	BMINormal      BMICategory = "normal"
	BMIOverweight  BMICategory = "overweight"
	BMIObese       BMICategory = "obese"
)

type Workout struct {
	Name      string   `json:"name"`
	Duration  string   `json:"duration"`
	Exercises []string `json:"exercises"`
}

type Nutrition struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"` // g
	Carbs    int `json:"carbs"`   // g
	Fats     int `json:"fats"`    // g
	Meals    int `json:"meals"`
}

type Supplement struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Timing string `json:"timing"`
}

var (
	beginnerWorkouts = []Workout{
		{Name: "Full Body Strength", Duration: "45 min", Exercises: []string{"Push-ups", "Squats", "Plank", "Lunges"}},
		{Name: "Cardio & Core", Duration: "30 min", Exercises: []string{"Walking", "Knee Raises", "Dead Bug", "Bird Dog"}},
		{Name: "Upper Body Focus", Duration: "40 min", Exercises: []string{"Wall Push-ups", "Arm Circles", "Resistance Band Rows"}},
	}
	intermediateWorkouts = []Workout{
		{Name: "Push Day", Duration: "60 min", Exercises: []string{"Bench Press", "Shoulder Press", "Dips", "Push-ups"}},
		{Name: "Pull Day", Duration: "60 min", Exercises: []string{"Pull-ups", "Rows", "Lat Pulldowns", "Bicep Curls"}},
		{Name: "Leg Day", Duration: "75 min", Exercises: []string{"Squats", "Deadlifts", "Lunges", "Calf Raises"}},
		{Name: "Cardio HIIT", Duration: "45 min", Exercises: []string{"Burpees", "Mountain Climbers", "Jump Squats"}},
	}
	advancedWorkouts = []Workout{
		{Name: "Heavy Compound", Duration: "90 min", Exercises: []string{"Deadlifts", "Squats", "Bench Press", "Rows"}},
		{Name: "Olympic Lifts", Duration: "75 min", Exercises: []string{"Clean & Jerk", "Snatch", "Front Squats"}},
		{Name: "HIIT Circuit", Duration: "60 min", Exercises: []string{"Box Jumps", "Battle Ropes", "Kettlebell Swings"}},
		{Name: "Accessory Work", Duration: "45 min", Exercises: []string{"Isolation Exercises", "Core Work", "Mobility"}},
	}

	// exercises containing any of the keywords are swapped for the replacements
	injuryFilters = []struct {
		injury       string
		keywords     []string
		replacements []string
	}{
		{InjuryKneePain, []string{"squat", "lunge"}, []string{"Leg Press (light)", "Stationary Bike"}},
		{InjuryBackPain, []string{"deadlift"}, []string{"Cat-Cow Stretches", "Swimming"}},
		{InjuryShoulderIssues, []string{"press", "push"}, []string{"Light Resistance Bands", "Physical Therapy Exercises"}},
	}

	activityMultipliers = map[string]float64{
		"sedentary": 1.2,
		"light":     1.375,
		"moderate":  1.55,
		"very":      1.725,
		"extra":     1.9,
	}
	goalMultipliers = map[string]float64{
		profile.GoalWeightLoss:  0.85,
		profile.GoalMuscleGain:  1.15,
		profile.GoalMaintenance: 1.0,
		profile.GoalEndurance:   1.1,
		profile.GoalStrength:    1.1,
		profile.GoalFlexibility: 1.0,
	}

	baseSupplements = []Supplement{
		{Name: "Whey Protein", Reason: "Support muscle protein synthesis", Timing: "Post-workout"},
		{Name: "Multivitamin", Reason: "Fill nutritional gaps", Timing: "With breakfast"},
	}
	goalSupplements = map[string][]Supplement{
		profile.GoalMuscleGain: {
			{Name: "Creatine Monohydrate", Reason: "Increase strength and muscle mass", Timing: "Post-workout"},
			{Name: "BCAAs", Reason: "Reduce muscle breakdown", Timing: "During workout"},
		},
		profile.GoalWeightLoss: {
			{Name: "L-Carnitine", Reason: "Support fat metabolism", Timing: "Pre-workout"},
			{Name: "Green Tea Extract", Reason: "Boost metabolism", Timing: "Between meals"},
		},
		profile.GoalEndurance: {
			{Name: "Beta-Alanine", Reason: "Improve muscular endurance", Timing: "Pre-workout"},
			{Name: "Electrolytes", Reason: "Maintain hydration", Timing: "During workout"},
		},
	}
	jointSupplements = []Supplement{
		{Name: "Glucosamine & Chondroitin", Reason: "Support joint health", Timing: "With meals"},
		{Name: "Omega-3", Reason: "Reduce inflammation", Timing: "With meals"},
	}
)

// BMI returns weight (kg) / height (m)^2, or 0 without a height.
func BMI(p profile.UserProfile) float64 {
	if p.Height <= 0 {
		return 0
	}
	heightM := p.Height / 100
	return p.Weight / (heightM * heightM)
}

func CategoryOf(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 25:
		return BMINormal
	case bmi < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}

// WorkoutPlan picks the workout pool of the fitness level (beginner if
// unknown), replaces exercises that aggravate the profile's injuries and
// keeps one workout per weekly training day.
func WorkoutPlan(p profile.UserProfile) []Workout {
	pool := beginnerWorkouts
	switch p.FitnessLevel {
	case profile.LevelIntermediate:
		pool = intermediateWorkouts
	case profile.LevelAdvanced:
		pool = advancedWorkouts
	}

	days := min(p.WorkoutFrequencyDays(), len(pool))
	workouts := make([]Workout, 0, days)
	for _, w := range pool[:days] {
		exercises := slices.Clone(w.Exercises)
		for _, f := range injuryFilters {
			if !p.HasInjury(f.injury) {
				continue
			}
			exercises = slices.DeleteFunc(exercises, func(exercise string) bool {
				return containsAnyFold(exercise, f.keywords)
			})
			exercises = append(exercises, f.replacements...)
		}

		workouts = append(workouts, Workout{
			Name:      w.Name,
			Duration:  w.Duration,
			Exercises: exercises,
		})
	}

	return workouts
}

func NutritionPlan(p profile.UserProfile) Nutrition {
	baseCalories := 1800.0
	if p.Gender == "male" {
		baseCalories = 2200
	}

	activity, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		activity = activityMultipliers["moderate"]
	}
	goal, ok := goalMultipliers[p.PrimaryGoal]
	if !ok {
		goal = 1.0
	}

	calories := math.Round(baseCalories * activity * goal)
	meals := p.PreferredMeals
	if meals <= 0 {
		meals = defaultMeals
	}

	return Nutrition{
		Calories: int(calories),
		Protein:  int(math.Round(p.Weight * 2.2)),
		Carbs:    int(math.Round(calories * 0.4 / 4)),
		Fats:     int(math.Round(calories * 0.25 / 9)),
		Meals:    meals,
	}
}

func Supplements(p profile.UserProfile) []Supplement {
	supplements := slices.Clone(baseSupplements)
	supplements = append(supplements, goalSupplements[p.PrimaryGoal]...)

	for _, injury := range p.Injuries {
		if strings.Contains(injury, "Joint") || strings.Contains(injury, "Arthritis") {
			supplements = append(supplements, jointSupplements...)
			break
		}
	}

	return supplements
}

func containsAnyFold(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

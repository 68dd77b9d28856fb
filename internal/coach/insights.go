package coach

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/2beens/fitmate/internal/profile"
)

const (
	minWorkoutFeedback   = 3
	difficultyWindow     = 5
	minMealFeedback      = 5
	maxMealPreferences   = 5
	minProgressEntries   = 2
	progressWindow       = 8
	maxConfidence        = 0.9
	coldStartConfidence  = 0.6
	motivationConfidence = 0.7
	motivationWeeks      = 4
	recoveryWindow       = 7 * 24 * time.Hour

	AdjustmentIncrease = 1.2
	AdjustmentNone     = 1.0
	AdjustmentDecrease = 0.8
)

// Prediction is the expected change over a timeframe.
type Prediction struct {
	WeightChange         float64 `json:"weightChange"`
	StrengthGain         float64 `json:"strengthGain"`
	EnduranceImprovement float64 `json:"enduranceImprovement"`
	Confidence           float64 `json:"confidence"`
}

// GetWorkoutDifficultyAdjustment returns the multiplier to apply to workout
// intensity: 1.2 (harder), 0.8 (easier) or 1.0. Users with fewer than three
// workout feedback entries always get 1.0.
func (e *Engine) GetWorkoutDifficultyAdjustment(_ profile.UserProfile) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.difficultyAdjustment()
}

func (e *Engine) difficultyAdjustment() float64 {
	if len(e.workoutFeedback) < minWorkoutFeedback {
		return AdjustmentNone
	}

	recent := tail(e.workoutFeedback, difficultyWindow)
	var difficultySum, completionSum float64
	for _, fb := range recent {
		difficultySum += fb.Difficulty.score()
		completionSum += fb.CompletionRate
	}
	avgDifficulty := difficultySum / float64(len(recent))
	avgCompletion := completionSum / float64(len(recent)) / 100

	switch {
	case avgDifficulty < 0.4 && avgCompletion > 0.8:
		return AdjustmentIncrease
	case avgDifficulty > 0.8 || avgCompletion < 0.6:
		return AdjustmentDecrease
	default:
		return AdjustmentNone
	}
}

// GetMealPreferences returns up to five meal ids the user liked and rated 4+,
// most frequent first; ties keep the order in which the meals were first liked.
// Empty until at least five meals got feedback.
func (e *Engine) GetMealPreferences() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mealPreferences()
}

func (e *Engine) mealPreferences() []string {
	if len(e.mealFeedback) < minMealFeedback {
		return []string{}
	}

	var mealIDs []string
	meal2count := make(map[string]int)
	for _, fb := range e.mealFeedback {
		if !fb.Liked || fb.Rating < 4 {
			continue
		}
		if _, seen := meal2count[fb.MealID]; !seen {
			mealIDs = append(mealIDs, fb.MealID)
		}
		meal2count[fb.MealID]++
	}

	sort.SliceStable(mealIDs, func(i, j int) bool {
		return meal2count[mealIDs[i]] > meal2count[mealIDs[j]]
	})

	if len(mealIDs) > maxMealPreferences {
		mealIDs = mealIDs[:maxMealPreferences]
	}
	if mealIDs == nil {
		return []string{}
	}
	return mealIDs
}

// PredictProgress estimates weight, strength and endurance change over the
// given number of weeks from the last eight progress entries. With fewer than
// two entries it falls back to goal and fitness level based defaults.
func (e *Engine) PredictProgress(p profile.UserProfile, timeframeWeeks int) Prediction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.predictProgress(p, timeframeWeeks)
}

func (e *Engine) predictProgress(p profile.UserProfile, timeframeWeeks int) Prediction {
	weeks := float64(timeframeWeeks)

	if len(e.progressHistory) < minProgressEntries {
		var weeklyWeightChange float64
		switch p.PrimaryGoal {
		case profile.GoalWeightLoss:
			weeklyWeightChange = -0.5
		case profile.GoalMuscleGain:
			weeklyWeightChange = 0.2
		}

		prediction := Prediction{
			WeightChange:         weeklyWeightChange * weeks,
			StrengthGain:         0.15,
			EnduranceImprovement: 0.1,
			Confidence:           coldStartConfidence,
		}
		if p.IsBeginner() {
			prediction.StrengthGain = 0.3
			prediction.EnduranceImprovement = 0.25
		}
		return prediction
	}

	recent := tail(e.progressHistory, progressWindow)
	weights := make([]float64, len(recent))
	strengths := make([]float64, len(recent))
	for i, entry := range recent {
		weights[i] = p.Weight
		if entry.Weight != nil {
			weights[i] = *entry.Weight
		}
		if entry.WorkoutPerformance != nil {
			strengths[i] = entry.WorkoutPerformance.Strength
		}
	}

	weightTrend := Trend(weights)
	strengthTrend := Trend(strengths)

	return Prediction{
		WeightChange:         weightTrend * weeks,
		StrengthGain:         math.Max(0, strengthTrend),
		EnduranceImprovement: math.Max(0, strengthTrend*0.8),
		Confidence:           math.Min(maxConfidence, float64(len(recent))/progressWindow),
	}
}

// GenerateRecommendations evaluates the recommendation rules against the
// current histories and returns the results ordered by priority, high first.
// Recommendations of equal priority keep the rule order:
// workout adjustment, meal suggestion, motivation, recovery.
func (e *Engine) GenerateRecommendations(p profile.UserProfile) []Recommendation {
	e.mu.RLock()
	defer e.mu.RUnlock()

	recommendations := make([]Recommendation, 0, 4)

	if adjustment := e.difficultyAdjustment(); adjustment != AdjustmentNone {
		rec := Recommendation{
			Type:       TypeWorkoutAdjustment,
			Title:      "Reduce Workout Intensity",
			Confidence: 0.8,
			Priority:   PriorityMedium,
			Actionable: true,
		}
		if adjustment > AdjustmentNone {
			rec.Title = "Increase Workout Intensity"
			rec.Description = "Based on your recent feedback, you're ready for more challenging workouts!"
		} else {
			rec.Description = "Let's adjust your workouts to match your current fitness level better."
		}
		recommendations = append(recommendations, rec)
	}

	if preferences := e.mealPreferences(); len(preferences) > 0 {
		recommendations = append(recommendations, Recommendation{
			Type:  TypeMealSuggestion,
			Title: "Personalized Meal Suggestions",
			Description: fmt.Sprintf(
				"We've noticed you enjoy %s. We'll prioritize similar meals in your plan.",
				strings.Join(preferences[:min(2, len(preferences))], " and "),
			),
			Confidence: 0.75,
			Priority:   PriorityLow,
			Actionable: true,
		})
	}

	if len(e.progressHistory) > 0 {
		prediction := e.predictProgress(p, motivationWeeks)
		if prediction.Confidence > motivationConfidence {
			direction := "muscle gain"
			if prediction.WeightChange < 0 {
				direction = "weight loss"
			}
			recommendations = append(recommendations, Recommendation{
				Type:  TypeMotivation,
				Title: "You're On Track!",
				Description: fmt.Sprintf(
					"Based on your progress, you could see %.1fkg %s in the next month.",
					math.Abs(prediction.WeightChange), direction,
				),
				Confidence: prediction.Confidence,
				Priority:   PriorityHigh,
				Actionable: false,
			})
		}
	}

	now := e.NowFunc()
	recentWorkouts := 0
	for _, fb := range e.workoutFeedback {
		if now.Sub(fb.Timestamp) < recoveryWindow {
			recentWorkouts++
		}
	}
	if recentWorkouts > p.WorkoutFrequencyDays() {
		recommendations = append(recommendations, Recommendation{
			Type:        TypeRecovery,
			Title:       "Consider a Rest Day",
			Description: "You've been very consistent this week. A rest day might help optimize your recovery.",
			Confidence:  0.7,
			Priority:    PriorityMedium,
			Actionable:  true,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority.rank() > recommendations[j].Priority.rank()
	})

	return recommendations
}

package coach_test

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/fitmate/internal/coach"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recommendationTypes(recs []coach.Recommendation) []coach.RecommendationType {
	types := make([]coach.RecommendationType, 0, len(recs))
	for _, rec := range recs {
		types = append(types, rec.Type)
	}
	return types
}

func TestEngine_GenerateRecommendations_Empty(t *testing.T) {
	engine := newTestEngine(t)

	recs := engine.GenerateRecommendations(testProfile())
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestEngine_GenerateRecommendations_AllRules(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	p := testProfile() // 3_days

	// 4 easy workouts this week: intensify + recovery
	for i := 0; i < 4; i++ {
		engine.RecordWorkoutFeedback(ctx, workoutFeedback(coach.DifficultyTooEasy, 100, testNow.AddDate(0, 0, -i)))
	}
	for _, mealID := range []string{"salad", "oatmeal", "oatmeal", "curry", "salad", "oatmeal"} {
		engine.RecordMealFeedback(ctx, mealFeedback(mealID, 5, true))
	}
	// 6 entries => confidence 0.75, losing 0.5 per entry
	for i := 0; i < 6; i++ {
		engine.RecordProgress(ctx, weightEntry(80-0.5*float64(i), 42-7*i))
	}

	recs := engine.GenerateRecommendations(p)
	require.Len(t, recs, 4)
	assert.Equal(t, []coach.RecommendationType{
		coach.TypeMotivation,
		coach.TypeWorkoutAdjustment,
		coach.TypeRecovery,
		coach.TypeMealSuggestion,
	}, recommendationTypes(recs))

	motivation := recs[0]
	assert.Equal(t, "You're On Track!", motivation.Title)
	assert.Equal(t, "Based on your progress, you could see 2.0kg weight loss in the next month.", motivation.Description)
	assert.Equal(t, coach.PriorityHigh, motivation.Priority)
	assert.InDelta(t, 0.75, motivation.Confidence, 1e-9)
	assert.False(t, motivation.Actionable)

	adjustment := recs[1]
	assert.Equal(t, "Increase Workout Intensity", adjustment.Title)
	assert.Equal(t, "Based on your recent feedback, you're ready for more challenging workouts!", adjustment.Description)
	assert.Equal(t, 0.8, adjustment.Confidence)
	assert.Equal(t, coach.PriorityMedium, adjustment.Priority)
	assert.True(t, adjustment.Actionable)

	recovery := recs[2]
	assert.Equal(t, "Consider a Rest Day", recovery.Title)
	assert.Equal(t, 0.7, recovery.Confidence)
	assert.Equal(t, coach.PriorityMedium, recovery.Priority)

	meal := recs[3]
	assert.Equal(t, "Personalized Meal Suggestions", meal.Title)
	assert.Equal(t, "We've noticed you enjoy oatmeal and salad. We'll prioritize similar meals in your plan.", meal.Description)
	assert.Equal(t, 0.75, meal.Confidence)
	assert.Equal(t, coach.PriorityLow, meal.Priority)
}

func TestEngine_GenerateRecommendations_ReduceIntensity(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	// older than a week, no recovery advice
	for i := 0; i < 3; i++ {
		engine.RecordWorkoutFeedback(ctx, workoutFeedback(coach.DifficultyTooHard, 40, testNow.AddDate(0, 0, -10)))
	}

	recs := engine.GenerateRecommendations(testProfile())
	require.Len(t, recs, 1)
	assert.Equal(t, coach.TypeWorkoutAdjustment, recs[0].Type)
	assert.Equal(t, "Reduce Workout Intensity", recs[0].Title)
	assert.Equal(t, "Let's adjust your workouts to match your current fitness level better.", recs[0].Description)
}

func TestEngine_GenerateRecommendations_MuscleGainMotivation(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	for i := 0; i < 7; i++ {
		engine.RecordProgress(ctx, weightEntry(60+0.25*float64(i), 49-7*i))
	}

	recs := engine.GenerateRecommendations(testProfile())
	require.Len(t, recs, 1)
	assert.Equal(t, "Based on your progress, you could see 1.0kg muscle gain in the next month.", recs[0].Description)
}

func TestEngine_GenerateRecommendations_LowConfidenceNoMotivation(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	// cold start prediction confidence is 0.6, five entries give 0.625
	for i := 0; i < 5; i++ {
		engine.RecordProgress(ctx, weightEntry(80-float64(i), 35-7*i))
		assert.Empty(t, engine.GenerateRecommendations(testProfile()))
	}
}

func TestEngine_GenerateRecommendations_RecoveryWindow(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	p := testProfile()
	p.WorkoutFrequency = "2_days"

	// just right, 85% completed: no difficulty adjustment
	engine.RecordWorkoutFeedback(ctx, workoutFeedback(coach.DifficultyJustRight, 85, testNow.Add(-8*24*time.Hour)))
	engine.RecordWorkoutFeedback(ctx, workoutFeedback(coach.DifficultyJustRight, 85, testNow.Add(-7*24*time.Hour)))
	engine.RecordWorkoutFeedback(ctx, workoutFeedback(coach.DifficultyJustRight, 85, testNow.Add(-6*24*time.Hour)))
	engine.RecordWorkoutFeedback(ctx, workoutFeedback(coach.DifficultyJustRight, 85, testNow.Add(-time.Hour)))
	assert.Empty(t, engine.GenerateRecommendations(p))

	engine.RecordWorkoutFeedback(ctx, workoutFeedback(coach.DifficultyJustRight, 85, testNow))
	recs := engine.GenerateRecommendations(p)
	require.Len(t, recs, 1)
	assert.Equal(t, coach.TypeRecovery, recs[0].Type)

	// unparsable frequency falls back to 3 days
	p.WorkoutFrequency = "often"
	assert.Empty(t, engine.GenerateRecommendations(p))

	// the clock moves on
	engine.NowFunc = func() time.Time { return testNow.AddDate(0, 0, 30) }
	p.WorkoutFrequency = "2_days"
	assert.Empty(t, engine.GenerateRecommendations(p))
}

func TestEngine_GenerateRecommendations_Ordering(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	for i := 0; i < 8; i++ {
		engine.RecordWorkoutFeedback(ctx, workoutFeedback(coach.DifficultyTooHard, 30, testNow))
		engine.RecordMealFeedback(ctx, mealFeedback("soup", 4, true))
		engine.RecordProgress(ctx, weightEntry(90-float64(i), 8-i))
	}

	recs := engine.GenerateRecommendations(testProfile())
	motivations := 0
	seenLow := false
	for _, rec := range recs {
		if rec.Type == coach.TypeMotivation {
			motivations++
		}
		if rec.Priority == coach.PriorityLow {
			seenLow = true
		}
		if rec.Priority == coach.PriorityHigh {
			assert.False(t, seenLow, "high priority after low priority")
		}
	}
	assert.Equal(t, 1, motivations)
	assert.Equal(t, coach.PriorityLow, recs[len(recs)-1].Priority)
	assert.Equal(t, "We've noticed you enjoy soup. We'll prioritize similar meals in your plan.", recs[len(recs)-1].Description)
}

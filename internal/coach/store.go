package coach

import "context"

// Storage keys of the three histories, relative to the user's key namespace.
const (
	WorkoutFeedbackKey = "workoutFeedback"
	MealFeedbackKey    = "mealFeedback"
	ProgressHistoryKey = "progressHistory"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=coach_test

// Store is where the engine mirrors its histories to.
// Get returns storage.ErrNotFound when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

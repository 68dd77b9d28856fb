package coach

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/fitmate/internal/storage"
	"github.com/2beens/fitmate/internal/telemetry/tracing"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Engine owns one user's feedback and progress histories and computes
// difficulty adjustments, meal preferences, progress predictions and
// recommendations from them. Nothing is cached: every call recomputes from
// the current histories.
//
// The histories only grow. Each append is mirrored to the Store, which is read
// once, with LoadPersisted, at the start of a session. Engine is safe for
// concurrent use.
type Engine struct {
	mu              sync.RWMutex
	workoutFeedback []WorkoutFeedback
	mealFeedback    []MealFeedback
	progressHistory []ProgressData

	store Store

	// NowFunc is the clock used for the recency based rules.
	NowFunc func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{
		workoutFeedback: []WorkoutFeedback{},
		mealFeedback:    []MealFeedback{},
		progressHistory: []ProgressData{},
		store:           store,
		NowFunc:         time.Now,
	}
}

func (e *Engine) RecordWorkoutFeedback(ctx context.Context, feedback WorkoutFeedback) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.workoutFeedback = append(e.workoutFeedback, feedback)
	e.persist(ctx, WorkoutFeedbackKey, e.workoutFeedback)
}

func (e *Engine) RecordMealFeedback(ctx context.Context, feedback MealFeedback) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mealFeedback = append(e.mealFeedback, feedback)
	e.persist(ctx, MealFeedbackKey, e.mealFeedback)
}

func (e *Engine) RecordProgress(ctx context.Context, entry ProgressData) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.progressHistory = append(e.progressHistory, entry)
	e.persist(ctx, ProgressHistoryKey, e.progressHistory)
}

// persist writes the whole history under key. Failures are only logged,
// the in-memory history stays authoritative for the session.
// Must be called with the write lock held.
func (e *Engine) persist(ctx context.Context, key string, history any) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.coach.persist")
	defer span.End()

	historyBytes, err := json.Marshal(history)
	if err != nil {
		log.Warnf("coach engine, marshal [%s]: %s", key, err)
		return
	}
	if err := e.store.Put(ctx, key, historyBytes); err != nil {
		log.Warnf("coach engine, persist [%s]: %s", key, err)
	}
}

// LoadPersisted replaces the histories with the persisted ones. A key that is
// absent or malformed gives an empty history. Any other read failure is
// returned and leaves all three histories untouched, so a store outage never
// turns into an empty history that would later overwrite the stored one.
func (e *Engine) LoadPersisted(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.coach.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workoutFeedback, workoutErr := loadHistory[WorkoutFeedback](ctx, e.store, WorkoutFeedbackKey)
	mealFeedback, mealErr := loadHistory[MealFeedback](ctx, e.store, MealFeedbackKey)
	progressHistory, progressErr := loadHistory[ProgressData](ctx, e.store, ProgressHistoryKey)
	if err := multierr.Combine(workoutErr, mealErr, progressErr); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.workoutFeedback = workoutFeedback
	e.mealFeedback = mealFeedback
	e.progressHistory = progressHistory

	return nil
}

func loadHistory[T any](ctx context.Context, store Store, key string) ([]T, error) {
	historyBytes, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debugf("coach engine, no persisted [%s]", key)
			return []T{}, nil
		}
		return nil, fmt.Errorf("read persisted [%s]: %w", key, err)
	}

	var history []T
	if err := json.Unmarshal(historyBytes, &history); err != nil {
		log.Warnf("coach engine, malformed persisted [%s], starting empty: %s", key, err)
		return []T{}, nil
	}
	if history == nil {
		return []T{}, nil
	}
	return history, nil
}

func (e *Engine) WorkoutFeedback() []WorkoutFeedback {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]WorkoutFeedback{}, e.workoutFeedback...)
}

func (e *Engine) MealFeedback() []MealFeedback {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]MealFeedback{}, e.mealFeedback...)
}

func (e *Engine) ProgressHistory() []ProgressData {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]ProgressData{}, e.progressHistory...)
}

// tail returns the last k elements of s (all of them if there are fewer).
func tail[T any](s []T, k int) []T {
	if len(s) <= k {
		return s
	}
	return s[len(s)-k:]
}

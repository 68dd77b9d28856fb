package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/fitmate/internal/profile"
	"github.com/2beens/fitmate/internal/telemetry/metrics"
	"github.com/2beens/fitmate/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=generator_mocks_test.go -package=coach_test

// Generator produces a chat reply using a remote text generation service.
type Generator interface {
	Generate(ctx context.Context, message string, p profile.UserProfile) (string, error)
}

var (
	motivationKeywords = []string{"motivation", "tired", "unmotivated"}
	nutritionKeywords  = []string{"diet", "nutrition", "meal"}
	trainingKeywords   = []string{"workout", "exercise", "training"}
)

// Responder answers coach chat messages. It asks the Generator first and
// falls back to keyword matched templates on any failure, so Respond always
// has an answer. Failed remote calls are not retried.
type Responder struct {
	generator      Generator
	metricsManager *metrics.Manager
}

// NewResponder creates a Responder; with a nil generator every answer comes
// from the templates.
func NewResponder(generator Generator, metricsManager *metrics.Manager) *Responder {
	return &Responder{
		generator:      generator,
		metricsManager: metricsManager,
	}
}

func (r *Responder) Respond(ctx context.Context, message string, p profile.UserProfile) string {
	ctx, span := tracing.GlobalTracer.Start(ctx, "responder.coach.respond")
	defer span.End()

	if r.generator != nil {
		response, err := r.generator.Generate(ctx, message, p)
		if err == nil {
			r.countResponse(metrics.ChatSourceRemote)
			return response
		}
		log.Warnf("coach responder, remote generation failed, using fallback: %s", err)
	}

	r.countResponse(metrics.ChatSourceFallback)
	return FallbackResponse(message, p)
}

func (r *Responder) countResponse(source string) {
	if r.metricsManager == nil {
		return
	}
	r.metricsManager.CounterChatResponses.WithLabelValues(source).Inc()
}

// FallbackResponse picks a template by the first matching keyword group:
// motivation, nutrition, training, in that order. Matching is a case
// insensitive substring check.
func FallbackResponse(message string, p profile.UserProfile) string {
	lowerMessage := strings.ToLower(message)
	goal := profile.Humanize(p.PrimaryGoal)

	switch {
	case containsAny(lowerMessage, motivationKeywords):
		return fmt.Sprintf(
			"Remember why you started your %s journey. Based on your %s level, you're building sustainable habits. Small consistent actions lead to big results! 💪",
			goal, p.FitnessLevel,
		)
	case containsAny(lowerMessage, nutritionKeywords):
		focus := "balanced nutrition to maintain your current physique"
		switch p.PrimaryGoal {
		case profile.GoalWeightLoss:
			focus = "a slight calorie deficit with high protein"
		case profile.GoalMuscleGain:
			focus = "adequate calories and protein timing around workouts"
		}
		return fmt.Sprintf("For your %s goal, focus on %s.", goal, focus)
	case containsAny(lowerMessage, trainingKeywords):
		return fmt.Sprintf(
			"Your %s level and %s frequency is a great foundation. Focus on consistency over perfection!",
			p.FitnessLevel, profile.Humanize(p.WorkoutFrequency),
		)
	default:
		return fmt.Sprintf("As your AI coach, I'm here to help with your %s journey! How can I assist you today?", goal)
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

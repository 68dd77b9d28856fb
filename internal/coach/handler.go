package coach

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitmate/internal/middleware"
	"github.com/2beens/fitmate/internal/profile"
	"github.com/2beens/fitmate/internal/telemetry/metrics"
	"github.com/2beens/fitmate/internal/telemetry/tracing"
	"github.com/2beens/fitmate/pkg"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPredictionWeeks = 4
	maxPredictionWeeks     = 52

	feedbackKindWorkout  = "workout"
	feedbackKindMeal     = "meal"
	feedbackKindProgress = "progress"
)

type profileGetter interface {
	Get(ctx context.Context, userID string) (*profile.UserProfile, error)
}

type Handler struct {
	sessions       *Sessions
	responder      *Responder
	profiles       profileGetter
	metricsManager *metrics.Manager

	chatRateLimiter middleware.RequestRateLimiter
	chatRateLimit   int

	nowFunc func() time.Time
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string          `json:"response"`
	Category MessageCategory `json:"category"`
}

type DifficultyResponse struct {
	Multiplier float64 `json:"multiplier"`
}

// NewHandler creates the coach handler. With a nil chatRateLimiter or a
// non-positive chatRateLimit the chat route is not rate limited.
func NewHandler(
	sessions *Sessions,
	responder *Responder,
	profiles profileGetter,
	metricsManager *metrics.Manager,
	chatRateLimiter middleware.RequestRateLimiter,
	chatRateLimit int,
) *Handler {
	return &Handler{
		sessions:        sessions,
		responder:       responder,
		profiles:        profiles,
		metricsManager:  metricsManager,
		chatRateLimiter: chatRateLimiter,
		chatRateLimit:   chatRateLimit,
		nowFunc:         time.Now,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/users/{id}/feedback/workout", h.HandleWorkoutFeedback).Methods("POST", "OPTIONS").Name("workout-feedback")
	r.HandleFunc("/users/{id}/feedback/meal", h.HandleMealFeedback).Methods("POST", "OPTIONS").Name("meal-feedback")
	r.HandleFunc("/users/{id}/progress", h.HandleProgress).Methods("POST", "OPTIONS").Name("progress")
	r.HandleFunc("/users/{id}/difficulty", h.HandleDifficulty).Methods("GET", "OPTIONS").Name("difficulty")
	r.HandleFunc("/users/{id}/meals/preferences", h.HandleMealPreferences).Methods("GET", "OPTIONS").Name("meal-preferences")
	r.HandleFunc("/users/{id}/prediction", h.HandlePrediction).Methods("GET", "OPTIONS").Name("prediction")
	r.HandleFunc("/users/{id}/recommendations", h.HandleRecommendations).Methods("GET", "OPTIONS").Name("recommendations")

	var chatHandler http.Handler = http.HandlerFunc(h.HandleChat)
	if h.chatRateLimiter != nil && h.chatRateLimit > 0 {
		chatHandler = middleware.RateLimit(h.chatRateLimiter, "chat", h.chatRateLimit, h.metricsManager)(chatHandler)
	}
	r.Handle("/users/{id}/chat", chatHandler).Methods("POST", "OPTIONS").Name("chat")
	r.HandleFunc("/users/{id}/chat/welcome", h.HandleChatWelcome).Methods("GET", "OPTIONS").Name("chat-welcome")
}

func (h *Handler) HandleWorkoutFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.workoutFeedback")
	defer span.End()

	var feedback WorkoutFeedback
	if !decodeJSONBody(w, r, &feedback) {
		return
	}

	engine, ok := h.engine(ctx, w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if feedback.Timestamp.IsZero() {
		feedback.Timestamp = engine.NowFunc()
	}
	engine.RecordWorkoutFeedback(ctx, feedback)
	h.countFeedback(feedbackKindWorkout)

	pkg.WriteJSONResponse(w, feedback, http.StatusCreated)
}

func (h *Handler) HandleMealFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.mealFeedback")
	defer span.End()

	var feedback MealFeedback
	if !decodeJSONBody(w, r, &feedback) {
		return
	}

	engine, ok := h.engine(ctx, w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if feedback.Timestamp.IsZero() {
		feedback.Timestamp = engine.NowFunc()
	}
	engine.RecordMealFeedback(ctx, feedback)
	h.countFeedback(feedbackKindMeal)

	pkg.WriteJSONResponse(w, feedback, http.StatusCreated)
}

func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.progress")
	defer span.End()

	var entry ProgressData
	if !decodeJSONBody(w, r, &entry) {
		return
	}

	engine, ok := h.engine(ctx, w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if entry.Date.IsZero() {
		entry.Date = engine.NowFunc()
	}
	engine.RecordProgress(ctx, entry)
	h.countFeedback(feedbackKindProgress)

	pkg.WriteJSONResponse(w, entry, http.StatusCreated)
}

func (h *Handler) HandleDifficulty(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.difficulty")
	defer span.End()

	userID := mux.Vars(r)["id"]
	p, ok := h.getProfile(ctx, w, userID)
	if !ok {
		return
	}

	engine, ok := h.engine(ctx, w, userID)
	if !ok {
		return
	}

	multiplier := engine.GetWorkoutDifficultyAdjustment(*p)
	pkg.WriteJSONResponseOK(w, DifficultyResponse{Multiplier: multiplier})
}

func (h *Handler) HandleMealPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.mealPreferences")
	defer span.End()

	engine, ok := h.engine(ctx, w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	pkg.WriteJSONResponseOK(w, engine.GetMealPreferences())
}

func (h *Handler) HandlePrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.prediction")
	defer span.End()

	weeks := defaultPredictionWeeks
	if weeksParam := r.URL.Query().Get("weeks"); weeksParam != "" {
		parsed, err := strconv.Atoi(weeksParam)
		if err != nil || parsed < 1 || parsed > maxPredictionWeeks {
			http.Error(w, "invalid weeks param, expected 1-52", http.StatusBadRequest)
			return
		}
		weeks = parsed
	}

	userID := mux.Vars(r)["id"]
	p, ok := h.getProfile(ctx, w, userID)
	if !ok {
		return
	}

	engine, ok := h.engine(ctx, w, userID)
	if !ok {
		return
	}

	prediction := engine.PredictProgress(*p, weeks)
	pkg.WriteJSONResponseOK(w, prediction)
}

func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.recommendations")
	defer span.End()

	userID := mux.Vars(r)["id"]
	p, ok := h.getProfile(ctx, w, userID)
	if !ok {
		return
	}

	engine, ok := h.engine(ctx, w, userID)
	if !ok {
		return
	}

	recommendations := engine.GenerateRecommendations(*p)
	if h.metricsManager != nil {
		for _, rec := range recommendations {
			h.metricsManager.CounterRecommendations.WithLabelValues(string(rec.Type)).Inc()
		}
	}

	pkg.WriteJSONResponseOK(w, recommendations)
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.chat")
	defer span.End()

	var chatReq ChatRequest
	if !decodeJSONBody(w, r, &chatReq) {
		return
	}
	if chatReq.Message == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}

	p, ok := h.getProfile(ctx, w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	response := h.responder.Respond(ctx, chatReq.Message, *p)
	pkg.WriteJSONResponseOK(w, ChatResponse{
		Response: response,
		Category: CategorizeMessage(chatReq.Message),
	})
}

// HandleChatWelcome greets in the caller's time zone when the tz param holds
// an IANA name, in the server's local time otherwise.
func (h *Handler) HandleChatWelcome(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.chatWelcome")
	defer span.End()

	now := h.nowFunc()
	if tz := r.URL.Query().Get("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			http.Error(w, "invalid tz param", http.StatusBadRequest)
			return
		}
		now = now.In(loc)
	}

	p, ok := h.getProfile(ctx, w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	pkg.WriteJSONResponseOK(w, ChatResponse{
		Response: Welcome(*p, now),
		Category: CategoryGeneral,
	})
}

func (h *Handler) getProfile(ctx context.Context, w http.ResponseWriter, userID string) (*profile.UserProfile, bool) {
	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return nil, false
		}
		log.Errorf("coach handler, get profile [%s]: %s", userID, err)
		http.Error(w, "failed to get profile", http.StatusInternalServerError)
		return nil, false
	}
	return p, true
}

// engine writes a 503 when the user's session could not be opened; serving
// from an empty history then would later overwrite the stored one.
func (h *Handler) engine(ctx context.Context, w http.ResponseWriter, userID string) (*Engine, bool) {
	engine, err := h.sessions.Get(ctx, userID)
	if err != nil {
		log.Errorf("coach handler, open session [%s]: %s", userID, err)
		http.Error(w, "coach session unavailable, try again", http.StatusServiceUnavailable)
		return nil, false
	}
	return engine, true
}

func (h *Handler) countFeedback(kind string) {
	if h.metricsManager == nil {
		return
	}
	h.metricsManager.CounterFeedback.WithLabelValues(kind).Inc()
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Errorf("%s %s, unmarshal json: %s", r.Method, r.URL.Path, err)
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

package plan

import (
	"context"
	"errors"
	"net/http"

	"github.com/2beens/fitmate/internal/coach"
	"github.com/2beens/fitmate/internal/profile"
	"github.com/2beens/fitmate/internal/telemetry/tracing"
	"github.com/2beens/fitmate/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type profileGetter interface {
	Get(ctx context.Context, userID string) (*profile.UserProfile, error)
}

type engineGetter interface {
	Get(ctx context.Context, userID string) (*coach.Engine, error)
}

// Plan is the full dashboard plan. DifficultyMultiplier is the coach's current
// workout intensity adjustment, meant to scale the workouts' volume.
type Plan struct {
	BMI                  float64      `json:"bmi"`
	BMICategory          BMICategory  `json:"bmiCategory"`
	Workouts             []Workout    `json:"workouts"`
	Nutrition            Nutrition    `json:"nutrition"`
	Supplements          []Supplement `json:"supplements"`
	DifficultyMultiplier float64      `json:"difficultyMultiplier"`
}

type Handler struct {
	profiles profileGetter
	engines  engineGetter
}

func NewHandler(profiles profileGetter, engines engineGetter) *Handler {
	return &Handler{
		profiles: profiles,
		engines:  engines,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/users/{id}/plan", h.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.get")
	defer span.End()

	userID := mux.Vars(r)["id"]
	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("get plan, get profile [%s]: %s", userID, err)
		http.Error(w, "failed to get profile", http.StatusInternalServerError)
		return
	}

	engine, err := h.engines.Get(ctx, userID)
	if err != nil {
		log.Errorf("get plan, coach session [%s]: %s", userID, err)
		http.Error(w, "coach session unavailable, try again", http.StatusServiceUnavailable)
		return
	}

	bmi := BMI(*p)
	pkg.WriteJSONResponseOK(w, Plan{
		BMI:                  bmi,
		BMICategory:          CategoryOf(bmi),
		Workouts:             WorkoutPlan(*p),
		Nutrition:            NutritionPlan(*p),
		Supplements:          Supplements(*p),
		DifficultyMultiplier: engine.GetWorkoutDifficultyAdjustment(*p),
	})
}

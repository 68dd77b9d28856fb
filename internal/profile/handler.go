package profile

import (
	"errors"
	"net/http"

	"github.com/2beens/fitmate/internal/telemetry/tracing"
	"github.com/2beens/fitmate/pkg"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/users/{id}/profile", h.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/users/{id}/profile", h.HandleSave).Methods("PUT", "OPTIONS").Name("save-profile")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.get")
	defer span.End()

	userID := mux.Vars(r)["id"]
	p, err := h.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("get profile [%s]: %s", userID, err)
		http.Error(w, "failed to get profile", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, p)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.save")
	defer span.End()

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	userID := mux.Vars(r)["id"]

	var p UserProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Errorf("save profile [%s], unmarshal json: %s", userID, err)
		http.Error(w, "invalid profile json", http.StatusBadRequest)
		return
	}

	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.Save(ctx, userID, p); err != nil {
		log.Errorf("save profile [%s]: %s", userID, err)
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, p)
}

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitmate/internal/storage"
	"github.com/2beens/fitmate/internal/telemetry/tracing"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
)

const profileKey = "profile"

var ErrProfileNotFound = errors.New("profile not found")

type Repo struct {
	store storage.Store
}

func NewRepo(store storage.Store) *Repo {
	return &Repo{
		store: store,
	}
}

func (r *Repo) Get(ctx context.Context, userID string) (_ *UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	profileBytes, err := r.userStore(userID).Get(ctx, profileKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	p := &UserProfile{}
	if err := json.Unmarshal(profileBytes, p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return p, nil
}

func (r *Repo) Save(ctx context.Context, userID string, p UserProfile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	profileBytes, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := r.userStore(userID).Put(ctx, profileKey, profileBytes); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

func (r *Repo) userStore(userID string) storage.Store {
	return storage.WithPrefix(r.store, storage.UserKeyPrefix(userID))
}

package coach

import (
	"context"
	"fmt"
	"sync"

	"github.com/2beens/fitmate/internal/storage"
	"github.com/2beens/fitmate/internal/telemetry/metrics"

	"golang.org/x/sync/singleflight"
)

// Sessions holds one Engine per user, created and loaded from the store on
// first use. Each engine only sees its user's key namespace.
//
// An engine whose load failed is not kept, the next Get tries again. Loads run
// outside the sessions lock, concurrent first requests of a user share one
// load. Sessions are never evicted.
type Sessions struct {
	mu      sync.RWMutex
	engines map[string]*Engine
	loads   singleflight.Group

	store          storage.Store
	metricsManager *metrics.Manager
}

func NewSessions(store storage.Store, metricsManager *metrics.Manager) *Sessions {
	return &Sessions{
		engines:        make(map[string]*Engine),
		store:          store,
		metricsManager: metricsManager,
	}
}

// Get returns the user's engine, loading persisted histories when the
// session is opened. It fails only when the persisted histories could not
// be read.
func (s *Sessions) Get(ctx context.Context, userID string) (*Engine, error) {
	if engine, ok := s.cached(userID); ok {
		return engine, nil
	}

	loaded, err, _ := s.loads.Do(userID, func() (any, error) {
		if engine, ok := s.cached(userID); ok {
			return engine, nil
		}

		engine := NewEngine(storage.WithPrefix(s.store, storage.UserKeyPrefix(userID)))
		// the load is shared with other callers, one of them going away must not fail it
		if err := engine.LoadPersisted(context.WithoutCancel(ctx)); err != nil {
			return nil, fmt.Errorf("load session [%s]: %w", userID, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		s.engines[userID] = engine
		if s.metricsManager != nil {
			s.metricsManager.GaugeActiveSessions.Set(float64(len(s.engines)))
		}

		return engine, nil
	})
	if err != nil {
		return nil, err
	}

	return loaded.(*Engine), nil
}

func (s *Sessions) cached(userID string) (*Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engine, ok := s.engines[userID]
	return engine, ok
}

func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.engines)
}

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"franchise-map-api/internal/mapstate"
	"franchise-map-api/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session: not found")

// OpenRequest describes a new map view.
type OpenRequest struct {
	FranchiseeID string
	Locations    []models.LocationRecord
	Environment  *EnvironmentReport
	Container    *mapstate.Rect
}

// Registry owns all open sessions. Sessions idle for longer than the TTL are closed by Sweep.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	base   context.Context
	stop   context.CancelFunc
	opts   mapstate.Options
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewRegistry creates a registry whose controllers use opts.
func NewRegistry(opts mapstate.Options, ttl time.Duration, logger zerolog.Logger) *Registry {
	base, stop := context.WithCancel(context.Background())
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		base:     base,
		stop:     stop,
		opts:     opts,
		ttl:      ttl,
		logger:   logger.With().Str("component", "map-sessions").Logger(),
		now:      time.Now,
	}
}

// Open starts a session and its pipeline.
func (r *Registry) Open(req OpenRequest) *Session {
	now := r.now()
	s := &Session{
		ID:           uuid.New(),
		FranchiseeID: req.FranchiseeID,
		CreatedAt:    now,
		env:          &environment{},
		container:    &container{},
		lastSeen:     now,
	}
	if req.Environment != nil {
		s.env.set(*req.Environment)
	}
	if req.Container != nil {
		s.container.set(*req.Container)
	}

	logger := r.logger.With().Str("session", s.ID.String()).Logger()
	opts := r.opts
	opts.Logger = logger
	opts.Hooks = mapstate.Hooks{
		OnValidation: func(valid bool, issues []string) {
			if valid {
				logger.Debug().Msg("map environment valid")
				return
			}
			logger.Warn().Strs("issues", issues).Msg("map environment invalid")
		},
		OnContainerReady: func(ready bool) {
			if !ready {
				logger.Warn().Msg("map container never reported a size")
			}
		},
	}

	s.ctrl = mapstate.NewController(req.Locations, s.env, s.container, opts)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	s.ctrl.Start(r.base)
	logger.Info().
		Str("franchisee_id", req.FranchiseeID).
		Int("locations", len(req.Locations)).
		Msg("map session opened")

	return s
}

// Get returns a live session and marks it as recently used.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(r.now())
	return s, nil
}

// Close ends a session.
func (r *Registry) Close(id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.ctrl.Close()
	r.logger.Info().Str("session", id.String()).Msg("map session closed")
	return nil
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many it closed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.ctrl.Close()
	}
	if len(expired) > 0 {
		r.logger.Info().Int("expired", len(expired)).Msg("swept idle map sessions")
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Shutdown()
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Shutdown closes every session.
func (r *Registry) Shutdown() {
	r.stop()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.ctrl.Close()
	}
}

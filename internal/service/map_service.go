package service

import (
	"context"
	"errors"
	"fmt"

	"franchise-map-api/internal/mapstate"
	"franchise-map-api/internal/models"
	"franchise-map-api/internal/session"

	"github.com/google/uuid"
)

// ErrInvalidRequest marks input the caller has to fix.
var ErrInvalidRequest = errors.New("service: invalid request")

// FranchiseLocationRepository interface for dependency injection
type FranchiseLocationRepository interface {
	LocationsByFranchisee(ctx context.Context, franchiseeID string) ([]models.LocationRecord, error)
}

// OpenMapParams describes the map view a page is about to show. Either FranchiseeID or Locations is
// required; inline locations win.
type OpenMapParams struct {
	FranchiseeID string
	Locations    []models.LocationRecord
	Environment  *session.EnvironmentReport
	Container    *mapstate.Rect
}

// MapView is the state returned to the page.
type MapView struct {
	ID              string `json:"id"`
	FranchiseeID    string `json:"franchisee_id,omitempty"`
	ShouldRenderMap bool   `json:"shouldRenderMap"`
	mapstate.Snapshot
}

// MapService drives map sessions for portal pages
type MapService struct {
	repo     FranchiseLocationRepository
	sessions *session.Registry
}

// NewMapService creates a new map service
func NewMapService(repo FranchiseLocationRepository, sessions *session.Registry) *MapService {
	return &MapService{repo: repo, sessions: sessions}
}

// Open starts a map session and returns its initial state.
func (s *MapService) Open(ctx context.Context, p OpenMapParams) (*MapView, error) {
	locations := p.Locations
	if locations == nil {
		if p.FranchiseeID == "" {
			return nil, fmt.Errorf("%w: franchisee_id or locations is required", ErrInvalidRequest)
		}

		var err error
		locations, err = s.repo.LocationsByFranchisee(ctx, p.FranchiseeID)
		if err != nil {
			return nil, fmt.Errorf("service: failed to load locations: %w", err)
		}
	}

	sess := s.sessions.Open(session.OpenRequest{
		FranchiseeID: p.FranchiseeID,
		Locations:    locations,
		Environment:  p.Environment,
		Container:    p.Container,
	})
	return view(sess), nil
}

func (s *MapService) lookup(id string) (*session.Session, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, session.ErrSessionNotFound
	}
	return s.sessions.Get(sid)
}

func view(sess *session.Session) *MapView {
	snap := sess.Controller().Snapshot()
	return &MapView{
		ID:              sess.ID.String(),
		FranchiseeID:    sess.FranchiseeID,
		ShouldRenderMap: snap.ShouldRenderMap(),
		Snapshot:        snap,
	}
}

// Get returns the current state of a session.
func (s *MapService) Get(id string) (*MapView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return view(sess), nil
}

// ReportEnvironment stores what the page knows about the mapping library. It is read once per pipeline
// run after the settle delay, so a report sent after that only counts once the page calls Retry.
func (s *MapService) ReportEnvironment(id string, report session.EnvironmentReport) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.ReportEnvironment(report)
	return nil
}

// ReportContainer stores the latest container measurement.
func (s *MapService) ReportContainer(id string, rect mapstate.Rect) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.ReportContainer(rect)
	return nil
}

// Resize stores a measurement taken after a window resize and re-checks the container.
func (s *MapService) Resize(id string, rect mapstate.Rect) (*MapView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.Resize(rect)
	return view(sess), nil
}

// AddBrowserLog records console output from the page.
func (s *MapService) AddBrowserLog(id string, message string) error {
	if message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.Controller().AddBrowserLog(message)
	return nil
}

// ReportMapError switches the session to the fallback list.
func (s *MapService) ReportMapError(id string, message string) (*MapView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Controller().ReportMapError(message); err != nil {
		return nil, fmt.Errorf("service: failed to report map error: %w", err)
	}
	return view(sess), nil
}

// MarkInitialized records that the widget is up.
func (s *MapService) MarkInitialized(id string) (*MapView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Controller().MarkInitialized(); err != nil {
		if errors.Is(err, mapstate.ErrNotReady) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("service: failed to mark map initialized: %w", err)
	}
	return view(sess), nil
}

// Retry restarts the session's pipeline.
func (s *MapService) Retry(id string) (*MapView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Controller().RetryMapLoad(); err != nil {
		return nil, fmt.Errorf("service: failed to retry map load: %w", err)
	}
	return view(sess), nil
}

// Overlay renders the debug panel of a session.
func (s *MapService) Overlay(id string) (string, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	html, err := mapstate.RenderOverlay(sess.Controller().Snapshot())
	if err != nil {
		return "", fmt.Errorf("service: failed to render overlay: %w", err)
	}
	return html, nil
}

// Close ends a session.
func (s *MapService) Close(id string) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return session.ErrSessionNotFound
	}
	return s.sessions.Close(sid)
}

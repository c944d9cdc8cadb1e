// Package session keeps the live map sessions opened by portal pages. A page reports what its browser
// sees; the session's controller reads those reports while it decides how the map is shown.
package session

import (
	"sync"
	"time"

	"franchise-map-api/internal/mapstate"
	"franchise-map-api/internal/models"

	"github.com/google/uuid"
)

// EnvironmentReport is what the page knows about the mapping library and the document.
type EnvironmentReport struct {
	Stylesheets []mapstate.Stylesheet `json:"stylesheets"`
	HasLibrary  bool                  `json:"hasLibrary"`
	ReadyState  string                `json:"readyState"`
}

// environment serves the latest report to the validator.
type environment struct {
	mu     sync.RWMutex
	report EnvironmentReport
}

func (e *environment) set(r EnvironmentReport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.report = r
}

func (e *environment) Stylesheets() []mapstate.Stylesheet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]mapstate.Stylesheet(nil), e.report.Stylesheets...)
}

func (e *environment) HasLibrary() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.report.HasLibrary
}

func (e *environment) ReadyState() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.report.ReadyState
}

// container serves the latest measurement to the prober.
type container struct {
	mu   sync.RWMutex
	rect mapstate.Rect
}

func (c *container) set(r mapstate.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rect = r
}

func (c *container) BoundingRect() mapstate.Rect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rect
}

// Session is one map view on one page.
type Session struct {
	ID           uuid.UUID
	FranchiseeID string
	CreatedAt    time.Time

	env       *environment
	container *container
	ctrl      *mapstate.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

// ReportEnvironment replaces the environment facts the validator sees. The validator reads them once
// per pipeline run, shortly after the run starts; a report that arrives later takes effect on the
// next RetryMapLoad. Pages should send their first report with the open request.
func (s *Session) ReportEnvironment(r EnvironmentReport) {
	s.env.set(r)
}

// ReportContainer replaces the container measurement the prober sees.
func (s *Session) ReportContainer(r mapstate.Rect) {
	s.container.set(r)
}

// Resize records a new measurement and re-checks the container.
func (s *Session) Resize(r mapstate.Rect) {
	s.container.set(r)
	s.ctrl.Resize()
}

// Controller exposes the session's pipeline.
func (s *Session) Controller() *mapstate.Controller {
	return s.ctrl
}

// Locations returns the records the session was opened with after validation.
func (s *Session) Locations() []models.LocationRecord {
	return s.ctrl.Snapshot().ValidLocations
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

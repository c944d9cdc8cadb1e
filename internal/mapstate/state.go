// Package mapstate decides whether a franchise location map can be rendered as an interactive widget or
// has to fall back to a static list. It validates the location data, the mapping library environment and
// the map container, and keeps a bounded diagnostic trace of what it did.
package mapstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"franchise-map-api/internal/models"

	"github.com/rs/zerolog"
)

// MaxLogEntries bounds the debug and browser traces.
const MaxLogEntries = 10

// Step names a stage of the map lifecycle.
type Step string

const (
	StepStarting            Step = "starting"
	StepProcessingLocations Step = "processing-locations"
	StepNoLocations         Step = "no-locations"
	StepNoValidLocations    Step = "no-valid-locations"
	StepLocationsProcessed  Step = "locations-processed"
	StepLeafletValid        Step = "leaflet-valid"
	StepLeafletInvalid      Step = "leaflet-invalid"
	StepMapInitialized      Step = "map-initialized"
	StepRetrying            Step = "retrying"
	StepFallbackActive      Step = "fallback-active"
)

// ContainerStatus is the outcome of container probing.
type ContainerStatus int

const (
	ContainerPending ContainerStatus = iota
	ContainerReady
	// ContainerForced means the container never reported a size but probing gave up and let the map
	// try anyway.
	ContainerForced
)

func (s ContainerStatus) ready() bool { return s != ContainerPending }

// Phase is the single source of truth for the map lifecycle. Each implementation carries exactly the
// data that is meaningful in that stage.
type Phase interface {
	Step() Step
	isPhase()
}

type (
	Starting            struct{}
	ProcessingLocations struct{}
	NoLocations         struct{}
	Retrying            struct{}

	NoValidLocations struct {
		Error string
	}

	LocationsProcessed struct {
		Locations []models.LocationRecord
	}

	LibraryInvalid struct {
		Locations []models.LocationRecord
		Issues    []string
		MapError  string
	}

	LibraryValid struct {
		Locations []models.LocationRecord
		Container ContainerStatus
	}

	MapInitialized struct {
		Locations []models.LocationRecord
		Container ContainerStatus
	}

	FallbackActive struct {
		Locations    []models.LocationRecord
		MapError     string
		LibraryValid bool
		Container    ContainerStatus
	}
)

func (Starting) Step() Step            { return StepStarting }
func (ProcessingLocations) Step() Step { return StepProcessingLocations }
func (NoLocations) Step() Step         { return StepNoLocations }
func (Retrying) Step() Step            { return StepRetrying }
func (NoValidLocations) Step() Step    { return StepNoValidLocations }
func (LocationsProcessed) Step() Step  { return StepLocationsProcessed }
func (LibraryInvalid) Step() Step      { return StepLeafletInvalid }
func (LibraryValid) Step() Step        { return StepLeafletValid }
func (MapInitialized) Step() Step      { return StepMapInitialized }
func (FallbackActive) Step() Step      { return StepFallbackActive }

func (Starting) isPhase()            {}
func (ProcessingLocations) isPhase() {}
func (NoLocations) isPhase()         {}
func (Retrying) isPhase()            {}
func (NoValidLocations) isPhase()    {}
func (LocationsProcessed) isPhase()  {}
func (LibraryInvalid) isPhase()      {}
func (LibraryValid) isPhase()        {}
func (MapInitialized) isPhase()      {}
func (FallbackActive) isPhase()      {}

// locationsOf returns the validated locations a phase carries, if any.
func locationsOf(p Phase) []models.LocationRecord {
	switch p := p.(type) {
	case LocationsProcessed:
		return p.Locations
	case LibraryInvalid:
		return p.Locations
	case LibraryValid:
		return p.Locations
	case MapInitialized:
		return p.Locations
	case FallbackActive:
		return p.Locations
	}
	return nil
}

// Snapshot is the flag view of a Phase plus the diagnostic traces. It is what the portal page renders.
type Snapshot struct {
	Step              Step                    `json:"initializationStep"`
	IsLoading         bool                    `json:"isLoading"`
	Error             string                  `json:"error,omitempty"`
	MapError          string                  `json:"mapError,omitempty"`
	ContainerReady    bool                    `json:"containerReady"`
	ContainerSoftFail bool                    `json:"containerSoftFail"`
	ContainerRetries  int                     `json:"containerRetries"`
	LeafletValid      bool                    `json:"leafletValid"`
	MapInitialized    bool                    `json:"mapInitialized"`
	UseFallbackMap    bool                    `json:"useFallbackMap"`
	ValidationIssues  []string                `json:"validationIssues"`
	ValidLocations    []models.LocationRecord `json:"validLocations"`
	DebugLogs         []string                `json:"debugLogs"`
	BrowserLogs       []string                `json:"browserLogs"`
}

// ShouldRenderMap reports the healthy condition: library valid, container ready and something to show.
func (s Snapshot) ShouldRenderMap() bool {
	return s.LeafletValid && s.ContainerReady && !s.UseFallbackMap && len(s.ValidLocations) > 0
}

func flagsOf(p Phase) Snapshot {
	s := Snapshot{
		Step:             p.Step(),
		ValidationIssues: []string{},
		ValidLocations:   append([]models.LocationRecord{}, locationsOf(p)...),
	}

	switch p := p.(type) {
	case Starting, ProcessingLocations, Retrying, LocationsProcessed:
		s.IsLoading = true
	case NoValidLocations:
		s.Error = p.Error
	case LibraryInvalid:
		s.MapError = p.MapError
		s.UseFallbackMap = true
		s.ValidationIssues = append(s.ValidationIssues, p.Issues...)
	case LibraryValid:
		s.IsLoading = !p.Container.ready()
		s.LeafletValid = true
		s.ContainerReady = p.Container.ready()
		s.ContainerSoftFail = p.Container == ContainerForced
	case MapInitialized:
		s.LeafletValid = true
		s.ContainerReady = true
		s.ContainerSoftFail = p.Container == ContainerForced
		s.MapInitialized = true
	case FallbackActive:
		s.MapError = p.MapError
		s.UseFallbackMap = true
		s.LeafletValid = p.LibraryValid
		s.ContainerReady = p.Container.ready()
		s.ContainerSoftFail = p.Container == ContainerForced
	}

	return s
}

// Store holds the current phase and the traces. Writers pass the context of the pipeline run they
// belong to; once that context is done their updates are dropped.
type Store struct {
	mu               sync.RWMutex
	phase            Phase
	containerRetries int
	debug            []string
	browser          []string

	logger  zerolog.Logger
	onDebug func(ctx context.Context, msg string)
	now     func() time.Time
}

// NewStore returns a store in the Starting phase.
func NewStore(logger zerolog.Logger, onDebug func(string)) *Store {
	var hook func(context.Context, string)
	if onDebug != nil {
		hook = func(_ context.Context, msg string) { onDebug(msg) }
	}
	return &Store{
		phase:   Starting{},
		debug:   []string{},
		browser: []string{},
		logger:  logger,
		onDebug: hook,
		now:     time.Now,
	}
}

// Phase returns the current phase.
func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := flagsOf(s.phase)
	snap.ContainerRetries = s.containerRetries
	snap.DebugLogs = append([]string{}, s.debug...)
	snap.BrowserLogs = append([]string{}, s.browser...)
	return snap
}

// transition applies fn to the current phase when ctx is still live. fn returns false to leave the
// phase untouched. The result reports whether the phase changed.
func (s *Store) transition(ctx context.Context, fn func(Phase) (Phase, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	next, ok := fn(s.phase)
	if !ok {
		return false
	}

	s.logger.Debug().
		Str("from", string(s.phase.Step())).
		Str("to", string(next.Step())).
		Msg("map phase transition")
	s.phase = next
	return true
}

// set replaces the phase unconditionally while ctx is live.
func (s *Store) set(ctx context.Context, p Phase) bool {
	return s.transition(ctx, func(Phase) (Phase, bool) { return p, true })
}

func (s *Store) setContainerRetries(ctx context.Context, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	s.containerRetries = n
}

// reset puts the store back to its initial flags. Traces are kept so a retry stays diagnosable.
func (s *Store) reset(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = p
	s.containerRetries = 0
}

// Debugf records a line in the debug trace and the service log.
func (s *Store) Debugf(ctx context.Context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.debug = appendBounded(s.debug, s.now().Format("15:04:05.000")+": "+msg)
	s.mu.Unlock()

	s.logger.Debug().Msg(msg)
	if s.onDebug != nil {
		s.onDebug(ctx, msg)
	}
}

// AddBrowserLog records a console line reported by the page.
func (s *Store) AddBrowserLog(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browser = appendBounded(s.browser, msg)
}

func appendBounded(lines []string, line string) []string {
	lines = append(lines, line)
	if over := len(lines) - MaxLogEntries; over > 0 {
		lines = append([]string{}, lines[over:]...)
	}
	return lines
}

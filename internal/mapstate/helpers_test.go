package mapstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"franchise-map-api/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeEnv struct {
	sheets     []Stylesheet
	library    bool
	readyState string
}

func (e fakeEnv) Stylesheets() []Stylesheet { return e.sheets }
func (e fakeEnv) HasLibrary() bool          { return e.library }
func (e fakeEnv) ReadyState() string        { return e.readyState }

func healthyEnv() fakeEnv {
	return fakeEnv{
		sheets:     []Stylesheet{{Href: "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"}},
		library:    true,
		readyState: "complete",
	}
}

type fakeContainer struct {
	mu     sync.Mutex
	rect   Rect
	checks int
}

func (c *fakeContainer) BoundingRect() Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks++
	return c.rect
}

func (c *fakeContainer) set(r Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rect = r
}

func (c *fakeContainer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checks
}

type hookRecorder struct {
	mu         sync.Mutex
	ready      []bool
	validation []bool
	issues     [][]string
	debug      []string
}

func (h *hookRecorder) hooks() Hooks {
	return Hooks{
		OnContainerReady: func(ready bool) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.ready = append(h.ready, ready)
		},
		OnValidation: func(valid bool, issues []string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.validation = append(h.validation, valid)
			h.issues = append(h.issues, issues)
		},
		OnDebugLog: func(msg string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.debug = append(h.debug, msg)
		},
	}
}

func (h *hookRecorder) readyCalls() []bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]bool{}, h.ready...)
}

func fastOptions(h Hooks) Options {
	opts := DefaultOptions()
	opts.SettleDelay = time.Millisecond
	opts.Probe = ProbeOptions{InitialDelay: time.Millisecond, Interval: time.Millisecond, MaxRetries: 10}
	opts.Hooks = h
	return opts
}

func location(id string, lat, lng *float64) models.LocationRecord {
	return models.LocationRecord{
		ID:        id,
		Name:      "Location " + id,
		Address:   "1 Main St",
		City:      "Springfield",
		State:     "IL",
		Zip:       "62701",
		Latitude:  lat,
		Longitude: lng,
	}
}

func waitRun(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

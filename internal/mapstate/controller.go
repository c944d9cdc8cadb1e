package mapstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"franchise-map-api/internal/models"
	"franchise-map-api/internal/retry"

	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned by operations on a controller that was closed or never started.
	ErrClosed = errors.New("mapstate: controller is not running")
	// ErrNotReady is returned when the widget reports initialisation before the map was cleared to render.
	ErrNotReady = errors.New("mapstate: map is not ready to initialize")
)

// Hooks are called as the pipeline reaches its decision points, on the goroutine that caused the
// event: the pipeline run, or the caller of Resize or MarkInitialized. They are never called while the
// controller lock is held, and a hook of a run stopped by RetryMapLoad, ReportMapError or Close does not
// fire once that call has returned. OnContainerReady fires once per change of the container state.
// Hooks must not block or call back into the Controller.
type Hooks struct {
	OnContainerReady func(ready bool)
	OnValidation     func(valid bool, issues []string)
	OnDebugLog       func(message string)
}

// Options configures a Controller.
type Options struct {
	SettleDelay time.Duration
	Probe       ProbeOptions
	Hooks       Hooks
	Logger      zerolog.Logger
}

// DefaultOptions returns the stock timings: 100ms settle delay, 10ms initial container delay, then up
// to 10 retries 200ms apart.
func DefaultOptions() Options {
	return Options{
		SettleDelay: 100 * time.Millisecond,
		Probe: ProbeOptions{
			InitialDelay: 10 * time.Millisecond,
			Interval:     200 * time.Millisecond,
			MaxRetries:   10,
		},
		Logger: zerolog.Nop(),
	}
}

// Controller runs the map readiness pipeline for one map view: process locations, validate the
// environment, probe the container. Failures at any stage switch the view to the fallback list.
type Controller struct {
	store     *Store
	locations []models.LocationRecord
	env       Environment
	container Container
	opts      Options

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	runCancel context.CancelFunc
	runDone   chan struct{}
	runs      sync.WaitGroup

	// hookMu orders hook calls against run cancellation.
	hookMu sync.Mutex
}

// NewController prepares a controller. locations is only read.
func NewController(locations []models.LocationRecord, env Environment, container Container, opts Options) *Controller {
	c := &Controller{
		store:     NewStore(opts.Logger, nil),
		locations: locations,
		env:       env,
		container: container,
		opts:      opts,
	}
	if hook := opts.Hooks.OnDebugLog; hook != nil {
		c.store.onDebug = func(ctx context.Context, msg string) {
			c.fire(ctx, func() { hook(msg) })
		}
	}
	return c
}

// fire calls fn unless ctx is already done.
func (c *Controller) fire(ctx context.Context, fn func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()

	if ctx.Err() != nil {
		return
	}
	fn()
}

// cancelHooked runs cancel so that no hook of the cancelled context starts afterwards.
func (c *Controller) cancelHooked(cancel context.CancelFunc) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	cancel()
}

// Start launches the pipeline. The controller lives until ctx is done or Close is called. Calling
// Start again has no effect.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx != nil {
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.startRunLocked(false)
}

func (c *Controller) startRunLocked(retried bool) {
	runCtx, cancel := context.WithCancel(c.ctx)
	done := make(chan struct{})
	c.runCancel, c.runDone = cancel, done

	c.runs.Add(1)
	go func() {
		defer c.runs.Done()
		defer close(done)
		c.run(runCtx, retried)
	}()
}

// lifetime returns the controller context, or nil once closed.
func (c *Controller) lifetime() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil || c.ctx.Err() != nil {
		return nil
	}
	return c.ctx
}

func (c *Controller) run(ctx context.Context, retried bool) {
	st := c.store

	if retried {
		st.Debugf(ctx, "Retrying map load")
	}

	st.set(ctx, ProcessingLocations{})
	st.Debugf(ctx, "Processing %d locations", len(c.locations))

	if len(c.locations) == 0 {
		st.set(ctx, NoLocations{})
		st.Debugf(ctx, "No locations to display")
		return
	}

	res := ProcessLocations(c.locations)
	for _, r := range res.Rejected {
		st.Debugf(ctx, "Invalid location %s: %s", r.ID, r.Reason)
	}

	if len(res.Valid) == 0 {
		st.set(ctx, NoValidLocations{Error: fmt.Sprintf(
			"None of the %d locations have valid coordinates. Please correct the location addresses so they can be geocoded.",
			len(c.locations),
		)})
		st.Debugf(ctx, "No valid locations")
		return
	}

	st.set(ctx, LocationsProcessed{Locations: res.Valid})
	st.Debugf(ctx, "%d of %d locations have valid coordinates", len(res.Valid), len(c.locations))

	// Give late stylesheets and scripts a moment before judging the page.
	if err := retry.Sleep(ctx, c.opts.SettleDelay); err != nil {
		return
	}

	valid, issues := ValidateEnvironment(c.env)
	if ctx.Err() != nil {
		return
	}
	if hook := c.opts.Hooks.OnValidation; hook != nil {
		c.fire(ctx, func() { hook(valid, issues) })
	}

	if !valid {
		msg := ValidationError(issues)
		st.set(ctx, LibraryInvalid{Locations: res.Valid, Issues: issues, MapError: msg})
		st.Debugf(ctx, "%s", msg)
		return
	}

	st.set(ctx, LibraryValid{Locations: res.Valid, Container: ContainerPending})
	st.Debugf(ctx, "Map library validated")

	prober := NewProber(c.container, c.opts.Probe, nil, func(n int, r Rect) {
		st.setContainerRetries(ctx, n)
		st.Debugf(ctx, "Container not ready (%.0fx%.0f), retry %d/%d", r.Width, r.Height, n, c.opts.Probe.MaxRetries)
	})

	out, err := prober.Probe(ctx)
	if err != nil {
		return
	}

	status := ContainerReady
	if out.Ready {
		st.Debugf(ctx, "Container ready (%.0fx%.0f)", out.Rect.Width, out.Rect.Height)
	} else {
		// Let the widget try anyway rather than leave the page waiting forever.
		status = ContainerForced
		st.Debugf(ctx, "Container never reported a size after %d retries, continuing", out.Retries)
	}

	// A resize may have found the container first; its hook already fired.
	changed := st.transition(ctx, func(p Phase) (Phase, bool) {
		lv, ok := p.(LibraryValid)
		if !ok || lv.Container == ContainerReady {
			return p, false
		}
		lv.Container = status
		return lv, true
	})
	if hook := c.opts.Hooks.OnContainerReady; changed && hook != nil {
		c.fire(ctx, func() { hook(out.Ready) })
	}
}

// RetryMapLoad drops whatever the pipeline was doing, resets every flag and runs it again. Calling it
// repeatedly is safe; only the latest run writes state.
func (c *Controller) RetryMapLoad() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil || c.ctx.Err() != nil {
		return ErrClosed
	}

	c.cancelHooked(c.runCancel)
	c.store.reset(Retrying{})
	c.startRunLocked(true)
	return nil
}

// Resize re-measures the container after the page layout changed.
func (c *Controller) Resize() {
	ctx := c.lifetime()
	if ctx == nil {
		return
	}

	rect, ok := NewProber(c.container, c.opts.Probe, nil, nil).Check()
	c.store.Debugf(ctx, "Resize, container %.0fx%.0f", rect.Width, rect.Height)
	if !ok {
		return
	}

	changed := c.store.transition(ctx, func(p Phase) (Phase, bool) {
		lv, ok := p.(LibraryValid)
		if !ok || lv.Container == ContainerReady {
			return p, false
		}
		lv.Container = ContainerReady
		return lv, true
	})
	if hook := c.opts.Hooks.OnContainerReady; changed && hook != nil {
		c.fire(ctx, func() { hook(true) })
	}
}

// ReportMapError switches to the fallback list after the widget failed at runtime. The message is kept
// verbatim for display.
func (c *Controller) ReportMapError(message string) error {
	c.mu.Lock()
	if c.ctx == nil || c.ctx.Err() != nil {
		c.mu.Unlock()
		return ErrClosed
	}
	if message == "" {
		message = "Unknown map error"
	}

	ctx := c.ctx
	c.cancelHooked(c.runCancel)
	c.store.transition(ctx, func(p Phase) (Phase, bool) {
		fb := FallbackActive{Locations: locationsOf(p), MapError: message}
		switch p := p.(type) {
		case LibraryValid:
			fb.LibraryValid, fb.Container = true, p.Container
		case MapInitialized:
			fb.LibraryValid, fb.Container = true, p.Container
		case FallbackActive:
			fb.LibraryValid, fb.Container = p.LibraryValid, p.Container
		}
		return fb, true
	})
	c.mu.Unlock()

	c.store.Debugf(ctx, "Map error: %s", message)
	return nil
}

// MarkInitialized records that the widget finished initialising.
func (c *Controller) MarkInitialized() error {
	ctx := c.lifetime()
	if ctx == nil {
		return ErrClosed
	}

	var already bool
	changed := c.store.transition(ctx, func(p Phase) (Phase, bool) {
		switch p := p.(type) {
		case MapInitialized:
			already = true
		case LibraryValid:
			if p.Container.ready() {
				return MapInitialized{Locations: p.Locations, Container: p.Container}, true
			}
		}
		return p, false
	})

	switch {
	case changed:
		c.store.Debugf(ctx, "Map initialized")
		return nil
	case already:
		return nil
	default:
		return ErrNotReady
	}
}

// AddBrowserLog records a console line from the page.
func (c *Controller) AddBrowserLog(message string) {
	c.store.AddBrowserLog(message)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	return c.store.Snapshot()
}

// Wait blocks until the current pipeline run has finished.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.runDone
	c.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the pipeline and waits for it to exit. Later state updates are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancelHooked(c.cancel)
	}
	c.mu.Unlock()

	c.runs.Wait()
}

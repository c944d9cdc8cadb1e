package mapstate

import (
	"context"
	"time"

	"franchise-map-api/internal/retry"
)

// Rect is the measured size of the map container.
type Rect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Ready reports whether the container has a drawable area.
func (r Rect) Ready() bool {
	return r.Width > 0 && r.Height > 0
}

// Container is the element reserved for the map widget.
type Container interface {
	BoundingRect() Rect
}

// ProbeOptions bounds container probing.
type ProbeOptions struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxRetries   int
}

// ProbeResult reports how probing ended. Ready is false when retries ran out.
type ProbeResult struct {
	Ready   bool
	Retries int
	Rect    Rect
}

// Prober polls a Container until it has a size.
type Prober struct {
	container Container
	opts      ProbeOptions
	onReady   func(bool)
	onRetry   func(retry int, rect Rect)
}

// NewProber creates a prober. onReady is called once per Probe with the real outcome; onRetry before
// each retry.
func NewProber(container Container, opts ProbeOptions, onReady func(bool), onRetry func(int, Rect)) *Prober {
	return &Prober{container: container, opts: opts, onReady: onReady, onRetry: onRetry}
}

// Check measures the container once.
func (p *Prober) Check() (Rect, bool) {
	if p.container == nil {
		return Rect{}, false
	}
	r := p.container.BoundingRect()
	return r, r.Ready()
}

// Probe polls until the container is ready or MaxRetries retries have been made. It never makes more.
func (p *Prober) Probe(ctx context.Context) (ProbeResult, error) {
	var last Rect

	res, err := retry.Poll(ctx, func() bool {
		var ok bool
		last, ok = p.Check()
		return ok
	}, retry.Options{
		InitialDelay: p.opts.InitialDelay,
		Interval:     p.opts.Interval,
		MaxRetries:   p.opts.MaxRetries,
		OnRetry: func(n int) {
			if p.onRetry != nil {
				p.onRetry(n, last)
			}
		},
	})
	if err != nil {
		return ProbeResult{Retries: res.Retries, Rect: last}, err
	}

	if p.onReady != nil {
		p.onReady(res.Ready)
	}

	return ProbeResult{Ready: res.Ready, Retries: res.Retries, Rect: last}, nil
}

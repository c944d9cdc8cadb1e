package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"franchise-map-api/internal/models"
	"franchise-map-api/internal/retry"

	"github.com/rs/zerolog"
)

// CoordinateStore persists geocoded coordinates.
type CoordinateStore interface {
	UpdateCoordinates(ctx context.Context, id string, lat, lng float64) error
}

// Outcome is what happened to one record.
type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// RecordResult is the per-record report of a backfill.
type RecordResult struct {
	ID      string  `json:"id"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// Summary aggregates a backfill run.
type Summary struct {
	Total   int            `json:"total"`
	Updated int            `json:"updated"`
	Failed  int            `json:"failed"`
	Skipped int            `json:"skipped"`
	Results []RecordResult `json:"results"`
}

// Backfill geocodes records one at a time with a fixed pause between network calls.
type Backfill struct {
	geocoder Geocoder
	store    CoordinateStore
	breaker  *Breaker
	delay    time.Duration
	logger   zerolog.Logger
}

// NewBackfill wires a backfill. delay is the pause between consecutive geocoder calls.
func NewBackfill(geocoder Geocoder, store CoordinateStore, breaker *Breaker, delay time.Duration, logger zerolog.Logger) *Backfill {
	return &Backfill{
		geocoder: geocoder,
		store:    store,
		breaker:  breaker,
		delay:    delay,
		logger:   logger.With().Str("component", "geocode-backfill").Logger(),
	}
}

// Run processes records sequentially. Records are skipped while the breaker is open. It stops early only
// when ctx is done, returning the partial summary with the context error.
func (b *Backfill) Run(ctx context.Context, records []models.LocationRecord) (Summary, error) {
	sum := Summary{Total: len(records), Results: make([]RecordResult, 0, len(records))}
	called := false

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if strings.TrimSpace(rec.FullAddress()) == "" {
			sum.add(RecordResult{ID: rec.ID, Outcome: OutcomeFailed, Error: ErrInvalidAddress.Error()})
			b.logger.Warn().Str("location_id", rec.ID).Msg("skipping location without an address")
			continue
		}

		if !b.breaker.Allow() {
			sum.add(RecordResult{ID: rec.ID, Outcome: OutcomeSkipped, Error: ErrCircuitOpen.Error()})
			b.logger.Warn().Str("location_id", rec.ID).Msg("skipping location, circuit breaker open")
			continue
		}

		if called {
			if err := retry.Sleep(ctx, b.delay); err != nil {
				return sum, err
			}
		}
		called = true

		res := b.geocodeOne(ctx, rec)
		if res.Outcome == OutcomeFailed && ctx.Err() != nil {
			return sum, ctx.Err()
		}
		sum.add(res)
	}

	b.logger.Info().
		Int("total", sum.Total).
		Int("updated", sum.Updated).
		Int("failed", sum.Failed).
		Int("skipped", sum.Skipped).
		Msg("geocode backfill finished")

	return sum, nil
}

func (b *Backfill) geocodeOne(ctx context.Context, rec models.LocationRecord) RecordResult {
	log := b.logger.With().Str("location_id", rec.ID).Logger()

	point, err := b.geocoder.Geocode(ctx, rec.FullAddress())
	if err != nil {
		if unhealthy(err) {
			b.breaker.Failure()
		}
		log.Warn().Err(err).Msg("geocoding failed")
		return RecordResult{ID: rec.ID, Outcome: OutcomeFailed, Error: err.Error()}
	}
	b.breaker.Success()

	if err := models.ValidateCoordinates(point.Latitude, point.Longitude); err != nil {
		log.Warn().Err(err).Msg("geocoder returned unusable coordinates")
		return RecordResult{ID: rec.ID, Outcome: OutcomeFailed, Error: fmt.Sprintf("geocode: %v", err)}
	}

	if err := b.store.UpdateCoordinates(ctx, rec.ID, point.Latitude, point.Longitude); err != nil {
		log.Error().Err(err).Msg("failed to store coordinates")
		return RecordResult{ID: rec.ID, Outcome: OutcomeFailed, Error: err.Error()}
	}

	log.Debug().Float64("lat", point.Latitude).Float64("lng", point.Longitude).Msg("location geocoded")
	return RecordResult{ID: rec.ID, Outcome: OutcomeUpdated}
}

// unhealthy reports whether err says something about the geocoder itself rather than the record.
func unhealthy(err error) bool {
	return !errors.Is(err, ErrNoResult) &&
		!errors.Is(err, ErrInvalidAddress) &&
		!errors.Is(err, ErrRejected)
}

func (s *Summary) add(r RecordResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeUpdated:
		s.Updated++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
}

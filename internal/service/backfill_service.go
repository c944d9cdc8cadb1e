package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"franchise-map-api/internal/geocode"
	"franchise-map-api/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBackfillLimit = 100
	MaxBackfillLimit     = 1000
)

// ErrBackfillRunning is returned when a backfill is requested while one is in progress.
var ErrBackfillRunning = errors.New("service: backfill already running")

// MissingCoordinatesRepository interface for dependency injection
type MissingCoordinatesRepository interface {
	LocationsMissingCoordinates(ctx context.Context, limit int) ([]models.LocationRecord, error)
}

// BackfillRunner geocodes a batch of records.
type BackfillRunner interface {
	Run(ctx context.Context, records []models.LocationRecord) (geocode.Summary, error)
}

// BackfillStatus reports the last or current backfill.
type BackfillStatus struct {
	Running    bool             `json:"running"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Summary    *geocode.Summary `json:"summary,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// BackfillService geocodes locations that have no coordinates yet. Only one backfill runs at a time.
type BackfillService struct {
	repo   MissingCoordinatesRepository
	runner BackfillRunner

	mu     sync.Mutex
	status BackfillStatus
	wg     sync.WaitGroup
}

// NewBackfillService creates a new backfill service
func NewBackfillService(repo MissingCoordinatesRepository, runner BackfillRunner) *BackfillService {
	return &BackfillService{repo: repo, runner: runner}
}

func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultBackfillLimit
	}
	if limit > MaxBackfillLimit {
		return MaxBackfillLimit
	}
	return limit
}

func (s *BackfillService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Running {
		return ErrBackfillRunning
	}
	now := time.Now()
	s.status = BackfillStatus{Running: true, StartedAt: &now}
	return nil
}

func (s *BackfillService) finish(sum geocode.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.status.Running = false
	s.status.FinishedAt = &now
	s.status.Summary = &sum
	if err != nil {
		s.status.Error = err.Error()
	}
}

// Run geocodes up to limit locations and waits for the result.
func (s *BackfillService) Run(ctx context.Context, limit int) (geocode.Summary, error) {
	if err := s.begin(); err != nil {
		return geocode.Summary{}, err
	}

	sum, err := s.run(ctx, clampLimit(limit))
	s.finish(sum, err)
	return sum, err
}

// Start launches a backfill in the background. It keeps running after the caller's request ends and
// stops when ctx is done.
func (s *BackfillService) Start(ctx context.Context, limit int) error {
	if err := s.begin(); err != nil {
		return err
	}

	limit = clampLimit(limit)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sum, err := s.run(ctx, limit)
		if err != nil {
			log.Error().Err(err).Msg("background backfill failed")
		}
		s.finish(sum, err)
	}()
	return nil
}

func (s *BackfillService) run(ctx context.Context, limit int) (geocode.Summary, error) {
	records, err := s.repo.LocationsMissingCoordinates(ctx, limit)
	if err != nil {
		return geocode.Summary{}, fmt.Errorf("service: failed to load locations to geocode: %w", err)
	}

	sum, err := s.runner.Run(ctx, records)
	if err != nil {
		return sum, fmt.Errorf("service: backfill interrupted: %w", err)
	}
	return sum, nil
}

// Status returns a copy of the backfill status.
func (s *BackfillService) Status() BackfillStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Wait blocks until background backfills have finished.
func (s *BackfillService) Wait() {
	s.wg.Wait()
}

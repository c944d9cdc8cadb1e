package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"franchise-map-api/internal/models"
	"franchise-map-api/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// LocationPage is one page of a location listing.
type LocationPage struct {
	Locations []models.LocationRecord `json:"locations"`
	Total     int                     `json:"total"`
	Page      int                     `json:"page"`
	PageSize  int                     `json:"page_size"`
}

// LocationRepository interface for dependency injection
type LocationRepository interface {
	ListLocations(ctx context.Context, p repository.ListParams) ([]models.LocationRecord, int, error)
}

// LocationService lists franchise locations for the portal screens
type LocationService struct {
	repo LocationRepository
}

// NewLocationService creates a new location service
func NewLocationService(repo LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

// List returns a page of locations matching the search text. Page numbers start at 1; out of range
// page sizes fall back to the defaults and pages past the largest addressable offset are rejected.
func (s *LocationService) List(ctx context.Context, franchiseeID, search string, page, pageSize int) (*LocationPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	// Keep the offset inside a Postgres integer.
	if page-1 > math.MaxInt32/pageSize {
		return nil, fmt.Errorf("%w: page %d is out of range", ErrInvalidRequest, page)
	}

	locations, total, err := s.repo.ListLocations(ctx, repository.ListParams{
		FranchiseeID: strings.TrimSpace(franchiseeID),
		Search:       strings.TrimSpace(search),
		Limit:        pageSize,
		Offset:       (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list locations: %w", err)
	}

	return &LocationPage{Locations: locations, Total: total, Page: page, PageSize: pageSize}, nil
}

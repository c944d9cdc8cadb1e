package service

import (
	"context"
	"math"
	"testing"

	"franchise-map-api/internal/models"
	"franchise-map-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockLocationRepository is a mock implementation of the LocationRepository interface
type MockLocationRepository struct {
	mock.Mock
}

// ListLocations implements LocationRepository.
func (m *MockLocationRepository) ListLocations(ctx context.Context, p repository.ListParams) ([]models.LocationRecord, int, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]models.LocationRecord), args.Int(1), args.Error(2)
}

func TestLocationService_List(t *testing.T) {
	park := models.LocationRecord{
		ID:        "loc-1",
		Name:      "Central Park",
		Address:   "5th Ave",
		City:      "New York",
		State:     "NY",
		Zip:       "10022",
		Latitude:  models.Float64(40.78),
		Longitude: models.Float64(-73.96),
	}

	tests := []struct {
		name         string
		franchisee   string
		search       string
		page         int
		pageSize     int
		expectParams repository.ListParams
		mockResult   []models.LocationRecord
		mockTotal    int
		mockError    error
		expected     *LocationPage
		expectError  bool
	}{
		{
			name:         "defaults",
			expectParams: repository.ListParams{Limit: DefaultPageSize, Offset: 0},
			mockResult:   []models.LocationRecord{park},
			mockTotal:    1,
			expected:     &LocationPage{Locations: []models.LocationRecord{park}, Total: 1, Page: 1, PageSize: DefaultPageSize},
		},
		{
			name:         "third page with search",
			franchisee:   " fr-1 ",
			search:       " park ",
			page:         3,
			pageSize:     10,
			expectParams: repository.ListParams{FranchiseeID: "fr-1", Search: "park", Limit: 10, Offset: 20},
			mockResult:   []models.LocationRecord{},
			mockTotal:    21,
			expected:     &LocationPage{Locations: []models.LocationRecord{}, Total: 21, Page: 3, PageSize: 10},
		},
		{
			name:         "page size clamped",
			pageSize:     1000,
			expectParams: repository.ListParams{Limit: MaxPageSize},
			mockResult:   []models.LocationRecord{},
			expected:     &LocationPage{Locations: []models.LocationRecord{}, Page: 1, PageSize: MaxPageSize},
		},
		{
			name:         "repository error",
			expectParams: repository.ListParams{Limit: DefaultPageSize},
			mockResult:   []models.LocationRecord(nil),
			mockError:    assert.AnError,
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockRepo := new(MockLocationRepository)
			service := NewLocationService(mockRepo)
			mockRepo.On("ListLocations", mock.Anything, tt.expectParams).Return(tt.mockResult, tt.mockTotal, tt.mockError)

			// Execute
			result, err := service.List(context.Background(), tt.franchisee, tt.search, tt.page, tt.pageSize)

			// Assert
			if tt.expectError {
				assert.ErrorIs(t, err, assert.AnError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestLocationService_List_PageOutOfRange(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	service := NewLocationService(mockRepo)

	_, err := service.List(context.Background(), "", "", math.MaxInt, 20)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = service.List(context.Background(), "", "", math.MaxInt32/20+2, 20)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	mockRepo.AssertNotCalled(t, "ListLocations", mock.Anything, mock.Anything)
}

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"franchise-map-api/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (Result, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(Result), args.Error(1)
}

type MockCoordinateStore struct {
	mock.Mock
}

func (m *MockCoordinateStore) UpdateCoordinates(ctx context.Context, id string, lat, lng float64) error {
	args := m.Called(ctx, id, lat, lng)
	return args.Error(0)
}

func record(id, address string) models.LocationRecord {
	return models.LocationRecord{ID: id, Name: id, Address: address, City: "Austin", State: "TX", Zip: "78701"}
}

func TestBackfill_Run(t *testing.T) {
	geocoder := new(MockGeocoder)
	store := new(MockCoordinateStore)

	geocoder.On("Geocode", mock.Anything, "1 Congress Ave, Austin, TX, 78701").Return(Result{Latitude: 30.26, Longitude: -97.74}, nil)
	geocoder.On("Geocode", mock.Anything, "nowhere, Austin, TX, 78701").Return(Result{}, ErrNoResult)
	geocoder.On("Geocode", mock.Anything, "bad, Austin, TX, 78701").Return(Result{Latitude: 123, Longitude: 0}, nil)
	store.On("UpdateCoordinates", mock.Anything, "a", 30.26, -97.74).Return(nil)

	bf := NewBackfill(geocoder, store, NewBreaker(3, time.Minute), 5*time.Millisecond, zerolog.Nop())

	start := time.Now()
	sum, err := bf.Run(context.Background(), []models.LocationRecord{
		record("a", "1 Congress Ave"),
		record("b", "nowhere"),
		record("c", "bad"),
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond, "two pauses between three calls")
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, OutcomeUpdated, sum.Results[0].Outcome)
	assert.Equal(t, OutcomeFailed, sum.Results[2].Outcome)

	geocoder.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestBackfill_BreakerOpensAfterThreeFailures(t *testing.T) {
	geocoder := new(MockGeocoder)
	store := new(MockCoordinateStore)
	geocoder.On("Geocode", mock.Anything, mock.Anything).Return(Result{}, errors.New("connection refused"))

	bf := NewBackfill(geocoder, store, NewBreaker(3, time.Minute), 0, zerolog.Nop())

	records := []models.LocationRecord{
		record("a", "1"), record("b", "2"), record("c", "3"), record("d", "4"), record("e", "5"),
	}
	sum, err := bf.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Failed)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, ErrCircuitOpen.Error(), sum.Results[4].Error)
	geocoder.AssertNumberOfCalls(t, "Geocode", 3)
	store.AssertNotCalled(t, "UpdateCoordinates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBackfill_StoreError(t *testing.T) {
	geocoder := new(MockGeocoder)
	store := new(MockCoordinateStore)
	geocoder.On("Geocode", mock.Anything, mock.Anything).Return(Result{Latitude: 1, Longitude: 2}, nil)
	store.On("UpdateCoordinates", mock.Anything, "a", 1.0, 2.0).Return(assert.AnError)

	bf := NewBackfill(geocoder, store, NewBreaker(3, time.Minute), 0, zerolog.Nop())
	sum, err := bf.Run(context.Background(), []models.LocationRecord{record("a", "1")})

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, BreakerClosed, bf.breaker.State(), "storage errors do not trip the geocoder breaker")
}

func TestBackfill_Cancelled(t *testing.T) {
	geocoder := new(MockGeocoder)
	store := new(MockCoordinateStore)
	geocoder.On("Geocode", mock.Anything, mock.Anything).Return(Result{Latitude: 1, Longitude: 2}, nil)
	store.On("UpdateCoordinates", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	bf := NewBackfill(geocoder, store, NewBreaker(3, time.Minute), time.Hour, zerolog.Nop())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	sum, err := bf.Run(ctx, []models.LocationRecord{record("a", "1"), record("b", "2")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Updated)
	geocoder.AssertNumberOfCalls(t, "Geocode", 1)
}

func TestBackfill_BadRecordsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("q") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"address parameter is required"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"latitude":30.26,"longitude":-97.74}]`))
	}))
	defer srv.Close()

	store := new(MockCoordinateStore)
	store.On("UpdateCoordinates", mock.Anything, "good", 30.26, -97.74).Return(nil)

	breaker := NewBreaker(3, time.Minute)
	bf := NewBackfill(NewHTTPGeocoder(srv.URL, time.Second), store, breaker, 0, zerolog.Nop())

	blank := models.LocationRecord{ID: "blank"}
	sum, err := bf.Run(context.Background(), []models.LocationRecord{blank, blank, blank, record("good", "1 Congress Ave")})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Failed)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, ErrInvalidAddress.Error(), sum.Results[0].Error)
	assert.Equal(t, OutcomeUpdated, sum.Results[3].Outcome)
	assert.Equal(t, int32(1), calls.Load(), "records without an address never reach the geocoder")
	assert.Equal(t, BreakerClosed, breaker.State())
	store.AssertExpectations(t)
}

func TestBackfill_RejectedRequestsDoNotTripBreaker(t *testing.T) {
	geocoder := new(MockGeocoder)
	store := new(MockCoordinateStore)
	rejected := fmt.Errorf("%w: status 422: unparseable address", ErrRejected)
	geocoder.On("Geocode", mock.Anything, mock.Anything).Return(Result{}, rejected).Times(3)
	geocoder.On("Geocode", mock.Anything, mock.Anything).Return(Result{Latitude: 1, Longitude: 2}, nil).Once()
	store.On("UpdateCoordinates", mock.Anything, "d", 1.0, 2.0).Return(nil)

	bf := NewBackfill(geocoder, store, NewBreaker(3, time.Minute), 0, zerolog.Nop())
	sum, err := bf.Run(context.Background(), []models.LocationRecord{
		record("a", "1"), record("b", "2"), record("c", "3"), record("d", "4"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Failed)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 0, sum.Skipped)
	geocoder.AssertExpectations(t)
	store.AssertExpectations(t)
}

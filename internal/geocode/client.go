// Package geocode fills in missing location coordinates from a geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNoResult is returned when the geocoder knows no coordinates for an address.
	ErrNoResult = errors.New("geocode: no result for address")
	// ErrInvalidAddress is returned for addresses too incomplete to send to the geocoder.
	ErrInvalidAddress = errors.New("geocode: address cannot be empty")
	// ErrRejected wraps 4xx answers other than 429: the API is up but refused this request.
	ErrRejected = errors.New("geocode: request rejected")
)

// Result is a geocoded point.
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Result, error)
}

// HTTPGeocoder calls a geocoding API exposing GET /geocode?q=<address> that answers with a JSON array of
// candidates ordered by relevance.
type HTTPGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGeocoder creates a client for the API at baseURL.
func NewHTTPGeocoder(baseURL string, timeout time.Duration) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Geocode returns the best candidate for address.
func (g *HTTPGeocoder) Geocode(ctx context.Context, address string) (Result, error) {
	if strings.TrimSpace(address) == "" {
		return Result{}, ErrInvalidAddress
	}

	endpoint := g.baseURL + "/geocode?" + url.Values{"q": {address}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return Result{}, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, msg)
		}
		return Result{}, fmt.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, msg)
	}

	var candidates []Result
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return Result{}, fmt.Errorf("geocode: failed to decode response: %w", err)
	}
	if len(candidates) == 0 {
		return Result{}, ErrNoResult
	}

	return candidates[0], nil
}

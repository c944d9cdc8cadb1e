package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LocationRecord is a franchise venue as stored by the portal. Coordinates are optional because
// locations are created from an address and geocoded later.
type LocationRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Validate reports why the record cannot be placed on a map, or nil when it can.
func (l LocationRecord) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"id", l.ID},
		{"name", l.Name},
		{"address", l.Address},
		{"city", l.City},
		{"state", l.State},
		{"zip", l.Zip},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing %s", f.name)
		}
	}

	if l.Latitude == nil {
		return errors.New("missing latitude")
	}
	if l.Longitude == nil {
		return errors.New("missing longitude")
	}

	return ValidateCoordinates(*l.Latitude, *l.Longitude)
}

// ValidateCoordinates checks that lat and lng are finite and inside geographic bounds.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return errors.New("latitude is not a number")
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return errors.New("longitude is not a number")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude out of range: %f", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude out of range: %f", lng)
	}

	return nil
}

// Valid is shorthand for Validate() == nil.
func (l LocationRecord) Valid() bool {
	return l.Validate() == nil
}

// FullAddress joins the address parts the way geocoders expect them.
func (l LocationRecord) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{l.Address, l.City, l.State, l.Zip} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// UnmarshalJSON accepts coordinates sent as numbers, numeric strings or null. Anything else decodes to
// NaN so the record is rejected by Validate instead of failing the whole payload.
func (l *LocationRecord) UnmarshalJSON(data []byte) error {
	type alias LocationRecord
	aux := struct {
		*alias
		Latitude  json.RawMessage `json:"latitude"`
		Longitude json.RawMessage `json:"longitude"`
	}{alias: (*alias)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	l.Latitude = decodeCoordinate(aux.Latitude)
	l.Longitude = decodeCoordinate(aux.Longitude)
	return nil
}

func decodeCoordinate(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}

	nan := math.NaN()
	return &nan
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

package mapstate

import "franchise-map-api/internal/models"

// Rejected is a location that cannot be placed on the map.
type Rejected struct {
	ID     string
	Reason string
}

// ProcessResult splits the input into mappable locations and rejects, preserving input order.
type ProcessResult struct {
	Valid    []models.LocationRecord
	Rejected []Rejected
}

// ProcessLocations filters records down to the ones with usable coordinates. The input is not modified;
// valid records are copied.
func ProcessLocations(records []models.LocationRecord) ProcessResult {
	res := ProcessResult{Valid: make([]models.LocationRecord, 0, len(records))}

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			res.Rejected = append(res.Rejected, Rejected{ID: rec.ID, Reason: err.Error()})
			continue
		}
		res.Valid = append(res.Valid, copyRecord(rec))
	}

	return res
}

func copyRecord(rec models.LocationRecord) models.LocationRecord {
	out := rec
	if rec.Latitude != nil {
		out.Latitude = models.Float64(*rec.Latitude)
	}
	if rec.Longitude != nil {
		out.Longitude = models.Float64(*rec.Longitude)
	}
	return out
}

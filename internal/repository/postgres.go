package repository

import (
	"context"
	"errors"
	"fmt"

	"franchise-map-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLocationNotFound is returned when an update targets an unknown location.
var ErrLocationNotFound = errors.New("repository: location not found")

// Schema creates the locations table used by the API, the importer and the backfill.
const Schema = `
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		franchisee_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		zip TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS locations_franchisee_idx ON locations (franchisee_id);
	CREATE INDEX IF NOT EXISTS locations_missing_coords_idx ON locations (id) WHERE latitude IS NULL OR longitude IS NULL;
`

// Execer is satisfied by both *pgx.Conn and *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

// ListParams filters and pages a location listing.
type ListParams struct {
	FranchiseeID string
	Search       string
	Limit        int
	Offset       int
}

// Repository implements location storage on PostgreSQL
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const locationColumns = `id, name, address, city, state, zip, latitude, longitude`

// ListLocations returns one page of locations and the total number of matches.
func (r *Repository) ListLocations(ctx context.Context, p ListParams) ([]models.LocationRecord, int, error) {
	sql := `
		SELECT ` + locationColumns + `, COUNT(*) OVER() AS total
		FROM locations
		WHERE ($1 = '' OR franchisee_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%'
		               OR address ILIKE '%' || $2 || '%'
		               OR city ILIKE '%' || $2 || '%'
		               OR zip ILIKE $2 || '%')
		ORDER BY name, id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, sql, p.FranchiseeID, p.Search, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to execute list query: %w", err)
	}
	defer rows.Close()

	locations := []models.LocationRecord{}
	total := 0
	for rows.Next() {
		var loc models.LocationRecord
		if err := rows.Scan(
			&loc.ID,
			&loc.Name,
			&loc.Address,
			&loc.City,
			&loc.State,
			&loc.Zip,
			&loc.Latitude,
			&loc.Longitude,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return locations, total, nil
}

// LocationsByFranchisee returns every location of a franchisee, including ungeocoded ones.
func (r *Repository) LocationsByFranchisee(ctx context.Context, franchiseeID string) ([]models.LocationRecord, error) {
	sql := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE franchisee_id = $1
		ORDER BY name, id
	`
	return r.queryLocations(ctx, sql, franchiseeID)
}

// LocationsMissingCoordinates returns up to limit locations that still need geocoding.
func (r *Repository) LocationsMissingCoordinates(ctx context.Context, limit int) ([]models.LocationRecord, error) {
	sql := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE latitude IS NULL OR longitude IS NULL
		ORDER BY id
		LIMIT $1
	`
	return r.queryLocations(ctx, sql, limit)
}

func (r *Repository) queryLocations(ctx context.Context, sql string, args ...any) ([]models.LocationRecord, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute query: %w", err)
	}

	locations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LocationRecord, error) {
		var loc models.LocationRecord
		err := row.Scan(
			&loc.ID,
			&loc.Name,
			&loc.Address,
			&loc.City,
			&loc.State,
			&loc.Zip,
			&loc.Latitude,
			&loc.Longitude,
		)
		return loc, err
	})
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan locations: %w", err)
	}

	return locations, nil
}

// UpdateCoordinates stores geocoded coordinates for a location.
func (r *Repository) UpdateCoordinates(ctx context.Context, id string, lat, lng float64) error {
	sql := `
		UPDATE locations
		SET latitude = $2, longitude = $3, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, sql, id, lat, lng)
	if err != nil {
		return fmt.Errorf("repository: failed to update coordinates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationNotFound
	}

	return nil
}

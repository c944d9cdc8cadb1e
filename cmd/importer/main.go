package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"franchise-map-api/internal/config"
	"franchise-map-api/internal/logging"
	"franchise-map-api/internal/models"
	"franchise-map-api/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// importRow is one CSV line: a location plus the franchisee that owns it.
type importRow struct {
	FranchiseeID string
	models.LocationRecord
}

var requiredColumns = []string{"id", "franchisee_id", "name", "address", "city", "state", "zip"}

func main() {
	file := flag.String("file", "", "Path to the CSV file to import")
	configPath := flag.String("config", "configs", "Directory containing app.env")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	if *file == "" {
		log.Fatal().Msg("--file flag is required")
	}

	log.Info().Str("file", *file).Msg("starting import")

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open file")
	}
	defer f.Close()

	rows, err := parseCSV(f)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse CSV")
	}
	log.Info().Int("records", len(rows)).Msg("parsed CSV")

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close(ctx)

	if err := repository.EnsureSchema(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("cannot prepare schema")
	}

	inserted, err := insertRecords(ctx, conn, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot insert records")
	}

	missing := 0
	for _, r := range rows {
		if r.Latitude == nil || r.Longitude == nil {
			missing++
		}
	}

	log.Info().
		Int64("inserted", inserted).
		Int("missing_coordinates", missing).
		Msg("import finished")
}

// parseCSV reads locations from r. The header names the columns; latitude and longitude are optional
// and may be left blank for locations that still need geocoding.
func parseCSV(r io.Reader) ([]importRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []importRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := importRow{
			FranchiseeID: get("franchisee_id"),
			LocationRecord: models.LocationRecord{
				ID:      get("id"),
				Name:    get("name"),
				Address: get("address"),
				City:    get("city"),
				State:   get("state"),
				Zip:     get("zip"),
			},
		}
		if row.ID == "" || row.FranchiseeID == "" {
			return nil, fmt.Errorf("line %d: id and franchisee_id are required", line)
		}

		if row.Latitude, err = parseCoordinate(get("latitude")); err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %w", line, err)
		}
		if row.Longitude, err = parseCoordinate(get("longitude")); err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %w", line, err)
		}
		if row.Latitude != nil && row.Longitude != nil {
			if err := models.ValidateCoordinates(*row.Latitude, *row.Longitude); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func parseCoordinate(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func insertRecords(ctx context.Context, conn *pgx.Conn, rows []importRow) (int64, error) {
	return conn.CopyFrom(
		ctx,
		pgx.Identifier{"locations"},
		[]string{"id", "franchisee_id", "name", "address", "city", "state", "zip", "latitude", "longitude"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.ID, r.FranchiseeID, r.Name, r.Address, r.City, r.State, r.Zip, r.Latitude, r.Longitude}, nil
		}),
	)
}

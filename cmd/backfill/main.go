package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"franchise-map-api/internal/config"
	"franchise-map-api/internal/geocode"
	"franchise-map-api/internal/logging"
	"franchise-map-api/internal/repository"
	"franchise-map-api/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func main() {
	limit := flag.Int("limit", service.DefaultBackfillLimit, "Maximum number of locations to geocode")
	configPath := flag.String("config", "configs", "Directory containing app.env")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	if cfg.GeocoderURL == "" {
		log.Fatal().Msg("GEOCODER_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	repo := repository.NewRepository(conn)
	backfill := geocode.NewBackfill(
		geocode.NewHTTPGeocoder(cfg.GeocoderURL, cfg.GeocoderTimeout),
		repo,
		geocode.NewBreaker(cfg.BreakerThreshold, cfg.BreakerReset),
		cfg.GeocodeDelay,
		log.Logger,
	)

	summary, err := service.NewBackfillService(repo, backfill).Run(ctx, *limit)
	if err != nil {
		log.Error().Err(err).Msg("backfill stopped early")
	}

	log.Info().
		Int("total", summary.Total).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("backfill finished")

	if err != nil {
		os.Exit(1)
	}
}

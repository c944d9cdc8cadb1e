package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"franchise-map-api/docs"
	"franchise-map-api/internal/config"
	"franchise-map-api/internal/geocode"
	"franchise-map-api/internal/handler"
	"franchise-map-api/internal/logging"
	"franchise-map-api/internal/mapstate"
	"franchise-map-api/internal/repository"
	"franchise-map-api/internal/service"
	"franchise-map-api/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// @title       Franchise Map API
// @version     1.0
// @description Location listing, map readiness sessions and geocoding backfill for the franchise portal.
// @BasePath    /
func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logging.Setup(config.LogLevel, config.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	conn, err := pgxpool.New(ctx, config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	if err := repository.EnsureSchema(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("cannot prepare schema")
	}

	// Initialize layers
	repo := repository.NewRepository(conn)

	sessions := session.NewRegistry(mapstate.Options{
		SettleDelay: config.EnvSettleDelay,
		Probe: mapstate.ProbeOptions{
			InitialDelay: config.ContainerInitialDelay,
			Interval:     config.ContainerPollInterval,
			MaxRetries:   config.ContainerMaxRetries,
		},
	}, config.SessionTTL, log.Logger)
	defer sessions.Shutdown()

	backfill := geocode.NewBackfill(
		geocode.NewHTTPGeocoder(config.GeocoderURL, config.GeocoderTimeout),
		repo,
		geocode.NewBreaker(config.BreakerThreshold, config.BreakerReset),
		config.GeocodeDelay,
		log.Logger,
	)

	locationService := service.NewLocationService(repo)
	mapService := service.NewMapService(repo, sessions)
	backfillService := service.NewBackfillService(repo, backfill)
	defer backfillService.Wait()

	if config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	handler.RegisterRoutes(r,
		handler.NewLocationHandler(locationService),
		handler.NewMapHandler(mapService),
		handler.NewBackfillHandler(ctx, backfillService),
	)

	docs.SwaggerInfo.Host = config.ServerAddress
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", config.ServerAddress).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(gctx, config.SessionTTL/2)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server stopped with error")
	}
}

// README: Entry point; loads config, wires stores and services, serves the HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ridecore/internal/config"
	httptransport "ridecore/internal/http"
	"ridecore/internal/http/handlers"
	"ridecore/internal/infra"
	"ridecore/internal/logger"
	"ridecore/internal/maps"
	"ridecore/internal/modules/driver"
	"ridecore/internal/modules/location"
	"ridecore/internal/modules/passenger"
	"ridecore/internal/modules/pricing"
	"ridecore/internal/modules/ride"
	"ridecore/internal/modules/session"
	"ridecore/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ride-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.Firebase.ProjectID == "" {
		return errors.New("RIDE_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return err
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if cfg.DB.AutoMigrate {
		if err := migrations.Apply(ctx, dbPool); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	pricingSvc := pricing.NewService(pricing.NewStore(dbPool, redisClient, cfg.Pricing.CacheTTL), log)

	driverStore := driver.NewStore(dbPool)
	locator := driver.NewLocator(driverStore, cfg.Matching.RadiusKm)

	deps := ride.Deps{
		Store:      ride.NewStore(dbPool),
		Drivers:    driverStore,
		Passengers: passenger.NewStore(dbPool),
		Pricing:    pricingSvc,
		Locator:    locator,
		Logger:     log,
		RadiusKm:   cfg.Matching.RadiusKm,
	}
	if cfg.AMQP.URL != "" {
		conn, ch, err := infra.NewAMQP(cfg.AMQP.URL)
		if err != nil {
			return err
		}
		defer conn.Close()
		publisher, err := ride.NewAMQPPublisher(ch)
		if err != nil {
			return err
		}
		deps.Publisher = publisher
	} else {
		log.Info("amqp url not set; ride events are stored but not published")
	}
	rideSvc := ride.NewService(deps)

	var geocoder handlers.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		geocoder = g
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Verifier:  verifier,
		Sessions:  session.NewRegistry(rideSvc, log),
		Geocoder:  geocoder,
		Locations: location.NewService(location.NewStore(dbPool, redisClient), log),
		Locator:   locator,
		Health: map[string]handlers.HealthCheck{
			"db": dbPool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		Log: log,
	})

	server := httptransport.NewServer(cfg.HTTP.Addr, otelhttp.NewHandler(router, "ride-api"))
	return httptransport.Serve(ctx, server, log)
}

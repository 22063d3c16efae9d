// Package main provides the entrypoint for the CarrierWatch aggregator.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/carrierwatch/carrierwatch/internal/aggregator"
	"github.com/carrierwatch/carrierwatch/internal/api"
	"github.com/carrierwatch/carrierwatch/internal/api/middleware"
	"github.com/carrierwatch/carrierwatch/internal/config"
	"github.com/carrierwatch/carrierwatch/internal/database"
	"github.com/carrierwatch/carrierwatch/internal/event"
	"github.com/carrierwatch/carrierwatch/internal/telemetry"
	"github.com/carrierwatch/carrierwatch/internal/transport"
	"github.com/carrierwatch/carrierwatch/internal/ws"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "carrierwatch-aggregator"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CarrierWatch aggregator")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Root context cancelled on SIGINT/SIGTERM; all long-lived
	// goroutines hang off it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	aggMetrics, err := aggregator.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize aggregator metrics")
	}

	// Configuration file is optional; defaults cover the common case.
	configPath := os.Getenv("AGGREGATOR_CONFIG")
	var cfg *config.Aggregator
	if configPath != "" {
		cfg, err = config.LoadAggregator(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
		}
	} else {
		cfg = &config.Aggregator{}
		cfg.ApplyDefaults()
	}

	// Scope event history: Postgres when configured, in-memory otherwise.
	var history aggregator.Repository
	ready := func() bool { return true }
	if os.Getenv("DB_HOST") != "" {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		history = aggregator.NewPostgresRepository(pool)
		ready = func() bool { return pool.Ping(context.Background()) == nil }
	} else {
		log.Warn().Msg("DB_HOST not set, keeping scope history in memory")
		history = aggregator.NewInMemoryRepository()
	}

	// Outbound publisher for scope and summary events.
	var publisher aggregator.Publisher = transport.NewConsolePublisher(log)
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	if projectID != "" {
		scopeTopic := os.Getenv("PUBSUB_SCOPE_TOPIC")
		if scopeTopic == "" {
			scopeTopic = "carrierwatch-scope"
		}
		pub, err := transport.NewPubSubPublisher(ctx, transport.PubSubConfig{
			ProjectID: projectID,
			Topic:     scopeTopic,
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub publisher")
		}
		defer func() {
			if err := pub.Close(); err != nil {
				log.Error().Err(err).Msg("closing pubsub publisher")
			}
		}()
		publisher = transport.NewResilientPublisher(pub, transport.ResilientConfig{
			Fallback: transport.NewConsolePublisher(log),
			Logger:   log,
		})
		log.Info().Str("topic", scopeTopic).Msg("publishing scope events to pubsub")
	}

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	service := aggregator.NewService(aggregator.ServiceConfig{
		Window: cfg.Window.Std(),
		Classifier: aggregator.ClassifierConfig{
			NationwideStatesMin: cfg.NationwideStatesMin,
			NationwideNodesMin:  cfg.NationwideNodesMin,
			StateMin:            cfg.StateMin,
			Debounce:            cfg.Debounce.Std(),
		},
		Publisher: publisher,
		History:   history,
		Logger:    log,
		Metrics:   aggMetrics,
		OnScope:   hub.Broadcast,
	})

	// Inbound node status subscription.
	if projectID != "" {
		subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
		if subscription == "" {
			subscription = "carrierwatch-status"
		}
		sub, err := transport.NewSubscriber(ctx, transport.SubscriberConfig{
			ProjectID:    projectID,
			Subscription: subscription,
			Logger:       log,
			OnStatus: func(ctx context.Context, msg event.NodeStatus) {
				service.OnNodeStatus(ctx, msg, time.Now().UTC())
			},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create subscriber")
		}
		defer func() {
			if err := sub.Close(); err != nil {
				log.Error().Err(err).Msg("closing subscriber")
			}
		}()
		go func() {
			if err := sub.Start(ctx); err != nil {
				log.Error().Err(err).Msg("subscriber stopped")
			}
		}()
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set, no inbound node status transport")
	}

	// Periodic sweep: ages out stale nodes and emits the summary event.
	summaryInterval := cfg.SummaryInterval.Std()
	reloaded := make(chan *config.Aggregator, 1)
	go func() {
		ticker := time.NewTicker(summaryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				service.Sweep(ctx, time.Now().UTC())
			case next := <-reloaded:
				service.Reconfigure(next.Window.Std(), aggregator.ClassifierConfig{
					NationwideStatesMin: next.NationwideStatesMin,
					NationwideNodesMin:  next.NationwideNodesMin,
					StateMin:            next.StateMin,
					Debounce:            next.Debounce.Std(),
				})
				ticker.Reset(next.SummaryInterval.Std())
			}
		}
	}()

	// Hot reload of the tunables when the config file changes.
	if configPath != "" {
		go func() {
			err := config.WatchAggregator(ctx, configPath, log, func(next *config.Aggregator) {
				select {
				case reloaded <- next:
				default:
				}
			})
			if err != nil {
				log.Error().Err(err).Msg("config watcher failed to start")
			}
		}()
	}

	adminSigningKey := os.Getenv("ADMIN_SIGNING_KEY")
	if adminSigningKey == "" {
		log.Warn().Msg("ADMIN_SIGNING_KEY not set, admin endpoints disabled")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		Metrics:         httpMetrics,
		Service:         service,
		Ready:           ready,
		Stream:          hub,
		AdminSigningKey: adminSigningKey,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

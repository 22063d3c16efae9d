// Package main provides the entrypoint for the CarrierWatch detector.
// One invocation is one detection run; cron or a systemd timer provides
// the cadence.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/carrierwatch/carrierwatch/internal/config"
	"github.com/carrierwatch/carrierwatch/internal/detector"
	"github.com/carrierwatch/carrierwatch/internal/probe"
	"github.com/carrierwatch/carrierwatch/internal/provider"
	"github.com/carrierwatch/carrierwatch/internal/transport"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "carrierwatch-detector"

	configPath := flag.String("config", "detector.yaml", "path to the detector configuration file")
	flag.Parse()

	// .env is a local-dev convenience; absence is fine.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Str("config", *configPath).
		Msg("starting CarrierWatch detector run")

	cfg, err := config.LoadDetector(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	providers := provider.LoadFiles(cfg.ProviderFiles, log)
	if len(providers) == 0 {
		log.Fatal().Strs("files", cfg.ProviderFiles).Msg("no usable provider definitions")
	}

	controlProbes := make([]probe.Prober, 0, len(cfg.ControlProbes))
	for _, url := range cfg.ControlProbes {
		controlProbes = append(controlProbes, probe.NewHTTPProber("control:"+url, url))
	}

	ctx := context.Background()

	states, err := detector.NewSQLiteRepository(ctx, cfg.StatePath, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StatePath).Msg("failed to open state database")
	}
	defer func() {
		if err := states.Close(); err != nil {
			log.Error().Err(err).Msg("closing state database")
		}
	}()

	publisher, closePublisher := buildPublisher(ctx, log)
	defer closePublisher()

	runner := detector.NewRunner(detector.RunnerConfig{
		NodeID:       cfg.NodeID,
		Region:       cfg.Region,
		State:        cfg.State,
		RegionWeight: cfg.RegionWeight,
		ProviderHint: cfg.ProviderHint,
		ProbeTimeout: cfg.ProbeTimeout.Std(),
		Thresholds: detector.Thresholds{
			FailForMajor:  cfg.FailForMajor,
			OKForRecovery: cfg.OKForRecovery,
		},
		ControlProbes: controlProbes,
		Providers:     providers,
		States:        states,
		Publisher:     publisher,
		Logger:        log,
	})

	started := time.Now()
	result := runner.Run(ctx, time.Now().UTC())

	log.Info().
		Bool("control_ok", result.ControlOK).
		Int("providers", len(result.Reports)).
		Int("published", result.Published).
		Dur("elapsed", time.Since(started)).
		Msg("detector run complete")
}

// buildPublisher selects the event transport. With PUBSUB_PROJECT_ID
// set, events go to Pub/Sub behind the resilient wrapper with a console
// fallback; otherwise everything is emitted to the log.
func buildPublisher(ctx context.Context, log zerolog.Logger) (transport.Publisher, func()) {
	console := transport.NewConsolePublisher(log)

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	if projectID == "" {
		log.Info().Msg("PUBSUB_PROJECT_ID not set, publishing events to console")
		return console, func() {}
	}

	topic := os.Getenv("PUBSUB_TOPIC")
	if topic == "" {
		topic = "carrierwatch-events"
	}

	pub, err := transport.NewPubSubPublisher(ctx, transport.PubSubConfig{
		ProjectID: projectID,
		Topic:     topic,
		Logger:    log,
	})
	if err != nil {
		log.Error().Err(err).Msg("pubsub unavailable, publishing events to console")
		return console, func() {}
	}

	log.Info().
		Str("project", projectID).
		Str("topic", topic).
		Msg("publishing events to pubsub")

	resilient := transport.NewResilientPublisher(pub, transport.ResilientConfig{
		Fallback: console,
		Logger:   log,
	})
	return resilient, func() {
		if err := pub.Close(); err != nil {
			log.Error().Err(err).Msg("closing pubsub publisher")
		}
	}
}

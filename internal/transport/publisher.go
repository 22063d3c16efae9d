// Package transport moves detector and aggregator events between
// processes. The core logic only sees the Publisher interface; the
// implementations here cover Pub/Sub, a resilient wrapper and a console
// fallback.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrPublishUnavailable is returned when the publish path is down and
// no fallback is configured.
var ErrPublishUnavailable = errors.New("publish transport unavailable")

// Publisher delivers one typed event. Implementations must be safe for
// sequential use from a single goroutine; the detector and aggregator
// never publish concurrently.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// ConsolePublisher emits events to the structured log. It serves both
// as a standalone local mode and as the degraded-capability fallback
// when the real transport is unreachable.
type ConsolePublisher struct {
	logger zerolog.Logger
}

// NewConsolePublisher creates a console publisher.
func NewConsolePublisher(logger zerolog.Logger) *ConsolePublisher {
	return &ConsolePublisher{logger: logger}
}

// Publish logs the event as JSON.
func (p *ConsolePublisher) Publish(_ context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.logger.Info().
		Str("event_type", eventType).
		RawJSON("event", data).
		Msg("event")
	return nil
}

// ResilientConfig holds configuration for the resilient publisher.
type ResilientConfig struct {
	// MaxRetries is the number of retry attempts per publish.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 2 seconds
	MaxInterval time.Duration

	// BreakerTimeout is the open-state period before the breaker
	// half-opens again. Default: 60 seconds
	BreakerTimeout time.Duration

	// Fallback, when set, receives events that the primary transport
	// could not deliver.
	Fallback Publisher

	Logger zerolog.Logger
}

// ResilientPublisher wraps a Publisher with bounded retries and a
// circuit breaker. When the primary path stays down the breaker opens
// and publishes go straight to the fallback, keeping runs fast.
type ResilientPublisher struct {
	inner   Publisher
	breaker *gobreaker.CircuitBreaker[struct{}]
	cfg     ResilientConfig
}

// NewResilientPublisher wraps inner with retry and breaker protection.
func NewResilientPublisher(inner Publisher, cfg ResilientConfig) *ResilientPublisher {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "event-publish",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	})

	return &ResilientPublisher{inner: inner, breaker: breaker, cfg: cfg}
}

// Publish attempts delivery through the primary transport, retrying
// transient failures with exponential backoff. After exhausting retries
// or hitting an open breaker the event goes to the fallback.
func (p *ResilientPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.InitialInterval
	bo.MaxInterval = p.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	operation := func() error {
		_, err := p.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, p.inner.Publish(ctx, eventType, payload)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, p.cfg.MaxRetries), ctx))
	if err == nil {
		return nil
	}

	if p.cfg.Fallback == nil {
		return ErrPublishUnavailable
	}
	p.cfg.Logger.Warn().Err(err).
		Str("event_type", eventType).
		Msg("publish transport down, emitting to fallback")
	return p.cfg.Fallback.Publish(ctx, eventType, payload)
}

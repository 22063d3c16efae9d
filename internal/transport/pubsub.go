package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/carrierwatch/carrierwatch/internal/event"
)

// attrEventType is the message attribute carrying the event type.
const attrEventType = "type"

// PubSubConfig holds configuration for the Pub/Sub publisher.
type PubSubConfig struct {
	ProjectID string
	Topic     string
	Logger    zerolog.Logger
}

// PubSubPublisher publishes events to a Pub/Sub topic with the event
// type as a message attribute, so subscriptions can filter on it.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    zerolog.Logger
}

// NewPubSubPublisher creates a Pub/Sub publisher.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.Topic),
		logger:    cfg.Logger,
	}, nil
}

// Publish delivers one event and waits for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", eventType, err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{attrEventType: eventType},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing %s event: %w", eventType, err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("message_id", id).
		Msg("event published")
	return nil
}

// Close flushes outstanding messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// SubscriberConfig holds configuration for the node status subscriber.
type SubscriberConfig struct {
	ProjectID    string
	Subscription string
	Logger       zerolog.Logger

	// OnStatus is invoked synchronously for each node status message.
	OnStatus func(ctx context.Context, msg event.NodeStatus)
}

// Subscriber feeds inbound node status messages to the aggregator. Each
// message is handled to completion before the next is acknowledged; a
// malformed message is discarded, never fatal.
type Subscriber struct {
	client       *pubsub.Client
	subscriber   *pubsub.Subscriber
	subscription string
	onStatus     func(ctx context.Context, msg event.NodeStatus)
	logger       zerolog.Logger
}

// NewSubscriber creates a Pub/Sub subscriber.
func NewSubscriber(ctx context.Context, cfg SubscriberConfig) (*Subscriber, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.Subscription)

	// One handler at a time keeps the aggregator single-threaded.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.NumGoroutines = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &Subscriber{
		client:       client,
		subscriber:   subscriber,
		subscription: cfg.Subscription,
		onStatus:     cfg.OnStatus,
		logger:       cfg.Logger,
	}, nil
}

// Start begins processing messages until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info().
		Str("subscription", s.subscription).
		Msg("starting node status subscriber")

	return s.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (s *Subscriber) Close() error {
	return s.client.Close()
}

func (s *Subscriber) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := s.logger.With().Str("message_id", msg.ID).Logger()

	if t := msg.Attributes[attrEventType]; t != "" && t != event.TypeStatus {
		// The subscription may also carry outage/heartbeat traffic.
		logger.Debug().Str("event_type", t).Msg("ignoring non-status message")
		msg.Ack()
		return
	}

	var status event.NodeStatus
	if err := json.Unmarshal(msg.Data, &status); err != nil {
		// Ack malformed messages to prevent redelivery.
		logger.Warn().Err(err).Msg("discarding malformed node status")
		msg.Ack()
		return
	}

	s.onStatus(ctx, status)
	msg.Ack()
}

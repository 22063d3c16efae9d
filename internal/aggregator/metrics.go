package aggregator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/carrierwatch/carrierwatch/internal/aggregator"

// Metrics holds the aggregator's OpenTelemetry instruments.
type Metrics struct {
	statusReceived metric.Int64Counter
	scopeChanges   metric.Int64Counter
}

// NewMetrics creates the aggregator metrics instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	statusReceived, err := meter.Int64Counter(
		"aggregator.node_status.received",
		metric.WithDescription("Node status messages processed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	scopeChanges, err := meter.Int64Counter(
		"aggregator.scope.changes",
		metric.WithDescription("Provider scope transitions published"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		statusReceived: statusReceived,
		scopeChanges:   scopeChanges,
	}, nil
}

func (m *Metrics) recordStatus(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.statusReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

func (m *Metrics) recordScopeChange(ctx context.Context, provider string, scope Scope) {
	if m == nil {
		return
	}
	m.scopeChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("scope", string(scope)),
	))
}

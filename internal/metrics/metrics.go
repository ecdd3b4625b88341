package metrics

import (
	"log/slog"

	"go.opentelemetry.io/otel"
)

type Metrics struct {
	Database  *DatabaseMetrics
	Messaging *MessagingMetrics
	Health    *HealthMetrics
	Domain    *DomainMetrics
}

// New registers every instrument on the global meter provider, so it must be
// called after telemetry has installed one.
func New(serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	messaging, err := NewMessagingMetrics(meter)
	if err != nil {
		return nil, err
	}

	health, err := NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	domain, err := NewDomainMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.Info("metrics collectors initialized")

	return &Metrics{
		Database:  database,
		Messaging: messaging,
		Health:    health,
		Domain:    domain,
	}, nil
}

// NewMock returns a Metrics whose Record* calls are no-ops.
func NewMock() *Metrics {
	return &Metrics{
		Database:  &DatabaseMetrics{},
		Messaging: &MessagingMetrics{},
		Health:    &HealthMetrics{},
		Domain:    &DomainMetrics{},
	}
}

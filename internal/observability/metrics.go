package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// AuthzMeterName is the instrumentation scope of the authorization metrics
const AuthzMeterName = "github.com/upb/rolegate/authz"

// Outcome labels a role check result
type Outcome string

const (
	OutcomeAllowed          Outcome = "allowed"
	OutcomeDenied           Outcome = "denied"
	OutcomeIdentityNotFound Outcome = "identity_not_found"
	OutcomeError            Outcome = "error"
)

// MeterProvider is the process meter provider plus its scrape endpoint
type MeterProvider struct {
	metric.MeterProvider
	handler  http.Handler
	shutdown func(context.Context) error
}

// NewMeterProvider returns a Prometheus backed provider when enabled and a
// no-op provider otherwise.
func NewMeterProvider(enabled bool, logger *zap.Logger) (*MeterProvider, error) {
	if !enabled {
		logger.Info("metrics disabled, using no-op meter provider")
		return &MeterProvider{
			MeterProvider: noop.NewMeterProvider(),
			handler:       http.NotFoundHandler(),
			shutdown:      func(context.Context) error { return nil },
		}, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	logger.Info("metrics initialized")

	return &MeterProvider{
		MeterProvider: mp,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		shutdown:      mp.Shutdown,
	}, nil
}

// Handler serves the Prometheus text exposition
func (p *MeterProvider) Handler() http.Handler {
	return p.handler
}

// Shutdown flushes and stops the provider
func (p *MeterProvider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// AuthzMetrics holds the instruments for role check decisions
type AuthzMetrics struct {
	decisions metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewAuthzMetrics creates the decision instruments.
// If provider is nil, it returns nil (no-op metrics).
func NewAuthzMetrics(provider metric.MeterProvider) (*AuthzMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(AuthzMeterName)

	decisions, err := meter.Int64Counter(
		"rolegate_authz_decisions_total",
		metric.WithDescription("Role check decisions by requirement and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"rolegate_authz_decision_duration_seconds",
		metric.WithDescription("Time spent evaluating a role check"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return nil, err
	}

	return &AuthzMetrics{
		decisions: decisions,
		duration:  duration,
	}, nil
}

// RecordDecision counts one role check and its evaluation time
func (m *AuthzMetrics) RecordDecision(ctx context.Context, requirement string, outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("requirement", requirement),
		attribute.String("outcome", string(outcome)),
	)

	m.decisions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

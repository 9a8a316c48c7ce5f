package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records per-update telemetry through an OpenTelemetry meter.
// A zero or nil value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	updateCounter  otelmetric.Int64Counter
	updateDuration otelmetric.Float64Histogram
	dealCounter    otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return newWithProvider(provider, serviceName)
}

// NewWithReader builds an Observability on a caller-supplied reader (tests use a ManualReader).
func NewWithReader(reader metric.Reader, serviceName string) *Observability {
	return newWithProvider(metric.NewMeterProvider(metric.WithReader(reader)), serviceName)
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) *Observability {
	meter := provider.Meter(serviceName)

	updateCounter, _ := meter.Int64Counter(
		"updates.processed",
		otelmetric.WithDescription("Number of webhook updates processed"),
	)

	updateDuration, _ := meter.Float64Histogram(
		"updates.duration",
		otelmetric.WithDescription("Update processing duration"),
		otelmetric.WithUnit("ms"),
	)

	dealCounter, _ := meter.Int64Counter(
		"deals.processed",
		otelmetric.WithDescription("Number of deals parsed, by outcome"),
	)

	return &Observability{
		meterProvider:  provider,
		updateCounter:  updateCounter,
		updateDuration: updateDuration,
		dealCounter:    dealCounter,
	}
}

func (o *Observability) RecordUpdateProcessed(ctx context.Context, flow, status string) {
	if o == nil || o.updateCounter == nil {
		return
	}
	o.updateCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordUpdateDuration(ctx context.Context, duration time.Duration, flow string) {
	if o == nil || o.updateDuration == nil {
		return
	}
	o.updateDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("flow", flow),
	))
}

func (o *Observability) RecordDeals(ctx context.Context, outcome string, n int) {
	if o == nil || o.dealCounter == nil || n == 0 {
		return
	}
	o.dealCounter.Add(ctx, int64(n), otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}

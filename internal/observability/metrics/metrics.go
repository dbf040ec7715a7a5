package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes billing instruments.
type Metrics struct {
	billsGenerated      metric.Int64Counter
	tariffFallback      metric.Int64Counter
	payments            metric.Int64Counter
	overdueTransitions  metric.Int64Counter
	billGenerationTimer metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}
	return provider, nil
}

// New creates the billing instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "utilibill"
	}
	meter := provider.Meter(name)

	billsGenerated, err := meter.Int64Counter("utilibill_bills_generated_total",
		metric.WithDescription("Bills generated from meter readings."))
	if err != nil {
		return nil, err
	}
	tariffFallback, err := meter.Int64Counter("utilibill_tariff_fallback_total",
		metric.WithDescription("Readings billed without a matching tariff."))
	if err != nil {
		return nil, err
	}
	payments, err := meter.Int64Counter("utilibill_payments_total",
		metric.WithDescription("Payments recorded against bills."))
	if err != nil {
		return nil, err
	}
	overdueTransitions, err := meter.Int64Counter("utilibill_overdue_transitions_total",
		metric.WithDescription("Bills moved from Unpaid to Overdue."))
	if err != nil {
		return nil, err
	}
	billGenerationTimer, err := meter.Float64Histogram("utilibill_bill_generation_seconds",
		metric.WithDescription("Latency of the reading-to-bill transaction."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		billsGenerated:      billsGenerated,
		tariffFallback:      tariffFallback,
		payments:            payments,
		overdueTransitions:  overdueTransitions,
		billGenerationTimer: billGenerationTimer,
	}, nil
}

// RecordBillGenerated counts one generated bill and its latency.
func (m *Metrics) RecordBillGenerated(ctx context.Context, utilityType, customerType string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(FilterAttributes(
		attribute.String("utility_type", strings.TrimSpace(utilityType)),
		attribute.String("customer_type", strings.TrimSpace(customerType)),
	)...)
	m.billsGenerated.Add(ctx, 1, attrs)
	m.billGenerationTimer.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordTariffFallback counts a reading that found no tariff.
func (m *Metrics) RecordTariffFallback(ctx context.Context, utilityType, customerType, policy string) {
	if m == nil {
		return
	}
	m.tariffFallback.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("utility_type", strings.TrimSpace(utilityType)),
		attribute.String("customer_type", strings.TrimSpace(customerType)),
		attribute.String("policy", strings.TrimSpace(policy)),
	)...))
}

// RecordPayment counts a recorded payment by method.
func (m *Metrics) RecordPayment(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.payments.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("method", strings.TrimSpace(method)),
	)...))
}

// RecordOverdueTransitions adds the number of bills a sweep marked overdue.
func (m *Metrics) RecordOverdueTransitions(ctx context.Context, trigger string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.overdueTransitions.Add(ctx, count, metric.WithAttributes(FilterAttributes(
		attribute.String("trigger", strings.TrimSpace(trigger)),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"utility_type":  {},
	"customer_type": {},
	"method":        {},
	"policy":        {},
	"trigger":       {},
	"reason":        {},
	"status_code":   {},
}

// FilterAttributes strips labels outside the allowlist so ids never become series.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

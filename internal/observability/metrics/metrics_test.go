package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("utility_type", "Electricity"),
		attribute.String("customer_id", "456"),
		attribute.String("meter_id", "789"),
		attribute.String("method", "Cash"),
	)
	require.Len(t, attrs, 2)
	require.Equal(t, attribute.Key("utility_type"), attrs[0].Key)
	require.Equal(t, attribute.Key("method"), attrs[1].Key)
}

func TestBillingInstrumentsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(Config{ServiceName: "utilibill-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordBillGenerated(ctx, "Water", "Household", 20*time.Millisecond)
	m.RecordBillGenerated(ctx, "Water", "Household", 10*time.Millisecond)
	m.RecordTariffFallback(ctx, "Gas", "Commercial", "zero")
	m.RecordOverdueTransitions(ctx, "manual", 0)
	m.RecordOverdueTransitions(ctx, "scheduled", 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, inst := range scope.Metrics {
			sum, ok := inst.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[inst.Name] += dp.Value
			}
		}
	}
	require.Equal(t, int64(2), sums["utilibill_bills_generated_total"])
	require.Equal(t, int64(1), sums["utilibill_tariff_fallback_total"])
	require.Equal(t, int64(3), sums["utilibill_overdue_transitions_total"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordPayment(context.Background(), "Cash")
	m.RecordBillGenerated(context.Background(), "Water", "Household", time.Second)
}

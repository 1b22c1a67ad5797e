package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"projector/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(&config.Config{
		OTelEnabled:     true,
		OTelServiceName: "projector-test",
		Environment:     "test",
	})
	require.NoError(t, mp.initWithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", agg)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsProvider_RecordsOperations(t *testing.T) {
	mp, reader := newTestProvider(t)

	mp.RecordProjection(52, OutcomeSuccess)
	mp.RecordProjection(0, OutcomeValidation)
	mp.RecordOperation(OperationPromote, OutcomeSuccess, 12*time.Millisecond)
	mp.RecordOperation(OperationPromote, OutcomeConflict, 3*time.Millisecond)
	mp.RecordPromotion(52, true)
	mp.RecordNATSPublish("analysis.promoted", nil)
	mp.RecordNATSPublish("analysis.promoted", errors.New("no responders"))

	metrics := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, metrics[ProjectionsTotal]))
	assert.Equal(t, int64(2), sumOf(t, metrics[OperationsTotal]))
	assert.Equal(t, int64(52), sumOf(t, metrics[PromotedWeeksTotal]))
	assert.Equal(t, int64(1), sumOf(t, metrics[PromotionReplacements]))
	assert.Equal(t, int64(1), sumOf(t, metrics[NATSMessagesPublishedTotal]))
	assert.Equal(t, int64(1), sumOf(t, metrics[NATSPublishFailuresTotal]))

	weeks, ok := metrics[ProjectionWeeks].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, weeks.DataPoints, 1)
	assert.Equal(t, uint64(1), weeks.DataPoints[0].Count)
}

func TestMetricsProvider_NilAndDisabledAreNoops(t *testing.T) {
	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() {
		nilProvider.RecordProjection(1, OutcomeSuccess)
		nilProvider.RecordOperation(OperationCreate, OutcomeSuccess, time.Millisecond)
		nilProvider.RecordPromotion(1, false)
		nilProvider.RecordNATSPublish("analysis.created", nil)
		assert.NoError(t, nilProvider.Shutdown(context.Background()))
	})

	disabled := NewMetricsProvider(&config.Config{OTelEnabled: false})
	require.NoError(t, disabled.Initialize(context.Background()))
	assert.False(t, disabled.isEnabled())
	assert.NotPanics(t, func() {
		disabled.RecordOperation(OperationCreate, OutcomeSuccess, time.Millisecond)
	})
}

func TestMetricsProvider_ExporterNone(t *testing.T) {
	mp := NewMetricsProvider(&config.Config{OTelEnabled: true, OTelExporterType: "none"})
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	mp := NewMetricsProvider(&config.Config{OTelEnabled: true, OTelExporterType: "statsd"})
	assert.Error(t, mp.Initialize(context.Background()))
}

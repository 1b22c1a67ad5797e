package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"projector/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the projector.
// A nil provider is valid and records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	projectionsCounter         metric.Int64Counter
	projectionWeeksHist        metric.Int64Histogram
	operationsCounter          metric.Int64Counter
	operationDurationHist      metric.Float64Histogram
	promotedWeeksCounter       metric.Int64Counter
	promotionReplacements      metric.Int64Counter
	natsMessagesPublished      metric.Int64Counter
	natsPublishFailuresCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the exporter selected by configuration
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.initWithReader(reader); err != nil {
		return err
	}

	otel.SetMeterProvider(mp.meterProvider)
	log.Info("Metrics provider initialized")
	return nil
}

// initWithReader builds the meter provider around the given reader. Caller holds mu.
func (mp *MetricsProvider) initWithReader(reader sdkmetric.Reader) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("projector")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.projectionsCounter, err = mp.meter.Int64Counter(
		ProjectionsTotal,
		metric.WithDescription("Total number of projection engine runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create projections counter: %w", err)
	}

	mp.projectionWeeksHist, err = mp.meter.Int64Histogram(
		ProjectionWeeks,
		metric.WithDescription("Number of weeks per projection"),
		metric.WithUnit("{week}"),
		metric.WithExplicitBucketBoundaries(4, 13, 26, 52, 104, 260, 520, 1040, 2600, 5200),
	)
	if err != nil {
		return fmt.Errorf("failed to create projection weeks histogram: %w", err)
	}

	mp.operationsCounter, err = mp.meter.Int64Counter(
		OperationsTotal,
		metric.WithDescription("Total number of analysis operations by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create operations counter: %w", err)
	}

	mp.operationDurationHist, err = mp.meter.Float64Histogram(
		OperationDuration,
		metric.WithDescription("Duration of analysis operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	mp.promotedWeeksCounter, err = mp.meter.Int64Counter(
		PromotedWeeksTotal,
		metric.WithDescription("Total number of weekly rows promoted to permanent"),
		metric.WithUnit("{week}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create promoted weeks counter: %w", err)
	}

	mp.promotionReplacements, err = mp.meter.Int64Counter(
		PromotionReplacements,
		metric.WithDescription("Total number of promotions that replaced earlier permanent results"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create promotion replacements counter: %w", err)
	}

	mp.natsMessagesPublished, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	mp.natsPublishFailuresCounter, err = mp.meter.Int64Counter(
		NATSPublishFailuresTotal,
		metric.WithDescription("Total number of failed NATS publishes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS publish failures counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordProjection records one engine run
func (mp *MetricsProvider) RecordProjection(weeks int, outcome string) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	mp.projectionsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
	if outcome == OutcomeSuccess {
		mp.projectionWeeksHist.Record(ctx, int64(weeks))
	}
}

// RecordOperation records an analysis operation with its duration
func (mp *MetricsProvider) RecordOperation(operation, outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	mp.operationsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(LabelOperation, operation),
			attribute.String(LabelOutcome, outcome),
		),
	)
	mp.operationDurationHist.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String(LabelOperation, operation)),
	)
}

// RecordPromotion records a committed promotion
func (mp *MetricsProvider) RecordPromotion(weeks int, replacedPrevious bool) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	mp.promotedWeeksCounter.Add(ctx, int64(weeks))
	if replacedPrevious {
		mp.promotionReplacements.Add(ctx, 1)
	}
}

// RecordNATSPublish records a publish attempt to NATS
func (mp *MetricsProvider) RecordNATSPublish(eventType string, err error) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String(LabelEventType, eventType))
	if err != nil {
		mp.natsPublishFailuresCounter.Add(context.Background(), 1, attrs)
		return
	}
	mp.natsMessagesPublished.Add(context.Background(), 1, attrs)
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	return globalMetrics.Shutdown(ctx)
}

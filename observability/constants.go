package observability

// Metric name prefixes
const (
	MetricPrefix = "projector"
)

// Metric names
const (
	// Engine metrics
	ProjectionsTotal = MetricPrefix + ".projections.total"
	ProjectionWeeks  = MetricPrefix + ".projections.weeks"

	// Protocol metrics
	OperationsTotal       = MetricPrefix + ".operations.total"
	OperationDuration     = MetricPrefix + ".operations.duration"
	PromotedWeeksTotal    = MetricPrefix + ".promotions.weeks_total"
	PromotionReplacements = MetricPrefix + ".promotions.replacements_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
	NATSPublishFailuresTotal   = MetricPrefix + ".nats.publish_failures_total"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
)

// Outcomes
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation_error"
	OutcomeNotFound   = "not_found"
	OutcomeConflict   = "conflict"
	OutcomeError      = "error"
)

// Operations
const (
	OperationCreate    = "create"
	OperationUpdate    = "update"
	OperationPromote   = "promote"
	OperationDelete    = "delete"
	OperationGet       = "get"
	OperationList      = "list"
	OperationStaging   = "get_staging"
	OperationPermanent = "get_permanent"

	OperationQueryResults  = "query_results"
	OperationEndingBalance = "ending_balance"
	OperationReports       = "analysis_reports"
)

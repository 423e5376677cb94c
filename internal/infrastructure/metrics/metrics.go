package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the billing service
type Metrics struct {
	// Use case metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Settlement metrics
	SettlementBatches       prometheus.Counter
	SettlementBatchDuration prometheus.Histogram
	DueSubscriptions        prometheus.Gauge
	PaymentsSettled         prometheus.Counter
	PaymentFailures         *prometheus.CounterVec
	SettledNative           prometheus.Counter
	ProtocolFeesNative      prometheus.Counter

	// Oracle metrics
	OracleRateCents prometheus.Gauge
	OracleErrors    *prometheus.CounterVec

	// Kafka metrics
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    *prometheus.CounterVec
	KafkaProduceDuration  prometheus.Histogram
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return DefaultMetrics
}

// NewMetrics creates a new Metrics instance registered with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subly_operations_total",
				Help: "Total number of billing operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subly_operation_duration_seconds",
				Help:    "Duration of billing operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"operation"},
		),

		SettlementBatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "subly_settlement_batches_total",
			Help: "Total number of settlement batches started",
		}),
		SettlementBatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "subly_settlement_batch_duration_seconds",
			Help:    "Duration of settlement batches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		}),
		DueSubscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "subly_settlement_due_subscriptions",
			Help: "Number of due subscriptions found by the last batch",
		}),
		PaymentsSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "subly_payments_settled_total",
			Help: "Total number of settled subscription payments",
		}),
		PaymentFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subly_payment_failures_total",
				Help: "Total number of failed payment executions",
			},
			[]string{"reason"},
		),
		SettledNative: factory.NewCounter(prometheus.CounterOpts{
			Name: "subly_settled_native_base_units_total",
			Help: "Native base units paid to providers",
		}),
		ProtocolFeesNative: factory.NewCounter(prometheus.CounterOpts{
			Name: "subly_protocol_fees_native_base_units_total",
			Help: "Native base units collected as protocol fees",
		}),

		OracleRateCents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "subly_oracle_rate_cents",
			Help: "Last accepted oracle rate in fiat cents per native unit",
		}),
		OracleErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subly_oracle_errors_total",
				Help: "Total number of rejected oracle reads",
			},
			[]string{"reason"},
		),

		KafkaMessagesProduced: factory.NewCounter(prometheus.CounterOpts{
			Name: "subly_kafka_messages_produced_total",
			Help: "Total number of messages produced to Kafka",
		}),
		KafkaProduceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subly_kafka_produce_errors_total",
				Help: "Total number of Kafka produce errors",
			},
			[]string{"error_type"},
		),
		KafkaProduceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "subly_kafka_produce_duration_seconds",
			Help:    "Duration of Kafka produce operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// RecordOperation records a use case outcome; an empty errorCode counts as success
func (m *Metrics) RecordOperation(operation string, duration float64, errorCode string) {
	outcome := "success"
	if errorCode != "" {
		outcome = errorCode
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordBatch records a settlement scan
func (m *Metrics) RecordBatch(due int, duration float64) {
	m.SettlementBatches.Inc()
	m.DueSubscriptions.Set(float64(due))
	m.SettlementBatchDuration.Observe(duration)
}

// RecordPayment records a settled payment split
func (m *Metrics) RecordPayment(providerShare, protocolFee uint64) {
	m.PaymentsSettled.Inc()
	m.SettledNative.Add(float64(providerShare))
	m.ProtocolFeesNative.Add(float64(protocolFee))
}

// RecordPaymentFailure records a failed payment execution
func (m *Metrics) RecordPaymentFailure(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.PaymentFailures.WithLabelValues(reason).Inc()
}

// RecordOracleRate records an accepted oracle rate
func (m *Metrics) RecordOracleRate(cents uint64) {
	m.OracleRateCents.Set(float64(cents))
}

// RecordOracleError records a rejected oracle read
func (m *Metrics) RecordOracleError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.OracleErrors.WithLabelValues(reason).Inc()
}

// RecordKafkaMessage records a Kafka message production with duration
func (m *Metrics) RecordKafkaMessage(duration float64) {
	m.KafkaMessagesProduced.Inc()
	m.KafkaProduceDuration.Observe(duration)
}

// RecordKafkaError records a Kafka production error with error type
func (m *Metrics) RecordKafkaError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.KafkaProduceErrors.WithLabelValues(errorType).Inc()
}

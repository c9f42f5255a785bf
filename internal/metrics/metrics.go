// Package metrics exposes Prometheus instrumentation for cell info calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cellinfo"

// Metrics holds the collectors for one daemon instance.
type Metrics struct {
	// Calls counts entry point invocations.
	// Labels: method (requested alias), code (OK or error code)
	Calls *prometheus.CounterVec

	// Acquisitions counts completed acquisitions by final path.
	// Labels: path (live, cached, empty)
	Acquisitions *prometheus.CounterVec

	// LiveFailures counts failed live requests.
	// Labels: reason (timeout, modem_error, canceled, ...)
	LiveFailures *prometheus.CounterVec

	// AcquireDuration tracks acquisition latency in seconds.
	AcquireDuration prometheus.Histogram

	// Records tracks how many records each successful call returned.
	Records prometheus.Histogram

	// AugmentedRecords counts records that gained augmented attributes.
	AugmentedRecords prometheus.Counter

	// TelemetryClients is the number of connected event stream clients.
	TelemetryClients prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses a private registry,
// which keeps repeated construction in tests from colliding.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Total number of cell info calls by method and result code",
			},
			[]string{"method", "code"},
		),
		Acquisitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "acquire",
				Name:      "total",
				Help:      "Total number of acquisitions by final path",
			},
			[]string{"path"},
		),
		LiveFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "acquire",
				Name:      "live_failures_total",
				Help:      "Total number of failed live cell update requests",
			},
			[]string{"reason"},
		),
		AcquireDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "acquire",
				Name:      "duration_seconds",
				Help:      "Duration of acquisitions in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		Records: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "records_per_call",
				Help:      "Number of records returned per call",
				Buckets:   prometheus.LinearBuckets(0, 2, 10),
			},
		),
		AugmentedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "augment",
				Name:      "records_total",
				Help:      "Total number of records that gained augmented attributes",
			},
		),
		TelemetryClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "telemetry",
				Name:      "clients",
				Help:      "Number of connected telemetry stream clients",
			},
		),
	}
}

// ObserveCall records one entry point invocation.
func (m *Metrics) ObserveCall(method, code string) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(method, code).Inc()
}

// ObserveAcquisition records one acquisition outcome. liveReason is empty
// when the live path was not attempted or succeeded.
func (m *Metrics) ObserveAcquisition(path string, liveReason string, records int, d time.Duration) {
	if m == nil {
		return
	}
	m.Acquisitions.WithLabelValues(path).Inc()
	if liveReason != "" {
		m.LiveFailures.WithLabelValues(liveReason).Inc()
	}
	m.AcquireDuration.Observe(d.Seconds())
	m.Records.Observe(float64(records))
}

// ObserveAugmented adds n augmented records.
func (m *Metrics) ObserveAugmented(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AugmentedRecords.Add(float64(n))
}

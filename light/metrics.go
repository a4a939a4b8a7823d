package light

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is a subsystem shared by all metrics exposed by this
// package.
const MetricsSubsystem = "light"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of verification steps, labelled by verdict.
	Verifications metrics.Counter
	// Number of pivots pushed because a skip could not be trusted.
	Bisections metrics.Counter
	// Number of light blocks requested from the provider.
	Fetches metrics.Counter
	// Height of the latest trusted light block.
	LatestTrustedHeight metrics.Gauge
	// Verification steps needed to reach a target height.
	StepsPerTarget metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Verifications: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "verifications",
			Help:      "Number of verification steps by verdict.",
		}, append(labels, "verdict")).With(labelsAndValues...),
		Bisections: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "bisections",
			Help:      "Number of pivot heights scheduled.",
		}, labels).With(labelsAndValues...),
		Fetches: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "fetches",
			Help:      "Number of light blocks requested from the provider.",
		}, labels).With(labelsAndValues...),
		LatestTrustedHeight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "latest_trusted_height",
			Help:      "Height of the latest trusted light block.",
		}, labels).With(labelsAndValues...),
		StepsPerTarget: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "steps_per_target",
			Help:      "Verification steps taken to reach a target height.",
			Buckets:   stdprometheus.LinearBuckets(1, 2, 16),
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Verifications:       discard.NewCounter(),
		Bisections:          discard.NewCounter(),
		Fetches:             discard.NewCounter(),
		LatestTrustedHeight: discard.NewGauge(),
		StepsPerTarget:      discard.NewHistogram(),
	}
}

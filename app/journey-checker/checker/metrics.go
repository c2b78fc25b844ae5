package checker

import (
	"net/http"
	"strconv"
	"time"

	"github.com/OpenTransitTools/journeycheck/business/journey"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes a checked journey is counted under
const (
	outcomeValid    = "valid"
	outcomeInvalid  = "invalid"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Metrics collects counters about checked journeys in its own registry
type Metrics struct {
	reg *prometheus.Registry

	JourneysChecked *prometheus.CounterVec // result label: valid|invalid|rejected|error
	SegmentsChecked *prometheus.CounterVec // mode and checked labels
	GapsChecked     *prometheus.CounterVec // checked label
	DistanceMeters  *prometheus.CounterVec // mode label
	CheckDuration   prometheus.Histogram

	RequestsReceived prometheus.Counter
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers every journey checker metric
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		JourneysChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journeycheck_journeys_checked_total",
			Help: "Journeys checked by outcome.",
		}, []string{"result"}),
		SegmentsChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journeycheck_segments_checked_total",
			Help: "Declared segments checked by mode and verdict.",
		}, []string{"mode", "checked"}),
		GapsChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journeycheck_gaps_checked_total",
			Help: "Gaps between segments checked by verdict.",
		}, []string{"checked"}),
		DistanceMeters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journeycheck_distance_meters_total",
			Help: "Meters attributed to each mode in checked journeys.",
		}, []string{"mode"}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "journeycheck_check_duration_seconds",
			Help:    "Duration of a journey verification.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RequestsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journeycheck_requests_received_total",
			Help: "Total check requests received over NATS.",
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journeycheck_results_published_total",
			Help: "Total check results published over NATS.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journeycheck_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
	}

	reg.MustRegister(
		m.JourneysChecked, m.SegmentsChecked, m.GapsChecked, m.DistanceMeters, m.CheckDuration,
		m.RequestsReceived, m.ResultsPublished, m.PublishErrors,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// observe records the outcome of checking j
func (m *Metrics) observe(j *journey.Journey, result *Result, elapsed time.Duration) {
	m.JourneysChecked.WithLabelValues(result.outcome()).Inc()
	verdict := result.Verdict
	if verdict == nil {
		return
	}
	m.CheckDuration.Observe(elapsed.Seconds())
	for i, checked := range verdict.SegmentsChecked {
		m.SegmentsChecked.WithLabelValues(string(j.Segments[i].Mode), strconv.FormatBool(checked)).Inc()
	}
	for _, checked := range verdict.GapsChecked {
		m.GapsChecked.WithLabelValues(strconv.FormatBool(checked)).Inc()
	}
	for mode, meters := range verdict.DistanceByMode {
		m.DistanceMeters.WithLabelValues(mode).Add(meters)
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	readings     *prometheus.CounterVec
	readFailures *prometheus.CounterVec
	commits      *prometheus.CounterVec
	buffered     prometheus.Gauge
	cycle        prometheus.Histogram
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensord_readings_total",
			Help: "Readings taken, by sensor family.",
		}, []string{"family"}),
		readFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensord_read_failures_total",
			Help: "Failed acquisitions, by stage (discovery, checksum, parse, read).",
		}, []string{"stage"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensord_commits_total",
			Help: "Commit round trips, by result.",
		}, []string{"result"}),
		buffered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensord_buffered_records",
			Help: "Records waiting in the local buffer.",
		}),
		cycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sensord_cycle_duration_seconds",
			Help:    "Wall time of one acquisition cycle.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}

	reg.MustRegister(m.readings, m.readFailures, m.commits, m.buffered, m.cycle)
	return m
}

func (m *Metrics) ReadingTaken(family string) {
	m.readings.WithLabelValues(family).Inc()
}

func (m *Metrics) ReadFailed(stage string) {
	m.readFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) CommitDone(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.commits.WithLabelValues(result).Inc()
}

func (m *Metrics) SetBuffered(n int64) {
	m.buffered.Set(float64(n))
}

func (m *Metrics) ObserveCycle(seconds float64) {
	m.cycle.Observe(seconds)
}

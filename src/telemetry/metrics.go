// Package telemetry exports MPL engine counters and HTTP request metrics to
// Prometheus.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

const namespace = "mpl"

var (
	// Registry holds the HTTP request metrics and build info.
	Registry = prometheus.NewRegistry()

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"op", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 13),
		},
		[]string{"op"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build info (constant 1, labeled by version).",
		},
		[]string{"version"},
	)
)

func init() {
	Registry.MustRegister(RequestsTotal, RequestDuration, buildInfo)
}

// SetBuildInfo should be called once at startup.
func SetBuildInfo(version string) {
	buildInfo.WithLabelValues(version).Set(1)
}

// StatsSource is anything that reports engine counters under a name.
type StatsSource interface {
	Name() string
	GetStats() mpl.Stats
}

type statDesc struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(mpl.Stats) float64
}

func counter(name, help string, value func(mpl.Stats) int) statDesc {
	return statDesc{
		desc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "engine", name+"_total"), help, []string{"node"}, nil),
		valueType: prometheus.CounterValue,
		value:     func(s mpl.Stats) float64 { return float64(value(s)) },
	}
}

func gauge(name, help string, value func(mpl.Stats) float64) statDesc {
	return statDesc{
		desc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, "engine", name), help, []string{"node"}, nil),
		valueType: prometheus.GaugeValue,
		value:     value,
	}
}

// Collector reads the stats of a fixed set of sources on every scrape.
type Collector struct {
	sources []StatsSource
	stats   []statDesc
}

// NewCollector ...
func NewCollector(sources ...StatsSource) *Collector {
	return &Collector{
		sources: sources,
		stats: []statDesc{
			counter("tx", "Messages sent.", func(s mpl.Stats) int { return s.TxCount }),
			counter("rx", "Messages received.", func(s mpl.Stats) int { return s.RxCount }),
			counter("data_sent", "Data messages sent.", func(s mpl.Stats) int { return s.DataSent }),
			counter("data_received", "Data messages received.", func(s mpl.Stats) int { return s.DataReceived }),
			counter("control_sent", "Control messages sent.", func(s mpl.Stats) int { return s.ControlSent }),
			counter("control_received", "Control messages received.", func(s mpl.Stats) int { return s.ControlReceived }),
			counter("accepted", "Data messages accepted and delivered.", func(s mpl.Stats) int { return s.Accepted }),
			counter("rejected", "Data messages rejected as stale.", func(s mpl.Stats) int { return s.Rejected }),
			counter("retransmissions", "Data messages sent more than once.", func(s mpl.Stats) int { return s.Retransmissions }),
			counter("retired", "Buffered messages whose trickle timer ran out.", func(s mpl.Stats) int { return s.Retired }),
			counter("control_resets", "Resets of the control trickle timer.", func(s mpl.Stats) int { return s.ControlResets }),
			counter("parent_changes", "Time source changes.", func(s mpl.Stats) int { return s.ParentChangeCount }),
			gauge("seeds", "Seeds currently tracked.", func(s mpl.Stats) float64 { return float64(s.Seeds) }),
			gauge("buffered", "Valid buffered messages.", func(s mpl.Stats) float64 { return float64(s.Buffered) }),
			gauge("join_time_seconds", "Time from start to join.", func(s mpl.Stats) float64 { return s.JoinTimeSeconds }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, s := range c.stats {
		ch <- s.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.sources {
		stats := src.GetStats()
		for _, s := range c.stats {
			ch <- prometheus.MustNewConstMetric(s.desc, s.valueType, s.value(stats), src.Name())
		}
	}
}

// MetricsHandler serves the request metrics of Registry together with
// whatever extra gatherers are given.
func MetricsHandler(extra ...prometheus.Gatherer) http.Handler {
	gatherers := append(prometheus.Gatherers{Registry}, extra...)
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument wraps an http.Handler to record metrics under the provided "op"
// label.
func Instrument(op string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(sw, r)

		class := strconv.Itoa(sw.status/100) + "xx"
		RequestsTotal.WithLabelValues(op, class).Inc()
		RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	})
}

// Package prometheus exports warmup metrics through the Prometheus client.
package prometheus

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/fwojciec/warmup"
	"github.com/prometheus/client_golang/prometheus"
)

// Compile-time interface verification.
var _ warmup.Observer = (*Metrics)(nil)

// Metrics is a crawl observer recording request outcomes, status classes
// and durations, plus gauges describing the last run.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	responses *prometheus.CounterVec
	duration  *prometheus.HistogramVec

	lastRun        prometheus.Gauge
	sitemaps       prometheus.Gauge
	failedSitemaps prometheus.Gauge
	urls           *prometheus.GaugeVec
}

// NewMetrics registers the collectors against reg. A nil reg uses a fresh
// registry, so metrics of one process never mix with the default one.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_warmup_requests_total",
			Help: "Settled warmup requests partitioned by outcome.",
		}, []string{"outcome"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_warmup_responses_total",
			Help: "Warmup responses partitioned by host and status class.",
		}, []string{"host", "status_class"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cache_warmup_request_duration_seconds",
			Help:    "Warmup request duration partitioned by outcome.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"outcome"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_warmup_last_run_timestamp_seconds",
			Help: "Unix time the last warmup run finished.",
		}),
		sitemaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_warmup_last_run_sitemaps",
			Help: "Sitemaps accepted by the last warmup run.",
		}),
		failedSitemaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_warmup_last_run_failed_sitemaps",
			Help: "Sitemaps the last warmup run could not resolve.",
		}),
		urls: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cache_warmup_last_run_urls",
			Help: "URLs crawled by the last warmup run partitioned by outcome.",
		}, []string{"outcome"}),
	}
	for _, collector := range []prometheus.Collector{
		m.requests,
		m.responses,
		m.duration,
		m.lastRun,
		m.sitemaps,
		m.failedSitemaps,
		m.urls,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register warmup collector: %w", err)
		}
	}
	return m, nil
}

// Observe records one settled request.
func (m *Metrics) Observe(r warmup.CrawlingResult) {
	outcome := r.Outcome.String()
	m.requests.WithLabelValues(outcome).Inc()
	if r.Duration > 0 {
		m.duration.WithLabelValues(outcome).Observe(r.Duration.Seconds())
	}
	if r.Successful() {
		m.responses.WithLabelValues(host(r.URL), StatusClass(r.StatusCode)).Inc()
	}
}

// ObserveRun sets the last-run gauges.
func (m *Metrics) ObserveRun(run *warmup.Run) {
	m.lastRun.Set(float64(run.FinishedAt.Unix()))
	m.sitemaps.Set(float64(run.Sitemaps))
	m.failedSitemaps.Set(float64(run.FailedSitemaps))
	m.urls.WithLabelValues(warmup.OutcomeSuccessful.String()).Set(float64(run.Successful))
	m.urls.WithLabelValues(warmup.OutcomeFailed.String()).Set(float64(run.Failed))
}

// WriteTextfile writes all metrics of the registry to path in the text
// exposition format, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return warmup.WrapError(warmup.EINTERNAL, err, "writing metrics to %s", path)
	}
	return nil
}

// StatusClass maps a status code to "1xx" through "5xx", or "other".
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}

func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

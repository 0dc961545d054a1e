package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mfdesk/mfgateway/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace       = "mfgateway"
	shutdownTimeout = 5 * time.Second
)

// Collector holds the gateway metrics. It satisfies request.Recorder and
// schememaster.Recorder.
type Collector struct {
	registry        *prometheus.Registry
	brokerRequests  *prometheus.CounterVec
	brokerDuration  *prometheus.HistogramVec
	masterDownloads *prometheus.CounterVec
	masterCacheHits prometheus.Counter
}

// NewCollector registers the gateway metrics on a fresh registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		brokerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_requests_total",
			Help:      "Requests sent to the broker by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		brokerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "broker_request_duration_seconds",
			Help:      "Broker round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		masterDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheme_master_downloads_total",
			Help:      "Scheme master downloads by outcome.",
		}, []string{"outcome"}),
		masterCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheme_master_cache_hits_total",
			Help:      "Snapshot requests served from an existing file.",
		}),
	}
	c.registry.MustRegister(
		c.brokerRequests,
		c.brokerDuration,
		c.masterDownloads,
		c.masterCacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveBrokerRequest records one broker round trip
func (c *Collector) ObserveBrokerRequest(endpoint, outcome string, elapsed time.Duration) {
	c.brokerRequests.WithLabelValues(endpoint, outcome).Inc()
	c.brokerDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveSnapshotDownload records a scheme master download attempt
func (c *Collector) ObserveSnapshotDownload(success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	c.masterDownloads.WithLabelValues(outcome).Inc()
}

// ObserveSnapshotCacheHit records a snapshot request served from disk
func (c *Collector) ObserveSnapshotCacheHit() {
	c.masterCacheHits.Inc()
}

// Handler exposes the registry in the prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RunPrometheus serves c on addr at /metrics until ctx is cancelled
func RunPrometheus(ctx context.Context, addr string, c *Collector) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}

	go func() {
		<-ctx.Done()
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(graceCtx); err != nil {
			log.Errorf(log.MetricsMgr, "Metrics server shutdown error: %v", err)
		}
	}()

	log.Infof(log.MetricsMgr, "Metrics server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

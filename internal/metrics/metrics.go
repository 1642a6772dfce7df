// Package metrics exposes crawl progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/law-makers/harvest/internal/crawler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "harvest"

// Collector turns crawl events into metrics. It owns its registry so
// several runs in one process do not collide.
type Collector struct {
	registry *prometheus.Registry

	LinksDiscovered prometheus.Counter
	Records         *prometheus.CounterVec
	LinkFailures    prometheus.Counter
	Pages           prometheus.Counter
	Paginations     *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	Accepted        prometheus.Gauge

	started time.Time
}

// NewCollector creates a collector with a fresh registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		LinksDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_discovered_total",
			Help:      "Candidate article links dispatched for fetching.",
		}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Extracted records by filter outcome.",
		}, []string{"outcome", "reason"}),
		LinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_failures_total",
			Help:      "Article pages that could not be loaded.",
		}),
		Pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_pages_total",
			Help:      "Listing pages walked.",
		}),
		Paginations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paginations_total",
			Help:      "Successful pagination steps by method.",
		}, []string{"method"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of crawl runs.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		Accepted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accepted_records",
			Help:      "Records accepted so far in the current run.",
		}),
	}
	c.registry.MustRegister(
		c.LinksDiscovered,
		c.Records,
		c.LinkFailures,
		c.Pages,
		c.Paginations,
		c.RunDuration,
		c.Accepted,
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe implements crawler.Observer
func (c *Collector) Observe(e crawler.Event) {
	switch e.Kind {
	case crawler.EventRunStarted:
		c.started = e.Time
		c.Accepted.Set(0)
	case crawler.EventListingLoaded:
		c.Pages.Inc()
	case crawler.EventLinksFound:
		c.LinksDiscovered.Add(float64(e.Count))
	case crawler.EventRecordAccepted:
		c.Records.WithLabelValues("accepted", "").Inc()
	case crawler.EventRecordRejected:
		c.Records.WithLabelValues("rejected", e.Reason).Inc()
	case crawler.EventLinkFailed:
		c.LinkFailures.Inc()
	case crawler.EventBatchDone:
		c.Accepted.Set(float64(e.Total))
	case crawler.EventPaginated:
		c.Pages.Inc()
		c.Paginations.WithLabelValues(e.Method).Inc()
	case crawler.EventRunFinished:
		c.Accepted.Set(float64(e.Total))
		if !c.started.IsZero() {
			c.RunDuration.Observe(e.Time.Sub(c.started).Seconds())
		}
	}
}

// WriteFile writes the current values in the text exposition format, for
// node_exporter's textfile collector.
func (c *Collector) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	return nil
}

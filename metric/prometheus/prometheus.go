// Package prometheus adapts metric.Collector to github.com/prometheus/client_golang.
// There is no HTTP request path to instrument here (disklru is a library,
// not a server), so unlike the teacher's version of this package, Serve
// just exposes promhttp.Handler() directly rather than wrapping it with
// request-duration middleware.
package prometheus

import (
	"net/http"

	"github.com/neevek/disklru/metric"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewCollector returns a prometheus-backed Collector. Names passed to
// NewCounter/NewGauge become the Prometheus metric name verbatim, so
// callers should namespace them (e.g. "disklru_disk_cache_hits_total").
func NewCollector() metric.Collector {
	return &collector{}
}

// Serve registers the standard /metrics handler on mux.
func Serve(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}

type collector struct{}

func (c *collector) NewCounter(name, help string) metric.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: help,
	})
}

func (c *collector) NewGauge(name, help string) metric.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
}

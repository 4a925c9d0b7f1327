package collectors

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestCollector counts and times calls to the chain service. It satisfies
// the client's Observer interface.
type RequestCollector struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewRequestCollector() *RequestCollector {
	return &RequestCollector{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests sent to the chain service",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the chain service",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (c *RequestCollector) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	c.total.WithLabelValues(endpoint, outcome).Inc()
	c.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (c *RequestCollector) Describe(ch chan<- *prometheus.Desc) {
	c.total.Describe(ch)
	c.duration.Describe(ch)
}

func (c *RequestCollector) Collect(ch chan<- prometheus.Metric) {
	c.total.Collect(ch)
	c.duration.Collect(ch)
}

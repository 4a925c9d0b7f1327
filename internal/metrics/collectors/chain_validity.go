package collectors

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChainValidityCollector reports the verdict of the last validation. Nothing
// is emitted until the chain has been validated once.
type ChainValidityCollector struct {
	source StatsSource
	valid  *prometheus.Desc
}

func NewChainValidityCollector(source StatsSource) *ChainValidityCollector {
	return &ChainValidityCollector{
		source: source,
		valid: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "valid"),
			"1 when the last validation found the chain valid, 0 otherwise",
			nil, nil,
		),
	}
}

func (c *ChainValidityCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.valid
}

func (c *ChainValidityCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	if !stats.Validated {
		return
	}

	value := 0.0
	if stats.Valid {
		value = 1
	}
	ch <- prometheus.MustNewConstMetric(c.valid, prometheus.GaugeValue, value)
}

func init() {
	RegisterCollectorFactory(func(source StatsSource, _ ...interface{}) (prometheus.Collector, error) {
		return NewChainValidityCollector(source), nil
	})
}

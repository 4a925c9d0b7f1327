package collectors

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChainBlocksCollector reports block counts of the working chain view.
type ChainBlocksCollector struct {
	source         StatsSource
	blocks         *prometheus.Desc
	dirty          *prometheus.Desc
	invalid        *prometheus.Desc
	pendingUpdates *prometheus.Desc
	remining       *prometheus.Desc
}

func NewChainBlocksCollector(source StatsSource) *ChainBlocksCollector {
	return &ChainBlocksCollector{
		source: source,
		blocks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "blocks"),
			"Blocks in the last loaded chain",
			nil, nil,
		),
		dirty: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "dirty_blocks"),
			"Blocks whose working copy differs from the loaded chain",
			nil, nil,
		),
		invalid: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "invalid_blocks"),
			"Blocks reported invalid by the last validation",
			nil, nil,
		),
		pendingUpdates: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "pending_updates"),
			"Block edits waiting for their debounce period",
			nil, nil,
		),
		remining: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "remining_blocks"),
			"Blocks with a remine in flight",
			nil, nil,
		),
	}
}

func (c *ChainBlocksCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.blocks
	ch <- c.dirty
	ch <- c.invalid
	ch <- c.pendingUpdates
	ch <- c.remining
}

func (c *ChainBlocksCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(stats.Blocks))
	ch <- prometheus.MustNewConstMetric(c.dirty, prometheus.GaugeValue, float64(stats.Dirty))
	ch <- prometheus.MustNewConstMetric(c.invalid, prometheus.GaugeValue, float64(stats.Invalid))
	ch <- prometheus.MustNewConstMetric(c.pendingUpdates, prometheus.GaugeValue, float64(stats.PendingUpdates))
	ch <- prometheus.MustNewConstMetric(c.remining, prometheus.GaugeValue, float64(stats.Remining))
}

func init() {
	RegisterCollectorFactory(func(source StatsSource, _ ...interface{}) (prometheus.Collector, error) {
		return NewChainBlocksCollector(source), nil
	})
}

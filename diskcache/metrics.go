package diskcache

import "github.com/neevek/disklru/metric"

// metrics holds the counters and gauges a Cache reports through its
// optional metric.Collector. All fields are always non-nil: noopMetrics
// backs them with metric.NoOp() so call sites never branch on whether
// metrics are enabled.
type metrics struct {
	puts           metric.Counter
	hits           metric.Counter
	misses         metric.Counter
	removals       metric.Counter
	evictions      metric.Counter
	compactions    metric.Counter
	redundantLines metric.Counter
	size           metric.Gauge
	items          metric.Gauge
}

func noopMetrics() *metrics {
	return newMetrics(metric.NoOp(), "")
}

func newMetrics(collector metric.Collector, namePrefix string) *metrics {
	return &metrics{
		puts:           collector.NewCounter(namePrefix+"puts_total", "total Put calls that committed an entry"),
		hits:           collector.NewCounter(namePrefix+"hits_total", "total Get calls that found a live entry"),
		misses:         collector.NewCounter(namePrefix+"misses_total", "total Get calls that found nothing"),
		removals:       collector.NewCounter(namePrefix+"removals_total", "total removal jobs run, queued by Remove or by a Get that found an entry's file missing"),
		evictions:      collector.NewCounter(namePrefix+"evictions_total", "total entries evicted for being over a size or item bound"),
		compactions:    collector.NewCounter(namePrefix+"compactions_total", "total journal compactions"),
		redundantLines: collector.NewCounter(namePrefix+"redundant_journal_lines_total", "total journal lines written or replayed that a compaction would discard"),
		size:           collector.NewGauge(namePrefix+"size_bytes", "current total size in bytes of all live entries"),
		items:          collector.NewGauge(namePrefix+"items", "current number of live entries"),
	}
}

package diskcache

import "github.com/neevek/disklru/metric"

// Option configures a Cache at construction time.
type Option func(*Cache) error

// WithLogger overrides the cache's logger, which defaults to log.Default().
func WithLogger(logger Logger) Option {
	return func(c *Cache) error {
		c.logger = logger
		return nil
	}
}

// WithMetricsCollector wires a metric.Collector so Put/Get/Remove traffic
// and eviction/compaction activity are observable. By default the cache
// records nothing (metric.NoOp).
func WithMetricsCollector(collector metric.Collector, namePrefix string) Option {
	return func(c *Cache) error {
		c.metrics = newMetrics(collector, namePrefix)
		return nil
	}
}

// WithCompactionThreshold overrides how many redundant journal lines
// accumulate before a compaction runs. The default is 2000.
func WithCompactionThreshold(n int) Option {
	return func(c *Cache) error {
		if n > 0 {
			c.compactionThreshold = n
		}
		return nil
	}
}

// WithCompression stores payloads zstd-compressed on disk. It trades CPU
// for disk space and is most useful for highly compressible payloads;
// entries written under one setting remain readable only while the same
// setting is in effect, since the cache does not tag entries with their
// codec.
func WithCompression() Option {
	return func(c *Cache) error {
		codec, err := newZstdCodec()
		if err != nil {
			return err
		}
		c.codec = codec
		return nil
	}
}

// Package config loads and validates the YAML configuration for a disklru
// deployment: where the disk cache lives, its size and item bounds, and the
// ambient logging/metrics settings around it.
package config

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	yaml "gopkg.in/yaml.v3"
)

// bytesPerGiB converts Config.MaxSize, given in GiB, to the byte count
// diskcache.New expects, mirroring the teacher's "* 1024 * 1024 * 1024"
// call site in main.go.
const bytesPerGiB = 1024 * 1024 * 1024

// Config holds the top-level configuration for a disklru cache instance.
type Config struct {
	Dir        string `yaml:"dir"`
	MaxSize    int64  `yaml:"max_size"` // in GiB
	MaxItems   int    `yaml:"max_items"`
	AppVersion int64  `yaml:"app_version"`

	CompactionThreshold int  `yaml:"compaction_threshold"`
	Compress            bool `yaml:"compress"`

	MetricsAddress string `yaml:"metrics_address"`
	LogLevel       string `yaml:"log_level"`

	AccessLogger Logger `yaml:"-"`
	ErrorLogger  Logger `yaml:"-"`
}

// defaultCompactionThreshold mirrors diskcache's own default so a config
// file that omits the field still gets sane behavior end to end.
const defaultCompactionThreshold = 2000

// New builds a Config from a YAML file at path, applies CLI flag overrides
// from ctx (flags win over the file, matching the teacher's precedence
// rule), fills in defaults, validates, and wires up the loggers.
func New(path string, ctx *cli.Context) (*Config, error) {
	c := &Config{
		CompactionThreshold: defaultCompactionThreshold,
		LogLevel:            "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parsing %q: %w", path, err)
		}
	}

	if ctx != nil {
		c.applyCliOverrides(ctx)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	c.setLoggers()

	return c, nil
}

func (c *Config) applyCliOverrides(ctx *cli.Context) {
	if ctx.IsSet("dir") {
		c.Dir = ctx.String("dir")
	}
	if ctx.IsSet("max_size") {
		c.MaxSize = ctx.Int64("max_size")
	}
	if ctx.IsSet("max_items") {
		c.MaxItems = ctx.Int("max_items")
	}
	if ctx.IsSet("app_version") {
		c.AppVersion = ctx.Int64("app_version")
	}
	if ctx.IsSet("compaction_threshold") {
		c.CompactionThreshold = ctx.Int("compaction_threshold")
	}
	if ctx.IsSet("compress") {
		c.Compress = ctx.Bool("compress")
	}
	if ctx.IsSet("metrics_address") {
		c.MetricsAddress = ctx.String("metrics_address")
	}
	if ctx.IsSet("log_level") {
		c.LogLevel = ctx.String("log_level")
	}
}

// MaxSizeBytes converts the configured GiB bound to bytes, for callers that
// construct a diskcache.Cache from this Config.
func (c *Config) MaxSizeBytes() int64 {
	return c.MaxSize * bytesPerGiB
}

func (c *Config) validate() error {
	if c.Dir == "" {
		return fmt.Errorf("config: 'dir' is required")
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("config: 'max_size' must be positive")
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("config: 'max_items' must be positive")
	}
	if c.CompactionThreshold <= 0 {
		return fmt.Errorf("config: 'compaction_threshold' must be positive")
	}
	switch c.LogLevel {
	case "none", "error", "info":
	default:
		return fmt.Errorf("config: 'log_level' must be one of none, error, info, got %q", c.LogLevel)
	}
	return nil
}

package main

import "github.com/urfave/cli/v2"

// globalFlags returns the cli.Flag set shared by every subcommand: where
// the cache lives and how it's bounded. Flags that are set explicitly
// override the values read from --config_file.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config_file",
			Value:   "",
			Usage:   "Path to a YAML configuration file. Flags below that are set explicitly override its values.",
			EnvVars: []string{"DISKLRU_CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name:    "dir",
			Value:   "",
			Usage:   "Directory where the cache's files and journal are stored. Required.",
			EnvVars: []string{"DISKLRU_DIR"},
		},
		&cli.Int64Flag{
			Name:    "max_size",
			Value:   0,
			Usage:   "Maximum total size of cached payloads, in GiB.",
			EnvVars: []string{"DISKLRU_MAX_SIZE"},
		},
		&cli.IntFlag{
			Name:    "max_items",
			Value:   0,
			Usage:   "Maximum number of cache entries.",
			EnvVars: []string{"DISKLRU_MAX_ITEMS"},
		},
		&cli.Int64Flag{
			Name:    "app_version",
			Value:   0,
			Usage:   "Version stamp recorded in the journal header. Bumping it invalidates the on-disk cache.",
			EnvVars: []string{"DISKLRU_APP_VERSION"},
		},
		&cli.IntFlag{
			Name:    "compaction_threshold",
			Value:   0,
			Usage:   "Redundant journal lines to accumulate before a compaction runs.",
			EnvVars: []string{"DISKLRU_COMPACTION_THRESHOLD"},
		},
		&cli.BoolFlag{
			Name:    "compress",
			Value:   false,
			Usage:   "Store payloads zstd-compressed on disk.",
			EnvVars: []string{"DISKLRU_COMPRESS"},
		},
		&cli.StringFlag{
			Name:    "metrics_address",
			Value:   "",
			Usage:   "Address to serve Prometheus metrics on, e.g. :9090. Disabled if empty.",
			EnvVars: []string{"DISKLRU_METRICS_ADDRESS"},
		},
		&cli.StringFlag{
			Name:    "log_level",
			Value:   "",
			Usage:   "One of none, error, info.",
			EnvVars: []string{"DISKLRU_LOG_LEVEL"},
		},
	}
}

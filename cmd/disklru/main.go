// Command disklru is a thin CLI front-end over the diskcache package: it
// wires a Config-driven Cache and exposes put/get/rm/stats operations, plus
// an optional Prometheus metrics endpoint, so the library can be exercised
// and scripted without writing Go.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/neevek/disklru/config"
	"github.com/neevek/disklru/diskcache"
	"github.com/neevek/disklru/metric/prometheus"
	"github.com/neevek/disklru/utils/rlimit"
)

func main() {
	log.SetFlags(config.LogFlags)
	rlimit.Raise()

	app := cli.NewApp()
	app.Name = "disklru"
	app.Usage = "inspect and exercise a disklru on-disk cache from the command line"
	app.Flags = globalFlags()
	app.Commands = []*cli.Command{
		putCommand(),
		getCommand(),
		rmCommand(),
		statsCommand(),
		serveCommand(),
		demoCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal("disklru: ", err)
	}
}

// openCache loads config (file, then flag overrides) and opens a Cache
// rooted at its directory, blocking until journal replay finishes.
func openCache(ctx *cli.Context) (*config.Config, *diskcache.Cache, error) {
	cfg, err := config.New(ctx.String("config_file"), ctx)
	if err != nil {
		return nil, nil, err
	}

	var opts []diskcache.Option
	opts = append(opts, diskcache.WithLogger(cfg.ErrorLogger))
	opts = append(opts, diskcache.WithCompactionThreshold(cfg.CompactionThreshold))
	if cfg.Compress {
		opts = append(opts, diskcache.WithCompression())
	}
	if cfg.MetricsAddress != "" {
		opts = append(opts, diskcache.WithMetricsCollector(prometheus.NewCollector(), "disklru_disk_cache_"))
	}

	c, err := diskcache.New(cfg.Dir, cfg.AppVersion, cfg.MaxSizeBytes(), cfg.MaxItems, opts...)
	if err != nil {
		return nil, nil, err
	}

	for !c.IsInitialized() {
		time.Sleep(time.Millisecond)
	}

	return cfg, c, nil
}

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "store stdin under a key",
		ArgsUsage: "<key>",
		Action: func(ctx *cli.Context) error {
			key := ctx.Args().First()
			if key == "" {
				return errors.New("a key argument is required")
			}
			_, c, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			ok := c.Put(key, func(w io.Writer) error {
				_, err := io.Copy(w, os.Stdin)
				return err
			})
			if !ok {
				return fmt.Errorf("put %q failed", key)
			}
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "print the value stored under a key to stdout",
		ArgsUsage: "<key>",
		Action: func(ctx *cli.Context) error {
			key := ctx.Args().First()
			if key == "" {
				return errors.New("a key argument is required")
			}
			_, c, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			hit := c.Get(key, func(r io.Reader) error {
				_, err := io.Copy(os.Stdout, r)
				return err
			})
			if !hit {
				return fmt.Errorf("%q not found", key)
			}
			return nil
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "remove a key",
		ArgsUsage: "<key>",
		Action: func(ctx *cli.Context) error {
			key := ctx.Args().First()
			if key == "" {
				return errors.New("a key argument is required")
			}
			_, c, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer c.Close()
			c.Remove(key)
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print item count and size bounds",
		Action: func(ctx *cli.Context) error {
			_, c, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			fmt.Printf("items: %d/%d\n", c.ItemCount(), c.MaxItemCount())
			fmt.Printf("bytes: %d/%d\n", c.CurrentCacheSize(), c.MaxCacheSize())
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve-metrics",
		Usage: "open the cache and serve its Prometheus metrics until interrupted",
		Action: func(ctx *cli.Context) error {
			cfg, c, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			if cfg.MetricsAddress == "" {
				return errors.New("metrics_address must be set to serve metrics")
			}

			mux := http.NewServeMux()
			prometheus.Serve(mux)
			srv := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				srv.Shutdown(context.Background())
			}()

			cfg.AccessLogger.Printf("serving metrics on %s", cfg.MetricsAddress)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

// demoCommand seeds the cache with a handful of randomly-keyed entries.
// It exists to give the CLI something to show off end to end without
// requiring real payloads on hand. The random keys come from google/uuid;
// the cache's own file names stay derived from each key's SHA-1, with a
// literal ".tmp" suffix only while a Put is writing.
func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "put a handful of randomly-keyed sample entries and print stats",
		Action: func(ctx *cli.Context) error {
			_, c, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			for i := 0; i < 10; i++ {
				key := uuid.NewString()
				value := fmt.Sprintf("sample payload #%d for %s", i, key)
				c.Put(key, func(w io.Writer) error {
					_, err := io.WriteString(w, value)
					return err
				})
			}

			fmt.Printf("items: %d/%d\n", c.ItemCount(), c.MaxItemCount())
			return nil
		},
	}
}

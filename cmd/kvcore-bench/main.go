// Command kvcore-bench drives the in-memory core end to end: loading
// keys into a KVS, scanning it to completion, and exercising the IOQ
// single-producer/single-consumer queue, reporting rehash/scan/queue
// behavior as it goes.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/valkey-io/valkey-sub003/internal/config"
)

// main wires up the three benchmark subcommands under a shared App,
// generating one uuid per process invocation so every subcommand's
// stats file (and, if --metrics-addr is set, its Prometheus instance
// label) can be tied back to this run.
func main() {
	runID := uuid.New()

	app := &cli.App{
		Name:  "kvcore-bench",
		Usage: "exercise the hashtable/kvstore/ioqueue core",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a JWCC tunables file",
			},
			&cli.StringFlag{
				Name:  "stats-out",
				Usage: "directory to atomically write the run's stats file into",
				Value: ".",
			},
		},
		Commands: []*cli.Command{
			newLoadCommand(runID),
			newScanCommand(runID),
			newIOQCommand(runID),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// baseTunables resolves the global --config flag into a config.Tunables,
// starting from config.Default and overlaying whatever the file sets.
// Every subcommand calls this first, then applies its own flag overrides
// (e.g. --shards-bits) on top of the result, so the file and the CLI
// flags compose instead of one replacing the other outright.
//
// A missing --config is not an error: baseTunables just returns
// config.Default() unchanged, matching config.LoadFile's own
// missing-file behavior.
func baseTunables(c *cli.Context) (config.Tunables, error) {
	tun := config.Default()
	path := c.String("config")
	if path == "" {
		return tun, nil
	}
	return config.LoadFile(path, tun)
}

// statsDir returns the directory --stats-out names, defaulting to the
// current directory if the flag was cleared to an empty string.
func statsDir(c *cli.Context) string {
	dir := c.String("stats-out")
	if dir == "" {
		return "."
	}
	return dir
}

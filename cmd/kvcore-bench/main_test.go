package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestApp(runID uuid.UUID) *cli.App {
	return &cli.App{
		Name: "kvcore-bench",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.StringFlag{Name: "stats-out", Value: "."},
		},
		Commands: []*cli.Command{
			newLoadCommand(runID),
			newScanCommand(runID),
			newIOQCommand(runID),
		},
	}
}

func TestLoadCommandWritesStatsFile(t *testing.T) {
	dir := t.TempDir()
	runID := uuid.New()
	app := newTestApp(runID)

	err := app.Run([]string{"kvcore-bench", "--stats-out", dir, "load", "--keys", "500"})
	require.NoError(t, err)

	path := filepath.Join(dir, "kvcore-bench-load-"+runID.String()+".txt")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "keys=500")
}

func TestScanCommandReportsFullCoverage(t *testing.T) {
	dir := t.TempDir()
	runID := uuid.New()
	app := newTestApp(runID)

	err := app.Run([]string{"kvcore-bench", "--stats-out", dir, "scan", "--keys", "2000", "--shards-bits", "3"})
	require.NoError(t, err)

	path := filepath.Join(dir, "kvcore-bench-scan-"+runID.String()+".txt")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "seen=2000")
	require.Contains(t, string(data), "missed=0")
}

func TestIOQCommandProcessesAllJobs(t *testing.T) {
	dir := t.TempDir()
	runID := uuid.New()
	app := newTestApp(runID)

	err := app.Run([]string{"kvcore-bench", "--stats-out", dir, "ioq", "--jobs", "10000", "--workers", "3"})
	require.NoError(t, err)

	path := filepath.Join(dir, "kvcore-bench-ioq-"+runID.String()+".txt")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "jobs=10000")
	require.Contains(t, string(data), "processed=10000")
}

func TestBaseTunablesWithMissingConfigFallsBackToDefault(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{&cli.StringFlag{Name: "config"}},
		Action: func(c *cli.Context) error {
			tun, err := baseTunables(c)
			require.NoError(t, err)
			require.Equal(t, 0, tun.ShardsBits)
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"kvcore-bench"}))
}

// Command lumina-scan walks the configured library roots, reconciling the
// catalog against the filesystem and enqueueing outdated tasks (C4). Run
// once per invocation by default; with -daemon it additionally schedules
// itself on ScanConfig.CronSpec, grounded on the teacher's use of
// robfig/cron for the watchman rescan scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"lumina/internal/logging"
	"lumina/internal/scan"
	"lumina/internal/state"
	"lumina/internal/task"
)

func main() {
	daemon := flag.Bool("daemon", false, "stay resident and re-scan on the configured cron schedule")
	flag.Parse()

	s, err := state.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-scan: bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer state.Shutdown(s)

	task.AssertRegistered()
	logging.Init(s.Config.Server.DevMode, s.Config.Server.LogLevel)
	log := logging.L()

	scanner := scan.NewScanner(s.Cat, s.Config.Data.ScanRoots, s.Config.Data.ExcludeDirs, s.Config.Data.DataDir, task.NewScanEnqueuer(s.Cat))

	runOnce := func() {
		stats, err := scanner.Run(context.Background())
		if err != nil {
			log.Errorw("lumina-scan: run", "error", err)
			return
		}
		log.Infow("lumina-scan: complete", "stats", stats)
	}

	if !*daemon || s.Config.Scan.CronSpec == "" {
		runOnce()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(s.Config.Scan.CronSpec, runOnce); err != nil {
		log.Fatalw("lumina-scan: invalid cron spec", "spec", s.Config.Scan.CronSpec, "error", err)
	}
	c.Start()
	log.Infow("lumina-scan: scheduled", "spec", s.Config.Scan.CronSpec)

	runOnce()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Infow("lumina-scan: shutdown signal received")
	<-c.Stop().Done()
}

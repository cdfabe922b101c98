// Command lumina-tasks drives the Task Engine's queue (§4.5): either enqueue a
// single (task, media) pair or run the drain loop over one or more task
// queues to completion, printing one progress line per completed item.
// Grounded on the original implementation's tasks/src/main.rs CLI (the
// queue/run Operation enum and its progress_handler).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"lumina/internal/logging"
	"lumina/internal/state"
	"lumina/internal/task"
)

func main() {
	op := flag.String("op", "run", `operation: "queue" or "run"`)
	taskName := flag.String("task", "", "task name (required for -op queue; restricts -op run to one task)")
	mediaID := flag.String("media", "", "media id to enqueue (required for -op queue)")
	flag.Parse()

	s, err := state.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-tasks: bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer state.Shutdown(s)

	task.AssertRegistered()
	logging.Init(s.Config.Server.DevMode, s.Config.Server.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logging.L().Infow("lumina-tasks: shutdown signal received")
		cancel()
	}()

	switch strings.ToLower(*op) {
	case "queue", "q":
		if *taskName == "" || *mediaID == "" {
			fmt.Fprintln(os.Stderr, "lumina-tasks: -task and -media are required for -op queue")
			os.Exit(2)
		}
		id, err := strconv.ParseInt(*mediaID, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lumina-tasks: invalid -media: %v\n", err)
			os.Exit(2)
		}
		if err := s.Cat.Enqueue(ctx, id, *taskName); err != nil {
			fmt.Fprintf(os.Stderr, "lumina-tasks: enqueue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("queued %s for media %d\n", *taskName, id)

	case "run", "r":
		names := task.All()
		if *taskName != "" {
			names = []string{*taskName}
		}

		engine := task.NewEngine(s.Cat, s.Config.Remote)
		progress := make(chan task.ProgressEvent, 16)
		go func() {
			for ev := range progress {
				if ev.Err != nil {
					fmt.Fprintf(os.Stderr, "(%d/%d) task %q: failed: %v, took %s\n", ev.Index+1, ev.Total, ev.Queue, ev.Err, ev.Elapsed)
				} else {
					fmt.Printf("(%d/%d) task %q: succeeded, took %s\n", ev.Index+1, ev.Total, ev.Queue, ev.Elapsed)
				}
			}
		}()

		success, failed, err := engine.RunQueue(ctx, names, progress)
		close(progress)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lumina-tasks: run queue: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d tasks succeeded, %d failed\n", success, failed)

	default:
		fmt.Fprintf(os.Stderr, "lumina-tasks: unknown -op %q\n", *op)
		os.Exit(2)
	}
}

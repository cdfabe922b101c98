// Command lumina-remote runs the Remote Runner (C6): a standalone HTTP
// service exposing POST /task/{name} and GET /job/{uuid} so a task configured
// remote in RemoteConfig can execute on separate hardware from the process
// driving the Task Engine's drain loop (§4.6). Grounded on the teacher's
// cmd/main.go http.Server lifecycle (ListenAndServe plus a signal-triggered
// graceful Shutdown).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumina/internal/logging"
	"lumina/internal/remote"
	"lumina/internal/state"
)

func main() {
	s, err := state.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-remote: bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer state.Shutdown(s)

	logging.Init(s.Config.Server.DevMode, s.Config.Server.LogLevel)
	log := logging.L()

	rs := remote.NewServer(s.Cat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rs.Start(ctx); err != nil {
		log.Fatalw("lumina-remote: start", "error", err)
	}

	httpSrv := &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: rs.Router(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infow("lumina-remote: shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := rs.Shutdown(shutdownCtx); err != nil {
			log.Errorw("lumina-remote: cancel running jobs", "error", err)
		}
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("lumina-remote: http shutdown", "error", err)
		}
	}()

	log.Infow("lumina-remote: listening", "port", s.Config.Server.Port)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("lumina-remote: listen and serve", "error", err)
	}
	log.Infow("lumina-remote: stopped")
}

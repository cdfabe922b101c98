// Command lumina-broker runs the privileged File Broker + Stream Bridge
// daemon (§4.7): the one process allowed to open source media files
// directly, serving authenticated peers over a unix-socket IPC protocol.
// Grounded on the teacher's cmd/worker/main.go signal-handling shutdown idiom.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lumina/internal/broker"
	"lumina/internal/logging"
	"lumina/internal/state"
)

func main() {
	s, err := state.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-broker: bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer state.Shutdown(s)

	logging.Init(s.Config.Server.DevMode, s.Config.Server.LogLevel)
	log := logging.L()

	srv, err := broker.NewServer(s.Cat, s.Config.Broker)
	if err != nil {
		log.Fatalw("lumina-broker: construct server", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infow("lumina-broker: shutdown signal received")
		cancel()
	}()

	log.Infow("lumina-broker: listening", "socket", s.Config.Broker.SocketPath)
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Fatalw("lumina-broker: serve", "error", err)
	}
	log.Infow("lumina-broker: stopped")
}

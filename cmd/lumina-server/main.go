// Command lumina-server runs the public HTTP surface (§6): paginated media
// queries, tag/album management, byte-ranged raw media streaming, and
// Prometheus metrics. It holds no direct access to source media files —
// reads of file bytes go through a broker.Client dialed against the
// privileged daemon (§4.7). Grounded on the teacher's cmd/api/main.go
// http.Server lifecycle.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumina/internal/broker"
	"lumina/internal/httpserver"
	"lumina/internal/logging"
	"lumina/internal/state"
)

func main() {
	s, err := state.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-server: bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer state.Shutdown(s)

	logging.Init(s.Config.Server.DevMode, s.Config.Server.LogLevel)
	log := logging.L()

	brokerClient, err := broker.Dial(s.Config.Broker.SocketPath, s.Config.Broker.SharedSecret)
	if err != nil {
		log.Fatalw("lumina-server: dial broker", "error", err)
	}

	router := httpserver.NewRouter(s.Cat, s.Config.Data.DataDir, brokerClient)

	httpSrv := &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: router,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infow("lumina-server: shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("lumina-server: http shutdown", "error", err)
		}
	}()

	log.Infow("lumina-server: listening", "port", s.Config.Server.Port)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("lumina-server: listen and serve", "error", err)
	}
	log.Infow("lumina-server: stopped")
}

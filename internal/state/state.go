// Package state wires the process-wide singletons every lumina binary needs
// at startup and tears them down explicitly at exit (§4.9): the catalog
// connection pool and the app-config envelope. Grounded on the teacher's
// cmd/main.go bootstrap sequence (load config, open the database, defer its
// close) generalized into a reusable Bootstrap/Shutdown pair so the cmd/lumina-*
// binaries don't each reimplement it.
package state

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"lumina/internal/catalog"
	"lumina/internal/config"
	"lumina/internal/customtask"
	"lumina/internal/logging"
)

// State is the bundle of process-wide singletons. No package-level mutable
// state exists outside of it — every mutation a caller wants to make passes
// through Catalog's transactional primitives instead (§4.9).
type State struct {
	Config config.AppConfig
	Cat    *catalog.Catalog
}

var (
	current *State
	mu      sync.Mutex
)

// Bootstrap loads the app config (CONFIG envelope for sub-processes, dotenv
// file for the daemon, per §4.9), opens the catalog pool, optionally
// auto-migrates a fresh install when db_migrate=true is set, and registers
// every configured Custom Task RPC script into the Task Engine (§4.10). It is
// safe to call once per process; a second call without an intervening
// Shutdown returns an error rather than leaking a second pool.
func Bootstrap() (*State, error) {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		return nil, fmt.Errorf("state: already bootstrapped")
	}

	config.LoadEnvironment()
	cfg := config.Load()

	cat, err := catalog.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("state: open catalog: %w", err)
	}

	if strings.EqualFold(os.Getenv("db_migrate"), "true") {
		if err := cat.AutoMigrate(); err != nil {
			cat.Close()
			return nil, fmt.Errorf("state: auto migrate: %w", err)
		}
		logging.L().Infow("state: auto migration complete")
	}

	customtask.RegisterAll(cat, cfg.Data.DataDir, cfg.Custom)

	s := &State{Config: cfg, Cat: cat}
	current = s
	return s, nil
}

// Shutdown closes the catalog pool and clears the process-wide singleton,
// allowing a later Bootstrap (used by tests and by any binary that restarts
// its own state without exiting the process).
func Shutdown(s *State) error {
	mu.Lock()
	defer mu.Unlock()
	if s == nil || s.Cat == nil {
		return nil
	}
	err := s.Cat.Close()
	if current == s {
		current = nil
	}
	return err
}

// Current returns the process's bootstrapped state, if any.
func Current() (*State, bool) {
	mu.Lock()
	defer mu.Unlock()
	return current, current != nil
}

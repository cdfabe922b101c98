// Command lumina-migrate applies the catalog's schema migrations. Run with
// -down N to roll back the N most recent migrations instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"lumina/internal/config"
	"lumina/internal/logging"
	"lumina/internal/migrate"
)

func main() {
	dir := flag.String("dir", "migrations", "path to the migrations directory")
	down := flag.Int("down", 0, "roll back this many migrations instead of applying pending ones")
	flag.Parse()

	config.LoadEnvironment()
	cfg := config.Load()
	logging.Init(cfg.Server.DevMode, cfg.Server.LogLevel)

	mc := migrate.Config{DB: cfg.DB, Dir: *dir}
	ctx := context.Background()

	var err error
	if *down > 0 {
		err = migrate.Down(ctx, mc, *down)
	} else {
		err = migrate.Up(ctx, mc)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-migrate: %v\n", err)
		os.Exit(1)
	}
}

// Command seed loads the demo clinics and the v1 legal documents into
// Postgres. Safe to run repeatedly.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/seed"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/legal"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.Format == "json",
	})
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal(fmt.Errorf("driver %q", cfg.Database.Driver), "seed only targets postgres; the memory driver seeds itself")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := postgres.NewStore(db)
	docs := legal.NewService(store, audit.NewService(store.Audit()))
	if err := seed.Run(ctx, store, docs, log); err != nil {
		log.Error(err, "seed failed")
		os.Exit(1)
	}
	log.Info("seed complete")
}

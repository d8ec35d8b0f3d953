package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"kpi-analytics-service/app/src/database"
	"kpi-analytics-service/app/src/infra"
)

// Standalone migration runner. Applies every pending SQL file and exits, so
// deployments can migrate before rolling the service.
func main() {
	dir := flag.String("dir", database.ResolveMigrationsDir(), "directory containing .sql migration files")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := infra.NewLogger(os.Stdout, "kpi-analytics-migrate")
	defer logger.Sync()

	cfg := infra.LoadConfig()

	dsn, err := database.BuildDatabaseDSN(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	if err := database.WaitForDatabase(ctx, cfg, logger); err != nil {
		logger.Fatalf(ctx, "migrate: database not reachable: %v", err)
	}

	db, err := database.Connect(ctx, dsn)
	if err != nil {
		logger.Fatalf(ctx, "migrate: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := database.ApplyMigrations(ctx, db, *dir, logger); err != nil {
		logger.Fatalf(ctx, "migrate: %v", err)
	}

	logger.Println(ctx, "migrations applied")
}

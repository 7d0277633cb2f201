// Command migrate prepares the schema for the spanner or postgres storage driver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/postgres"
	"github.com/light-bringer/dynprice-service/internal/config"
	"github.com/light-bringer/dynprice-service/internal/obs"
)

var (
	driver      = flag.String("driver", getEnvOrDefault("DYNPRICE_STORAGE_DRIVER", config.DriverSpanner), "storage driver: spanner or postgres")
	projectID   = flag.String("project", getEnvOrDefault("SPANNER_PROJECT_ID", "test-project"), "GCP project ID")
	instanceID  = flag.String("instance", getEnvOrDefault("SPANNER_INSTANCE_ID", "dev-instance"), "Spanner instance ID")
	databaseID  = flag.String("database", getEnvOrDefault("SPANNER_DATABASE_ID", "dynprice-db"), "Spanner database ID")
	migrateDir  = flag.String("migrations", "migrations/spanner", "Directory containing Spanner DDL files")
	postgresDSN = flag.String("dsn", os.Getenv("DYNPRICE_POSTGRES_DSN"), "PostgreSQL DSN")
	down        = flag.Bool("down", false, "roll back all postgres migrations")
)

func main() {
	flag.Parse()
	obs.InitLogger(getEnvOrDefault("DYNPRICE_LOG_LEVEL", "info"))

	if err := run(context.Background()); err != nil {
		obs.Logger.Error("migration failed", "driver", *driver, "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("migrations completed", "driver", *driver)
}

func run(ctx context.Context) error {
	switch *driver {
	case config.DriverSpanner:
		return runSpanner(ctx)
	case config.DriverPostgres:
		return runPostgres()
	default:
		return fmt.Errorf("unsupported driver %q", *driver)
	}
}

func runPostgres() error {
	if *postgresDSN == "" {
		return fmt.Errorf("postgres DSN is required (-dsn or DYNPRICE_POSTGRES_DSN)")
	}
	if *down {
		return postgres.MigrateDown(*postgresDSN)
	}
	return postgres.Migrate(*postgresDSN)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

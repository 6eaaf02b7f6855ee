package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/cassiomorais/finance/internal/infrastructure/config"
	"github.com/cassiomorais/finance/internal/repository/postgres"
	"github.com/golang-migrate/migrate/v4"
)

func main() {
	var (
		direction string
		dbURL     string
		steps     int
	)

	flag.StringVar(&direction, "direction", "up", "Migration direction: up, down or version")
	flag.StringVar(&dbURL, "db", "", "Database URL (defaults to the FINANCE_DATABASE_* configuration)")
	flag.IntVar(&steps, "steps", 0, "Number of migrations to apply or roll back (0 = all)")
	flag.Parse()

	if dbURL == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		dbURL = cfg.Database.DatabaseURL()
	}

	m, err := postgres.NewMigrator(dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrate instance: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
		exitOnError("Migration up failed", err)
		fmt.Println("Migrations applied successfully")
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
		exitOnError("Migration down failed", err)
		fmt.Println("Migrations rolled back successfully")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return
		}
		exitOnError("Failed to read version", err)
		fmt.Printf("Version %d (dirty: %t)\n", version, dirty)
	default:
		fmt.Fprintf(os.Stderr, "Unknown direction: %s (use 'up', 'down' or 'version')\n", direction)
		os.Exit(1)
	}
}

func exitOnError(msg string, err error) {
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}

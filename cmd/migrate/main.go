package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/record-tracker-api/internal/config"
	"github.com/record-tracker-api/internal/database"
	"github.com/record-tracker-api/pkg/logger"
)

const usage = `Usage: migrate [flags] <command>

Commands:
  up       apply all pending migrations
  down     roll back the last migration
  version  print the applied schema version

Flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	path := flag.String("path", "", "migrations directory (defaults to MIGRATIONS_PATH)")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	migrationsPath := cfg.Database.MigrationsPath
	if *path != "" {
		migrationsPath = *path
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = db.RunMigrations(migrationsPath)
	case "down":
		err = db.MigrateDown(migrationsPath)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = db.MigrationVersion(migrationsPath)
		if err == nil {
			fmt.Printf("version=%d dirty=%t\n", version, dirty)
		}
	default:
		log.Error().Str("command", cmd).Msg("Unknown command")
		flag.Usage()
		db.Close()
		os.Exit(2)
	}

	if err != nil {
		log.Error().Err(err).Msg("Migration command failed")
		db.Close()
		os.Exit(1)
	}
}

// Command migrate manages the sentiment database schema.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/starwatch/sentiment/internal/config"
	"github.com/starwatch/sentiment/internal/database"
	"github.com/starwatch/sentiment/internal/logger"
)

func main() {
	var (
		configPath     = flag.String("config", "", "path to config file (optional)")
		migrationsPath = flag.String("path", "migrations", "path to migrations directory")
		steps          = flag.Int("steps", 1, "number of migrations for the down command")
		forceVersion   = flag.Int("force", -1, "force schema version (repairs dirty state)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	defer log.Sync() //nolint:errcheck // stderr sync is best-effort

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	switch command {
	case "up":
		err = database.RunMigrations(cfg.Database, *migrationsPath, log)
	case "down":
		err = database.MigrateDown(cfg.Database, *migrationsPath, *steps, log)
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = database.MigrationVersion(cfg.Database, *migrationsPath)
		if err == nil {
			log.Info("Schema version", logger.Int64("version", int64(version)), logger.Bool("dirty", dirty))
		}
	case "force":
		if *forceVersion < 0 {
			fmt.Fprintln(os.Stderr, "force requires -force=<version>")
			os.Exit(2)
		}
		err = database.ForceMigrationVersion(cfg.Database, *migrationsPath, *forceVersion, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want up, down, version, or force)\n", command)
		os.Exit(2)
	}

	if err != nil {
		log.Error("Migration command failed", logger.String("command", command), logger.Error(err))
		os.Exit(1)
	}
}

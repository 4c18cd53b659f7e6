package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/config"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/logger"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/migration"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/persistence"
	"github.com/LautaroPairuna/micaela-martinez-sub001/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	logCfg := logger.DefaultConfig()
	logCfg.Level = logLevel
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if command == "list" {
		names, err := migration.List(migrations.FS)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, n := range names {
			fmt.Println("  -", n)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	switch command {
	case "seed":
		runSeed(cfg, log)
		return
	case "automigrate":
		runAutoMigrate(cfg, log)
		return
	}

	if cfg.Database.Driver == persistence.DriverSQLite {
		log.Fatal("Versioned migrations target postgres; use 'automigrate' for sqlite")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		n, convErr := intArg(args, "step count")
		if convErr != nil {
			log.Fatal("Invalid step count", zap.Error(convErr))
		}
		err = m.Steps(n)
	case "force":
		v, convErr := intArg(args, "version")
		if convErr != nil {
			log.Fatal("Invalid version number", zap.Error(convErr))
		}
		err = m.Force(v)
	case "version":
		version, dirty, vErr := m.Version()
		err = vErr
		if vErr == nil {
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func openDatabase(cfg *config.Config, log *zap.Logger) *persistence.Database {
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel("warn"), logger.WithSlowThreshold(cfg.Database.SlowThreshold)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	return db
}

func runAutoMigrate(cfg *config.Config, log *zap.Logger) {
	db := openDatabase(cfg, log)
	defer db.Close()
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Auto migration failed", zap.Error(err))
	}
	log.Info("Catalog tables migrated", zap.String("driver", db.Driver))
}

func runSeed(cfg *config.Config, log *zap.Logger) {
	db := openDatabase(cfg, log)
	defer db.Close()
	if db.Driver == persistence.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Auto migration failed", zap.Error(err))
		}
	}
	if err := persistence.Seed(context.Background(), db.DB); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Demo catalog seeded")
}

func intArg(args []string, name string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s required", name)
	}
	return strconv.Atoi(args[1])
}

func printUsage() {
	fmt.Println(`Catalog Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  list                  List embedded migrations
  automigrate           Create tables from the models (sqlite)
  seed                  Load the demo catalog

Flags:
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  CMS_DATABASE_DRIVER, CMS_DATABASE_HOST, CMS_DATABASE_PORT, CMS_DATABASE_USER,
  CMS_DATABASE_PASSWORD, CMS_DATABASE_DBNAME, CMS_DATABASE_SQLITE_PATH`)
}

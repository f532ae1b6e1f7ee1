package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/migration"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to get absolute path", zap.Error(err))
	}
	migrationsPath = absPath

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Database.Driver),
		zap.String("migrations_path", migrationsPath),
	)

	// create only touches the filesystem, no database connection needed
	if command == "create" {
		if len(args) < 2 {
			log.Fatal("create requires a name argument")
		}
		mf, err := migration.CreateMigration(migrationsPath, args[1])
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Created migration",
			zap.Uint64("version", mf.Version),
			zap.String("up", mf.UpPath),
			zap.String("down", mf.DownPath),
		)
		return
	}

	migrator, err := newMigrator(cfg, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		_ = migrator.Close()
	}()

	switch command {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "steps":
		if len(args) < 2 {
			log.Fatal("steps requires a count argument")
		}
		var n int
		n, err = strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("arg", args[1]), zap.Error(err))
		}
		err = migrator.Steps(n)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = migrator.Version()
		if err == nil {
			log.Info("Current migration version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}
	case "force":
		if len(args) < 2 {
			log.Fatal("force requires a version argument")
		}
		var v int
		v, err = strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version", zap.String("arg", args[1]), zap.Error(err))
		}
		err = migrator.Force(v)
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

// newMigrator opens a connection appropriate for the configured driver.
// sqlite gets an explicit *sql.DB so the database file is created on
// first run; postgres goes through the URL-based constructor.
func newMigrator(cfg *config.Config, migrationsPath string, log *zap.Logger) (*migration.Migrator, error) {
	if cfg.Database.Driver == "sqlite" {
		db, err := sql.Open("sqlite3", cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return migration.New(db, "sqlite3", migrationsPath, log)
	}
	return migration.NewFromURL(cfg.Database.DSN(), migrationsPath, log)
}

func printUsage() {
	fmt.Println(`Usage: migrate [flags] <command>

Commands:
  up              Apply all pending migrations
  down            Roll back all migrations
  steps <n>       Apply n migrations (negative rolls back)
  version         Print the current migration version
  force <v>       Force the version without running migrations
  create <name>   Create a new numbered migration file pair

Flags:
  -path           Path to migrations directory (default: ./migrations)
  -log-level      Log level (debug, info, warn, error)`)
}

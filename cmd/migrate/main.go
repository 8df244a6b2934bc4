package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/kevin07696/order-service/internal/adapters/database"
	"github.com/kevin07696/order-service/internal/config"
	"go.uber.org/zap"
)

var (
	flags   = flag.NewFlagSet("migrate", flag.ExitOnError)
	dbURL   = flags.String("db", "", "database URL (defaults to the service configuration)")
	timeout = flags.Duration("timeout", 5*time.Minute, "give up after this long")
)

func main() {
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) < 1 {
		flags.Usage()
		os.Exit(2)
	}
	command := args[0]

	logger := zap.Must(zap.NewDevelopment())
	defer func() { _ = logger.Sync() }()

	dsn := *dbURL
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("Invalid configuration", zap.Error(err))
		}
		dsn = cfg.Database.ConnectionString()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(ctx, db, command, args[1:]...); err != nil {
		logger.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
	logger.Info("Migration finished", zap.String("command", command))
}

func usage() {
	fmt.Print(`Usage: migrate [-db URL] COMMAND

Commands:
    up                   Migrate the DB to the most recent version available
    up-by-one            Migrate the DB up by 1
    up-to VERSION        Migrate the DB to a specific VERSION
    down                 Roll back the version by 1
    down-to VERSION      Roll back to a specific VERSION
    redo                 Re-run the latest migration
    reset                Roll back all migrations
    status               Dump the migration status for the current DB
    version              Print the current version of the database

Migrations are embedded in the binary.
`)
}

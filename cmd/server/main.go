package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/sheikh-saqib/customer-debt-ledger/internal/config"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/httpapi"
	interfaces "github.com/sheikh-saqib/customer-debt-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/ledger"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/storage/file"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/storage/postgres"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel, os.Stdout)

	if err := run(context.Background(), cfg, logger); err != nil {
		config.LogError(logger, "main", "run", "server stopped", cfg.Store, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer closeStore()

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, ledger.WithPublisher(publisher))
	}

	ledgerService, err := ledger.NewLedger(ctx, store, opts...)
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(ledgerService, logger, cfg.BackupDir)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"addr":  cfg.HTTPAddr,
		"store": cfg.Store,
	}).Info("starting server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (interfaces.SnapshotStore, func(), error) {
	noop := func() {}

	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewMemorySnapshotStore(), noop, nil

	case config.StoreFile:
		store, err := file.NewFileSnapshotStore(cfg.DataFile)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		store := postgres.NewPostgresSnapshotStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return store, func() { db.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

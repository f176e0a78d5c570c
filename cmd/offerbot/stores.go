package main

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/offerbot/config"
	"github.com/alejandrodnm/offerbot/internal/adapters/storage"
	"github.com/alejandrodnm/offerbot/internal/ports"
)

// Nombres de los blobs en los backends sqlite y redis.
const (
	guardBlob    = "steamguard"
	pollDataBlob = "polldata"
)

type stores struct {
	guard       ports.GuardStore
	checkpoints ports.CheckpointStore
	ledger      ports.OfferLedger
	redis       *redis.Client
	sqlite      *storage.SQLiteStorage
}

// openStores abre el ledger SQLite siempre y el backend de blobs configurado.
// El cliente Redis se crea si lo usa el storage o el backend de eventos.
func openStores(cfg *config.Config) (*stores, error) {
	db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	st := &stores{ledger: db, sqlite: db}

	if cfg.Storage.Backend == "redis" || cfg.Events.Backend == "redis" {
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		st.redis = redis.NewClient(opts)
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		st.guard = storage.NewGuardStore(db, guardBlob)
		st.checkpoints = storage.NewCheckpointStore(db, pollDataBlob)
	case "redis":
		blobs := storage.NewRedisBlobs(st.redis)
		st.guard = storage.NewGuardStore(blobs, guardBlob)
		st.checkpoints = storage.NewCheckpointStore(blobs, pollDataBlob)
	default:
		blobs := storage.NewFileBlobs()
		st.guard = storage.NewGuardStore(blobs, cfg.Storage.GuardPath)
		st.checkpoints = storage.NewCheckpointStore(blobs, cfg.Storage.PollDataPath)
	}
	return st, nil
}

func (s *stores) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.sqlite.Close())
	return errors.Join(errs...)
}

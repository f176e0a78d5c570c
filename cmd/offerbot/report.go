package main

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/offerbot/config"
	"github.com/alejandrodnm/offerbot/internal/adapters/notify"
	"github.com/alejandrodnm/offerbot/internal/adapters/storage"
)

// runReport imprime las últimas filas del ledger de ofertas.
func runReport(cfg *config.Config, limit int) error {
	db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.Recent(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("runReport: %w", err)
	}
	notify.NewConsole().PrintLedger(records)
	return nil
}

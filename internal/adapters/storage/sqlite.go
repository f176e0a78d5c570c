package storage

// sqlite.go — almacenamiento local en un único archivo SQLite.
//
// Tablas:
//   - `blobs`: token de steamguard y checkpoint del poller (UPSERT por nombre).
//   - `offer_events`: ledger de lo que el bot hizo con cada oferta. La clave
//     única (offer_id, state, action) es lo que evita repetir efectos cuando
//     la misma transición llega dos veces.
//   - Prune automático al arrancar: eventos con más de 90 días.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/offerbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
    name       TEXT PRIMARY KEY,
    data       BLOB    NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS offer_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    offer_id    TEXT    NOT NULL,
    partner     TEXT    NOT NULL DEFAULT '',
    state       INTEGER NOT NULL,
    action      TEXT    NOT NULL,
    detail      TEXT    NOT NULL DEFAULT '',
    recorded_at INTEGER NOT NULL,
    UNIQUE (offer_id, state, action)
);

CREATE INDEX IF NOT EXISTS idx_offer_events_at ON offer_events(recorded_at DESC);
`

const retentionEvents = 90 * 24 * time.Hour

// SQLiteStorage implements BlobStore and ports.OfferLedger using SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// Get returns the blob stored under name.
func (s *SQLiteStorage) Get(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage.Get %q: %w", name, err)
	}
	return data, nil
}

// Put overwrites the blob stored under name.
func (s *SQLiteStorage) Put(ctx context.Context, name string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data       = excluded.data,
			updated_at = excluded.updated_at
	`, name, data, time.Now().Unix()); err != nil {
		return fmt.Errorf("storage.Put %q: %w", name, err)
	}
	return nil
}

// Seen reports whether action was already recorded for the offer in that state.
func (s *SQLiteStorage) Seen(ctx context.Context, offerID string, state domain.OfferState, action domain.OfferAction) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM offer_events WHERE offer_id = ? AND state = ? AND action = ? LIMIT 1`,
		offerID, int(state), string(action),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage.Seen: %w", err)
	}
	return true, nil
}

// Record appends a ledger row. Duplicates of (offer, state, action) are ignored.
func (s *SQLiteStorage) Record(ctx context.Context, rec domain.OfferRecord) error {
	at := rec.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO offer_events (offer_id, partner, state, action, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.OfferID, rec.Partner, int(rec.State), string(rec.Action), rec.Detail, at.UnixNano()); err != nil {
		return fmt.Errorf("storage.Record %s: %w", rec.OfferID, err)
	}
	return nil
}

// Recent returns the newest ledger rows first.
func (s *SQLiteStorage) Recent(ctx context.Context, limit int) ([]domain.OfferRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT offer_id, partner, state, action, detail, recorded_at
		FROM offer_events
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Recent: query: %w", err)
	}
	defer rows.Close()

	var recs []domain.OfferRecord
	for rows.Next() {
		var rec domain.OfferRecord
		var state int
		var action string
		var at int64
		if err := rows.Scan(&rec.OfferID, &rec.Partner, &state, &action, &rec.Detail, &at); err != nil {
			return nil, fmt.Errorf("storage.Recent: scan row: %w", err)
		}
		rec.State = domain.OfferState(state)
		rec.Action = domain.OfferAction(action)
		rec.RecordedAt = time.Unix(0, at)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina eventos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().Add(-retentionEvents).UnixNano()
	s.db.ExecContext(ctx, `DELETE FROM offer_events WHERE recorded_at < ?`, cutoff)
}

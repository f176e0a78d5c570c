package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/offerbot/internal/adapters/storage"
	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStorage_BlobOverwrite(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()

	_, err := db.Get(ctx, "steamguard")
	assert.ErrorIs(t, err, storage.ErrBlobNotFound)

	require.NoError(t, db.Put(ctx, "steamguard", []byte("first")))
	require.NoError(t, db.Put(ctx, "steamguard", []byte("second")))

	data, err := db.Get(ctx, "steamguard")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSQLiteStorage_CheckpointRoundTrip(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	store := storage.NewCheckpointStore(db, "polldata")

	pd, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, pd)

	want := domain.NewPollData()
	want.Received["77"] = domain.OfferStateActive
	want.OffersSince = 1700000000
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Received, got.Received)
	assert.Equal(t, want.OffersSince, got.OffersSince)
}

func TestSQLiteStorage_LedgerSeenAndRecord(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()

	seen, err := db.Seen(ctx, "100", domain.OfferStateActive, domain.ActionAccepted)
	require.NoError(t, err)
	assert.False(t, seen)

	rec := domain.OfferRecord{
		OfferID: "100",
		Partner: "[U:1:5]",
		State:   domain.OfferStateActive,
		Action:  domain.ActionAccepted,
		Detail:  "accepted",
	}
	require.NoError(t, db.Record(ctx, rec))
	// duplicado: se ignora
	require.NoError(t, db.Record(ctx, rec))

	seen, err = db.Seen(ctx, "100", domain.OfferStateActive, domain.ActionAccepted)
	require.NoError(t, err)
	assert.True(t, seen)

	// otra acción sobre el mismo estado no cuenta
	seen, err = db.Seen(ctx, "100", domain.OfferStateActive, domain.ActionConfirmed)
	require.NoError(t, err)
	assert.False(t, seen)

	recs, err := db.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "[U:1:5]", recs[0].Partner)
	assert.Equal(t, domain.ActionAccepted, recs[0].Action)
}

func TestSQLiteStorage_RecentNewestFirst(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, id := range []string{"1", "2", "3"} {
		require.NoError(t, db.Record(ctx, domain.OfferRecord{
			OfferID:    id,
			State:      domain.OfferStateAccepted,
			Action:     domain.ActionSettled,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recs, err := db.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "3", recs[0].OfferID)
	assert.Equal(t, "2", recs[1].OfferID)
}

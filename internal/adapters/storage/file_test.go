package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/offerbot/internal/adapters/storage"
	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardStore_MissingFileIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steamguard.txt")
	guard := storage.NewGuardStore(storage.NewFileBlobs(), path)

	token, ok, err := guard.LoadGuard(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, token)
}

func TestGuardStore_SaveOverwritesPriorContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steamguard.txt")
	require.NoError(t, os.WriteFile(path, []byte("a much longer previous token"), 0o600))

	guard := storage.NewGuardStore(storage.NewFileBlobs(), path)
	require.NoError(t, guard.SaveGuard(context.Background(), []byte("76561198006409530||abc")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "76561198006409530||abc", string(raw))

	token, ok, err := guard.LoadGuard(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "76561198006409530||abc", string(token))
}

func TestCheckpointStore_FileMatchesSerializedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polldata.json")
	store := storage.NewCheckpointStore(storage.NewFileBlobs(), path)

	pd := domain.NewPollData()
	pd.Received["4001"] = domain.OfferStateAccepted
	pd.Timestamps["4001"] = 1700000000
	pd.OffersSince = 1700000050
	require.NoError(t, store.Save(context.Background(), pd))

	want, err := json.Marshal(pd)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(raw))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pd, *got)
}

func TestCheckpointStore_MissingFileStartsFresh(t *testing.T) {
	store := storage.NewCheckpointStore(storage.NewFileBlobs(), filepath.Join(t.TempDir(), "polldata.json"))
	pd, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, pd)
}

func TestCheckpointStore_CorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polldata.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := storage.NewCheckpointStore(storage.NewFileBlobs(), path)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCorruptCheckpoint)
}

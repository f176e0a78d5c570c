package storage

// blobs.go — el token de steamguard y el checkpoint del poller son blobs
// opacos que se sobreescriben enteros. Cualquier backend que sepa leer y
// escribir un blob por nombre sirve para ambos.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

// ErrBlobNotFound is returned by a BlobStore when nothing is stored under the name.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore reads and overwrites whole named blobs.
type BlobStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
}

// GuardStore implements ports.GuardStore on top of a BlobStore.
type GuardStore struct {
	blobs BlobStore
	name  string
}

// NewGuardStore stores the continuation token under name.
func NewGuardStore(blobs BlobStore, name string) *GuardStore {
	return &GuardStore{blobs: blobs, name: name}
}

// LoadGuard returns the stored token. An empty blob counts as absent.
func (g *GuardStore) LoadGuard(ctx context.Context) ([]byte, bool, error) {
	data, err := g.blobs.Get(ctx, g.name)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage.LoadGuard: %w", err)
	}
	return data, len(data) > 0, nil
}

// SaveGuard overwrites the stored token unconditionally.
func (g *GuardStore) SaveGuard(ctx context.Context, token []byte) error {
	if err := g.blobs.Put(ctx, g.name, token); err != nil {
		return fmt.Errorf("storage.SaveGuard: %w", err)
	}
	return nil
}

// CheckpointStore implements ports.CheckpointStore on top of a BlobStore.
type CheckpointStore struct {
	blobs BlobStore
	name  string
}

// NewCheckpointStore stores the poll checkpoint as JSON under name.
func NewCheckpointStore(blobs BlobStore, name string) *CheckpointStore {
	return &CheckpointStore{blobs: blobs, name: name}
}

// Load returns nil when no checkpoint exists. A blob that does not decode
// is an error wrapping domain.ErrCorruptCheckpoint.
func (c *CheckpointStore) Load(ctx context.Context) (*domain.PollData, error) {
	data, err := c.blobs.Get(ctx, c.name)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.LoadCheckpoint: %w", err)
	}

	var pd domain.PollData
	if err := json.Unmarshal(data, &pd); err != nil {
		return nil, fmt.Errorf("storage.LoadCheckpoint: %w: %w", domain.ErrCorruptCheckpoint, err)
	}
	return &pd, nil
}

// Save serializes pd and overwrites the stored checkpoint.
func (c *CheckpointStore) Save(ctx context.Context, pd domain.PollData) error {
	data, err := json.Marshal(pd)
	if err != nil {
		return fmt.Errorf("storage.SaveCheckpoint: marshal: %w", err)
	}
	if err := c.blobs.Put(ctx, c.name, data); err != nil {
		return fmt.Errorf("storage.SaveCheckpoint: %w", err)
	}
	return nil
}

package ports

import (
	"context"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

// GuardStore persists the steamguard continuation token.
type GuardStore interface {
	// LoadGuard returns the stored token; ok is false when none exists.
	LoadGuard(ctx context.Context) (token []byte, ok bool, err error)
	SaveGuard(ctx context.Context, token []byte) error
}

// CheckpointStore persists the poller's checkpoint.
type CheckpointStore interface {
	// Load returns nil without error when no checkpoint was stored yet.
	Load(ctx context.Context) (*domain.PollData, error)
	Save(ctx context.Context, pd domain.PollData) error
}

// OfferLedger records what was done for every offer so duplicate
// deliveries of the same transition have no side effects.
type OfferLedger interface {
	Seen(ctx context.Context, offerID string, state domain.OfferState, action domain.OfferAction) (bool, error)
	Record(ctx context.Context, rec domain.OfferRecord) error
	Recent(ctx context.Context, limit int) ([]domain.OfferRecord, error)
}

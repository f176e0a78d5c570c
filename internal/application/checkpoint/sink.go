package checkpoint

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/alejandrodnm/offerbot/internal/ports"
)

// Sink mirrors every poll-data snapshot into the checkpoint store.
type Sink struct {
	store ports.CheckpointStore
}

// NewSink creates a Sink over store.
func NewSink(store ports.CheckpointStore) *Sink {
	return &Sink{store: store}
}

// Handle guarda el snapshot completo. Sin batching: cada evento sobrescribe.
// Un error de escritura se loguea y no se reintenta.
func (s *Sink) Handle(ctx context.Context, pd domain.PollData) error {
	if err := s.store.Save(ctx, pd); err != nil {
		slog.Error("checkpoint: save failed", "err", err, "offers", len(pd.Received))
		return err
	}
	slog.Debug("checkpoint: saved", "offers", len(pd.Received), "offers_since", pd.OffersSince)
	return nil
}

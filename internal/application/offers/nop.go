package offers

import (
	"context"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

// NopLedger never remembers anything: every delivery is handled.
type NopLedger struct{}

func (NopLedger) Seen(context.Context, string, domain.OfferState, domain.OfferAction) (bool, error) {
	return false, nil
}

func (NopLedger) Record(context.Context, domain.OfferRecord) error { return nil }

func (NopLedger) Recent(context.Context, int) ([]domain.OfferRecord, error) { return nil, nil }

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.OfferEvent) error { return nil }

package ports

import (
	"context"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

// EventPublisher notifies downstream consumers about offer lifecycle steps.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.OfferEvent) error
}

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

const defaultTopicPrefix = "offerbot"

// WatermillPublisher implements ports.EventPublisher using Watermill.
// Each event type goes to its own topic: <prefix>.offer.<type>.
type WatermillPublisher struct {
	publisher message.Publisher
	prefix    string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher, topicPrefix string) *WatermillPublisher {
	if topicPrefix == "" {
		topicPrefix = defaultTopicPrefix
	}
	return &WatermillPublisher{publisher: publisher, prefix: topicPrefix}
}

// Topic returns the topic events of the given type are published to.
func (p *WatermillPublisher) Topic(action domain.OfferAction) string {
	return p.prefix + ".offer." + string(action)
}

// Publish publishes an offer event as JSON.
func (p *WatermillPublisher) Publish(ctx context.Context, ev domain.OfferEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set("offer_id", ev.OfferID)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.Topic(ev.Type), msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the underlying publisher.
func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

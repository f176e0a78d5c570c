package domain

import "time"

// OfferAction is what the bot did (or saw) for an offer.
type OfferAction string

const (
	ActionAccepted  OfferAction = "accepted"
	ActionConfirmed OfferAction = "confirmed"
	ActionFailed    OfferAction = "failed"
	ActionChanged   OfferAction = "changed"
	ActionSettled   OfferAction = "settled"
)

// OfferRecord is one row of the offer ledger.
type OfferRecord struct {
	OfferID    string
	Partner    string
	State      OfferState
	Action     OfferAction
	Detail     string
	RecordedAt time.Time
}

// OfferEvent is published to downstream consumers after each lifecycle step.
type OfferEvent struct {
	Type    OfferAction `json:"type"`
	OfferID string      `json:"offer_id"`
	Partner string      `json:"partner"`
	State   string      `json:"state,omitempty"`
	Status  string      `json:"status,omitempty"`
	Items   []string    `json:"items,omitempty"`
	Error   string      `json:"error,omitempty"`
	At      time.Time   `json:"at"`
}

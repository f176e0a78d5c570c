package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

// OfferSource lists the offers received by the account.
type OfferSource interface {
	SetCookies(cookies []*http.Cookie) error

	// ReceivedOffers returns received offers updated after since.
	// With activeOnly, only offers still awaiting a response are returned.
	ReceivedOffers(ctx context.Context, since time.Time, activeOnly bool) ([]domain.TradeOffer, error)
}

// OfferActions executes the locally initiated steps of the offer lifecycle.
type OfferActions interface {
	AcceptOffer(ctx context.Context, offer domain.TradeOffer) (domain.AcceptStatus, error)
	ExchangeDetails(ctx context.Context, offer domain.TradeOffer) (domain.ExchangeDetails, error)
}

// Confirmer approves held offers out-of-band (mobile confirmations).
type Confirmer interface {
	// ConfirmOffer approves the confirmation created for offerID using the
	// secret identified by secretKind.
	ConfirmOffer(ctx context.Context, secretKind, offerID string) error
}

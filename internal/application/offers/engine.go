package offers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/alejandrodnm/offerbot/internal/ports"
)

// Config holds configuration for the offer engine.
type Config struct {
	// SecretKind is passed to the confirmer for offers that need a mobile confirmation.
	SecretKind string
	Logger     *slog.Logger
}

// Engine applies the accept policy to new offers and follows accepted
// offers until they settle. Handlers are called from the event loop; the
// network work runs in goroutines tracked by Wait.
type Engine struct {
	actions   ports.OfferActions
	confirmer ports.Confirmer
	ledger    ports.OfferLedger
	publisher ports.EventPublisher
	cfg       Config
	log       *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

// New creates an offer engine. ledger and publisher may be nil.
func New(
	actions ports.OfferActions,
	confirmer ports.Confirmer,
	ledger ports.OfferLedger,
	publisher ports.EventPublisher,
	cfg Config,
) *Engine {
	if ledger == nil {
		ledger = NopLedger{}
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		actions:   actions,
		confirmer: confirmer,
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
		log:       cfg.Logger,
		inFlight:  make(map[string]struct{}),
	}
}

// ShouldAccept: se acepta toda oferta en la que no damos nada.
func ShouldAccept(offer domain.TradeOffer) bool {
	return offer.IsGift()
}

// HandleNewOffer accepts gifts and, when the platform asks for it,
// confirms them. Offers that take items from us are left untouched.
func (e *Engine) HandleNewOffer(ctx context.Context, offer domain.TradeOffer) {
	e.log.Info("offers: new offer",
		"offer", offer.ID,
		"partner", offer.Partner.Steam3(),
		"give", len(offer.ItemsToGive),
		"receive", len(offer.ItemsToReceive),
	)
	if !ShouldAccept(offer) {
		e.log.Info("offers: offer asks for our items, not accepting", "offer", offer.ID)
		return
	}

	key := offer.ID + "/" + string(domain.ActionAccepted)
	if !e.claim(ctx, key, offer.ID, offer.State, domain.ActionAccepted) {
		return
	}

	// accept → confirm no se cancela a mitad aunque el loop se cierre
	taskCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.release(key)
		e.acceptAndConfirm(taskCtx, offer)
	}()
}

func (e *Engine) acceptAndConfirm(ctx context.Context, offer domain.TradeOffer) {
	status, err := e.actions.AcceptOffer(ctx, offer)
	if err != nil {
		e.log.Error("offers: accept failed", "offer", offer.ID, "err", err)
		e.fail(ctx, offer, fmt.Errorf("accept: %w", err))
		return
	}
	e.log.Info("offers: offer accepted", "offer", offer.ID, "status", status)
	e.record(ctx, offer, domain.ActionAccepted, string(status))
	e.publish(ctx, domain.OfferEvent{
		Type:    domain.ActionAccepted,
		OfferID: offer.ID,
		Partner: offer.Partner.Steam3(),
		State:   offer.State.String(),
		Status:  string(status),
	})

	if !status.NeedsConfirmation() {
		return
	}

	if err := e.confirmer.ConfirmOffer(ctx, e.cfg.SecretKind, offer.ID); err != nil {
		e.log.Error("offers: confirmation failed", "offer", offer.ID, "err", err)
		e.fail(ctx, offer, fmt.Errorf("confirm: %w", err))
		return
	}
	e.log.Info("offers: offer confirmed", "offer", offer.ID)
	e.record(ctx, offer, domain.ActionConfirmed, "")
	e.publish(ctx, domain.OfferEvent{
		Type:    domain.ActionConfirmed,
		OfferID: offer.ID,
		Partner: offer.Partner.Steam3(),
		State:   offer.State.String(),
	})
}

// HandleOfferChanged logs the transition and, for offers that became
// Accepted, fetches what was actually exchanged.
func (e *Engine) HandleOfferChanged(ctx context.Context, change domain.OfferChange) {
	offer := change.Offer
	e.log.Info("offers: offer changed",
		"offer", offer.ID,
		"transition", fmt.Sprintf("%s -> %s", change.OldState, offer.State),
	)
	e.record(ctx, offer, domain.ActionChanged, change.OldState.String())

	if offer.State != domain.OfferStateAccepted {
		return
	}

	key := offer.ID + "/" + string(domain.ActionSettled)
	if !e.claim(ctx, key, offer.ID, offer.State, domain.ActionSettled) {
		return
	}

	taskCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.release(key)
		e.settle(taskCtx, offer)
	}()
}

func (e *Engine) settle(ctx context.Context, offer domain.TradeOffer) {
	details, err := e.actions.ExchangeDetails(ctx, offer)
	if err != nil {
		e.log.Error("offers: exchange details failed", "offer", offer.ID, "err", err)
		return
	}

	items := details.ReceivedAssetIDs()
	e.log.Info("offers: received items",
		"offer", offer.ID,
		"status", details.Status.String(),
		"items", items,
	)
	e.record(ctx, offer, domain.ActionSettled, strings.Join(items, ","))
	e.publish(ctx, domain.OfferEvent{
		Type:    domain.ActionSettled,
		OfferID: offer.ID,
		Partner: offer.Partner.Steam3(),
		State:   offer.State.String(),
		Status:  details.Status.String(),
		Items:   items,
	})
}

// Wait blocks until every in-flight offer task has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// claim devuelve false si la misma acción ya está en curso o ya quedó
// registrada en el ledger para ese estado.
func (e *Engine) claim(ctx context.Context, key, offerID string, state domain.OfferState, action domain.OfferAction) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[key]; busy {
		e.log.Debug("offers: already in progress", "offer", offerID, "action", action)
		return false
	}

	seen, err := e.ledger.Seen(ctx, offerID, state, action)
	if err != nil {
		e.log.Warn("offers: ledger lookup failed", "offer", offerID, "err", err)
	}
	if seen {
		e.log.Info("offers: already handled, skipping", "offer", offerID, "state", state, "action", action)
		return false
	}

	e.inFlight[key] = struct{}{}
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	delete(e.inFlight, key)
	e.mu.Unlock()
}

func (e *Engine) fail(ctx context.Context, offer domain.TradeOffer, err error) {
	e.record(ctx, offer, domain.ActionFailed, err.Error())
	e.publish(ctx, domain.OfferEvent{
		Type:    domain.ActionFailed,
		OfferID: offer.ID,
		Partner: offer.Partner.Steam3(),
		State:   offer.State.String(),
		Error:   err.Error(),
	})
}

func (e *Engine) record(ctx context.Context, offer domain.TradeOffer, action domain.OfferAction, detail string) {
	rec := domain.OfferRecord{
		OfferID:    offer.ID,
		Partner:    offer.Partner.Steam3(),
		State:      offer.State,
		Action:     action,
		Detail:     detail,
		RecordedAt: time.Now(),
	}
	if err := e.ledger.Record(ctx, rec); err != nil {
		e.log.Warn("offers: ledger write failed", "offer", offer.ID, "action", action, "err", err)
	}
}

func (e *Engine) publish(ctx context.Context, ev domain.OfferEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.log.Warn("offers: publish failed", "offer", ev.OfferID, "type", ev.Type, "err", err)
	}
}

package poller

// poller.go — consulta periódica de ofertas recibidas. Compara lo que devuelve
// Steam con el checkpoint (PollData) y emite eventos por canal:
//
//	oferta desconocida y Active   → NewOffers
//	oferta conocida, otro estado  → Changes
//	cualquier cambio en PollData  → PollData (copia)
//
// Los canales no tienen buffer: un solo goroutine productor garantiza que el
// consumidor los ve en el orden en que se detectaron.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/alejandrodnm/offerbot/internal/ports"
)

const (
	defaultInterval = 10 * time.Second
	// Steam puede reportar cambios con retraso; se re-pide una ventana hacia atrás.
	sinceOverlap = 30 * time.Minute
)

// Config holds configuration for the poller.
type Config struct {
	Interval time.Duration
}

// Events are the channels the poller writes to. All unbuffered by NewEvents.
type Events struct {
	NewOffers chan domain.TradeOffer
	Changes   chan domain.OfferChange
	PollData  chan domain.PollData
}

// NewEvents creates unbuffered event channels.
func NewEvents() Events {
	return Events{
		NewOffers: make(chan domain.TradeOffer),
		Changes:   make(chan domain.OfferChange),
		PollData:  make(chan domain.PollData),
	}
}

// Poller polls received offers and reports what changed.
type Poller struct {
	source ports.OfferSource
	cfg    Config
	events Events
	now    func() time.Time

	mu       sync.Mutex
	pollData *domain.PollData
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a stopped poller.
func New(source ports.OfferSource, cfg Config, events Events) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Poller{
		source: source,
		cfg:    cfg,
		events: events,
		now:    time.Now,
	}
}

// SetCookies passes the session cookies to the offer source.
func (p *Poller) SetCookies(cookies []*http.Cookie) error {
	if err := p.source.SetCookies(cookies); err != nil {
		return fmt.Errorf("poller.SetCookies: %w", err)
	}
	return nil
}

// SetPollData seeds the checkpoint. nil means start fresh.
func (p *Poller) SetPollData(pd *domain.PollData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pd == nil {
		p.pollData = nil
		return
	}
	c := pd.Clone()
	p.pollData = &c
}

// Start begins polling in the background until Stop or ctx is cancelled.
// Starting an already running poller restarts it.
func (p *Poller) Start(ctx context.Context) {
	p.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel, p.done = cancel, done
	p.mu.Unlock()

	slog.Info("poller: started", "interval", p.cfg.Interval)
	go p.run(runCtx, done)
}

// Stop cancels polling and waits for the loop to exit. Safe to call when stopped.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Debug("poller: stopped")
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	limiter := rate.NewLimiter(rate.Every(p.cfg.Interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		err := p.PollOnce(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return
		case errors.Is(err, domain.ErrSessionExpired):
			// el transport ya avisó por Expired(); se reanuda tras el relogin
			slog.Warn("poller: session lost, pausing")
			return
		default:
			slog.Error("poller: poll failed", "err", err)
		}
	}
}

// PollOnce runs a single poll cycle.
func (p *Poller) PollOnce(ctx context.Context) error {
	started := p.now()

	p.mu.Lock()
	var pd domain.PollData
	fresh := p.pollData == nil
	if fresh {
		pd = domain.NewPollData()
	} else {
		pd = p.pollData.Clone()
	}
	p.mu.Unlock()

	var since time.Time
	if !fresh && pd.OffersSince > 0 {
		since = time.Unix(pd.OffersSince, 0).Add(-sinceOverlap)
	}

	offers, err := p.source.ReceivedOffers(ctx, since, fresh)
	if err != nil {
		return fmt.Errorf("poller.PollOnce: %w", err)
	}
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Updated.Before(offers[j].Updated)
	})

	changed := fresh
	defer func() {
		p.mu.Lock()
		p.pollData = &pd
		p.mu.Unlock()
	}()

	for _, o := range offers {
		if o.IsOurOffer {
			continue
		}
		old, known := pd.Received[o.ID]
		switch {
		case !known:
			if o.State == domain.OfferStateActive {
				if err := send(ctx, p.events.NewOffers, o); err != nil {
					return err
				}
			}
			pd.Received[o.ID] = o.State
			changed = true
		case old != o.State:
			if err := send(ctx, p.events.Changes, domain.OfferChange{Offer: o, OldState: old}); err != nil {
				return err
			}
			pd.Received[o.ID] = o.State
			changed = true
		}

		if o.Updated.IsZero() {
			continue
		}
		ts := o.Updated.Unix()
		if pd.Timestamps[o.ID] != ts {
			pd.Timestamps[o.ID] = ts
			changed = true
		}
		if ts > pd.OffersSince {
			pd.OffersSince = ts
			changed = true
		}
	}

	if pd.OffersSince == 0 {
		pd.OffersSince = started.Unix()
		changed = true
	}

	slog.Debug("poller: cycle done", "offers", len(offers), "changed", changed, "fresh", fresh)
	if !changed {
		return nil
	}
	return send(ctx, p.events.PollData, pd.Clone())
}

func send[T any](ctx context.Context, ch chan T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

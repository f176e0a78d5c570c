package bot

// bot.go — contexto de la aplicación. Un único goroutine (Run) consume todos
// los canales de eventos, de a uno y en orden de llegada. El trabajo de red
// corre en goroutines de session.Manager y offers.Engine.

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/offerbot/internal/application/checkpoint"
	"github.com/alejandrodnm/offerbot/internal/application/offers"
	"github.com/alejandrodnm/offerbot/internal/application/poller"
	"github.com/alejandrodnm/offerbot/internal/application/session"
	"github.com/alejandrodnm/offerbot/internal/ports"
)

// Deps are the collaborators the bot owns. All are required except Codes.
type Deps struct {
	Session   *session.Manager
	Transport ports.SessionTransport
	Poller    session.Poller
	Events    poller.Events
	Offers    *offers.Engine
	Sink      *checkpoint.Sink
	// Codes delivers second-factor codes typed by the operator.
	Codes <-chan string
}

// Bot is the application context, built once in main.
type Bot struct {
	deps Deps
}

// New creates the bot.
func New(deps Deps) *Bot {
	return &Bot{deps: deps}
}

// Run procesa eventos hasta que ctx se cancela (devuelve nil) o la sesión
// falla de forma fatal (devuelve un error que envuelve domain.ErrFatal).
// Antes de volver detiene el poller y espera las tareas de ofertas en curso.
func (b *Bot) Run(ctx context.Context) error {
	defer b.shutdown()

	d := b.deps
	codes := d.Codes
	slog.Info("bot: waiting for a two-factor code on stdin")

	for {
		select {
		case <-ctx.Done():
			slog.Info("bot: shutting down")
			return nil

		case code, ok := <-codes:
			if !ok {
				slog.Info("bot: operator input closed")
				codes = nil
				continue
			}
			if err := d.Session.OnSecondFactor(ctx, code); err != nil {
				return err
			}

		case cause := <-d.Transport.Expired():
			if err := d.Session.OnSessionExpired(ctx, cause); err != nil {
				return err
			}

		case res := <-d.Session.Results():
			if err := d.Session.Complete(ctx, res); err != nil {
				return err
			}

		case offer := <-d.Events.NewOffers:
			d.Offers.HandleNewOffer(ctx, offer)

		case change := <-d.Events.Changes:
			d.Offers.HandleOfferChanged(ctx, change)

		case pd := <-d.Events.PollData:
			// el error ya queda logueado; la escritura no se reintenta
			_ = d.Sink.Handle(ctx, pd)
		}
	}
}

func (b *Bot) shutdown() {
	b.deps.Poller.Stop()
	b.deps.Offers.Wait()
}

package offers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/alejandrodnm/offerbot/internal/application/offers"
	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActions struct {
	mu         sync.Mutex
	accepted   []string
	status     domain.AcceptStatus
	acceptErr  error
	details    domain.ExchangeDetails
	detailsErr error
	detailCall int
	release    chan struct{}
}

func (f *fakeActions) AcceptOffer(_ context.Context, o domain.TradeOffer) (domain.AcceptStatus, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, o.ID)
	return f.status, f.acceptErr
}

func (f *fakeActions) ExchangeDetails(context.Context, domain.TradeOffer) (domain.ExchangeDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCall++
	return f.details, f.detailsErr
}

type fakeConfirmer struct {
	mu    sync.Mutex
	calls []string
	kinds []string
	err   error
}

func (f *fakeConfirmer) ConfirmOffer(_ context.Context, kind, offerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, offerID)
	f.kinds = append(f.kinds, kind)
	return f.err
}

type memLedger struct {
	mu      sync.Mutex
	records []domain.OfferRecord
}

func (l *memLedger) Seen(_ context.Context, id string, state domain.OfferState, action domain.OfferAction) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.OfferID == id && r.State == state && r.Action == action {
			return true, nil
		}
	}
	return false, nil
}

func (l *memLedger) Record(_ context.Context, rec domain.OfferRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *memLedger) Recent(context.Context, int) ([]domain.OfferRecord, error) { return nil, nil }

type memPublisher struct {
	mu     sync.Mutex
	events []domain.OfferEvent
}

func (p *memPublisher) Publish(_ context.Context, ev domain.OfferEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *memPublisher) types() []domain.OfferAction {
	var out []domain.OfferAction
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func gift(id string) domain.TradeOffer {
	return domain.TradeOffer{
		ID:             id,
		Partner:        domain.Partner{AccountID: 46143802},
		State:          domain.OfferStateActive,
		ItemsToReceive: []domain.Item{{AppID: 730, ContextID: "2", AssetID: "a1", Amount: 1}},
	}
}

func newEngine(actions *fakeActions, confirmer *fakeConfirmer, ledger *memLedger, pub *memPublisher, logs *bytes.Buffer) *offers.Engine {
	cfg := offers.Config{SecretKind: "identitySecret"}
	if logs != nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(logs, nil))
	}
	if ledger == nil {
		return offers.New(actions, confirmer, nil, pub, cfg)
	}
	return offers.New(actions, confirmer, ledger, pub, cfg)
}

func TestShouldAccept(t *testing.T) {
	assert.True(t, offers.ShouldAccept(gift("1")))
	assert.True(t, offers.ShouldAccept(domain.TradeOffer{ID: "2"}), "empty-for-empty offers are accepted")
	assert.False(t, offers.ShouldAccept(domain.TradeOffer{
		ID:          "3",
		ItemsToGive: []domain.Item{{AssetID: "b2"}},
	}))
}

func TestEngine_AcceptedWithoutConfirmation(t *testing.T) {
	actions := &fakeActions{status: domain.AcceptStatusAccepted}
	confirmer := &fakeConfirmer{}
	pub := &memPublisher{}
	var logs bytes.Buffer
	e := newEngine(actions, confirmer, nil, pub, &logs)

	e.HandleNewOffer(context.Background(), gift("4001"))
	e.Wait()

	assert.Equal(t, []string{"4001"}, actions.accepted)
	assert.Empty(t, confirmer.calls)
	assert.Equal(t, []domain.OfferAction{domain.ActionAccepted}, pub.types())
	assert.Contains(t, logs.String(), "offers: offer accepted")
}

func TestEngine_PendingIsConfirmedOnce(t *testing.T) {
	actions := &fakeActions{status: domain.AcceptStatusPending}
	confirmer := &fakeConfirmer{}
	pub := &memPublisher{}
	e := newEngine(actions, confirmer, nil, pub, nil)

	e.HandleNewOffer(context.Background(), gift("4001"))
	e.Wait()

	assert.Equal(t, []string{"4001"}, confirmer.calls)
	assert.Equal(t, []string{"identitySecret"}, confirmer.kinds)
	assert.Equal(t, []domain.OfferAction{domain.ActionAccepted, domain.ActionConfirmed}, pub.types())
}

func TestEngine_EscrowIsNotConfirmed(t *testing.T) {
	actions := &fakeActions{status: domain.AcceptStatusEscrow}
	confirmer := &fakeConfirmer{}
	e := newEngine(actions, confirmer, nil, &memPublisher{}, nil)

	e.HandleNewOffer(context.Background(), gift("4001"))
	e.Wait()

	assert.Len(t, actions.accepted, 1)
	assert.Empty(t, confirmer.calls)
}

func TestEngine_NeverAcceptsWhenGivingItems(t *testing.T) {
	actions := &fakeActions{status: domain.AcceptStatusAccepted}
	e := newEngine(actions, &fakeConfirmer{}, nil, &memPublisher{}, nil)

	offer := gift("4002")
	offer.ItemsToGive = []domain.Item{{AppID: 730, ContextID: "2", AssetID: "b2", Amount: 1}}
	e.HandleNewOffer(context.Background(), offer)
	e.Wait()

	assert.Empty(t, actions.accepted)
}

func TestEngine_AcceptFailureIsNotFatalAndNotConfirmed(t *testing.T) {
	actions := &fakeActions{status: domain.AcceptStatusPending, acceptErr: errors.New("strError (16)")}
	confirmer := &fakeConfirmer{}
	pub := &memPublisher{}
	ledger := &memLedger{}
	e := newEngine(actions, confirmer, ledger, pub, nil)

	e.HandleNewOffer(context.Background(), gift("4001"))
	e.Wait()

	assert.Empty(t, confirmer.calls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.ActionFailed, pub.events[0].Type)
	assert.Contains(t, pub.events[0].Error, "(16)")
	require.Len(t, ledger.records, 1)
	assert.Equal(t, domain.ActionFailed, ledger.records[0].Action)
}

func TestEngine_ConfirmFailureIsRecorded(t *testing.T) {
	actions := &fakeActions{status: domain.AcceptStatusPending}
	confirmer := &fakeConfirmer{err: errors.New("confirmation not found")}
	pub := &memPublisher{}
	e := newEngine(actions, confirmer, nil, pub, nil)

	e.HandleNewOffer(context.Background(), gift("4001"))
	e.Wait()

	assert.Len(t, confirmer.calls, 1)
	assert.Equal(t, []domain.OfferAction{domain.ActionAccepted, domain.ActionFailed}, pub.types())
}

func TestEngine_DuplicateDeliveryAcceptsOnce(t *testing.T) {
	actions := &fakeActions{status: domain.AcceptStatusAccepted, release: make(chan struct{})}
	ledger := &memLedger{}
	e := newEngine(actions, &fakeConfirmer{}, ledger, &memPublisher{}, nil)
	ctx := context.Background()

	// en curso
	e.HandleNewOffer(ctx, gift("4001"))
	e.HandleNewOffer(ctx, gift("4001"))
	close(actions.release)
	e.Wait()

	// ya registrada en el ledger
	e.HandleNewOffer(ctx, gift("4001"))
	e.Wait()

	assert.Equal(t, []string{"4001"}, actions.accepted)
}

func TestEngine_AcceptSurvivesLoopCancellation(t *testing.T) {
	actions := &fakeActions{status: domain.AcceptStatusPending, release: make(chan struct{})}
	confirmer := &fakeConfirmer{}
	e := newEngine(actions, confirmer, nil, &memPublisher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	e.HandleNewOffer(ctx, gift("4001"))
	cancel()
	close(actions.release)
	e.Wait()

	assert.Equal(t, []string{"4001"}, confirmer.calls)
}

func TestEngine_AcceptedChangeLogsReceivedItems(t *testing.T) {
	actions := &fakeActions{details: domain.ExchangeDetails{
		Status: domain.TradeStatusComplete,
		ReceivedItems: []domain.ExchangeItem{
			{AppID: 730, ContextID: "2", AssetID: "a1", Amount: 1, NewAssetID: "999"},
		},
	}}
	pub := &memPublisher{}
	var logs bytes.Buffer
	e := newEngine(actions, &fakeConfirmer{}, nil, pub, &logs)

	offer := gift("4001")
	offer.State = domain.OfferStateAccepted
	offer.TradeID = "T42"
	e.HandleOfferChanged(context.Background(), domain.OfferChange{Offer: offer, OldState: domain.OfferStateActive})
	e.Wait()

	lines := logLines(t, &logs)
	var changed, settled map[string]any
	for _, l := range lines {
		switch l["msg"] {
		case "offers: offer changed":
			changed = l
		case "offers: received items":
			settled = l
		}
	}
	require.NotNil(t, changed)
	assert.Equal(t, "Active -> Accepted", changed["transition"])
	require.NotNil(t, settled)
	assert.Equal(t, []any{"999"}, settled["items"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.ActionSettled, pub.events[0].Type)
	assert.Equal(t, []string{"999"}, pub.events[0].Items)
}

func TestEngine_NonAcceptedChangeFetchesNothing(t *testing.T) {
	actions := &fakeActions{}
	e := newEngine(actions, &fakeConfirmer{}, nil, &memPublisher{}, nil)

	offer := gift("4001")
	offer.State = domain.OfferStateDeclined
	e.HandleOfferChanged(context.Background(), domain.OfferChange{Offer: offer, OldState: domain.OfferStateActive})
	e.Wait()

	assert.Equal(t, 0, actions.detailCall)
}

func TestEngine_DetailsFailureIsLoggedOnly(t *testing.T) {
	actions := &fakeActions{detailsErr: errors.New("trade not found")}
	pub := &memPublisher{}
	var logs bytes.Buffer
	e := newEngine(actions, &fakeConfirmer{}, nil, pub, &logs)

	offer := gift("4001")
	offer.State = domain.OfferStateAccepted
	e.HandleOfferChanged(context.Background(), domain.OfferChange{Offer: offer, OldState: domain.OfferStateActive})
	e.Wait()

	assert.Empty(t, pub.events)
	assert.Contains(t, logs.String(), "exchange details failed")
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

package steam

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

var apiKeyPattern = regexp.MustCompile(`<p>Key: ([0-9A-F]{32})</p>`)

// ReceivedOffers lista las ofertas recibidas vía IEconService/GetTradeOffers.
// Steam devuelve siempre las activas; las históricas solo si se actualizaron
// después del cutoff, que con activeOnly es "ahora".
func (c *Client) ReceivedOffers(ctx context.Context, since time.Time, activeOnly bool) ([]domain.TradeOffer, error) {
	key, err := c.ensureAPIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("steam.ReceivedOffers: %w", err)
	}

	q := url.Values{
		"key":                    {key},
		"get_received_offers":    {"1"},
		"get_sent_offers":        {"0"},
		"get_descriptions":       {"0"},
		"active_only":            {"1"},
		"historical_only":        {"0"},
		"language":               {c.language},
		"time_historical_cutoff": {strconv.FormatInt(cutoff(since, activeOnly), 10)},
	}

	var resp offersResponse
	if err := c.getAPI(ctx, c.apiBase+"/IEconService/GetTradeOffers/v1/?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("steam.ReceivedOffers: %w", err)
	}

	offers := make([]domain.TradeOffer, 0, len(resp.Response.TradeOffersReceived))
	for _, r := range resp.Response.TradeOffersReceived {
		offers = append(offers, mapOffer(r))
	}
	return offers, nil
}

// AcceptOffer acepta una oferta recibida desde la web de la comunidad.
func (c *Client) AcceptOffer(ctx context.Context, offer domain.TradeOffer) (domain.AcceptStatus, error) {
	if offer.ID == "" {
		return "", fmt.Errorf("steam.AcceptOffer: offer without id")
	}
	referer := fmt.Sprintf("%s/tradeoffer/%s/", c.communityBase, offer.ID)
	form := url.Values{
		"sessionid":    {c.currentSessionID()},
		"serverid":     {"1"},
		"tradeofferid": {offer.ID},
		"partner":      {offer.Partner.SteamID64()},
		"captcha":      {""},
	}

	var resp acceptResponse
	if err := c.postForm(ctx, referer+"accept", referer, form, &resp); err != nil {
		return "", fmt.Errorf("steam.AcceptOffer %s: %w", offer.ID, err)
	}
	if resp.StrError != "" {
		return "", fmt.Errorf("steam.AcceptOffer %s: %s", offer.ID, resp.StrError)
	}

	if resp.NeedsMobileConfirmation || resp.NeedsEmailConfirmation {
		return domain.AcceptStatusPending, nil
	}

	// El accept no dice si el trade quedó en escrow; hay que releer la oferta.
	// El accept ya se hizo, así que un fallo acá no lo invalida.
	state, err := c.offerState(ctx, offer.ID)
	if err != nil {
		slog.Warn("steam: could not re-read accepted offer", "offer", offer.ID, "err", err)
		return domain.AcceptStatusAccepted, nil
	}
	if state == domain.OfferStateInEscrow {
		return domain.AcceptStatusEscrow, nil
	}
	return domain.AcceptStatusAccepted, nil
}

// offerState lee el estado actual de una oferta vía IEconService/GetTradeOffer.
func (c *Client) offerState(ctx context.Context, offerID string) (domain.OfferState, error) {
	key, err := c.ensureAPIKey(ctx)
	if err != nil {
		return 0, err
	}
	q := url.Values{
		"key":          {key},
		"tradeofferid": {offerID},
		"language":     {c.language},
	}
	var resp offerResponse
	if err := c.getAPI(ctx, c.apiBase+"/IEconService/GetTradeOffer/v1/?"+q.Encode(), &resp); err != nil {
		return 0, err
	}
	if resp.Response.Offer == nil {
		return 0, fmt.Errorf("offer %s not found", offerID)
	}
	return domain.OfferState(resp.Response.Offer.State), nil
}

// ExchangeDetails obtiene lo que realmente se movió en el trade aceptado,
// que puede diferir de lo ofrecido.
func (c *Client) ExchangeDetails(ctx context.Context, offer domain.TradeOffer) (domain.ExchangeDetails, error) {
	if offer.TradeID == "" {
		return domain.ExchangeDetails{}, fmt.Errorf("steam.ExchangeDetails %s: offer has no trade id", offer.ID)
	}
	key, err := c.ensureAPIKey(ctx)
	if err != nil {
		return domain.ExchangeDetails{}, fmt.Errorf("steam.ExchangeDetails: %w", err)
	}

	q := url.Values{
		"key":              {key},
		"tradeid":          {offer.TradeID},
		"get_descriptions": {"0"},
		"language":         {c.language},
	}
	var resp tradeStatusResponse
	if err := c.getAPI(ctx, c.apiBase+"/IEconService/GetTradeStatus/v1/?"+q.Encode(), &resp); err != nil {
		return domain.ExchangeDetails{}, fmt.Errorf("steam.ExchangeDetails %s: %w", offer.ID, err)
	}
	if len(resp.Response.Trades) == 0 {
		return domain.ExchangeDetails{}, fmt.Errorf("steam.ExchangeDetails %s: trade %s not found", offer.ID, offer.TradeID)
	}

	t := resp.Response.Trades[0]
	return domain.ExchangeDetails{
		Status:        domain.TradeStatus(t.Status),
		TradeInitTime: unixOrZero(t.TimeInit),
		ReceivedItems: mapTradeAssets(t.AssetsReceived),
		SentItems:     mapTradeAssets(t.AssetsGiven),
	}, nil
}

// ensureAPIKey devuelve la API key configurada o, si no hay, la lee de la
// página /dev/apikey de la cuenta logueada.
func (c *Client) ensureAPIKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	key := c.apiKey
	c.mu.Unlock()
	if key != "" {
		return key, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.communityBase+"/dev/apikey?l=english", nil)
	if err != nil {
		return "", fmt.Errorf("api key request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("api key page: %w", err)
	}
	defer resp.Body.Close()

	if isSessionLost(resp) {
		err := fmt.Errorf("%w: api key page status %d", domain.ErrSessionExpired, resp.StatusCode)
		c.markExpired(err)
		return "", err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("api key page: %w", err)
	}
	m := apiKeyPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no web api key registered for this account")
	}

	key = string(m[1])
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
	slog.Info("steam: web api key loaded from account")
	return key, nil
}

func cutoff(since time.Time, activeOnly bool) int64 {
	switch {
	case activeOnly:
		return time.Now().Unix()
	case since.IsZero():
		return 1
	}
	return since.Unix()
}

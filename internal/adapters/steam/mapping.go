package steam

import (
	"strconv"
	"time"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

func mapOffer(r rawOffer) domain.TradeOffer {
	return domain.TradeOffer{
		ID:             r.TradeOfferID,
		Partner:        domain.Partner{AccountID: r.AccountIDOther},
		Message:        r.Message,
		ItemsToGive:    mapAssets(r.ItemsToGive),
		ItemsToReceive: mapAssets(r.ItemsToReceive),
		State:          domain.OfferState(r.State),
		TradeID:        r.TradeID,
		IsOurOffer:     r.IsOurOffer,
		Created:        unixOrZero(r.TimeCreated),
		Updated:        unixOrZero(r.TimeUpdated),
	}
}

func mapAssets(raw []rawAsset) []domain.Item {
	items := make([]domain.Item, 0, len(raw))
	for _, a := range raw {
		items = append(items, domain.Item{
			AppID:     a.AppID,
			ContextID: a.ContextID,
			AssetID:   a.AssetID,
			Amount:    parseAmount(a.Amount),
		})
	}
	return items
}

func mapTradeAssets(raw []rawTradeAsset) []domain.ExchangeItem {
	items := make([]domain.ExchangeItem, 0, len(raw))
	for _, a := range raw {
		items = append(items, domain.ExchangeItem{
			AppID:        a.AppID,
			ContextID:    a.ContextID,
			AssetID:      a.AssetID,
			Amount:       parseAmount(a.Amount),
			NewAssetID:   a.NewAssetID,
			NewContextID: a.NewContextID,
		})
	}
	return items
}

// parseAmount: la API manda amount como string; sin valor cuenta como 1.
func parseAmount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func unixOrZero(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

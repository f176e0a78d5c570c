package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferState_String(t *testing.T) {
	assert.Equal(t, "Active", OfferStateActive.String())
	assert.Equal(t, "Accepted", OfferStateAccepted.String())
	assert.Equal(t, "CanceledBySecondFactor", OfferStateCanceledBySecondFactor.String())
	assert.Equal(t, "Unknown(42)", OfferState(42).String())
}

func TestOfferState_IsFinal(t *testing.T) {
	assert.False(t, OfferStateActive.IsFinal())
	assert.False(t, OfferStateInEscrow.IsFinal())
	assert.True(t, OfferStateAccepted.IsFinal())
	assert.True(t, OfferStateDeclined.IsFinal())
}

func TestPartner_SteamIDs(t *testing.T) {
	p := Partner{AccountID: 46143802}
	assert.Equal(t, "76561198006409530", p.SteamID64())
	assert.Equal(t, "[U:1:46143802]", p.Steam3())

	back, err := PartnerFromSteamID64(p.SteamID64())
	require.NoError(t, err)
	assert.Equal(t, p, back)

	_, err = PartnerFromSteamID64("12")
	assert.Error(t, err)
}

func TestTradeOffer_IsGift(t *testing.T) {
	assert.True(t, TradeOffer{ItemsToReceive: []Item{{AssetID: "a1"}}}.IsGift())
	// vacío por ambos lados también cuenta
	assert.True(t, TradeOffer{}.IsGift())
	assert.False(t, TradeOffer{ItemsToGive: []Item{{AssetID: "b2"}}}.IsGift())
}

func TestAcceptStatus_NeedsConfirmation(t *testing.T) {
	assert.True(t, AcceptStatusPending.NeedsConfirmation())
	assert.False(t, AcceptStatusAccepted.NeedsConfirmation())
	assert.False(t, AcceptStatusEscrow.NeedsConfirmation())
}

func TestExchangeDetails_ReceivedAssetIDs(t *testing.T) {
	d := ExchangeDetails{ReceivedItems: []ExchangeItem{
		{AssetID: "1", NewAssetID: "999"},
		{AssetID: "2", NewAssetID: "1000"},
	}}
	assert.Equal(t, []string{"999", "1000"}, d.ReceivedAssetIDs())
	assert.Empty(t, ExchangeDetails{}.ReceivedAssetIDs())
}

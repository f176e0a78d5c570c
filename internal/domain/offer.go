package domain

import (
	"fmt"
	"strconv"
	"time"
)

// OfferState is the platform-defined state of a trade offer (ETradeOfferState).
type OfferState int

const (
	OfferStateInvalid                  OfferState = 1
	OfferStateActive                   OfferState = 2
	OfferStateAccepted                 OfferState = 3
	OfferStateCountered                OfferState = 4
	OfferStateExpired                  OfferState = 5
	OfferStateCanceled                 OfferState = 6
	OfferStateDeclined                 OfferState = 7
	OfferStateInvalidItems             OfferState = 8
	OfferStateCreatedNeedsConfirmation OfferState = 9
	OfferStateCanceledBySecondFactor   OfferState = 10
	OfferStateInEscrow                 OfferState = 11
)

var offerStateNames = map[OfferState]string{
	OfferStateInvalid:                  "Invalid",
	OfferStateActive:                   "Active",
	OfferStateAccepted:                 "Accepted",
	OfferStateCountered:                "Countered",
	OfferStateExpired:                  "Expired",
	OfferStateCanceled:                 "Canceled",
	OfferStateDeclined:                 "Declined",
	OfferStateInvalidItems:             "InvalidItems",
	OfferStateCreatedNeedsConfirmation: "CreatedNeedsConfirmation",
	OfferStateCanceledBySecondFactor:   "CanceledBySecondFactor",
	OfferStateInEscrow:                 "InEscrow",
}

// String devuelve el nombre que usa la plataforma para el estado.
func (s OfferState) String() string {
	if name, ok := offerStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(s))
}

// IsFinal reports whether no further transitions are expected for the offer.
func (s OfferState) IsFinal() bool {
	switch s {
	case OfferStateActive, OfferStateCreatedNeedsConfirmation, OfferStateInEscrow:
		return false
	}
	return true
}

// AcceptStatus is the outcome reported by the platform after accepting an offer.
type AcceptStatus string

const (
	AcceptStatusAccepted AcceptStatus = "accepted"
	AcceptStatusPending  AcceptStatus = "pending" // needs mobile/email confirmation
	AcceptStatusEscrow   AcceptStatus = "escrow"
)

// NeedsConfirmation reports whether the acceptance is on hold until confirmed.
func (s AcceptStatus) NeedsConfirmation() bool {
	return s == AcceptStatusPending
}

// steamID64Base is the SteamID64 of individual account id 0 in the public universe.
const steamID64Base = 76561197960265728

// Partner identifies the counterparty of an offer.
type Partner struct {
	AccountID uint32
}

// SteamID64 returns the 64-bit form used by community endpoints.
func (p Partner) SteamID64() string {
	return strconv.FormatUint(steamID64Base+uint64(p.AccountID), 10)
}

// Steam3 renders the partner as [U:1:accountid].
func (p Partner) Steam3() string {
	return fmt.Sprintf("[U:1:%d]", p.AccountID)
}

// PartnerFromSteamID64 parses a SteamID64 string.
func PartnerFromSteamID64(id string) (Partner, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n < steamID64Base {
		return Partner{}, fmt.Errorf("domain: invalid steamid64 %q", id)
	}
	return Partner{AccountID: uint32(n - steamID64Base)}, nil
}

// Item is an asset reference inside an offer.
type Item struct {
	AppID     int
	ContextID string
	AssetID   string
	Amount    int
}

// TradeOffer is a proposed exchange between the local account and a partner.
type TradeOffer struct {
	ID             string
	Partner        Partner
	Message        string
	ItemsToGive    []Item
	ItemsToReceive []Item
	State          OfferState
	TradeID        string // set by the platform once the offer is accepted
	IsOurOffer     bool
	Created        time.Time
	Updated        time.Time
}

// IsGift reports whether the local account gives nothing away.
// Empty-for-empty offers count as gifts too.
func (o TradeOffer) IsGift() bool {
	return len(o.ItemsToGive) == 0
}

// OfferChange is a state transition observed by the poller.
type OfferChange struct {
	Offer    TradeOffer
	OldState OfferState
}

// TradeStatus is the settlement status of an accepted offer (ETradeStatus).
type TradeStatus int

const (
	TradeStatusInit              TradeStatus = 0
	TradeStatusPreCommitted      TradeStatus = 1
	TradeStatusCommitted         TradeStatus = 2
	TradeStatusComplete          TradeStatus = 3
	TradeStatusFailed            TradeStatus = 4
	TradeStatusPartialSupport    TradeStatus = 5
	TradeStatusFullSupport       TradeStatus = 6
	TradeStatusSupportRollback   TradeStatus = 7
	TradeStatusRollbackFailed    TradeStatus = 8
	TradeStatusRollbackAbandoned TradeStatus = 9
	TradeStatusInEscrow          TradeStatus = 10
	TradeStatusEscrowRollback    TradeStatus = 11
)

func (s TradeStatus) String() string {
	switch s {
	case TradeStatusInit:
		return "Init"
	case TradeStatusPreCommitted:
		return "PreCommitted"
	case TradeStatusCommitted:
		return "Committed"
	case TradeStatusComplete:
		return "Complete"
	case TradeStatusFailed:
		return "Failed"
	case TradeStatusInEscrow:
		return "InEscrow"
	case TradeStatusEscrowRollback:
		return "EscrowRollback"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ExchangeItem is an asset as it was actually moved by the settled trade.
// NewAssetID differs from AssetID because assets get new ids on transfer.
type ExchangeItem struct {
	AppID        int
	ContextID    string
	AssetID      string
	Amount       int
	NewAssetID   string
	NewContextID string
}

// ExchangeDetails describes what a settled trade actually moved.
type ExchangeDetails struct {
	Status        TradeStatus
	TradeInitTime time.Time
	ReceivedItems []ExchangeItem
	SentItems     []ExchangeItem
}

// ReceivedAssetIDs returns the new asset ids of everything received.
func (d ExchangeDetails) ReceivedAssetIDs() []string {
	ids := make([]string, 0, len(d.ReceivedItems))
	for _, it := range d.ReceivedItems {
		ids = append(ids, it.NewAssetID)
	}
	return ids
}

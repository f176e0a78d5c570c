package domain

import "maps"

// PollData is the poller's resumption checkpoint: the last state seen for
// every offer plus the newest update time observed.
type PollData struct {
	Sent        map[string]OfferState `json:"sent"`
	Received    map[string]OfferState `json:"received"`
	Timestamps  map[string]int64      `json:"timestamps"`
	OffersSince int64                 `json:"offersSince"`
}

// NewPollData returns an empty checkpoint ready to be written to.
func NewPollData() PollData {
	return PollData{
		Sent:       make(map[string]OfferState),
		Received:   make(map[string]OfferState),
		Timestamps: make(map[string]int64),
	}
}

// Clone returns a deep copy so snapshots can leave the poller goroutine.
func (p PollData) Clone() PollData {
	c := NewPollData()
	maps.Copy(c.Sent, p.Sent)
	maps.Copy(c.Received, p.Received)
	maps.Copy(c.Timestamps, p.Timestamps)
	c.OffersSince = p.OffersSince
	return c
}

// Package models defines the core domain entities for scvfeed: marketplace
// offers observed on chain, raw provider metadata, the normalized attribute
// and probability records derived from it, and the scored result handed to
// the rule engine. Entities carry their own validation.
package models

import (
	"errors"
	"math/big"
)

// TradeSide is the offer side encoded in the marketplace event payload.
type TradeSide int

const (
	SideSell TradeSide = 1
	SideBuy  TradeSide = 2
)

// SideOf maps the raw uint8 from the event payload to a TradeSide.
// Any value other than 1 is treated as BUY, matching the contract's encoding.
func SideOf(v int) TradeSide {
	if v == int(SideSell) {
		return SideSell
	}
	return SideBuy
}

func (s TradeSide) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

// Offer is one on-chain listing event for one token at one price.
type Offer struct {
	TokenID  *big.Int  `json:"token_id"`
	Side     TradeSide `json:"side"`
	PriceWei *big.Int  `json:"price_wei"`
	Tx       string    `json:"tx"`
}

// Validate checks that all offer fields are present.
// Price positivity is the rule engine's concern, not checked here.
func (o *Offer) Validate() error {
	if o.TokenID == nil || o.TokenID.Sign() <= 0 {
		return errors.New("offer token ID must be a positive integer")
	}
	if o.Side != SideSell && o.Side != SideBuy {
		return errors.New("offer side must be SELL or BUY")
	}
	if o.PriceWei == nil {
		return errors.New("offer price must not be nil")
	}
	if o.Tx == "" {
		return errors.New("offer transaction hash must not be empty")
	}
	return nil
}

// Equal reports whether two offers came from the same transaction.
// Repeated log delivery re-emits the same tx; this is the dedup key.
func (o *Offer) Equal(other *Offer) bool {
	return other != nil && o.Tx == other.Tx
}

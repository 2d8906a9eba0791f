package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Selection is a 1X2 pick on a catalog event.
type Selection string

const (
	SelectionHome Selection = "HOME"
	SelectionDraw Selection = "DRAW"
	SelectionAway Selection = "AWAY"
)

// MarketMatchResult is the market name stored on bets placed from the catalog.
const MarketMatchResult = "1X2"

// ParseSelection accepts a selection in any letter case.
func ParseSelection(raw string) (Selection, error) {
	s := Selection(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case SelectionHome, SelectionDraw, SelectionAway:
		return s, nil
	}
	return "", ErrInvalidSelection
}

// Event is one upcoming fixture as priced by one house.
type Event struct {
	House     string          `json:"house"`
	EventID   string          `json:"event_id"`
	League    string          `json:"league"`
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	KickoffAt time.Time       `json:"kickoff_at"`
	HomeOdds  decimal.Decimal `json:"home_odds"`
	DrawOdds  decimal.Decimal `json:"draw_odds"`
	AwayOdds  decimal.Decimal `json:"away_odds"`
}

// Label returns the "Home vs Away" match description stored on bets.
func (e Event) Label() string {
	return e.HomeTeam + " vs " + e.AwayTeam
}

// OddsFor returns the price and the prognosis text for a selection.
func (e Event) OddsFor(sel Selection) (decimal.Decimal, string) {
	switch sel {
	case SelectionHome:
		return e.HomeOdds, "Home win (" + e.HomeTeam + ")"
	case SelectionAway:
		return e.AwayOdds, "Away win (" + e.AwayTeam + ")"
	default:
		return e.DrawOdds, "Draw"
	}
}

// Outcome is what an outcome source reports for an event. Exactly one way of
// sizing the return applies:
//   - Amount: total received including stake
//   - Ratio: fraction of the stake received (e.g. 0.5 for a half-stake cashout)
//   - neither: the resolver default (stake × odds for WON, zero for LOST)
type Outcome struct {
	Status BetStatus        `json:"status"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Ratio  *decimal.Decimal `json:"ratio,omitempty"`
}

// IsPending returns true when the source has no final result yet.
func (o Outcome) IsPending() bool {
	return o.Status == BetStatusPending || o.Status == ""
}

// ResolveRequest turns a final outcome into a resolution request for a bet.
func (o Outcome) ResolveRequest(b *Bet) ResolveRequest {
	req := ResolveRequest{BetID: b.ID, Status: o.Status, Amount: o.Amount}
	if req.Amount == nil && o.Ratio != nil {
		amt := b.Stake.Mul(*o.Ratio).RoundDown(4)
		req.Amount = &amt
	}
	return req
}

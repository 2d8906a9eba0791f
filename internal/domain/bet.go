// Package domain defines the core entities of the betting ledger: bets,
// balance snapshots, catalog events and the errors shared by every layer.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// BetStatus represents where a bet is in its lifecycle.
type BetStatus string

const (
	BetStatusPending   BetStatus = "PENDING"    // awaiting an outcome
	BetStatusWon       BetStatus = "WON"        // paid stake × odds (or an agreed figure)
	BetStatusLost      BetStatus = "LOST"       // nothing returned
	BetStatusCashedOut BetStatus = "CASHED_OUT" // settled early at a negotiated value
)

// IsValid returns true for the four known statuses.
func (s BetStatus) IsValid() bool {
	switch s {
	case BetStatusPending, BetStatusWon, BetStatusLost, BetStatusCashedOut:
		return true
	}
	return false
}

// IsTerminal returns true for the statuses a pending bet can be resolved to.
func (s BetStatus) IsTerminal() bool {
	return s == BetStatusWon || s == BetStatusLost || s == BetStatusCashedOut
}

// ParseBetStatus accepts a status in any letter case.
func ParseBetStatus(raw string) (BetStatus, error) {
	s := BetStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// MinOdds is the exclusive lower bound for decimal odds.
var MinOdds = decimal.NewFromInt(1)

// MoneyScale is the number of decimal places odds and money are stored with.
const MoneyScale = 4

// FitsScale reports whether d can be stored without rounding.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// ──────────────────────────────────────────────────────────────────────────────
// Bet
// ──────────────────────────────────────────────────────────────────────────────

// Bet is a single wager placed at a house. Stake never changes after creation;
// Status and Return are written once, when the bet is resolved.
type Bet struct {
	ID         uuid.UUID       `json:"id"          db:"id"`
	House      string          `json:"house"       db:"house"`
	League     string          `json:"league"      db:"league"`
	Event      string          `json:"event"       db:"event"`
	Market     string          `json:"market"      db:"market"`
	Prognosis  *string         `json:"prognosis"   db:"prognosis"`
	EventRef   *string         `json:"event_ref"   db:"event_ref"` // catalog event id, if placed from one
	Odds       decimal.Decimal `json:"odds"        db:"odds"`
	Stake      decimal.Decimal `json:"stake"       db:"stake"`
	Status     BetStatus       `json:"status"      db:"status"`
	Return     decimal.Decimal `json:"return"      db:"return_amount"`
	CreatedAt  time.Time       `json:"created_at"  db:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at" db:"resolved_at"`
}

// IsPending returns true while the bet can still be resolved.
func (b *Bet) IsPending() bool {
	return b.Status == BetStatusPending
}

// PotentialReturn is the canonical amount paid for a win: stake × odds,
// floored to 4 decimal places (matching DB DECIMAL(18,4)).
func (b *Bet) PotentialReturn() decimal.Decimal {
	return b.Stake.Mul(b.Odds).RoundDown(4)
}

// Profit returns Return − Stake for a resolved bet and zero while pending.
func (b *Bet) Profit() decimal.Decimal {
	if !b.Status.IsTerminal() {
		return decimal.Zero
	}
	return b.Return.Sub(b.Stake)
}

// OracleRef is the key used to look up the bet's outcome: the catalog event
// id when the bet was placed from the catalog, the bet id otherwise.
func (b *Bet) OracleRef() string {
	if b.EventRef != nil && *b.EventRef != "" {
		return *b.EventRef
	}
	return b.ID.String()
}

// ──────────────────────────────────────────────────────────────────────────────
// Requests: value objects used by the services
// ──────────────────────────────────────────────────────────────────────────────

// RegisterBetRequest carries the inputs for recording a new bet.
type RegisterBetRequest struct {
	House     string
	League    string
	Event     string
	Market    string
	Prognosis string
	EventRef  string
	Odds      decimal.Decimal
	Stake     decimal.Decimal
}

// Validate checks everything that can be checked without the store.
// The balance precondition is enforced inside the registration transaction.
func (r RegisterBetRequest) Validate() error {
	if strings.TrimSpace(r.House) == "" ||
		strings.TrimSpace(r.Event) == "" ||
		strings.TrimSpace(r.Market) == "" {
		return ErrMissingField
	}
	if !r.Odds.GreaterThan(MinOdds) || !FitsScale(r.Odds) {
		return ErrInvalidOdds
	}
	if !r.Stake.IsPositive() || !FitsScale(r.Stake) {
		return ErrInvalidStake
	}
	return nil
}

// ResolveRequest carries a final status for a pending bet. Amount is the total
// received including the returned stake; nil means "use the default" (stake ×
// odds for WON, zero for LOST). CASHED_OUT requires an explicit amount.
type ResolveRequest struct {
	BetID  uuid.UUID
	Status BetStatus
	Amount *decimal.Decimal
}

// AmountFor validates the request against the bet and returns the amount that
// will be credited back to the house.
func (r ResolveRequest) AmountFor(b *Bet) (decimal.Decimal, error) {
	if !r.Status.IsTerminal() {
		return decimal.Zero, ErrInvalidStatus
	}
	if r.Amount != nil && (r.Amount.IsNegative() || !FitsScale(*r.Amount)) {
		return decimal.Zero, ErrInvalidAmount
	}

	switch r.Status {
	case BetStatusLost:
		if r.Amount != nil && !r.Amount.IsZero() {
			return decimal.Zero, ErrLostWithReturn
		}
		return decimal.Zero, nil
	case BetStatusWon:
		if r.Amount == nil {
			return b.PotentialReturn(), nil
		}
		return *r.Amount, nil
	default: // CASHED_OUT
		if r.Amount == nil {
			return decimal.Zero, ErrAmountRequired
		}
		return *r.Amount, nil
	}
}

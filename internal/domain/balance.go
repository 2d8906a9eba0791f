package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceReason records why a snapshot was written.
type BalanceReason string

const (
	ReasonDeposit     BalanceReason = "deposit"      // manual set / opening balance
	ReasonBetPlaced   BalanceReason = "bet_placed"   // stake deducted
	ReasonBetResolved BalanceReason = "bet_resolved" // return credited
)

// BalanceSnapshot is an immutable point in a house's balance history.
// The current balance of a house is its snapshot with the latest UpdatedAt,
// ties broken by the higher ID.
type BalanceSnapshot struct {
	ID        int64           `json:"id"         db:"id"`
	House     string          `json:"house"      db:"house"`
	Balance   decimal.Decimal `json:"balance"    db:"balance"`
	Reason    BalanceReason   `json:"reason"     db:"reason"`
	BetID     *uuid.UUID      `json:"bet_id"     db:"bet_id"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// HouseSeed is an opening balance for a house with no history yet.
type HouseSeed struct {
	Name    string          `toml:"name"`
	Balance decimal.Decimal `toml:"balance"`
}

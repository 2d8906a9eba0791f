// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/betledger/ledger/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeBetRegistered      MsgType = "bet_registered"
	MsgTypeBetResolved        MsgType = "bet_resolved"
	MsgTypeBalanceUpdated     MsgType = "balance_updated"
	MsgTypeAutomationFinished MsgType = "automation_finished"
)

// ──────────────────────────────────────────────────────────────────────────────
// BetMessage is sent when a bet is registered or resolved.
// ──────────────────────────────────────────────────────────────────────────────

// BetMessage carries the bet as stored after the change.
type BetMessage struct {
	Type      MsgType     `json:"type"`
	Bet       *domain.Bet `json:"bet"`
	Timestamp time.Time   `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// BalanceMessage is sent whenever a house gets a new snapshot.
// ──────────────────────────────────────────────────────────────────────────────

// BalanceMessage carries the new current snapshot of one house.
type BalanceMessage struct {
	Type      MsgType                 `json:"type"`
	Snapshot  *domain.BalanceSnapshot `json:"snapshot"`
	Timestamp time.Time               `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// AutomationMessage is sent after each batch resolution run.
// ──────────────────────────────────────────────────────────────────────────────

// AutomationMessage carries the run's report so dashboards can refresh.
type AutomationMessage struct {
	Type      MsgType                 `json:"type"`
	Report    domain.AutomationReport `json:"report"`
	Timestamp time.Time               `json:"timestamp"`
}

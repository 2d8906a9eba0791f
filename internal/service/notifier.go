package service

import "github.com/betledger/ledger/internal/domain"

// Notifier receives ledger events after they are committed. The websocket
// hub implements it; calls must not block.
type Notifier interface {
	BetRegistered(b *domain.Bet)
	BetResolved(b *domain.Bet)
	BalanceUpdated(s *domain.BalanceSnapshot)
	AutomationFinished(r domain.AutomationReport)
}

type nopNotifier struct{}

func (nopNotifier) BetRegistered(*domain.Bet)                {}
func (nopNotifier) BetResolved(*domain.Bet)                  {}
func (nopNotifier) BalanceUpdated(*domain.BalanceSnapshot)   {}
func (nopNotifier) AutomationFinished(domain.AutomationReport) {}

// Package oracle provides the outcome sources consulted by batch resolution:
// a deterministic simulator keyed on the event reference and an HTTP client
// for an external results feed.
package oracle

import (
	"context"
	"strings"

	"github.com/betledger/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// CashoutRatio is the fraction of the stake the simulator returns on a cashout.
var CashoutRatio = decimal.RequireFromString("0.50")

// Simulated decides an outcome from the last character of the reference:
//
//	'1' LOST
//	'2' CASHED_OUT at CashoutRatio × stake
//	'3' WON at stake × odds
//	anything else stays PENDING
type Simulated struct{}

// NewSimulated returns the simulated oracle.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// OutcomeFor never fails.
func (Simulated) OutcomeFor(ctx context.Context, ref string) (domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.Outcome{}, err
	}

	switch {
	case strings.HasSuffix(ref, "1"):
		return domain.Outcome{Status: domain.BetStatusLost}, nil
	case strings.HasSuffix(ref, "2"):
		ratio := CashoutRatio
		return domain.Outcome{Status: domain.BetStatusCashedOut, Ratio: &ratio}, nil
	case strings.HasSuffix(ref, "3"):
		return domain.Outcome{Status: domain.BetStatusWon}, nil
	default:
		return domain.Outcome{Status: domain.BetStatusPending}, nil
	}
}

// Package report aggregates bets into performance figures. Every function is
// pure: it reads the bets it is given and nothing else.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summary is the overall performance of the resolved bets.
type Summary struct {
	Count        int             `json:"count"` // resolved bets
	TotalStake   decimal.Decimal `json:"total_stake"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	ROI          decimal.Decimal `json:"roi"` // percent, 2 places
	PendingCount int             `json:"pending_count"`
	PendingStake decimal.Decimal `json:"pending_stake"`
}

// HouseSummary is the performance of the resolved bets of one house.
type HouseSummary struct {
	House    string          `json:"house"`
	Bets     int             `json:"bets"`
	Wins     int             `json:"wins"`
	Losses   int             `json:"losses"`
	Cashouts int             `json:"cashouts"`
	Stake    decimal.Decimal `json:"stake"`
	Profit   decimal.Decimal `json:"profit"`
	HitRate  decimal.Decimal `json:"hit_rate"` // wins / bets, percent
	ROI      decimal.Decimal `json:"roi"`
}

// Summarize computes count, stake, profit and ROI over resolved bets.
// Pending bets only feed PendingCount and PendingStake.
func Summarize(bets []*domain.Bet) Summary {
	s := Summary{
		TotalStake:   decimal.Zero,
		TotalProfit:  decimal.Zero,
		ROI:          decimal.Zero,
		PendingStake: decimal.Zero,
	}
	for _, b := range bets {
		if b.IsPending() {
			s.PendingCount++
			s.PendingStake = s.PendingStake.Add(b.Stake)
			continue
		}
		if !b.Status.IsTerminal() {
			continue
		}
		s.Count++
		s.TotalStake = s.TotalStake.Add(b.Stake)
		s.TotalProfit = s.TotalProfit.Add(b.Profit())
	}
	s.ROI = ROI(s.TotalProfit, s.TotalStake)
	return s
}

// ByHouse summarises resolved bets per house, sorted by house name.
func ByHouse(bets []*domain.Bet) []HouseSummary {
	byHouse := make(map[string]*HouseSummary)
	for _, b := range bets {
		if !b.Status.IsTerminal() {
			continue
		}
		h, ok := byHouse[b.House]
		if !ok {
			h = &HouseSummary{House: b.House, Stake: decimal.Zero, Profit: decimal.Zero}
			byHouse[b.House] = h
		}
		h.Bets++
		switch b.Status {
		case domain.BetStatusWon:
			h.Wins++
		case domain.BetStatusLost:
			h.Losses++
		case domain.BetStatusCashedOut:
			h.Cashouts++
		}
		h.Stake = h.Stake.Add(b.Stake)
		h.Profit = h.Profit.Add(b.Profit())
	}

	out := make([]HouseSummary, 0, len(byHouse))
	for _, h := range byHouse {
		h.HitRate = decimal.NewFromInt(int64(h.Wins)).Div(decimal.NewFromInt(int64(h.Bets))).Mul(hundred).Round(2)
		h.ROI = ROI(h.Profit, h.Stake)
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].House < out[j].House })
	return out
}

// ROI is profit / stake × 100 rounded to 2 places, or 0 when nothing was staked.
func ROI(profit, stake decimal.Decimal) decimal.Decimal {
	if stake.IsZero() {
		return decimal.Zero
	}
	return profit.Div(stake).Mul(hundred).Round(2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cumulative profit
// ──────────────────────────────────────────────────────────────────────────────

// Period is the bucket size of a profit series.
type Period string

const (
	PeriodDay   Period = "D"
	PeriodWeek  Period = "W" // ISO week, starting Monday
	PeriodMonth Period = "M"
)

// ParsePeriod accepts D, W or M in any case. Empty means daily.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToUpper(strings.TrimSpace(raw))); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", domain.ErrInvalidPeriod
}

// ProfitPoint is one bucket of a cumulative profit series.
type ProfitPoint struct {
	Start      time.Time       `json:"start"`
	Profit     decimal.Decimal `json:"profit"`     // profit of bets placed in this bucket
	Cumulative decimal.Decimal `json:"cumulative"` // running total up to and including it
}

// CumulativeProfit buckets resolved bets by the day, week or month they were
// placed (UTC) and returns the running profit, one point per bucket from the
// first to the last, with empty buckets filled with zero.
func CumulativeProfit(bets []*domain.Bet, period Period) []ProfitPoint {
	sums := make(map[time.Time]decimal.Decimal)
	var first, last time.Time
	for _, b := range bets {
		if !b.Status.IsTerminal() {
			continue
		}
		start := bucketStart(b.CreatedAt, period)
		sums[start] = sums[start].Add(b.Profit())
		if first.IsZero() || start.Before(first) {
			first = start
		}
		if start.After(last) {
			last = start
		}
	}
	if len(sums) == 0 {
		return []ProfitPoint{}
	}

	var points []ProfitPoint
	running := decimal.Zero
	for t := first; !t.After(last); t = next(t, period) {
		p := sums[t]
		running = running.Add(p)
		points = append(points, ProfitPoint{Start: t, Profit: p, Cumulative: running})
	}
	return points
}

func bucketStart(t time.Time, period Period) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func next(t time.Time, period Period) time.Time {
	switch period {
	case PeriodWeek:
		return t.AddDate(0, 0, 7)
	case PeriodMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

package report

import (
	"errors"
	"testing"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bet(house string, stake, ret string, status domain.BetStatus, at time.Time) *domain.Bet {
	return &domain.Bet{
		House:     house,
		Odds:      d("2"),
		Stake:     d(stake),
		Return:    d(ret),
		Status:    status,
		CreatedAt: at,
	}
}

var t0 = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC) // a Wednesday

func assertDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

// ── Summarize ─────────────────────────────────────────────────────────────────

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 {
		t.Errorf("count = %d, want 0", s.Count)
	}
	assertDec(t, "stake", s.TotalStake, "0")
	assertDec(t, "profit", s.TotalProfit, "0")
	assertDec(t, "roi", s.ROI, "0")
}

func TestSummarize_AllPending(t *testing.T) {
	s := Summarize([]*domain.Bet{
		bet("Superbet", "10", "0", domain.BetStatusPending, t0),
		bet("Superbet", "5", "0", domain.BetStatusPending, t0),
	})
	if s.Count != 0 {
		t.Errorf("count = %d, want 0", s.Count)
	}
	assertDec(t, "stake", s.TotalStake, "0")
	assertDec(t, "roi", s.ROI, "0")
	if s.PendingCount != 2 {
		t.Errorf("pending count = %d, want 2", s.PendingCount)
	}
	assertDec(t, "pending stake", s.PendingStake, "15")
}

func TestSummarize_SingleWin(t *testing.T) {
	s := Summarize([]*domain.Bet{bet("Superbet", "10", "20", domain.BetStatusWon, t0)})
	if s.Count != 1 {
		t.Errorf("count = %d, want 1", s.Count)
	}
	assertDec(t, "stake", s.TotalStake, "10")
	assertDec(t, "profit", s.TotalProfit, "10")
	assertDec(t, "roi", s.ROI, "100")
}

func TestSummarize_WinAndLoss(t *testing.T) {
	s := Summarize([]*domain.Bet{
		bet("Superbet", "10", "15", domain.BetStatusWon, t0),
		bet("Sportingbet", "20", "0", domain.BetStatusLost, t0),
		bet("Sportingbet", "50", "0", domain.BetStatusPending, t0),
	})
	if s.Count != 2 {
		t.Errorf("count = %d, want 2", s.Count)
	}
	// profit = (15 - 10) + (0 - 20). See "Profit of a mixed summary" in DESIGN.md.
	assertDec(t, "stake", s.TotalStake, "30")
	assertDec(t, "profit", s.TotalProfit, "-15")
	assertDec(t, "roi", s.ROI, "-50")
}

func TestSummarize_CashoutCountsAsResolved(t *testing.T) {
	s := Summarize([]*domain.Bet{bet("Superbet", "40", "20", domain.BetStatusCashedOut, t0)})
	assertDec(t, "profit", s.TotalProfit, "-20")
	assertDec(t, "roi", s.ROI, "-50")
}

// ── ByHouse ───────────────────────────────────────────────────────────────────

func TestByHouse(t *testing.T) {
	got := ByHouse([]*domain.Bet{
		bet("Superbet", "10", "25", domain.BetStatusWon, t0),
		bet("Superbet", "10", "0", domain.BetStatusLost, t0),
		bet("Superbet", "10", "0", domain.BetStatusLost, t0),
		bet("Betano", "20", "10", domain.BetStatusCashedOut, t0),
		bet("Betano", "99", "0", domain.BetStatusPending, t0),
	})
	if len(got) != 2 {
		t.Fatalf("got %d houses, want 2", len(got))
	}
	if got[0].House != "Betano" || got[1].House != "Superbet" {
		t.Fatalf("houses not sorted: %s, %s", got[0].House, got[1].House)
	}

	b := got[0]
	if b.Bets != 1 || b.Cashouts != 1 || b.Wins != 0 {
		t.Errorf("Betano counts = %+v", b)
	}
	assertDec(t, "Betano profit", b.Profit, "-10")
	assertDec(t, "Betano hit rate", b.HitRate, "0")

	s := got[1]
	if s.Bets != 3 || s.Wins != 1 || s.Losses != 2 {
		t.Errorf("Superbet counts = %+v", s)
	}
	assertDec(t, "Superbet stake", s.Stake, "30")
	assertDec(t, "Superbet profit", s.Profit, "-5")
	assertDec(t, "Superbet hit rate", s.HitRate, "33.33")
	assertDec(t, "Superbet roi", s.ROI, "-16.67")
}

// ── CumulativeProfit ──────────────────────────────────────────────────────────

func TestCumulativeProfit_DailyFillsGaps(t *testing.T) {
	got := CumulativeProfit([]*domain.Bet{
		bet("Superbet", "10", "20", domain.BetStatusWon, t0),                    // +10 on the 11th
		bet("Superbet", "10", "0", domain.BetStatusLost, t0.Add(48*time.Hour)), // −10 on the 13th
		bet("Superbet", "10", "0", domain.BetStatusPending, t0.Add(96*time.Hour)),
	}, PeriodDay)

	if len(got) != 3 {
		t.Fatalf("got %d points, want 3", len(got))
	}
	wantCum := []string{"10", "10", "0"}
	wantProfit := []string{"10", "0", "-10"}
	for i, p := range got {
		assertDec(t, "profit", p.Profit, wantProfit[i])
		assertDec(t, "cumulative", p.Cumulative, wantCum[i])
	}
	if !got[1].Start.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("gap bucket start = %s", got[1].Start)
	}
}

func TestCumulativeProfit_WeeksStartMonday(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	monday := sunday.Add(2 * time.Hour)
	got := CumulativeProfit([]*domain.Bet{
		bet("Superbet", "10", "20", domain.BetStatusWon, t0),
		bet("Superbet", "10", "30", domain.BetStatusWon, sunday),
		bet("Superbet", "10", "0", domain.BetStatusLost, monday),
	}, PeriodWeek)

	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	if !got[0].Start.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first week starts %s, want Monday 9 March", got[0].Start)
	}
	assertDec(t, "week 1", got[0].Profit, "30")
	assertDec(t, "week 2", got[1].Profit, "-10")
	assertDec(t, "cumulative", got[1].Cumulative, "20")
}

func TestCumulativeProfit_Monthly(t *testing.T) {
	got := CumulativeProfit([]*domain.Bet{
		bet("Superbet", "10", "20", domain.BetStatusWon, time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)),
		bet("Superbet", "10", "0", domain.BetStatusLost, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}, PeriodMonth)

	if len(got) != 3 {
		t.Fatalf("got %d points, want 3", len(got))
	}
	if got[1].Start.Month() != time.February {
		t.Errorf("middle bucket = %s, want February", got[1].Start)
	}
	assertDec(t, "final", got[2].Cumulative, "0")
}

func TestCumulativeProfit_NoResolvedBets(t *testing.T) {
	got := CumulativeProfit([]*domain.Bet{bet("Superbet", "10", "0", domain.BetStatusPending, t0)}, PeriodDay)
	if len(got) != 0 {
		t.Errorf("got %d points, want 0", len(got))
	}
}

func TestParsePeriod(t *testing.T) {
	for raw, want := range map[string]Period{"": PeriodDay, "d": PeriodDay, "W": PeriodWeek, " m ": PeriodMonth} {
		got, err := ParsePeriod(raw)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParsePeriod("Y"); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

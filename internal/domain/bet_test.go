package domain_test

import (
	"errors"
	"testing"

	"github.com/betledger/ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func validRequest() domain.RegisterBetRequest {
	return domain.RegisterBetRequest{
		House:  "Superbet",
		League: "Premier League",
		Event:  "Team A vs Team B",
		Market: "1X2",
		Odds:   dec("2.10"),
		Stake:  dec("10"),
	}
}

func TestRegisterBetRequest_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *domain.RegisterBetRequest)
		want   error
	}{
		{"valid", func(r *domain.RegisterBetRequest) {}, nil},
		{"blank house", func(r *domain.RegisterBetRequest) { r.House = "  " }, domain.ErrMissingField},
		{"blank event", func(r *domain.RegisterBetRequest) { r.Event = "" }, domain.ErrMissingField},
		{"blank market", func(r *domain.RegisterBetRequest) { r.Market = "" }, domain.ErrMissingField},
		{"odds exactly 1", func(r *domain.RegisterBetRequest) { r.Odds = dec("1") }, domain.ErrInvalidOdds},
		{"odds below 1", func(r *domain.RegisterBetRequest) { r.Odds = dec("0.5") }, domain.ErrInvalidOdds},
		{"zero stake", func(r *domain.RegisterBetRequest) { r.Stake = decimal.Zero }, domain.ErrInvalidStake},
		{"negative stake", func(r *domain.RegisterBetRequest) { r.Stake = dec("-1") }, domain.ErrInvalidStake},
		{"stake below storage scale", func(r *domain.RegisterBetRequest) { r.Stake = dec("0.00001") }, domain.ErrInvalidStake},
		{"stake with 5 places", func(r *domain.RegisterBetRequest) { r.Stake = dec("10.12345") }, domain.ErrInvalidStake},
		{"odds with 5 places", func(r *domain.RegisterBetRequest) { r.Odds = dec("2.10001") }, domain.ErrInvalidOdds},
		{"trailing zeros are fine", func(r *domain.RegisterBetRequest) { r.Stake = dec("10.1200000") }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRequest()
			tc.mutate(&r)
			if err := r.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
			if tc.want != nil && !domain.IsValidation(tc.want) {
				t.Errorf("%v should be a validation error", tc.want)
			}
		})
	}
}

func TestBet_ProfitAndPotentialReturn(t *testing.T) {
	b := &domain.Bet{Stake: dec("10"), Odds: dec("1.555"), Status: domain.BetStatusPending}

	if got := b.PotentialReturn(); !got.Equal(dec("15.55")) {
		t.Errorf("potential return = %s, want 15.55", got)
	}
	if !b.Profit().IsZero() {
		t.Errorf("pending profit = %s, want 0", b.Profit())
	}

	b.Status, b.Return = domain.BetStatusWon, dec("15.55")
	if got := b.Profit(); !got.Equal(dec("5.55")) {
		t.Errorf("won profit = %s, want 5.55", got)
	}

	b.Status, b.Return = domain.BetStatusLost, decimal.Zero
	if got := b.Profit(); !got.Equal(dec("-10")) {
		t.Errorf("lost profit = %s, want -10", got)
	}
}

func TestBet_OracleRef(t *testing.T) {
	id := uuid.New()
	b := &domain.Bet{ID: id}
	if b.OracleRef() != id.String() {
		t.Errorf("without event ref: got %q", b.OracleRef())
	}
	ref := "SIM_20260314_3"
	b.EventRef = &ref
	if b.OracleRef() != ref {
		t.Errorf("with event ref: got %q", b.OracleRef())
	}
}

func TestResolveRequest_AmountFor(t *testing.T) {
	b := &domain.Bet{Stake: dec("10"), Odds: dec("2"), Status: domain.BetStatusPending}

	cases := []struct {
		name    string
		status  domain.BetStatus
		amount  *decimal.Decimal
		want    string
		wantErr error
	}{
		{"won default", domain.BetStatusWon, nil, "20", nil},
		{"won override", domain.BetStatusWon, decPtr("18.5"), "18.5", nil},
		{"lost", domain.BetStatusLost, nil, "0", nil},
		{"lost explicit zero", domain.BetStatusLost, decPtr("0"), "0", nil},
		{"lost with return", domain.BetStatusLost, decPtr("5"), "", domain.ErrLostWithReturn},
		{"cashout", domain.BetStatusCashedOut, decPtr("7.25"), "7.25", nil},
		{"cashout without amount", domain.BetStatusCashedOut, nil, "", domain.ErrAmountRequired},
		{"negative", domain.BetStatusWon, decPtr("-1"), "", domain.ErrInvalidAmount},
		{"too many places", domain.BetStatusCashedOut, decPtr("5.00001"), "", domain.ErrInvalidAmount},
		{"pending target", domain.BetStatusPending, nil, "", domain.ErrInvalidStatus},
		{"unknown target", domain.BetStatus("VOID"), nil, "", domain.ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ResolveRequest{Status: tc.status, Amount: tc.amount}.AmountFor(b)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Errorf("amount = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParseBetStatus(t *testing.T) {
	if s, err := domain.ParseBetStatus(" cashed_out "); err != nil || s != domain.BetStatusCashedOut {
		t.Errorf("ParseBetStatus = %q, %v", s, err)
	}
	if _, err := domain.ParseBetStatus("GREEN"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestOutcome_ResolveRequest(t *testing.T) {
	b := &domain.Bet{ID: uuid.New(), Stake: dec("30"), Odds: dec("3")}

	req := domain.Outcome{Status: domain.BetStatusCashedOut, Ratio: decPtr("0.5")}.ResolveRequest(b)
	if req.BetID != b.ID || req.Amount == nil || !req.Amount.Equal(dec("15")) {
		t.Errorf("ratio request = %+v", req)
	}

	req = domain.Outcome{Status: domain.BetStatusWon, Amount: decPtr("80"), Ratio: decPtr("0.5")}.ResolveRequest(b)
	if !req.Amount.Equal(dec("80")) {
		t.Errorf("explicit amount should win over ratio, got %s", req.Amount)
	}

	req = domain.Outcome{Status: domain.BetStatusWon}.ResolveRequest(b)
	if req.Amount != nil {
		t.Errorf("no figure should leave the default, got %s", req.Amount)
	}
}

func TestErrorKinds(t *testing.T) {
	if !domain.IsNotFound(domain.ErrBetNotFound) || !domain.IsNotFound(domain.ErrHouseNotFound) {
		t.Error("not-found errors misclassified")
	}
	if !domain.IsInvalidState(domain.ErrBetAlreadyResolved) {
		t.Error("ErrBetAlreadyResolved should be an invalid state")
	}
	if domain.IsValidation(domain.ErrBetNotFound) {
		t.Error("ErrBetNotFound is not a validation error")
	}
}

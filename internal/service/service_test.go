package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/betledger/ledger/internal/domain"
	"github.com/betledger/ledger/internal/repository"
	"github.com/betledger/ledger/internal/service"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ── Fixtures ──────────────────────────────────────────────────────────────────

type ledger struct {
	db         *sqlx.DB
	bets       *service.BetService
	balances   *service.BalanceService
	resolution *service.ResolutionService
	oracle     *fakeOracle
	events     *recorder
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := repository.Open(ctx, repository.DriverSQLite, dsn, repository.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repository.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	betRepo := repository.NewBetRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	oracle := &fakeOracle{outcomes: map[string]domain.Outcome{}, errs: map[string]error{}}
	rec := &recorder{}

	l := &ledger{
		db:         db,
		bets:       service.NewBetService(db, betRepo, balanceRepo, nil, quietLogger()),
		balances:   service.NewBalanceService(db, balanceRepo, nil, quietLogger()),
		resolution: service.NewResolutionService(db, betRepo, balanceRepo, oracle, 0, nil, quietLogger()),
		oracle:     oracle,
		events:     rec,
	}
	l.bets.SetNotifier(rec)
	l.balances.SetNotifier(rec)
	l.resolution.SetNotifier(rec)
	return l
}

func (l *ledger) seed(t *testing.T, house, balance string) {
	t.Helper()
	if _, err := l.balances.SetBalance(context.Background(), house, dec(balance)); err != nil {
		t.Fatalf("seed %s: %v", house, err)
	}
}

func (l *ledger) balance(t *testing.T, house string) decimal.Decimal {
	t.Helper()
	b, err := l.balances.CurrentBalance(context.Background(), house)
	if err != nil {
		t.Fatalf("balance %s: %v", house, err)
	}
	return b
}

func (l *ledger) place(t *testing.T, house, stake, odds string) *domain.Bet {
	t.Helper()
	b, err := l.bets.RegisterBet(context.Background(), domain.RegisterBetRequest{
		House:  house,
		League: "Premier League",
		Event:  "Team A vs Team B",
		Market: "1X2",
		Odds:   dec(odds),
		Stake:  dec(stake),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return b
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func assertDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

type fakeOracle struct {
	mu       sync.Mutex
	outcomes map[string]domain.Outcome
	errs     map[string]error
	calls    int
}

func (f *fakeOracle) set(ref string, o domain.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[ref] = o
}

func (f *fakeOracle) OutcomeFor(ctx context.Context, ref string) (domain.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[ref]; err != nil {
		return domain.Outcome{}, err
	}
	if o, ok := f.outcomes[ref]; ok {
		return o, nil
	}
	return domain.Outcome{Status: domain.BetStatusPending}, nil
}

type recorder struct {
	mu         sync.Mutex
	registered int
	resolved   int
	balances   int
	runs       []domain.AutomationReport
}

func (r *recorder) BetRegistered(*domain.Bet) {
	r.mu.Lock()
	r.registered++
	r.mu.Unlock()
}

func (r *recorder) BetResolved(*domain.Bet) {
	r.mu.Lock()
	r.resolved++
	r.mu.Unlock()
}

func (r *recorder) BalanceUpdated(*domain.BalanceSnapshot) {
	r.mu.Lock()
	r.balances++
	r.mu.Unlock()
}

func (r *recorder) AutomationFinished(rep domain.AutomationReport) {
	r.mu.Lock()
	r.runs = append(r.runs, rep)
	r.mu.Unlock()
}

// ── RegisterBet ───────────────────────────────────────────────────────────────

func TestRegisterBet_DeductsStake(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")

	b := l.place(t, "Superbet", "25.50", "2.10")
	if b.Status != domain.BetStatusPending || !b.Return.IsZero() {
		t.Errorf("new bet = %s return %s", b.Status, b.Return)
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "74.50")

	hist, err := l.balances.History(context.Background(), "Superbet", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || hist[0].Reason != domain.ReasonBetPlaced || hist[0].BetID == nil || *hist[0].BetID != b.ID {
		t.Errorf("history = %+v", hist)
	}
	if l.events.registered != 1 {
		t.Errorf("notifier saw %d registrations", l.events.registered)
	}
}

func TestRegisterBet_StakeAboveBalanceChangesNothing(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "10")
	ctx := context.Background()

	_, err := l.bets.RegisterBet(ctx, domain.RegisterBetRequest{
		House: "Superbet", Event: "Team A vs Team B", Market: "1X2", Odds: dec("2"), Stake: dec("10.01"),
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) || !domain.IsValidation(err) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	assertDec(t, "balance", l.balance(t, "Superbet"), "10")
	bets, _ := l.bets.ListBets(ctx, "")
	if len(bets) != 0 {
		t.Errorf("bet count = %d, want 0", len(bets))
	}
	hist, _ := l.balances.History(ctx, "Superbet", 0)
	if len(hist) != 1 {
		t.Errorf("history rows = %d, want 1", len(hist))
	}
}

func TestRegisterBet_StakeEqualToBalance(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "10")
	l.place(t, "Superbet", "10", "3")
	assertDec(t, "balance", l.balance(t, "Superbet"), "0")
}

func TestRegisterBet_Rejections(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.RegisterBetRequest
		is   func(error) bool
	}{
		{"unknown house", domain.RegisterBetRequest{House: "Nowhere", Event: "A vs B", Market: "1X2", Odds: dec("2"), Stake: dec("1")}, domain.IsNotFound},
		{"odds 1", domain.RegisterBetRequest{House: "Superbet", Event: "A vs B", Market: "1X2", Odds: dec("1"), Stake: dec("1")}, domain.IsValidation},
		{"zero stake", domain.RegisterBetRequest{House: "Superbet", Event: "A vs B", Market: "1X2", Odds: dec("2"), Stake: dec("0")}, domain.IsValidation},
		{"no market", domain.RegisterBetRequest{House: "Superbet", Event: "A vs B", Odds: dec("2"), Stake: dec("1")}, domain.IsValidation},
	}
	for _, tc := range cases {
		if _, err := l.bets.RegisterBet(ctx, tc.req); !tc.is(err) {
			t.Errorf("%s: unexpected error kind: %v", tc.name, err)
		}
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "100")
}

// ── ResolveBet ────────────────────────────────────────────────────────────────

func TestResolveBet_WonDefaultsToStakeTimesOdds(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	b := l.place(t, "Superbet", "10", "2.5")
	ctx := context.Background()

	got, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusWon})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertDec(t, "return", got.Return, "25")
	assertDec(t, "profit", got.Profit(), "15")
	assertDec(t, "balance", l.balance(t, "Superbet"), "115")

	// second resolution is rejected and credits nothing
	_, err = l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusWon})
	if !errors.Is(err, domain.ErrBetAlreadyResolved) || !domain.IsInvalidState(err) {
		t.Fatalf("expected ErrBetAlreadyResolved, got %v", err)
	}
	assertDec(t, "balance after retry", l.balance(t, "Superbet"), "115")

	stored, _ := l.bets.GetBet(ctx, b.ID)
	if stored.Status != domain.BetStatusWon || stored.ResolvedAt == nil {
		t.Errorf("stored bet = %s resolved_at %v", stored.Status, stored.ResolvedAt)
	}
}

func TestResolveBet_LostRecordsZeroCredit(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	b := l.place(t, "Superbet", "20", "2")
	ctx := context.Background()

	got, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusLost})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertDec(t, "return", got.Return, "0")
	assertDec(t, "profit", got.Profit(), "-20")
	assertDec(t, "balance", l.balance(t, "Superbet"), "80")

	hist, _ := l.balances.History(ctx, "Superbet", 0)
	if len(hist) != 3 || hist[0].Reason != domain.ReasonBetResolved {
		t.Errorf("a zero-return settlement should still be recorded: %+v", hist)
	}
}

func TestResolveBet_Cashout(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	b := l.place(t, "Superbet", "20", "3")
	ctx := context.Background()

	if _, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusCashedOut}); !errors.Is(err, domain.ErrAmountRequired) {
		t.Fatalf("cashout without amount: got %v", err)
	}
	assertDec(t, "balance untouched", l.balance(t, "Superbet"), "80")

	got, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusCashedOut, Amount: decPtr("12.40")})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertDec(t, "profit", got.Profit(), "-7.60")
	assertDec(t, "balance", l.balance(t, "Superbet"), "92.40")
}

func TestResolveBet_Rejections(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	b := l.place(t, "Superbet", "10", "2")
	ctx := context.Background()

	if _, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: uuid.New(), Status: domain.BetStatusWon}); !domain.IsNotFound(err) {
		t.Errorf("unknown bet: got %v", err)
	}
	if _, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusLost, Amount: decPtr("5")}); !errors.Is(err, domain.ErrLostWithReturn) {
		t.Errorf("lost with return: got %v", err)
	}
	if _, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusWon, Amount: decPtr("-1")}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("negative amount: got %v", err)
	}
	if _, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusPending}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("pending target: got %v", err)
	}

	assertDec(t, "balance", l.balance(t, "Superbet"), "90")
	stored, _ := l.bets.GetBet(ctx, b.ID)
	if !stored.IsPending() {
		t.Errorf("rejected resolutions changed the bet to %s", stored.Status)
	}
}

// ── RunAutomation ─────────────────────────────────────────────────────────────

func TestRunAutomation_ResolvesKnownOutcomes(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	ctx := context.Background()

	won := l.place(t, "Superbet", "10", "2")
	lost := l.place(t, "Superbet", "10", "2")
	cashed := l.place(t, "Superbet", "20", "2")
	waiting := l.place(t, "Superbet", "10", "2")
	broken := l.place(t, "Superbet", "10", "2")

	l.oracle.set(won.OracleRef(), domain.Outcome{Status: domain.BetStatusWon})
	l.oracle.set(lost.OracleRef(), domain.Outcome{Status: domain.BetStatusLost})
	l.oracle.set(cashed.OracleRef(), domain.Outcome{Status: domain.BetStatusCashedOut, Ratio: decPtr("0.5")})
	l.oracle.errs[broken.OracleRef()] = errors.New("feed down")

	rep, err := l.resolution.RunAutomation(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Checked != 5 || rep.Resolved != 3 || rep.Skipped != 2 || rep.Unavailable != 1 || rep.Failed != 0 {
		t.Errorf("report = %+v", rep)
	}

	// 100 − 60 staked + 20 won + 0 lost + 10 cashed out
	assertDec(t, "balance", l.balance(t, "Superbet"), "70")

	for _, id := range []uuid.UUID{waiting.ID, broken.ID} {
		b, _ := l.bets.GetBet(ctx, id)
		if !b.IsPending() {
			t.Errorf("bet %s should still be pending, got %s", id, b.Status)
		}
	}
	if len(l.events.runs) != 1 {
		t.Errorf("notifier saw %d runs", len(l.events.runs))
	}
}

func TestRunAutomation_SecondRunResolvesNothing(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	ctx := context.Background()

	b := l.place(t, "Superbet", "10", "2")
	l.oracle.set(b.OracleRef(), domain.Outcome{Status: domain.BetStatusWon})

	first, err := l.resolution.RunAutomation(ctx)
	if err != nil || first.Resolved != 1 {
		t.Fatalf("first run = %+v, %v", first, err)
	}
	second, err := l.resolution.RunAutomation(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Resolved != 0 || second.Checked != 0 {
		t.Errorf("second run = %+v, want nothing resolved", second)
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "110")
}

func TestRunAutomation_CashoutWithoutFigureIsSkipped(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	b := l.place(t, "Superbet", "10", "2")
	l.oracle.set(b.OracleRef(), domain.Outcome{Status: domain.BetStatusCashedOut})

	rep, err := l.resolution.RunAutomation(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Resolved != 0 || rep.Unavailable != 1 {
		t.Errorf("report = %+v", rep)
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "90")
}

func TestRunAutomation_UsesEventRef(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")

	b, err := l.bets.RegisterBet(context.Background(), domain.RegisterBetRequest{
		House: "Superbet", Event: "Flamengo vs Vasco", Market: "1X2", EventRef: "SIM_20260314_3",
		Odds: dec("1.5"), Stake: dec("10"),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if b.OracleRef() != "SIM_20260314_3" {
		t.Fatalf("oracle ref = %s", b.OracleRef())
	}
	l.oracle.set("SIM_20260314_3", domain.Outcome{Status: domain.BetStatusWon})

	rep, _ := l.resolution.RunAutomation(context.Background())
	if rep.Resolved != 1 {
		t.Fatalf("report = %+v", rep)
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "105")
}

// ── Concurrency ───────────────────────────────────────────────────────────────

// TestRegisterBet_ConcurrentDeductions places more bets than the balance
// covers from many goroutines; exactly the affordable ones must succeed.
func TestRegisterBet_ConcurrentDeductions(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "500")

	const workers = 60
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.bets.RegisterBet(context.Background(), domain.RegisterBetRequest{
				House: "Superbet", Event: "A vs B", Market: "1X2", Odds: dec("2"), Stake: dec("10"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientBalance):
				fail++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 50 || fail != 10 {
		t.Errorf("ok = %d, fail = %d; want 50 / 10", ok, fail)
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "0")
}

// TestResolveBet_ConcurrentSingleCredit resolves the same bet from many
// goroutines; only one may credit the house.
func TestResolveBet_ConcurrentSingleCredit(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")
	b := l.place(t, "Superbet", "10", "2")

	const workers = 20
	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		wins, refused int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.resolution.ResolveBet(context.Background(), domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusWon})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if domain.IsInvalidState(err) {
				refused++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || refused != workers-1 {
		t.Errorf("wins = %d, refused = %d", wins, refused)
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "110")
}

// ── Balance management ────────────────────────────────────────────────────────

func TestSeedHouses_SkipsHousesWithHistory(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.seed(t, "Betano", "40")

	n, err := l.balances.SeedHouses(ctx, []domain.HouseSeed{
		{Name: "Betano", Balance: dec("999")},
		{Name: "Superbet", Balance: dec("100")},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 1 {
		t.Errorf("seeded %d houses, want 1", n)
	}
	assertDec(t, "Betano", l.balance(t, "Betano"), "40")
	assertDec(t, "Superbet", l.balance(t, "Superbet"), "100")

	if _, err := l.balances.SeedHouses(ctx, []domain.HouseSeed{{Name: "Bad", Balance: dec("-1")}}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("negative seed: got %v, want ErrInvalidAmount", err)
	}
}

func TestTotalBalance_SumsLatestPerHouse(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Betano", "40")
	l.seed(t, "Superbet", "100")
	l.place(t, "Superbet", "25", "2.00")

	total, err := l.balances.TotalBalance(context.Background())
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	assertDec(t, "total", total, "115")
}

func TestCurrentBalance_UnknownHouse(t *testing.T) {
	l := newLedger(t)
	if _, err := l.balances.CurrentBalance(context.Background(), "Nowhere"); !errors.Is(err, domain.ErrHouseNotFound) {
		t.Errorf("got %v, want ErrHouseNotFound", err)
	}
}

func TestSetBalance_RejectsUnstorableAmount(t *testing.T) {
	l := newLedger(t)
	l.seed(t, "Superbet", "100")

	_, err := l.balances.SetBalance(context.Background(), "Superbet", dec("10.00001"))
	if !errors.Is(err, domain.ErrInvalidAmount) || !domain.IsValidation(err) {
		t.Fatalf("got %v, want validation ErrInvalidAmount", err)
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "100")
}

// ── Rollback on storage failure ───────────────────────────────────────────────

// failSnapshots makes every balance_history insert with the given reason abort.
func (l *ledger) failSnapshots(t *testing.T, reason domain.BalanceReason) {
	t.Helper()
	_, err := l.db.Exec(`CREATE TRIGGER fail_` + string(reason) + `
		BEFORE INSERT ON balance_history
		WHEN NEW.reason = '` + string(reason) + `'
		BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}
}

func TestRegisterBet_PersistenceFailureLeavesNothing(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.seed(t, "Superbet", "100")
	l.failSnapshots(t, domain.ReasonBetPlaced)

	_, err := l.bets.RegisterBet(ctx, domain.RegisterBetRequest{
		House: "Superbet", Event: "Team A vs Team B", Market: "1X2",
		Odds: dec("2"), Stake: dec("10"),
	})
	if !domain.IsPersistence(err) {
		t.Fatalf("got %v, want a persistence error", err)
	}

	bets, err := l.bets.ListBets(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bets) != 0 {
		t.Errorf("bets = %d, want 0", len(bets))
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "100")
}

func TestResolveBet_PersistenceFailureLeavesBetPending(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.seed(t, "Superbet", "100")
	b := l.place(t, "Superbet", "10", "2")
	l.failSnapshots(t, domain.ReasonBetResolved)

	_, err := l.resolution.ResolveBet(ctx, domain.ResolveRequest{BetID: b.ID, Status: domain.BetStatusWon})
	if !domain.IsPersistence(err) {
		t.Fatalf("got %v, want a persistence error", err)
	}

	got, err := l.bets.GetBet(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.BetStatusPending {
		t.Errorf("status = %s, want PENDING", got.Status)
	}
	assertDec(t, "balance", l.balance(t, "Superbet"), "90")
}

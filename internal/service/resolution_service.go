package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/betledger/ledger/internal/metrics"
	"github.com/betledger/ledger/internal/repository"
	"github.com/jmoiron/sqlx"
)

// OutcomeOracle reports the outcome of the event a bet was placed on.
// A PENDING outcome means no result is known yet.
type OutcomeOracle interface {
	OutcomeFor(ctx context.Context, ref string) (domain.Outcome, error)
}

const (
	sourceManual     = "manual"
	sourceAutomation = "automation"
)

// ResolutionService settles pending bets, one by one or in batch against an
// OutcomeOracle, and credits the return to the owning house.
type ResolutionService struct {
	db            *sqlx.DB
	betRepo       *repository.BetRepository
	balanceRepo   *repository.BalanceRepository
	oracle        OutcomeOracle
	oracleTimeout time.Duration
	metrics       *metrics.Metrics
	notifier      Notifier
	logger        *slog.Logger
}

// NewResolutionService builds a ResolutionService. m may be nil.
func NewResolutionService(
	db *sqlx.DB,
	betRepo *repository.BetRepository,
	balanceRepo *repository.BalanceRepository,
	oracle OutcomeOracle,
	oracleTimeout time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ResolutionService {
	return &ResolutionService{
		db:            db,
		betRepo:       betRepo,
		balanceRepo:   balanceRepo,
		oracle:        oracle,
		oracleTimeout: oracleTimeout,
		metrics:       m,
		notifier:      nopNotifier{},
		logger:        logger,
	}
}

// SetNotifier wires the push feed.
func (s *ResolutionService) SetNotifier(n Notifier) {
	s.notifier = n
}

// ──────────────────────────────────────────────────────────────────────────────
// ResolveBet
// ──────────────────────────────────────────────────────────────────────────────

// ResolveBet moves a PENDING bet to its final status and credits the amount
// received to the house.
//
// Steps (one atomic transaction):
//  1. Load the bet (row-locked on PostgreSQL); unknown → not found, settled → invalid state
//  2. Work out the amount: WON defaults to stake × odds, LOST is 0, CASHED_OUT is required
//  3. Conditional update WHERE status = 'PENDING', so a second call cannot credit twice
//  4. Append a snapshot old + amount, even when the amount is 0
func (s *ResolutionService) ResolveBet(ctx context.Context, req domain.ResolveRequest) (*domain.Bet, error) {
	return s.resolve(ctx, req, sourceManual)
}

func (s *ResolutionService) resolve(ctx context.Context, req domain.ResolveRequest, source string) (*domain.Bet, error) {
	var (
		bet  *domain.Bet
		snap *domain.BalanceSnapshot
	)
	err := withTx(ctx, s.db, "resolution_service.ResolveBet", func(tx *sqlx.Tx) error {
		var err error
		bet, err = s.betRepo.GetForUpdate(ctx, tx, req.BetID)
		if err != nil {
			return persistErr("resolution_service.ResolveBet", err)
		}
		if !bet.IsPending() {
			return domain.ErrBetAlreadyResolved
		}

		amount, err := req.AmountFor(bet)
		if err != nil {
			return err
		}

		current, err := s.balanceRepo.LatestTx(ctx, tx, bet.House)
		if err != nil {
			return persistErr("resolution_service.ResolveBet: balance", err)
		}

		now := stampAfter(current.UpdatedAt)
		if err := s.betRepo.Resolve(ctx, tx, bet.ID, req.Status, amount, now); err != nil {
			return persistErr("resolution_service.ResolveBet", err)
		}

		betID := bet.ID
		snap = &domain.BalanceSnapshot{
			House:     bet.House,
			Balance:   current.Balance.Add(amount),
			Reason:    domain.ReasonBetResolved,
			BetID:     &betID,
			UpdatedAt: now,
		}
		if err := s.balanceRepo.Insert(ctx, tx, snap); err != nil {
			return persistErr("resolution_service.ResolveBet", err)
		}

		bet.Status = req.Status
		bet.Return = amount
		bet.ResolvedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bet resolved",
		"bet_id", bet.ID,
		"house", bet.House,
		"status", bet.Status,
		"return", bet.Return.StringFixed(2),
		"profit", bet.Profit().StringFixed(2),
		"balance", snap.Balance.StringFixed(2),
		"source", source,
	)
	s.metrics.BetResolved(string(bet.Status), source, bet.House, snap.Balance)
	s.notifier.BetResolved(bet)
	s.notifier.BalanceUpdated(snap)

	return bet, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Automation: driven by the scheduler, the API and cmd/ledgerctl
// ──────────────────────────────────────────────────────────────────────────────

// RunAutomation consults the oracle for every PENDING bet, oldest first, and
// resolves those with a final outcome. Oracle errors and timeouts leave the
// bet pending. A single failing bet does NOT abort the others.
func (s *ResolutionService) RunAutomation(ctx context.Context) (domain.AutomationReport, error) {
	report := domain.AutomationReport{StartedAt: time.Now().UTC()}

	pending, err := s.betRepo.ListPending(ctx)
	if err != nil {
		return report, persistErr("resolution_service.RunAutomation", err)
	}

	for _, bet := range pending {
		if ctx.Err() != nil {
			break
		}
		report.Checked++

		outcome, err := s.lookup(ctx, bet)
		if err != nil {
			s.logger.Warn("outcome unavailable", "bet_id", bet.ID, "ref", bet.OracleRef(), "error", err)
			s.metrics.OracleError()
			report.Skipped++
			report.Unavailable++
			continue
		}
		if outcome.IsPending() {
			report.Skipped++
			continue
		}

		if _, err := s.resolve(ctx, outcome.ResolveRequest(bet), sourceAutomation); err != nil {
			s.logger.Error("automated resolution failed", "bet_id", bet.ID, "status", outcome.Status, "error", err)
			report.Failed++
			continue
		}
		report.Resolved++
	}

	report.Duration = time.Since(report.StartedAt)
	s.metrics.AutomationRun(report.Duration.Seconds())
	s.logger.Info("automation finished",
		"checked", report.Checked,
		"resolved", report.Resolved,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	s.notifier.AutomationFinished(report)

	return report, ctx.Err()
}

// lookup asks the oracle under a bounded timeout. A CASHED_OUT outcome with
// no figure cannot be applied and is treated as no data.
func (s *ResolutionService) lookup(ctx context.Context, bet *domain.Bet) (domain.Outcome, error) {
	if s.oracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.oracleTimeout)
		defer cancel()
	}

	outcome, err := s.oracle.OutcomeFor(ctx, bet.OracleRef())
	if err != nil {
		return domain.Outcome{}, err
	}
	if outcome.Status == domain.BetStatusCashedOut && outcome.Amount == nil && outcome.Ratio == nil {
		return domain.Outcome{}, domain.ErrAmountRequired
	}
	if !outcome.IsPending() && !outcome.Status.IsTerminal() {
		return domain.Outcome{}, domain.ErrInvalidStatus
	}
	return outcome, nil
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/betledger/ledger/internal/metrics"
	"github.com/betledger/ledger/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// DefaultHistoryLimit caps History when the caller passes no limit.
const DefaultHistoryLimit = 100

// BalanceService reads house balances and records manual balance changes.
type BalanceService struct {
	db          *sqlx.DB
	balanceRepo *repository.BalanceRepository
	metrics     *metrics.Metrics
	notifier    Notifier
	logger      *slog.Logger
}

// NewBalanceService creates a BalanceService. m may be nil.
func NewBalanceService(db *sqlx.DB, balanceRepo *repository.BalanceRepository, m *metrics.Metrics, logger *slog.Logger) *BalanceService {
	return &BalanceService{
		db:          db,
		balanceRepo: balanceRepo,
		metrics:     m,
		notifier:    nopNotifier{},
		logger:      logger,
	}
}

// SetNotifier wires the push feed.
func (s *BalanceService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CurrentBalance returns the latest balance of a house.
func (s *BalanceService) CurrentBalance(ctx context.Context, house string) (decimal.Decimal, error) {
	snap, err := s.Snapshot(ctx, house)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.Balance, nil
}

// Snapshot returns the latest snapshot of a house.
func (s *BalanceService) Snapshot(ctx context.Context, house string) (*domain.BalanceSnapshot, error) {
	house = normalizeHouse(house)
	if house == "" {
		return nil, domain.ErrMissingField
	}
	snap, err := s.balanceRepo.Latest(ctx, house)
	if err != nil {
		return nil, persistErr("balance_service.Snapshot", err)
	}
	return snap, nil
}

// SetBalance records a manual balance for a house (deposit, withdrawal or
// correction). Unknown houses are created by their first snapshot.
func (s *BalanceService) SetBalance(ctx context.Context, house string, amount decimal.Decimal) (*domain.BalanceSnapshot, error) {
	house = normalizeHouse(house)
	if house == "" {
		return nil, domain.ErrMissingField
	}
	if amount.IsNegative() || !domain.FitsScale(amount) {
		return nil, domain.ErrInvalidAmount
	}

	const op = "balance_service.SetBalance"
	snap := &domain.BalanceSnapshot{
		House:   house,
		Balance: amount,
		Reason:  domain.ReasonDeposit,
	}
	err := withTx(ctx, s.db, op, func(tx *sqlx.Tx) error {
		var prev time.Time
		current, err := s.balanceRepo.LatestTx(ctx, tx, house)
		switch {
		case err == nil:
			prev = current.UpdatedAt
		case !errors.Is(err, domain.ErrHouseNotFound):
			return persistErr(op, err)
		}
		snap.UpdatedAt = stampAfter(prev)
		if err := s.balanceRepo.Insert(ctx, tx, snap); err != nil {
			return persistErr(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("balance set", "house", house, "balance", amount.StringFixed(2))
	s.metrics.BalanceSet(house, amount)
	s.notifier.BalanceUpdated(snap)
	return snap, nil
}

// Balances returns the latest snapshot of every known house, by name.
func (s *BalanceService) Balances(ctx context.Context) ([]*domain.BalanceSnapshot, error) {
	snaps, err := s.balanceRepo.Current(ctx)
	if err != nil {
		return nil, persistErr("balance_service.Balances", err)
	}
	return snaps, nil
}

// TotalBalance sums the current balance of every house.
func (s *BalanceService) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	snaps, err := s.Balances(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, snap := range snaps {
		total = total.Add(snap.Balance)
	}
	return total, nil
}

// History returns up to limit snapshots of a house, newest first.
func (s *BalanceService) History(ctx context.Context, house string, limit int) ([]*domain.BalanceSnapshot, error) {
	house = normalizeHouse(house)
	if house == "" {
		return nil, domain.ErrMissingField
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	snaps, err := s.balanceRepo.History(ctx, house, limit)
	if err != nil {
		return nil, persistErr("balance_service.History", err)
	}
	if len(snaps) == 0 {
		return nil, persistErr("balance_service.History", domain.ErrHouseNotFound)
	}
	return snaps, nil
}

// SeedHouses writes an opening balance for every seeded house that has no
// history yet and returns how many were written. Houses with history are
// left untouched.
func (s *BalanceService) SeedHouses(ctx context.Context, seeds []domain.HouseSeed) (int, error) {
	seeded := 0
	for _, seed := range seeds {
		house := normalizeHouse(seed.Name)
		if house == "" {
			return seeded, domain.ErrMissingField
		}
		if seed.Balance.IsNegative() || !domain.FitsScale(seed.Balance) {
			return seeded, domain.ErrInvalidAmount
		}

		_, err := s.balanceRepo.Latest(ctx, house)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrHouseNotFound) {
			return seeded, persistErr("balance_service.SeedHouses", err)
		}

		snap := &domain.BalanceSnapshot{
			House:     house,
			Balance:   seed.Balance,
			Reason:    domain.ReasonDeposit,
			UpdatedAt: nowUTC(),
		}
		if err := s.balanceRepo.InsertDirect(ctx, snap); err != nil {
			return seeded, persistErr("balance_service.SeedHouses", err)
		}
		s.metrics.BalanceSet(house, seed.Balance)
		s.logger.Info("house seeded", "house", house, "balance", seed.Balance.StringFixed(2))
		seeded++
	}
	return seeded, nil
}

package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/betledger/ledger/internal/domain"
	"github.com/betledger/ledger/internal/metrics"
	"github.com/betledger/ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// BetService handles bet registration and lookups.
type BetService struct {
	db          *sqlx.DB
	betRepo     *repository.BetRepository
	balanceRepo *repository.BalanceRepository
	metrics     *metrics.Metrics
	notifier    Notifier
	logger      *slog.Logger
}

// NewBetService creates a BetService. m may be nil.
func NewBetService(
	db *sqlx.DB,
	betRepo *repository.BetRepository,
	balanceRepo *repository.BalanceRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BetService {
	return &BetService{
		db:          db,
		betRepo:     betRepo,
		balanceRepo: balanceRepo,
		metrics:     m,
		notifier:    nopNotifier{},
		logger:      logger,
	}
}

// SetNotifier wires the push feed.
func (s *BetService) SetNotifier(n Notifier) {
	s.notifier = n
}

// ──────────────────────────────────────────────────────────────────────────────
// RegisterBet
// ──────────────────────────────────────────────────────────────────────────────

// RegisterBet records a new PENDING bet and deducts its stake from the house.
//
// Steps (one atomic transaction):
//  1. Read the house's current balance (row-locked on PostgreSQL)
//  2. Reject if stake > balance
//  3. Insert the bet with return 0
//  4. Append a snapshot old − stake
func (s *BetService) RegisterBet(ctx context.Context, req domain.RegisterBetRequest) (*domain.Bet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bet := &domain.Bet{
		ID:        uuid.New(),
		House:     normalizeHouse(req.House),
		League:    strings.TrimSpace(req.League),
		Event:     strings.TrimSpace(req.Event),
		Market:    strings.TrimSpace(req.Market),
		Prognosis: optional(req.Prognosis),
		EventRef:  optional(req.EventRef),
		Odds:      req.Odds,
		Stake:     req.Stake,
		Status:    domain.BetStatusPending,
		Return:    decimal.Zero,
	}

	var snap *domain.BalanceSnapshot
	err := withTx(ctx, s.db, "bet_service.RegisterBet", func(tx *sqlx.Tx) error {
		current, err := s.balanceRepo.LatestTx(ctx, tx, bet.House)
		if err != nil {
			return persistErr("bet_service.RegisterBet: balance", err)
		}
		if bet.Stake.GreaterThan(current.Balance) {
			return domain.ErrInsufficientBalance
		}

		now := stampAfter(current.UpdatedAt)
		bet.CreatedAt = now

		if err := s.betRepo.Create(ctx, tx, bet); err != nil {
			return persistErr("bet_service.RegisterBet", err)
		}

		betID := bet.ID
		snap = &domain.BalanceSnapshot{
			House:     bet.House,
			Balance:   current.Balance.Sub(bet.Stake),
			Reason:    domain.ReasonBetPlaced,
			BetID:     &betID,
			UpdatedAt: now,
		}
		if err := s.balanceRepo.Insert(ctx, tx, snap); err != nil {
			return persistErr("bet_service.RegisterBet", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bet registered",
		"bet_id", bet.ID,
		"house", bet.House,
		"stake", bet.Stake.StringFixed(2),
		"odds", bet.Odds.String(),
		"balance", snap.Balance.StringFixed(2),
	)
	s.metrics.BetRegistered(bet.House, snap.Balance)
	s.notifier.BetRegistered(bet)
	s.notifier.BalanceUpdated(snap)

	return bet, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────────────────────────

// ListBets returns every bet, newest first. An empty status returns all.
func (s *BetService) ListBets(ctx context.Context, status domain.BetStatus) ([]*domain.Bet, error) {
	if status != "" && !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	bets, err := s.betRepo.List(ctx, status)
	if err != nil {
		return nil, persistErr("bet_service.ListBets", err)
	}
	return bets, nil
}

// GetBet returns a single bet.
func (s *BetService) GetBet(ctx context.Context, id uuid.UUID) (*domain.Bet, error) {
	bet, err := s.betRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistErr("bet_service.GetBet", err)
	}
	return bet, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const betColumns = `id, house, league, event, market, prognosis, event_ref, odds, stake,
	status, return_amount, created_at, resolved_at`

// BetRepository handles all database operations for Bets.
type BetRepository struct {
	db *sqlx.DB
}

// NewBetRepository creates a new BetRepository.
func NewBetRepository(db *sqlx.DB) *BetRepository {
	return &BetRepository{db: db}
}

// Create inserts a new bet inside an existing transaction.
func (r *BetRepository) Create(ctx context.Context, tx *sqlx.Tx, b *domain.Bet) error {
	query := `
		INSERT INTO bets
			(id, house, league, event, market, prognosis, event_ref, odds, stake, status, return_amount, created_at)
		VALUES
			(:id, :house, :league, :event, :market, :prognosis, :event_ref, :odds, :stake, :status, :return_amount, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("bet_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a bet by its primary key.
func (r *BetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bet, error) {
	var b domain.Bet
	err := r.db.GetContext(ctx, &b, r.db.Rebind(`SELECT `+betColumns+` FROM bets WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBetNotFound
		}
		return nil, fmt.Errorf("bet_repo.GetByID: %w", err)
	}
	return &b, nil
}

// GetForUpdate fetches a bet inside a transaction, row-locking it where the
// driver supports it.
func (r *BetRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Bet, error) {
	var b domain.Bet
	query := r.db.Rebind(`SELECT ` + betColumns + ` FROM bets WHERE id = ?` + lockClause(r.db))
	if err := tx.GetContext(ctx, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBetNotFound
		}
		return nil, fmt.Errorf("bet_repo.GetForUpdate: %w", err)
	}
	return &b, nil
}

// List returns every bet, newest first. An empty status means all statuses.
func (r *BetRepository) List(ctx context.Context, status domain.BetStatus) ([]*domain.Bet, error) {
	bets := []*domain.Bet{}
	var err error
	if status != "" {
		err = r.db.SelectContext(ctx, &bets, r.db.Rebind(`
			SELECT `+betColumns+` FROM bets
			WHERE status = ?
			ORDER BY created_at DESC`),
			string(status))
	} else {
		err = r.db.SelectContext(ctx, &bets, `
			SELECT `+betColumns+` FROM bets
			ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("bet_repo.List: %w", err)
	}
	return bets, nil
}

// ListPending returns all pending bets, oldest first, so batch resolution
// settles them in placement order.
func (r *BetRepository) ListPending(ctx context.Context) ([]*domain.Bet, error) {
	bets := []*domain.Bet{}
	err := r.db.SelectContext(ctx, &bets, r.db.Rebind(`
		SELECT `+betColumns+` FROM bets
		WHERE status = ?
		ORDER BY created_at ASC`),
		string(domain.BetStatusPending))
	if err != nil {
		return nil, fmt.Errorf("bet_repo.ListPending: %w", err)
	}
	return bets, nil
}

// Resolve writes the final status and return of a bet inside a transaction.
// Only touches a bet that is still PENDING; returns ErrBetAlreadyResolved
// when no row was updated.
func (r *BetRepository) Resolve(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status domain.BetStatus, ret decimal.Decimal, at time.Time) error {
	res, err := tx.ExecContext(ctx, r.db.Rebind(`
		UPDATE bets
		SET status        = ?,
		    return_amount = ?,
		    resolved_at   = ?
		WHERE id = ? AND status = ?`),
		string(status), ret, at, id, string(domain.BetStatusPending))
	if err != nil {
		return fmt.Errorf("bet_repo.Resolve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bet_repo.Resolve: rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrBetAlreadyResolved
	}
	return nil
}

// Count returns the number of stored bets.
func (r *BetRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bets`); err != nil {
		return 0, fmt.Errorf("bet_repo.Count: %w", err)
	}
	return n, nil
}

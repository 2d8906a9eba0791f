package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/betledger/ledger/internal/domain"
	"github.com/jmoiron/sqlx"
)

const snapshotColumns = `id, house, balance, reason, bet_id, updated_at`

// BalanceRepository handles the append-only balance history. Rows are only
// ever inserted; the current balance is the newest row per house.
type BalanceRepository struct {
	db *sqlx.DB
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db *sqlx.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Latest returns the current snapshot of a house using the database handle.
func (r *BalanceRepository) Latest(ctx context.Context, house string) (*domain.BalanceSnapshot, error) {
	return r.latest(ctx, r.db, house, "")
}

// LatestTx returns the current snapshot of a house inside a transaction,
// row-locking it where the driver supports it.
func (r *BalanceRepository) LatestTx(ctx context.Context, tx *sqlx.Tx, house string) (*domain.BalanceSnapshot, error) {
	return r.latest(ctx, tx, house, lockClause(r.db))
}

func (r *BalanceRepository) latest(ctx context.Context, q sqlx.QueryerContext, house, lock string) (*domain.BalanceSnapshot, error) {
	var s domain.BalanceSnapshot
	query := r.db.Rebind(`
		SELECT ` + snapshotColumns + ` FROM balance_history
		WHERE house = ?
		ORDER BY updated_at DESC, id DESC
		LIMIT 1` + lock)
	if err := sqlx.GetContext(ctx, q, &s, query, house); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHouseNotFound
		}
		return nil, fmt.Errorf("balance_repo.Latest: %w", err)
	}
	return &s, nil
}

// Insert appends a snapshot inside a transaction.
func (r *BalanceRepository) Insert(ctx context.Context, tx *sqlx.Tx, s *domain.BalanceSnapshot) error {
	if _, err := tx.NamedExecContext(ctx, insertSnapshot, s); err != nil {
		return fmt.Errorf("balance_repo.Insert: %w", err)
	}
	return nil
}

// InsertDirect appends a snapshot outside of a transaction (manual balance
// set and opening balances, which touch a single row).
func (r *BalanceRepository) InsertDirect(ctx context.Context, s *domain.BalanceSnapshot) error {
	if _, err := r.db.NamedExecContext(ctx, insertSnapshot, s); err != nil {
		return fmt.Errorf("balance_repo.InsertDirect: %w", err)
	}
	return nil
}

const insertSnapshot = `
	INSERT INTO balance_history (house, balance, reason, bet_id, updated_at)
	VALUES (:house, :balance, :reason, :bet_id, :updated_at)`

// Current returns the newest snapshot of every house, ordered by house name.
func (r *BalanceRepository) Current(ctx context.Context) ([]*domain.BalanceSnapshot, error) {
	snaps := []*domain.BalanceSnapshot{}
	err := r.db.SelectContext(ctx, &snaps, `
		SELECT `+snapshotColumns+` FROM balance_history h
		WHERE h.id = (
			SELECT h2.id FROM balance_history h2
			WHERE h2.house = h.house
			ORDER BY h2.updated_at DESC, h2.id DESC
			LIMIT 1
		)
		ORDER BY h.house ASC`)
	if err != nil {
		return nil, fmt.Errorf("balance_repo.Current: %w", err)
	}
	return snaps, nil
}

// History returns a house's snapshots, newest first.
func (r *BalanceRepository) History(ctx context.Context, house string, limit int) ([]*domain.BalanceSnapshot, error) {
	snaps := []*domain.BalanceSnapshot{}
	err := r.db.SelectContext(ctx, &snaps, r.db.Rebind(`
		SELECT `+snapshotColumns+` FROM balance_history
		WHERE house = ?
		ORDER BY updated_at DESC, id DESC
		LIMIT ?`),
		house, limit)
	if err != nil {
		return nil, fmt.Errorf("balance_repo.History: %w", err)
	}
	return snaps, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/jmoiron/sqlx"
)

// withTx runs fn inside one database transaction. The transaction is rolled
// back when fn returns an error and committed otherwise.
func withTx(ctx context.Context, db *sqlx.DB, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return persistErr(op+": begin tx", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistErr(op+": commit", err)
	}
	return nil
}

// persistErr prefixes err with the failing operation. Storage failures are
// additionally marked with domain.ErrPersistence; domain errors keep their kind.
func persistErr(op string, err error) error {
	if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsInvalidState(err) || domain.IsPersistence(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}

// normalizeHouse trims the free-form house name. Matching is by equality.
func normalizeHouse(house string) string {
	return strings.TrimSpace(house)
}

// nowUTC truncates to microseconds so values survive every supported driver
// unchanged.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// stampAfter returns the current time, never earlier than prev, so a new
// snapshot always supersedes the one it was computed from.
func stampAfter(prev time.Time) time.Time {
	now := nowUTC()
	if now.Before(prev) {
		return prev.UTC()
	}
	return now
}

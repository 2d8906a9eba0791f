package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors, compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Validation errors: the request is rejected and nothing is written.
var (
	// ErrMissingField is returned when house, event or market is blank.
	ErrMissingField = errors.New("house, event and market are required")

	// ErrInvalidOdds is returned when odds are not strictly greater than 1
	// or carry more than MoneyScale decimal places.
	ErrInvalidOdds = errors.New("odds must be greater than 1.0 with at most 4 decimal places")

	// ErrInvalidStake is returned when the stake is zero, negative or has more
	// than MoneyScale decimal places.
	ErrInvalidStake = errors.New("stake must be greater than zero with at most 4 decimal places")

	// ErrInsufficientBalance is returned when the stake exceeds the house's
	// current balance.
	ErrInsufficientBalance = errors.New("insufficient house balance")

	// ErrInvalidAmount is returned for negative money amounts or amounts with
	// more than MoneyScale decimal places.
	ErrInvalidAmount = errors.New("amount must not be negative and have at most 4 decimal places")

	// ErrInvalidStatus is returned when a status is unknown or is not a valid
	// resolution target.
	ErrInvalidStatus = errors.New("status must be one of WON, LOST, CASHED_OUT")

	// ErrAmountRequired is returned when a cashout is resolved without the
	// amount received.
	ErrAmountRequired = errors.New("amount received is required for a cashout")

	// ErrLostWithReturn is returned when a LOST resolution carries a non-zero amount.
	ErrLostWithReturn = errors.New("a lost bet cannot return money")

	// ErrInvalidSelection is returned for a 1X2 pick other than HOME, DRAW or AWAY.
	ErrInvalidSelection = errors.New("selection must be one of HOME, DRAW, AWAY")

	// ErrInvalidPeriod is returned for a report period other than D, W or M.
	ErrInvalidPeriod = errors.New("period must be one of D, W, M")
)

// Not-found errors.
var (
	// ErrBetNotFound is returned when no bet matches the given id.
	ErrBetNotFound = errors.New("bet not found")

	// ErrHouseNotFound is returned when a house has no balance history.
	ErrHouseNotFound = errors.New("house not found")

	// ErrEventNotFound is returned when the catalog has no such event for the house.
	ErrEventNotFound = errors.New("event not found")
)

// State errors.
var (
	// ErrBetAlreadyResolved is returned when resolving a bet that is no
	// longer pending.
	ErrBetAlreadyResolved = errors.New("bet is already resolved")
)

// ErrPersistence marks storage failures. The operation was aborted and any
// transaction rolled back.
var ErrPersistence = errors.New("persistence failure")

// Auth errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrInvalidCredentials is returned when the login password is wrong.
	ErrInvalidCredentials = errors.New("invalid password")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

var validationErrors = []error{
	ErrMissingField,
	ErrInvalidOdds,
	ErrInvalidStake,
	ErrInsufficientBalance,
	ErrInvalidAmount,
	ErrInvalidStatus,
	ErrAmountRequired,
	ErrLostWithReturn,
	ErrInvalidSelection,
	ErrInvalidPeriod,
}

var notFoundErrors = []error{
	ErrBetNotFound,
	ErrHouseNotFound,
	ErrEventNotFound,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true when err (or any error in its chain) is a
// rejected-input error. Translated to HTTP 400.
func IsValidation(err error) bool {
	return isAny(err, validationErrors)
}

// IsNotFound returns true for unknown bets and houses. Translated to HTTP 404.
func IsNotFound(err error) bool {
	return isAny(err, notFoundErrors)
}

// IsInvalidState returns true when the operation conflicts with the current
// state of a bet (e.g. double resolution). Translated to HTTP 409.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrBetAlreadyResolved)
}

// IsPersistence returns true for storage failures.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsAuthError returns true for authentication errors.
func IsAuthError(err error) bool {
	return isAny(err, []error{ErrUnauthorized, ErrTokenInvalid, ErrInvalidCredentials})
}

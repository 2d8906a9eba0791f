package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/betledger/ledger/internal/domain"
	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────────────────
// Standard response helpers
// ──────────────────────────────────────────────────────────────────────────────

// respondSuccess writes {"success": true, "data": data} with the given status.
func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes {"success": false, "error": msg, "code": code}.
func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}

// respondList writes {"success": true, "data": items, "meta": {...}}.
func respondList(c *gin.Context, items interface{}, total, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"meta": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// errorCodes gives the specific sentinels their own machine-readable code.
var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrInsufficientBalance, "ERR_INSUFFICIENT_BALANCE"},
	{domain.ErrInvalidOdds, "ERR_INVALID_ODDS"},
	{domain.ErrInvalidStake, "ERR_INVALID_STAKE"},
	{domain.ErrInvalidStatus, "ERR_INVALID_STATUS"},
	{domain.ErrAmountRequired, "ERR_AMOUNT_REQUIRED"},
	{domain.ErrLostWithReturn, "ERR_LOST_WITH_RETURN"},
	{domain.ErrInvalidAmount, "ERR_INVALID_AMOUNT"},
	{domain.ErrInvalidSelection, "ERR_INVALID_SELECTION"},
	{domain.ErrInvalidPeriod, "ERR_INVALID_PERIOD"},
	{domain.ErrBetNotFound, "ERR_BET_NOT_FOUND"},
	{domain.ErrHouseNotFound, "ERR_HOUSE_NOT_FOUND"},
	{domain.ErrEventNotFound, "ERR_EVENT_NOT_FOUND"},
	{domain.ErrBetAlreadyResolved, "ERR_BET_ALREADY_RESOLVED"},
	{domain.ErrInvalidCredentials, "ERR_INVALID_CREDENTIALS"},
	{domain.ErrTokenInvalid, "ERR_TOKEN_INVALID"},
}

// respondDomainError maps a service error onto the envelope:
// validation 400, not found 404, invalid state 409, auth 401, anything else 500.
// Storage details never leave the server; fallback is shown instead.
func respondDomainError(c *gin.Context, err error, fallback string) {
	status, kindCode := errorKind(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		respondError(c, status, kindCode, fallback)
		return
	}
	respondError(c, status, errorCode(err, kindCode), cause(err))
}

// errorKind returns the HTTP status for err and the code used when err has
// no entry of its own in errorCodes.
func errorKind(err error) (int, string) {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, "ERR_VALIDATION"
	case domain.IsNotFound(err):
		return http.StatusNotFound, "ERR_NOT_FOUND"
	case domain.IsInvalidState(err):
		return http.StatusConflict, "ERR_INVALID_STATE"
	case domain.IsAuthError(err):
		return http.StatusUnauthorized, "ERR_UNAUTHORIZED"
	default:
		return http.StatusInternalServerError, "ERR_INTERNAL"
	}
}

func errorCode(err error, fallback string) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return fallback
}

// cause strips the "op: " prefixes the service layer adds, leaving the
// sentinel's message.
func cause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return
}

// paginate returns the page-th window of items.
func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

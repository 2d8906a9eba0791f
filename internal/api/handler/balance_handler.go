package handler

import (
	"net/http"
	"strconv"

	"github.com/betledger/ledger/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BalanceHandler serves house balance and balance history endpoints.
type BalanceHandler struct {
	balanceSvc *service.BalanceService
}

// NewBalanceHandler creates a BalanceHandler.
func NewBalanceHandler(balanceSvc *service.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceSvc: balanceSvc}
}

// ListBalances godoc
// GET /api/balances [JWT]
func (h *BalanceHandler) ListBalances(c *gin.Context) {
	snaps, err := h.balanceSvc.Balances(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "could not fetch balances")
		return
	}
	total, err := h.balanceSvc.TotalBalance(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "could not fetch balances")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"houses": snaps,
		"total":  total,
	})
}

// GetBalance godoc
// GET /api/balances/:house [JWT]
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	snap, err := h.balanceSvc.Snapshot(c.Request.Context(), c.Param("house"))
	if err != nil {
		respondDomainError(c, err, "could not fetch balance")
		return
	}
	respondSuccess(c, http.StatusOK, snap)
}

// SetBalance godoc
// PUT /api/balances/:house [JWT]
// Body: {"balance":"1000.00"}
func (h *BalanceHandler) SetBalance(c *gin.Context) {
	var body struct {
		Balance string `json:"balance" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Balance)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "balance must be a decimal string")
		return
	}

	snap, err := h.balanceSvc.SetBalance(c.Request.Context(), c.Param("house"), amount)
	if err != nil {
		respondDomainError(c, err, "could not set balance")
		return
	}
	respondSuccess(c, http.StatusOK, snap)
}

// GetHistory godoc
// GET /api/balances/:house/history?limit=100 [JWT]
func (h *BalanceHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultHistoryLimit)))
	if limit < 1 || limit > 1000 {
		limit = service.DefaultHistoryLimit
	}

	snaps, err := h.balanceSvc.History(c.Request.Context(), c.Param("house"), limit)
	if err != nil {
		respondDomainError(c, err, "could not fetch history")
		return
	}
	respondList(c, snaps, len(snaps), 1, limit)
}

package handler

import (
	"net/http"

	"github.com/betledger/ledger/internal/report"
	"github.com/betledger/ledger/internal/service"
	"github.com/gin-gonic/gin"
)

// PerformanceHandler serves the ROI and cumulative profit reports.
type PerformanceHandler struct {
	betSvc *service.BetService
}

// NewPerformanceHandler creates a PerformanceHandler.
func NewPerformanceHandler(betSvc *service.BetService) *PerformanceHandler {
	return &PerformanceHandler{betSvc: betSvc}
}

// GetSummary godoc
// GET /api/performance [JWT]
func (h *PerformanceHandler) GetSummary(c *gin.Context) {
	bets, err := h.betSvc.ListBets(c.Request.Context(), "")
	if err != nil {
		respondDomainError(c, err, "could not fetch bets")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"summary":  report.Summarize(bets),
		"by_house": report.ByHouse(bets),
	})
}

// GetCumulative godoc
// GET /api/performance/cumulative?period=D|W|M [JWT]
func (h *PerformanceHandler) GetCumulative(c *gin.Context) {
	period, err := report.ParsePeriod(c.Query("period"))
	if err != nil {
		respondDomainError(c, err, "")
		return
	}

	bets, err := h.betSvc.ListBets(c.Request.Context(), "")
	if err != nil {
		respondDomainError(c, err, "could not fetch bets")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"period": period,
		"points": report.CumulativeProfit(bets, period),
	})
}

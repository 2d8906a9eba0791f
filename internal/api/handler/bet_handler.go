package handler

import (
	"net/http"

	"github.com/betledger/ledger/internal/domain"
	"github.com/betledger/ledger/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetHandler serves bet registration, listing and resolution endpoints.
type BetHandler struct {
	betSvc        *service.BetService
	resolutionSvc *service.ResolutionService
	eventSvc      *service.EventService
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(betSvc *service.BetService, resolutionSvc *service.ResolutionService, eventSvc *service.EventService) *BetHandler {
	return &BetHandler{betSvc: betSvc, resolutionSvc: resolutionSvc, eventSvc: eventSvc}
}

// RegisterBet godoc
// POST /api/bets [JWT]
// Body: {"house":"Superbet","event":"Flamengo x Palmeiras","market":"1X2","odds":"2.10","stake":"50.00"}
// league and prognosis are optional.
func (h *BetHandler) RegisterBet(c *gin.Context) {
	var body struct {
		House     string `json:"house"     binding:"required"`
		League    string `json:"league"`
		Event     string `json:"event"     binding:"required"`
		Market    string `json:"market"    binding:"required"`
		Prognosis string `json:"prognosis"`
		Odds      string `json:"odds"      binding:"required"`
		Stake     string `json:"stake"     binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	odds, err := decimal.NewFromString(body.Odds)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ODDS", "odds must be a decimal string")
		return
	}
	stake, err := decimal.NewFromString(body.Stake)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_STAKE", "stake must be a decimal string")
		return
	}

	bet, err := h.betSvc.RegisterBet(c.Request.Context(), domain.RegisterBetRequest{
		House:     body.House,
		League:    body.League,
		Event:     body.Event,
		Market:    body.Market,
		Prognosis: body.Prognosis,
		Odds:      odds,
		Stake:     stake,
	})
	if err != nil {
		respondDomainError(c, err, "could not register bet")
		return
	}
	respondSuccess(c, http.StatusCreated, bet)
}

// QuickBet godoc
// POST /api/bets/quick [JWT]
// Body: {"house":"Superbet","event_id":"SIM_20260314_0","selection":"HOME","stake":"10"}
func (h *BetHandler) QuickBet(c *gin.Context) {
	var body struct {
		House     string `json:"house"     binding:"required"`
		EventID   string `json:"event_id"  binding:"required"`
		Selection string `json:"selection" binding:"required"`
		Stake     string `json:"stake"     binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	stake, err := decimal.NewFromString(body.Stake)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_STAKE", "stake must be a decimal string")
		return
	}

	req, err := h.eventSvc.BuildBet(c.Request.Context(), service.QuickBetRequest{
		House:     body.House,
		EventID:   body.EventID,
		Selection: body.Selection,
		Stake:     stake,
	})
	if err != nil {
		respondDomainError(c, err, "could not load event")
		return
	}

	bet, err := h.betSvc.RegisterBet(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err, "could not register bet")
		return
	}
	respondSuccess(c, http.StatusCreated, bet)
}

// ListBets godoc
// GET /api/bets?status=PENDING&page=1&limit=20 [JWT]
// Newest first.
func (h *BetHandler) ListBets(c *gin.Context) {
	var status domain.BetStatus
	if raw := c.Query("status"); raw != "" {
		s, err := domain.ParseBetStatus(raw)
		if err != nil {
			respondDomainError(c, err, "")
			return
		}
		status = s
	}
	page, limit := parsePagination(c)

	bets, err := h.betSvc.ListBets(c.Request.Context(), status)
	if err != nil {
		respondDomainError(c, err, "could not fetch bets")
		return
	}
	respondList(c, paginate(bets, page, limit), len(bets), page, limit)
}

// GetBet godoc
// GET /api/bets/:id [JWT]
func (h *BetHandler) GetBet(c *gin.Context) {
	betID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BET_ID", "invalid bet id")
		return
	}

	bet, err := h.betSvc.GetBet(c.Request.Context(), betID)
	if err != nil {
		respondDomainError(c, err, "could not fetch bet")
		return
	}
	respondSuccess(c, http.StatusOK, bet)
}

// ResolveBet godoc
// POST /api/bets/:id/resolve [JWT]
// Body: {"status":"WON"} or {"status":"CASHED_OUT","amount":"35.50"}
func (h *BetHandler) ResolveBet(c *gin.Context) {
	betID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BET_ID", "invalid bet id")
		return
	}

	var body struct {
		Status string  `json:"status" binding:"required"`
		Amount *string `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	status, err := domain.ParseBetStatus(body.Status)
	if err != nil {
		respondDomainError(c, err, "")
		return
	}
	req := domain.ResolveRequest{BetID: betID, Status: status}
	if body.Amount != nil {
		amount, err := decimal.NewFromString(*body.Amount)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a decimal string")
			return
		}
		req.Amount = &amount
	}

	bet, err := h.resolutionSvc.ResolveBet(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err, "could not resolve bet")
		return
	}
	respondSuccess(c, http.StatusOK, bet)
}

// RunAutomation godoc
// POST /api/automation/run [JWT]
func (h *BetHandler) RunAutomation(c *gin.Context) {
	report, err := h.resolutionSvc.RunAutomation(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "automation run failed")
		return
	}
	respondSuccess(c, http.StatusOK, report)
}

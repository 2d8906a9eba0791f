package handler

import (
	"net/http"

	"github.com/betledger/ledger/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles owner login.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login godoc
// POST /api/auth/login
// Body: {"password":"..."}
func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if !h.authSvc.Enabled() {
		respondError(c, http.StatusNotFound, "ERR_AUTH_DISABLED", "login is not configured")
		return
	}

	resp, err := h.authSvc.Login(body.Password)
	if err != nil {
		respondDomainError(c, err, "login failed")
		return
	}
	respondSuccess(c, http.StatusOK, resp)
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/betledger/ledger/internal/domain"
	"github.com/betledger/ledger/internal/service"
	"github.com/gin-gonic/gin"
)

// CtxSubject is the gin.Context key holding the token subject.
const CtxSubject = "subject"

// ──────────────────────────────────────────────────────────────────────────────
// JWTMiddleware
// ──────────────────────────────────────────────────────────────────────────────

// JWTMiddleware validates the Bearer token in the Authorization header and
// stores its subject in the gin context. When auth is not configured every
// request passes through.
func JWTMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authSvc == nil || !authSvc.Enabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   domain.ErrUnauthorized.Error(),
				"code":    "ERR_UNAUTHORIZED",
			})
			return
		}

		claims, err := authSvc.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   domain.ErrTokenInvalid.Error(),
				"code":    "ERR_TOKEN_INVALID",
			})
			return
		}

		c.Set(CtxSubject, claims.Subject)
		c.Next()
	}
}

// TokenVerifier adapts the auth service for the websocket handshake. It
// returns nil when auth is disabled so the feed stays open.
func TokenVerifier(authSvc *service.AuthService) func(token string) bool {
	if authSvc == nil || !authSvc.Enabled() {
		return nil
	}
	return func(token string) bool {
		_, err := authSvc.ParseAccessToken(token)
		return err == nil
	}
}

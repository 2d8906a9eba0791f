package api

import (
	"context"
	"net/http"

	"github.com/betledger/ledger/internal/api/handler"
	"github.com/betledger/ledger/internal/api/middleware"
	"github.com/betledger/ledger/internal/config"
	"github.com/betledger/ledger/internal/metrics"
	"github.com/betledger/ledger/internal/service"
	"github.com/betledger/ledger/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc       *service.AuthService
	BetSvc        *service.BetService
	ResolutionSvc *service.ResolutionService
	BalanceSvc    *service.BalanceService
	EventSvc      *service.EventService
	Hub           *ws.Hub             // optional
	Metrics       *metrics.Metrics    // optional
	Gatherer      prometheus.Gatherer // optional; enables GET /metrics
	Cfg           *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules. ctx bounds the background work
// the middleware starts.
func SetupRouter(ctx context.Context, deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check / metrics ───────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(deps.AuthSvc)
	betH := handler.NewBetHandler(deps.BetSvc, deps.ResolutionSvc, deps.EventSvc)
	balanceH := handler.NewBalanceHandler(deps.BalanceSvc)
	perfH := handler.NewPerformanceHandler(deps.BetSvc)
	eventH := handler.NewEventHandler(deps.EventSvc)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(ctx, deps.Cfg.Auth.LoginRPS)

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/login", authH.Login)
		}

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Bets
			bets := authed.Group("/bets")
			{
				bets.GET("", betH.ListBets)
				bets.POST("", betH.RegisterBet)
				bets.POST("/quick", betH.QuickBet)
				bets.GET("/:id", betH.GetBet)
				bets.POST("/:id/resolve", betH.ResolveBet)
			}

			authed.POST("/automation/run", betH.RunAutomation)

			// Balances
			balances := authed.Group("/balances")
			{
				balances.GET("", balanceH.ListBalances)
				balances.GET("/:house", balanceH.GetBalance)
				balances.PUT("/:house", balanceH.SetBalance)
				balances.GET("/:house/history", balanceH.GetHistory)
			}

			// Reports
			perf := authed.Group("/performance")
			{
				perf.GET("", perfH.GetSummary)
				perf.GET("/cumulative", perfH.GetCumulative)
			}

			// Odds catalog
			events := authed.Group("/events")
			{
				events.GET("", eventH.ListEvents)
				events.GET("/:house/:id", eventH.GetEvent)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// With no configured origins every origin is allowed.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if len(allowed) == 0 || allowed["*"] {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

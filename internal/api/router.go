package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lukashondrich/open-workinghours-sub001/internal/config"
	"github.com/lukashondrich/open-workinghours-sub001/internal/handler"
	"github.com/lukashondrich/open-workinghours-sub001/internal/middleware"
)

// Handlers bundles everything the router serves.
type Handlers struct {
	Sites       *handler.SiteHandler
	Sessions    *handler.SessionHandler
	Transitions *handler.TransitionHandler
	Positions   *handler.PositionHandler
	Summaries   *handler.SummaryHandler
}

// SetupRouter builds the HTTP API. Everything under /api/v1 is rate
// limited and, when a JWT secret is configured, requires a bearer token;
// /health stays open for probes.
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Working hours tracking API is running",
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	if cfg.JWTSecret != "" {
		api.Use(middleware.AuthRequired(cfg.JWTSecret))
	}
	{
		// Site management
		sites := api.Group("/sites")
		{
			sites.POST("", h.Sites.CreateSite)
			sites.GET("", h.Sites.ListSites)
			sites.POST("/import", h.Sites.ImportSites)
			sites.GET("/:id", h.Sites.GetSite)
			sites.PUT("/:id", h.Sites.UpdateSite)
			sites.DELETE("/:id", h.Sites.DeactivateSite)

			// Per-site session surface
			sites.GET("/:id/session", h.Sessions.GetActiveSession)
			sites.POST("/:id/clock-in", h.Sessions.ClockIn)
			sites.POST("/:id/clock-out", h.Sessions.ClockOut)
		}

		// Device-facing surface
		api.GET("/monitors", h.Sites.ListMonitors)
		api.POST("/transitions", h.Transitions.HandleTransition)
		api.POST("/positions", h.Positions.ReportPosition)
		api.GET("/positions/latest", h.Positions.LatestPosition)

		// Audit queries
		api.GET("/events", h.Transitions.ListEvents)
		api.GET("/sessions", h.Sessions.ListSessions)
		api.GET("/sessions/:id", h.Sessions.GetSession)

		// Review surface
		summaries := api.Group("/summaries")
		{
			summaries.GET("/daily", h.Summaries.DailySummaries)
			summaries.GET("/stats", h.Summaries.RangeStats)
		}
	}

	return r
}

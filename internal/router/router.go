package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/handler"
	"github.com/stemsi/scholardist/internal/metrics"
	"github.com/stemsi/scholardist/internal/middleware"
	"github.com/stemsi/scholardist/internal/response"
	"github.com/stemsi/scholardist/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Program     *handler.ProgramHandler
	Application *handler.ApplicationHandler
	Selection   *handler.SelectionHandler
	Feed        *handler.FeedHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	admins middleware.AdminChecker,
	applyLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics())
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		SkipPaths: []string{"/metrics", "/health"},
	}))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	jwt := middleware.RequireJWT(authService)
	adminOnly := middleware.RequireAdministrator(admins)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(jwt, middleware.NoStore())
	{
		auth.GET("/me", handlers.Auth.Me)
	}

	// ─── 2. Programs (public reads, authenticated writes) ──────────────
	programs := router.Group("/api/v1/programs")
	{
		reads := programs.Group("")
		reads.Use(middleware.PublicCache(5))
		{
			reads.GET("", handlers.Program.ListPrograms)
			reads.GET("/:id", handlers.Program.GetProgram)
			reads.GET("/:id/applications", handlers.Application.ListApplications)
			reads.GET("/:id/winners", handlers.Application.ListWinners)
			reads.GET("/:id/runs", handlers.Selection.ListRuns)
		}

		programs.POST("", jwt, adminOnly, handlers.Program.CreateProgram)
		programs.POST("/:id/fund", jwt, adminOnly, handlers.Program.FundProgram)
		programs.POST("/:id/deactivate", jwt, adminOnly, handlers.Program.DeactivateProgram)
		programs.POST("/:id/selection", jwt, adminOnly, handlers.Selection.RunSelection)

		// Applicants are limited per identity.
		programs.POST("/:id/applications", jwt, applyLimiter.Middleware(), handlers.Application.Apply)
	}

	// ─── 3. WebSocket Group (public feed) ──────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/programs/:id/feed", handlers.Feed.ProgramFeed)
	}

	return router
}

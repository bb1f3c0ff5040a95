package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/thejavamonster/ohswebsite/internal/config"
	"github.com/thejavamonster/ohswebsite/internal/reviews"
)

// --- Configuration Constants ---
const (
	rateLimitRPS   = 1.0 / 3.0 // 1 write every 3 seconds per IP
	rateLimitBurst = 2
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, svc *reviews.Service, cfg *config.Config, log *zap.Logger) {

	// --- Dependencies ---
	env := &Env{Svc: svc, Log: log}

	// --- Middleware ---
	router.Use(RequestLogger(log))
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Session-Email", "X-Session-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.Use(IdentityMiddleware(cfg))

	// --- Rate Limiter Setup ---
	limiter := NewIPRateLimiter(rate.Limit(rateLimitRPS), rateLimitBurst)
	go func() {
		for {
			time.Sleep(10 * time.Minute)
			limiter.cleanup()
		}
	}()

	// --- API Routes ---
	api := router.Group("/api")
	{
		api.GET("/courses/:course/reviews", env.ListReviews)
		api.POST("/courses/:course/reviews", RateLimitMiddleware(limiter), env.CreateReview)
		api.POST("/courses/:course/reviews/:id/replies", RateLimitMiddleware(limiter), env.AddReply)
		api.POST("/courses/:course/reviews/:id/vote", env.VoteOnReview)
		api.DELETE("/courses/:course/reviews/:id", env.DeleteReview)
	}
}

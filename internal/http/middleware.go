package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/thejavamonster/ohswebsite/internal/config"
	"github.com/thejavamonster/ohswebsite/internal/reviews"
)

// Context keys set by IdentityMiddleware.
const (
	ctxSessionEmail = "sessionEmail"
	ctxSessionID    = "sessionID"
	ctxIsAdmin      = "isAdmin"
)

// IdentityMiddleware attaches the requester identity to the gin context.
// The outer auth layer forwards the authenticated email in X-Session-Email
// and an opaque session id in X-Session-Id; this service never issues or
// validates credentials itself. Missing headers mean an anonymous request.
// Admin status comes from the configured admin list, never from the client.
func IdentityMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("X-Session-Email")
		c.Set(ctxSessionEmail, email)
		c.Set(ctxSessionID, c.GetHeader("X-Session-Id"))
		c.Set(ctxIsAdmin, cfg.IsAdmin(email))
		c.Next()
	}
}

func identityFrom(c *gin.Context) reviews.Identity {
	return reviews.Identity{
		Email:   c.GetString(ctxSessionEmail),
		IsAdmin: c.GetBool(ctxIsAdmin),
	}
}

// SecurityHeadersMiddleware adds basic, sensible security headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevents clickjacking
		c.Header("X-Frame-Options", "DENY")
		// Prevents MIME-type sniffing
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// RequestLogger logs one line per request through zap.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// --- Rate Limiter ---

type IPRateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*rate.Limiter),
		rps:      r,
		burst:    b,
	}
}

func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, exists := rl.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.rps, rl.burst)
		rl.visitors[ip] = limiter
	}
	return limiter
}

// cleanup drops idle limiters so the visitor map doesn't grow forever.
func (rl *IPRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.Tokens() >= float64(rl.burst) {
			delete(rl.visitors, ip)
		}
	}
}

func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait."})
			return
		}
		c.Next()
	}
}

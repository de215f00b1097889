package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/services/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// TokenVerifier resolves a bearer token to a user id
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// MetricsMiddleware observes request latency by route template, not raw path
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// AuthMiddleware requires "Authorization: Bearer <token>" and stores the caller's id
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			utils.JSONAbort(c, http.StatusUnauthorized, biddingerrors.ErrUnauthenticated, "not authorized, no token")
			return
		}

		userID, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			utils.JSONAbort(c, http.StatusUnauthorized, err, "not authorized, token failed")
			utils.Warn("AuthMiddleware: token rejected", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			return
		}

		c.Set(helpers.UserIDKey, userID)
		c.Next()
	}
}

// RateLimitMiddleware sheds load with a shared token bucket once the burst is spent
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			utils.JSONAbort(c, http.StatusTooManyRequests, nil, "too many requests")
			utils.Warn("RateLimitMiddleware: request throttled", map[string]any{
				"path":    c.Request.URL.Path,
				"user_id": c.GetString(helpers.UserIDKey),
			})
			return
		}
		c.Next()
	}
}

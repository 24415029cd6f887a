package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onlineexam/exam-service/pkg/logger"
	"github.com/onlineexam/exam-service/pkg/middleware"
)

// noExpRevokeTTL bounds the revocation of tokens that carry no exp claim
// (only the insecure verifier lets those through).
const noExpRevokeTTL = 24 * time.Hour

// Revoker records a token as revoked until ttl elapses.
type Revoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// RegisterLogout mounts POST /auth/logout. It revokes the presented bearer
// token for the rest of its lifetime so AuthMiddleware rejects it afterwards.
// With a nil revoker the route answers 501.
func RegisterLogout(rg gin.IRouter, rev Revoker, mw ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, mw...), func(c *gin.Context) {
		if rev == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "token revocation is not configured"})
			return
		}
		token := middleware.BearerToken(c)
		claims, ok := middleware.Claims(c)
		if token == "" || !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		ttl := noExpRevokeTTL
		if exp, ok := expiry(claims); ok {
			ttl = time.Until(exp)
		}
		if err := rev.Revoke(c.Request.Context(), token, ttl); err != nil {
			logger.Errorf("revoke token for %s (request_id=%s): %v", middleware.OwnerID(c), c.GetString(middleware.RequestIDKey), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.Status(http.StatusNoContent)
	})
	rg.POST("/auth/logout", handlers...)
}

// expiry reads the exp claim (seconds since epoch).
func expiry(claims map[string]interface{}) (time.Time, bool) {
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(f), 0), true
	}
	return time.Time{}, false
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onlineexam/exam-service/internal/users"
	"github.com/onlineexam/exam-service/pkg/logger"
	"github.com/onlineexam/exam-service/pkg/middleware"
)

// RegisterMe mounts GET /me on rg. With a user service the caller's profile is
// upserted from the token claims; when that write fails the stored profile is
// returned, and without either the claims are echoed back.
func RegisterMe(rg gin.IRouter, userSvc *users.Service, mw ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, mw...), func(c *gin.Context) {
		claims, ok := middleware.Claims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if userSvc != nil {
			u, err := userSvc.UpsertFromClaims(c.Request.Context(), claims)
			if err == nil && u != nil {
				c.JSON(http.StatusOK, gin.H{"user": u})
				return
			}
			if err != nil {
				owner := middleware.OwnerID(c)
				logger.Warnf("profile upsert failed for %s: %v", owner, err)
				// serve the last stored profile if the store can still read it
				if stored, gerr := userSvc.GetBySub(c.Request.Context(), owner); gerr == nil && stored != nil {
					c.JSON(http.StatusOK, gin.H{"user": stored})
					return
				}
			}
		}
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})
	rg.GET("/me", handlers...)
}

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/models"
)

// ARSessionAuth authenticates an AR client by its opaque session token, sent
// in the X-Session-Token header or the session_token query parameter. Expired
// sessions (no activity inside the inactivity window) are rejected; a valid
// call refreshes the activity timestamp, so clients stay alive by polling or
// heartbeating.
func ARSessionAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Session-Token")
		if token == "" {
			token = c.Query("session_token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token: use the X-Session-Token header or the session_token parameter"})
			return
		}

		var session models.ARSession
		if err := db.Preload("Student").Preload("Practice").
			Where("session_token = ?", token).First(&session).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		now := time.Now()
		if !session.Alive(now) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or inactive"})
			return
		}

		session.LastActivityAt = now
		db.Model(&session).Update("last_activity_at", now)

		c.Set("ar_session", session)
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/models"
)

// DeviceAuth authenticates an ESP32 by its API key, sent in the X-API-Key
// header or the api_key query parameter. A successful match refreshes the
// device's last-seen timestamp and source IP.
func DeviceAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key: use the X-API-Key header or the api_key parameter"})
			return
		}

		var device models.Device
		if err := db.Where("api_key = ? AND active = ?", key, true).First(&device).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key or inactive device"})
			return
		}

		now := time.Now()
		device.LastSeenAt = &now
		device.LastIP = c.ClientIP()
		db.Model(&device).Select("last_seen_at", "last_ip").Updates(&device)

		c.Set("device", device)
		c.Next()
	}
}

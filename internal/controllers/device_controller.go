package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veinview/backend/internal/models"
)

// DeviceController is the professor-facing view over registered boards.
// Registration itself happens on the device surface; here devices are only
// listed and activated/deactivated.
type DeviceController struct {
	DB *gorm.DB
}

func (dc *DeviceController) List(c *gin.Context) {
	var devices []models.Device
	if err := dc.DB.Order("created_at DESC").Find(&devices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceView(d))
	}
	c.JSON(http.StatusOK, gin.H{"devices": out, "count": len(out)})
}

func (dc *DeviceController) Get(c *gin.Context) {
	device, ok := dc.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, deviceView(*device))
}

type updateDeviceRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

// Update renames or (de)activates a board. The MAC and API key are immutable.
func (dc *DeviceController) Update(c *gin.Context) {
	device, ok := dc.find(c)
	if !ok {
		return
	}

	var req updateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": FieldErrors(err)})
		return
	}
	if req.Name != nil {
		device.Name = *req.Name
	}
	if req.Active != nil {
		device.Active = *req.Active
	}
	if err := dc.DB.Model(device).Select("name", "active").Updates(device).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, deviceView(*device))
}

func (dc *DeviceController) find(c *gin.Context) (*models.Device, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return nil, false
	}
	var device models.Device
	if err := dc.DB.First(&device, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return nil, false
	}
	return &device, true
}

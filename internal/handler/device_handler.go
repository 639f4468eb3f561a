// internal/handler/device_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barcodebuddy/internal/discovery"
	"barcodebuddy/internal/model"
	"barcodebuddy/internal/utils"
)

// DeviceHandler serves the managed scanner list and USB bus discovery
type DeviceHandler struct {
	devices DeviceLister
	usb     *discovery.USBLister
	logger  *utils.ServiceLogger
}

// NewDeviceHandler creates a new device handler. usb may be nil when
// USB enumeration is unavailable on the host.
func NewDeviceHandler(devices DeviceLister, usb *discovery.USBLister, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		devices: devices,
		usb:     usb,
		logger:  utils.NewServiceLogger(logger, "device-handler"),
	}
}

// RegisterRoutes registers device routes
func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("", h.ListDevices)
		devices.GET("/usb", h.ListUSBDevices)
	}
}

// ListDevices returns the currently managed scanners
// @Summary List scanners
// @Description Get all managed scanner devices and their read statistics
// @Tags Devices
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/devices [get]
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices := h.devices.Devices()

	online := 0
	for _, device := range devices {
		if device.Status == model.DeviceStatusOnline {
			online++
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", gin.H{
		"devices": devices,
		"total":   len(devices),
		"online":  online,
	})
}

// ListUSBDevices enumerates the USB bus for scanner candidates
// @Summary List USB devices
// @Description Enumerate attached USB devices; HID devices are scanner candidates
// @Tags Devices
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/v1/devices/usb [get]
func (h *DeviceHandler) ListUSBDevices(c *gin.Context) {
	if h.usb == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "USB enumeration is not available", nil)
		return
	}

	found, err := h.usb.List(c.Request.Context())
	if err != nil {
		h.logger.Error("USB enumeration failed", zap.Error(err))
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "USB enumeration failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "USB devices retrieved successfully", gin.H{
		"devices": found,
		"total":   len(found),
	})
}

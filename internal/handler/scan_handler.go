// internal/handler/scan_handler.go
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barcodebuddy/internal/config"
	"barcodebuddy/internal/interpreter"
	"barcodebuddy/internal/model"
	"barcodebuddy/internal/repository"
	"barcodebuddy/internal/utils"
)

// DeviceLister exposes the managed scanner snapshot. Satisfied by
// scanner.Manager.
type DeviceLister interface {
	Devices() []model.ScannerDevice
}

// ScanHandler serves the scan history, the session status and manual
// scan submission
type ScanHandler struct {
	config      *config.Config
	scanLog     repository.ScanLogRepository
	interpreter *interpreter.Interpreter
	devices     DeviceLister
	feed        *WebSocketHandler
	inject      chan<- model.ScanEvent
	startedAt   time.Time
	logger      *utils.ServiceLogger
}

// NewScanHandler creates a new scan handler. inject feeds manual scans
// into the same pipeline the device readers use; feed is the live scan
// feed whose client count shows up in the status payload.
func NewScanHandler(
	cfg *config.Config,
	scanLog repository.ScanLogRepository,
	session *interpreter.Interpreter,
	devices DeviceLister,
	feed *WebSocketHandler,
	inject chan<- model.ScanEvent,
	logger *zap.Logger,
) *ScanHandler {
	return &ScanHandler{
		config:      cfg,
		scanLog:     scanLog,
		interpreter: session,
		devices:     devices,
		feed:        feed,
		inject:      inject,
		startedAt:   time.Now(),
		logger:      utils.NewServiceLogger(logger, "scan-handler"),
	}
}

// RegisterRoutes registers scan routes
func (h *ScanHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/scans", h.ListScans)
	router.POST("/scan", h.SubmitScan)
	router.GET("/status", h.GetStatus)
}

// SubmitScanRequest is the body of a manual scan submission
type SubmitScanRequest struct {
	Barcode string `json:"barcode" binding:"required"`
	Device  string `json:"device"`
}

// ListScans returns the most recent scan records
// @Summary List recent scans
// @Description Get the newest scan records, most recent first
// @Tags Scans
// @Produce json
// @Param limit query int false "Maximum records to return" default(50)
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/scans [get]
func (h *ScanHandler) ListScans(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = parsed
	}

	records, err := h.scanLog.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list scans", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list scans", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scans retrieved successfully", gin.H{
		"scans": records,
		"count": len(records),
	})
}

// SubmitScan injects a manual scan into the processing pipeline
// @Summary Submit a scan
// @Description Process a barcode as if a scanner had read it
// @Tags Scans
// @Accept json
// @Produce json
// @Param request body SubmitScanRequest true "Scan to process"
// @Success 202 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/v1/scan [post]
func (h *ScanHandler) SubmitScan(c *gin.Context) {
	var req SubmitScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	device := req.Device
	if device == "" {
		device = "api"
	}

	event := model.NewScanEvent(req.Barcode, device)

	select {
	case h.inject <- event:
	case <-time.After(time.Second):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Scan pipeline is saturated", nil)
		return
	}

	h.logger.Info("Manual scan submitted",
		zap.String("barcode", req.Barcode),
		zap.String("device", device),
	)

	utils.SuccessResponse(c, http.StatusAccepted, "Scan queued for processing", gin.H{
		"id":      event.ID,
		"barcode": event.Barcode,
		"device":  event.Device,
	})
}

// GetStatus returns the session state and service overview
// @Summary Service status
// @Description Get the current mode, pending quantity and device overview
// @Tags Scans
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/status [get]
func (h *ScanHandler) GetStatus(c *gin.Context) {
	snapshot := h.interpreter.Snapshot()
	devices := h.devices.Devices()

	online := 0
	for _, device := range devices {
		if device.Status == model.DeviceStatusOnline {
			online++
		}
	}

	total, err := h.scanLog.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to count scans", zap.Error(err))
	}

	utils.SuccessResponse(c, http.StatusOK, "Status retrieved successfully", gin.H{
		"service": gin.H{
			"name":    h.config.App.Name,
			"version": h.config.App.Version,
			"uptime":  time.Since(h.startedAt).String(),
		},
		"session": snapshot,
		"devices": gin.H{
			"total":  len(devices),
			"online": online,
		},
		"scans": gin.H{
			"recorded": total,
		},
		"feed": gin.H{
			"clients": h.feed.ConnectionCount(),
		},
		"grocy": gin.H{
			"configured": h.config.Grocy.Configured(),
		},
	})
}

// internal/handler/barcode_handler.go
package handler

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barcodebuddy/internal/config"
	"barcodebuddy/internal/utils"
)

// BarcodeHandler renders the control barcodes as printable PNG images
// so operators can put the mode and quantity markers on paper.
type BarcodeHandler struct {
	config *config.BarcodeConfig
	logger *utils.ServiceLogger
}

// NewBarcodeHandler creates a new barcode handler
func NewBarcodeHandler(cfg *config.BarcodeConfig, logger *zap.Logger) *BarcodeHandler {
	return &BarcodeHandler{
		config: cfg,
		logger: utils.NewServiceLogger(logger, "barcode-handler"),
	}
}

// RegisterRoutes registers barcode routes
func (h *BarcodeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/barcodes", h.ListBarcodes)
	router.GET("/barcodes/:name", h.RenderBarcode)
}

// ListBarcodes lists the available control barcodes
// @Summary List control barcodes
// @Description Get the printable control barcodes and where to fetch them
// @Tags Barcodes
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/barcodes [get]
func (h *BarcodeHandler) ListBarcodes(c *gin.Context) {
	barcodes := []gin.H{
		{
			"name":    "add",
			"content": h.config.AddMarker,
			"url":     "/api/v1/barcodes/add",
		},
		{
			"name":    "consume",
			"content": h.config.ConsumeMarker,
			"url":     "/api/v1/barcodes/consume",
		},
		{
			"name":    "quantity-{n}",
			"content": h.config.QuantityPrefix + "{n}",
			"url":     "/api/v1/barcodes/quantity-{n}",
		},
	}

	utils.SuccessResponse(c, http.StatusOK, "Barcodes retrieved successfully", gin.H{
		"barcodes": barcodes,
		"count":    len(barcodes),
	})
}

// RenderBarcode renders a control barcode as PNG
// @Summary Render a control barcode
// @Description Render the add/consume mode markers or a quantity-N marker as a Code 128 PNG
// @Tags Barcodes
// @Produce png
// @Param name path string true "Barcode name: add, consume or quantity-N"
// @Success 200 {file} png
// @Failure 404 {object} utils.APIResponse
// @Router /api/v1/barcodes/{name} [get]
func (h *BarcodeHandler) RenderBarcode(c *gin.Context) {
	name := c.Param("name")

	content, ok := h.resolveContent(name)
	if !ok {
		utils.ErrorResponse(c, http.StatusNotFound, "Unknown barcode name", nil)
		return
	}

	encoded, err := code128.Encode(content)
	if err != nil {
		h.logger.Error("Failed to encode barcode",
			zap.String("name", name),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to encode barcode", err)
		return
	}

	scaled, err := barcode.Scale(encoded, 400, 120)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to scale barcode", err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to render barcode", err)
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// resolveContent maps a barcode name to the text it must encode
func (h *BarcodeHandler) resolveContent(name string) (string, bool) {
	switch name {
	case "add":
		return h.config.AddMarker, true
	case "consume":
		return h.config.ConsumeMarker, true
	}

	if suffix, ok := strings.CutPrefix(name, "quantity-"); ok {
		if n, err := strconv.Atoi(suffix); err == nil && n > 0 {
			return h.config.QuantityPrefix + suffix, true
		}
	}

	return "", false
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/restaurant-pos-api/internal/application/service"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/dto/response"
	"go.uber.org/zap"
)

// SettingsHandler handles settings-related HTTP requests
type SettingsHandler struct {
	settingsService *service.SettingsService
	printerService  *service.PrinterService
	log             *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *service.SettingsService, printerService *service.PrinterService, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, printerService: printerService, log: log}
}

// GetSettings retrieves the restaurant settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Settings retrieved successfully", settings)
}

// UpdateSettings updates the restaurant settings. Print jobs pick up the new
// values from the next job on.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req request.UpdateSettingsRequest
	if err := bindJSON(c, &req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	settings, err := h.settingsService.Update(ctx, &service.UpdateSettingsInput{
		RestaurantName:    req.RestaurantName,
		RestaurantAddress: req.RestaurantAddress,
		RestaurantPhone:   req.RestaurantPhone,
		GSTNumber:         req.GSTNumber,
		GSTType:           req.GSTType,
		FooterText:        req.FooterText,
		PrinterType:       req.PrinterType,
		PaperWidth:        req.PaperWidth,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.printerService.ReloadSettings(ctx); err != nil {
		h.log.Error("settings saved but printer snapshot not reloaded", zap.Error(err))
	}

	response.OK(c, "Settings updated successfully", settings)
}

package handlers

import (
	"net/http"

	"car_repair_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SettingHandler serves the system settings screen.
type SettingHandler struct {
	settings services.SettingsService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(ss services.SettingsService) *SettingHandler {
	return &SettingHandler{settings: ss}
}

// GetSettings returns VAT rate, daily cap and low-stock threshold.
func (h *SettingHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.All(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetSettings", "Failed to fetch settings.")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings changes any subset of the settings. Either every provided
// value is saved or none is.
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req services.UpdateSettingsRequest
	if !bindJSON(c, &req, "UpdateSettings") {
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "UpdateSettings", "Failed to update settings.")
		return
	}
	c.JSON(http.StatusOK, settings)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

type SettingsHandler struct {
	BaseHandler
	service services.SettingsService
}

func NewSettingsHandler(service services.SettingsService, logger utils.Logger) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetSettings
// @Summary Get system settings
// @Tags settings
// @Produce json
// @Success 200 {object} models.SystemSettings
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /system-settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context(), actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings
// @Summary Update system settings
// @Tags settings
// @Accept json
// @Produce json
// @Param request body services.UpdateSettingsRequest true "Changes"
// @Success 200 {object} models.SystemSettings
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Router /system-settings [patch]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req services.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating system settings")

	settings, err := h.service.Update(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

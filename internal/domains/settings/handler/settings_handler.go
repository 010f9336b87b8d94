package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/domains/settings"
	"roastery-backend/internal/shared/middleware"
	"roastery-backend/internal/shared/response"
)

type SettingsHandler struct {
	service settings.Service
}

func NewSettingsHandler(service settings.Service) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetMaintenance xử lý GET /admin/settings/maintenance
func (h *SettingsHandler) GetMaintenance(c *gin.Context) {
	status, err := h.service.MaintenanceStatus(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("read maintenance status failed")
		response.InternalServerError(c, "Internal server error")
		return
	}
	response.Success(c, http.StatusOK, "", status)
}

// UpdateMaintenance xử lý PUT /admin/settings/maintenance
func (h *SettingsHandler) UpdateMaintenance(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req settings.UpdateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "enabled is required")
		return
	}

	status, err := h.service.SetMaintenanceMode(c.Request.Context(), *req.Enabled, actor.UserID)
	if err != nil {
		log.Error().Err(err).Msg("update maintenance mode failed")
		response.InternalServerError(c, "Internal server error")
		return
	}
	response.Success(c, http.StatusOK, "Maintenance mode updated", status)
}

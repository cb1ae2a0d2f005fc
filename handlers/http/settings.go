package httpHandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDeviceSettings handles GET /devices/:id/settings, newest version first
func (h *DeviceHandler) GetDeviceSettings(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	versions, err := h.useCase.GetSettingsHistory(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

// UpdateDeviceSettings handles PUT /devices/:id/settings
func (h *DeviceHandler) UpdateDeviceSettings() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "update", Match: formHasAll("settings"), Handle: h.updateDeviceSettings},
	)
}

func (h *DeviceHandler) updateDeviceSettings(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	properties, err := ParseJSONObject(c.PostForm("settings"), "settings")
	if err != nil {
		abortWith(c, err)
		return
	}

	settings, err := h.useCase.UpdateDeviceSettings(c.Request.Context(), id, properties)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ListSettings handles GET /devices/settings
func (h *DeviceHandler) ListSettings(c *gin.Context) {
	versions, err := h.useCase.GetAllSettings(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

// GetSettings handles GET /devices/settings/:id
func (h *DeviceHandler) GetSettings(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	settings, err := h.useCase.GetSettings(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	if settings == nil {
		abortWith(c, missing("device settings", id))
		return
	}
	c.JSON(http.StatusOK, settings)
}

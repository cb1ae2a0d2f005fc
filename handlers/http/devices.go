package httpHandler

import (
	"net/http"

	"recorder-server/entities"
	"recorder-server/usecases"

	"github.com/gin-gonic/gin"
)

var deviceFilters = []string{"handle", "afterDate", "beforeDate"}

type DeviceHandler struct {
	useCase *usecases.DeviceUseCase
}

func NewDeviceHandler(useCase *usecases.DeviceUseCase) *DeviceHandler {
	return &DeviceHandler{
		useCase: useCase,
	}
}

// ListDevices handles GET /devices
func (h *DeviceHandler) ListDevices() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "by handle", Match: queryNonEmpty("handle"), Handle: h.getDevicesByHandle},
		Candidate{Name: "by date range", Match: queryShape(deviceFilters, "afterDate", "beforeDate"), Handle: h.getDevicesByDateRange},
		Candidate{Name: "all", Match: queryShape(deviceFilters), Handle: h.getAllDevices},
	)
}

// CreateDevice handles POST /devices
func (h *DeviceHandler) CreateDevice() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "create", Match: formHasAll("handle"), Handle: h.createDevice},
	)
}

// UpdateDevice handles PATCH /devices/:id
func (h *DeviceHandler) UpdateDevice() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "update", Match: formHasAny("handle", "description", "location", "ipAddress"), Handle: h.updateDevice},
	)
}

func (h *DeviceHandler) getDevicesByHandle(c *gin.Context) {
	handle := c.Query("handle")
	if err := ValidateHandle(handle); err != nil {
		abortWith(c, err)
		return
	}
	for _, key := range deviceFilters {
		if _, ok := c.GetQuery(key); ok && key != "handle" {
			abortWith(c, BadRequest("Other parameters not allowed when handle is set"))
			return
		}
	}

	devices, err := h.useCase.GetDevicesByHandle(c.Request.Context(), handle)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (h *DeviceHandler) getDevicesByDateRange(c *gin.Context) {
	after, before, err := dateRange(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	devices, err := h.useCase.GetDevicesByDateRange(c.Request.Context(), after, before)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (h *DeviceHandler) getAllDevices(c *gin.Context) {
	devices, err := h.useCase.GetAllDevices(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetDevice handles GET /devices/:id
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	device, err := h.useCase.GetDevice(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	if device == nil {
		abortWith(c, missing("device", id))
		return
	}
	c.JSON(http.StatusOK, device)
}

// GetDeviceRecordings handles GET /devices/:id/recordings
func (h *DeviceHandler) GetDeviceRecordings(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	recordings, err := h.useCase.GetRecordingsByDevice(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, recordings)
}

// GetDeviceSpeakers handles GET /devices/:id/speakers
func (h *DeviceHandler) GetDeviceSpeakers(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	speakers, err := h.useCase.GetSpeakersByDevice(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, speakers)
}

func (h *DeviceHandler) createDevice(c *gin.Context) {
	device := entities.Device{
		Handle:      c.PostForm("handle"),
		Description: optionalText(c, "description"),
		Location:    optionalText(c, "location"),
		IPAddress:   optionalText(c, "ipAddress"),
	}
	if err := ValidateHandle(device.Handle); err != nil {
		abortWith(c, err)
		return
	}
	properties, err := optionalJSONObject(c, "settings")
	if err != nil {
		abortWith(c, err)
		return
	}

	created, err := h.useCase.CreateDevice(c.Request.Context(), &device, properties)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.Header("Location", created.DeviceID)
	c.JSON(http.StatusCreated, created)
}

func (h *DeviceHandler) updateDevice(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	device := entities.Device{
		DeviceID:    id,
		Description: optionalText(c, "description"),
		Location:    optionalText(c, "location"),
		IPAddress:   optionalText(c, "ipAddress"),
	}
	if handle, ok := c.GetPostForm("handle"); ok {
		if err := ValidateHandle(handle); err != nil {
			abortWith(c, err)
			return
		}
		device.Handle = handle
	}

	updated, err := h.useCase.UpdateDevice(c.Request.Context(), &device)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteDevice handles DELETE /devices/:id
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	if err := h.useCase.DeleteDevice(c.Request.Context(), id); err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

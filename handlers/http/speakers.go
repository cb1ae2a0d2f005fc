package httpHandler

import (
	"net/http"

	"recorder-server/entities"
	"recorder-server/usecases"

	"github.com/gin-gonic/gin"
)

var speakerFilters = []string{"deviceId", "afterDate", "beforeDate"}

type SpeakerHandler struct {
	useCase *usecases.DeviceUseCase
}

func NewSpeakerHandler(useCase *usecases.DeviceUseCase) *SpeakerHandler {
	return &SpeakerHandler{
		useCase: useCase,
	}
}

// ListSpeakers handles GET /speakers
func (h *SpeakerHandler) ListSpeakers() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "by device", Match: queryShape(speakerFilters, "deviceId"), Handle: h.getSpeakersByDevice},
		Candidate{Name: "by date range", Match: queryShape(speakerFilters, "afterDate", "beforeDate"), Handle: h.getSpeakersByDateRange},
		Candidate{Name: "all", Match: queryShape(speakerFilters), Handle: h.getAllSpeakers},
	)
}

// CreateSpeaker handles POST /speakers
func (h *SpeakerHandler) CreateSpeaker() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "create", Match: formHasAll("deviceId"), Handle: h.createSpeaker},
	)
}

// UpdateSpeaker handles PATCH /speakers/:id
func (h *SpeakerHandler) UpdateSpeaker() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "update", Match: formHasAll("data"), Handle: h.updateSpeaker},
	)
}

func (h *SpeakerHandler) getSpeakersByDevice(c *gin.Context) {
	id, err := requireUUID(c.Query("deviceId"), "deviceId")
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

func (h *SpeakerHandler) getSpeakersByDateRange(c *gin.Context) {
	after, before, err := dateRange(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	speakers, err := h.useCase.GetSpeakersByDateRange(c.Request.Context(), after, before)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, speakers)
}

func (h *SpeakerHandler) getAllSpeakers(c *gin.Context) {
	speakers, err := h.useCase.GetAllSpeakers(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, speakers)
}

// GetSpeaker handles GET /speakers/:id
func (h *SpeakerHandler) GetSpeaker(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	speaker, err := h.useCase.GetSpeaker(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	if speaker == nil {
		abortWith(c, missing("speaker", id))
		return
	}
	c.JSON(http.StatusOK, speaker)
}

// GetSpeakerRecordings handles GET /speakers/:id/recordings
func (h *SpeakerHandler) GetSpeakerRecordings(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	recordings, err := h.useCase.GetRecordingsBySpeaker(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, recordings)
}

func (h *SpeakerHandler) createSpeaker(c *gin.Context) {
	deviceID, err := requireUUID(c.PostForm("deviceId"), "deviceId")
	if err != nil {
		abortWith(c, err)
		return
	}
	data, err := optionalJSONObject(c, "data")
	if err != nil {
		abortWith(c, err)
		return
	}

	created, err := h.useCase.CreateSpeaker(c.Request.Context(), &entities.Speaker{DeviceID: deviceID, Data: data})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.Header("Location", created.SpeakerID)
	c.JSON(http.StatusCreated, created)
}

func (h *SpeakerHandler) updateSpeaker(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	data, err := ParseJSONObject(c.PostForm("data"), "data")
	if err != nil {
		abortWith(c, err)
		return
	}

	updated, err := h.useCase.UpdateSpeaker(c.Request.Context(), &entities.Speaker{SpeakerID: id, Data: data})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteSpeaker handles DELETE /speakers/:id
func (h *SpeakerHandler) DeleteSpeaker(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	if err := h.useCase.DeleteSpeaker(c.Request.Context(), id); err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

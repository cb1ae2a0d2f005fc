package httpHandler

import (
	"net/http"

	"recorder-server/entities"
	"recorder-server/usecases"

	"github.com/gin-gonic/gin"
)

var recordingFilters = []string{"deviceId", "speakerId", "afterDate", "beforeDate"}

// RecordingInput is a recording as submitted by a client, before validation.
// Nil fields were not supplied.
type RecordingInput struct {
	DeviceID      string  `json:"deviceId"`
	SpeakerID     *string `json:"speakerId"`
	SettingsID    *string `json:"settingsId"`
	RecordingTime *string `json:"recordingTime"`
	Data          *string `json:"data"`
}

// Recording validates the input and builds the entity to store.
func (in RecordingInput) Recording() (*entities.Recording, error) {
	deviceID, err := requireUUID(in.DeviceID, "deviceId")
	if err != nil {
		return nil, err
	}
	recording := &entities.Recording{DeviceID: deviceID}

	if in.SpeakerID != nil && *in.SpeakerID != "" {
		id, err := requireUUID(*in.SpeakerID, "speakerId")
		if err != nil {
			return nil, err
		}
		recording.SpeakerID = &id
	}
	if in.SettingsID != nil && *in.SettingsID != "" {
		id, err := requireUUID(*in.SettingsID, "settingsId")
		if err != nil {
			return nil, err
		}
		recording.SettingsID = &id
	}
	if in.RecordingTime != nil {
		t, err := optionalDate(*in.RecordingTime, true, "recordingTime")
		if err != nil {
			return nil, err
		}
		if t != nil {
			recording.RecordingTime = *t
		}
	}
	if in.Data != nil {
		data, err := ParseJSONObject(*in.Data, "data")
		if err != nil {
			return nil, err
		}
		recording.Data = data
	}
	return recording, nil
}

type RecordingHandler struct {
	useCase *usecases.DeviceUseCase
}

func NewRecordingHandler(useCase *usecases.DeviceUseCase) *RecordingHandler {
	return &RecordingHandler{
		useCase: useCase,
	}
}

// ListRecordings handles GET /recordings
func (h *RecordingHandler) ListRecordings() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "by device", Match: queryShape(recordingFilters, "deviceId"), Handle: h.getRecordingsByDevice},
		Candidate{Name: "by speaker", Match: queryShape(recordingFilters, "speakerId"), Handle: h.getRecordingsBySpeaker},
		Candidate{Name: "by date range", Match: queryShape(recordingFilters, "afterDate", "beforeDate"), Handle: h.getRecordingsByDateRange},
		Candidate{Name: "all", Match: queryShape(recordingFilters), Handle: h.getAllRecordings},
	)
}

// CreateRecording handles POST /recordings
func (h *RecordingHandler) CreateRecording() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "create", Match: formHasAll("deviceId"), Handle: h.createRecording},
	)
}

// UpdateRecording handles PATCH /recordings/:id
func (h *RecordingHandler) UpdateRecording() gin.HandlerFunc {
	return Chain(
		Candidate{Name: "update", Match: formHasAny("speakerId", "data"), Handle: h.updateRecording},
	)
}

func (h *RecordingHandler) getRecordingsByDevice(c *gin.Context) {
	id, err := requireUUID(c.Query("deviceId"), "deviceId")
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

func (h *RecordingHandler) getRecordingsBySpeaker(c *gin.Context) {
	id, err := requireUUID(c.Query("speakerId"), "speakerId")
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

func (h *RecordingHandler) getRecordingsByDateRange(c *gin.Context) {
	after, before, err := dateRange(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	recordings, err := h.useCase.GetRecordingsByDateRange(c.Request.Context(), after, before)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, recordings)
}

func (h *RecordingHandler) getAllRecordings(c *gin.Context) {
	recordings, err := h.useCase.GetAllRecordings(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, recordings)
}

// GetRecording handles GET /recordings/:id
func (h *RecordingHandler) GetRecording(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	recording, err := h.useCase.GetRecording(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	if recording == nil {
		abortWith(c, missing("recording", id))
		return
	}
	c.JSON(http.StatusOK, recording)
}

func (h *RecordingHandler) createRecording(c *gin.Context) {
	input := RecordingInput{
		DeviceID:      c.PostForm("deviceId"),
		SpeakerID:     optionalText(c, "speakerId"),
		SettingsID:    optionalText(c, "settingsId"),
		RecordingTime: optionalText(c, "recordingTime"),
		Data:          optionalText(c, "data"),
	}
	recording, err := input.Recording()
	if err != nil {
		abortWith(c, err)
		return
	}

	created, err := h.useCase.CreateRecording(c.Request.Context(), recording)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.Header("Location", created.RecordingID)
	c.JSON(http.StatusCreated, created)
}

func (h *RecordingHandler) updateRecording(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	speakerID, err := optionalUUID(c, "speakerId")
	if err != nil {
		abortWith(c, err)
		return
	}
	data, err := optionalJSONObject(c, "data")
	if err != nil {
		abortWith(c, err)
		return
	}

	updated, err := h.useCase.UpdateRecording(c.Request.Context(), &entities.Recording{
		RecordingID: id,
		SpeakerID:   speakerID,
		Data:        data,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRecording handles DELETE /recordings/:id
func (h *RecordingHandler) DeleteRecording(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	if err := h.useCase.DeleteRecording(c.Request.Context(), id); err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

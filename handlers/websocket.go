package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	httpHandler "recorder-server/handlers/http"
	"recorder-server/usecases"
	"recorder-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket message envelopes
type incomingMessage struct {
	Type string `json:"type"` // recording | heartbeat
}

type recordingPayload struct {
	Type          string          `json:"type"`
	SpeakerID     *string         `json:"speakerId"`
	SettingsID    *string         `json:"settingsId"`
	RecordingTime *string         `json:"recordingTime"`
	Data          json.RawMessage `json:"data"`
}

type ackMessage struct {
	Type          string    `json:"type"`
	RecordingID   string    `json:"recordingId"`
	SettingsID    *string   `json:"settingsId"`
	RecordingTime time.Time `json:"recordingTime"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// WSHandler groups dependencies for websocket flows
type WSHandler struct {
	mgr     *ws.Manager
	usecase *usecases.DeviceUseCase
	logger  *zap.SugaredLogger
}

func NewWSHandler(mgr *ws.Manager, uc *usecases.DeviceUseCase, logger *zap.SugaredLogger) *WSHandler {
	return &WSHandler{mgr: mgr, usecase: uc, logger: logger}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleDeviceWS upgrades a registered device to websocket and stores the
// recordings it pushes.
// GET /ws?id=<device_id>
func (h *WSHandler) HandleDeviceWS(c *gin.Context) {
	deviceID := c.Query("id")
	if !httpHandler.ValidUUID(deviceID) {
		_ = c.Error(httpHandler.BadRequest("id must be a valid UUID"))
		c.Abort()
		return
	}
	device, err := h.usecase.GetDevice(c.Request.Context(), deviceID)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	if device == nil {
		_ = c.Error(httpHandler.NotFound("No device found with id: " + deviceID))
		c.Abort()
		return
	}
	deviceID = device.DeviceID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "device", deviceID, "error", err)
		return
	}
	if h.mgr.IsConnected(deviceID) {
		h.logger.Infow("device reconnected, dropping previous connection", "device", deviceID)
	}
	dc := h.mgr.Register(deviceID, conn)
	h.logger.Infow("device connected", "device", deviceID)

	defer func() {
		h.mgr.Unregister(deviceID, conn)
		h.logger.Infow("device disconnected", "device", deviceID)
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugw("websocket read failed", "device", deviceID, "error", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var base incomingMessage
		if err := json.Unmarshal(message, &base); err != nil {
			h.reply(dc, deviceID, errorMessage{Type: "error", Message: "message must be valid JSON"})
			continue
		}

		switch base.Type {
		case "recording":
			h.storeRecording(c, dc, deviceID, message)
		case "heartbeat":
		default:
			h.reply(dc, deviceID, errorMessage{Type: "error", Message: "unknown message type " + base.Type})
		}
	}
}

// storeRecording answers on dc, the connection the message was read from.
func (h *WSHandler) storeRecording(c *gin.Context, dc *ws.Conn, deviceID string, message []byte) {
	var payload recordingPayload
	if err := json.Unmarshal(message, &payload); err != nil {
		h.reply(dc, deviceID, errorMessage{Type: "error", Message: "invalid recording payload"})
		return
	}

	input := httpHandler.RecordingInput{
		DeviceID:      deviceID,
		SpeakerID:     payload.SpeakerID,
		SettingsID:    payload.SettingsID,
		RecordingTime: payload.RecordingTime,
	}
	if len(payload.Data) > 0 && string(payload.Data) != "null" {
		data := string(payload.Data)
		input.Data = &data
	}

	recording, err := input.Recording()
	if err == nil {
		recording, err = h.usecase.CreateRecording(c.Request.Context(), recording)
	}
	if err != nil {
		var apiErr *httpHandler.APIError
		if errors.As(err, &apiErr) {
			h.reply(dc, deviceID, errorMessage{Type: "error", Message: apiErr.Message})
			return
		}
		h.logger.Errorw("storing pushed recording failed", "device", deviceID, "error", err)
		h.reply(dc, deviceID, errorMessage{Type: "error", Message: http.StatusText(http.StatusInternalServerError)})
		return
	}

	h.reply(dc, deviceID, ackMessage{
		Type:          "recording_ack",
		RecordingID:   recording.RecordingID,
		SettingsID:    recording.SettingsID,
		RecordingTime: recording.RecordingTime,
	})
}

func (h *WSHandler) reply(dc *ws.Conn, deviceID string, v any) {
	if err := dc.WriteJSON(v); err != nil {
		h.logger.Debugw("websocket reply failed", "device", deviceID, "error", err)
	}
}

// GetConnectedDevices GET /devices/connected
func (h *WSHandler) GetConnectedDevices(c *gin.Context) {
	devices := h.mgr.List()
	c.JSON(http.StatusOK, gin.H{"devices": devices, "count": len(devices)})
}

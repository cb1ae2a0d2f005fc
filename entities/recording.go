package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Recording is a capture produced by a device, optionally attributed to a
// speaker. SettingsID points at the settings version in force at the time.
type Recording struct {
	RecordingID   string            `json:"recordingId"`
	DeviceID      string            `json:"deviceId"`
	SpeakerID     *string           `json:"speakerId"`
	SettingsID    *string           `json:"settingsId"`
	RecordingTime time.Time         `json:"recordingTime"`
	Data          datatypes.JSONMap `json:"data"`
}

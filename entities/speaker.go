package entities

import (
	"time"

	"gorm.io/datatypes"
)

type Speaker struct {
	SpeakerID   string            `json:"speakerId"`
	DeviceID    string            `json:"deviceId"`
	CreatedDate time.Time         `json:"createdDate"`
	Data        datatypes.JSONMap `json:"data"`
}

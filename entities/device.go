package entities

import (
	"time"
)

// Device is a physical recorder. DeviceID and CreatedDate are assigned by
// the store.
type Device struct {
	DeviceID    string          `json:"deviceId"`
	Handle      string          `json:"handle"`
	Description *string         `json:"description,omitempty"`
	Location    *string         `json:"location,omitempty"`
	IPAddress   *string         `json:"ipAddress,omitempty"`
	CreatedDate time.Time       `json:"createdDate"`
	Settings    *DeviceSettings `json:"settings,omitempty"`
}

package entities

import (
	"time"

	"gorm.io/datatypes"
)

// DeviceSettings is one version of a device's configuration. Versions are
// never edited; an update stores a new one.
type DeviceSettings struct {
	SettingsID  string            `json:"settingsId"`
	DeviceID    string            `json:"deviceId"`
	CreatedDate time.Time         `json:"createdDate"`
	Properties  datatypes.JSONMap `json:"properties"`
}

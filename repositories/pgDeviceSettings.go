package repositories

import (
	"context"
	"fmt"

	"recorder-server/entities"
)

type deviceSettingsPgRepository struct {
	caller Caller
}

func NewDeviceSettingsPgRepository(caller Caller) DeviceSettingsRepository {
	return &deviceSettingsPgRepository{caller: caller}
}

func (r *deviceSettingsPgRepository) GetByID(ctx context.Context, id string) (*entities.DeviceSettings, error) {
	return queryOne(ctx, r.caller, mapSettings, procGetSettingsByID, id)
}

func (r *deviceSettingsPgRepository) GetAll(ctx context.Context) ([]entities.DeviceSettings, error) {
	return queryAll(ctx, r.caller, mapSettings, procGetSettings)
}

func (r *deviceSettingsPgRepository) GetByDeviceID(ctx context.Context, deviceID string) ([]entities.DeviceSettings, error) {
	return queryAll(ctx, r.caller, mapSettings, procGetSettingsByDevice, deviceID)
}

func (r *deviceSettingsPgRepository) GetCurrent(ctx context.Context, deviceID string) (*entities.DeviceSettings, error) {
	return queryOne(ctx, r.caller, mapSettings, procGetCurrentSettings, deviceID)
}

func (r *deviceSettingsPgRepository) Insert(ctx context.Context, settings *entities.DeviceSettings) (*entities.DeviceSettings, error) {
	properties, err := encodeJSON(settings.Properties)
	if err != nil {
		return nil, err
	}
	row, err := insert(ctx, r.caller, procInsertSettings, settings.DeviceID, properties)
	if err != nil {
		return nil, err
	}
	return assignVersion(settings, row)
}

// Update stores a new settings version for the device. The store answers
// with the new version's identity, or with nothing when the device does
// not exist.
func (r *deviceSettingsPgRepository) Update(ctx context.Context, settings *entities.DeviceSettings) (*entities.DeviceSettings, error) {
	properties, err := encodeJSON(settings.Properties)
	if err != nil {
		return nil, err
	}
	rows, err := r.caller.Call(ctx, procUpdateSettings, settings.DeviceID, properties)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", procUpdateSettings, &NotFoundError{Entity: "device", ID: settings.DeviceID})
	}
	return assignVersion(settings, rows[0])
}

func assignVersion(settings *entities.DeviceSettings, row map[string]any) (*entities.DeviceSettings, error) {
	created, err := timeColumn(row, "created_date")
	if err != nil {
		return nil, err
	}
	settings.SettingsID = stringColumn(row, "settings_id")
	settings.CreatedDate = created
	return settings, nil
}

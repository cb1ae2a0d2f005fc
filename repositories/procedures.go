package repositories

import (
	"context"
	"fmt"

	"recorder-server/db"
)

// Stored procedures the store exposes. Each is a set-returning function.
const (
	procGetDeviceByID          = "get_device_by_id"
	procGetDevices             = "get_devices"
	procGetDevicesByHandle     = "get_devices_by_handle"
	procGetDevicesByDateRange  = "get_devices_by_date_range"
	procInsertDevice           = "insert_device"
	procUpdateDevice           = "update_device"
	procDeleteDevice           = "delete_device"
	procGetSettingsByID        = "get_device_settings_by_id"
	procGetSettings            = "get_device_settings"
	procGetSettingsByDevice    = "get_device_settings_by_device"
	procGetCurrentSettings     = "get_current_device_settings"
	procInsertSettings         = "insert_device_settings"
	procUpdateSettings         = "update_device_settings"
	procGetRecordingByID       = "get_recording_by_id"
	procGetRecordings          = "get_recordings"
	procGetRecordingsByDate    = "get_recordings_by_date_range"
	procGetRecordingsByDevice  = "get_recordings_by_device"
	procGetRecordingsBySpeaker = "get_recordings_by_speaker"
	procInsertRecording        = "insert_recording"
	procUpdateRecording        = "update_recording"
	procDeleteRecording        = "delete_recording"
	procGetSpeakerByID         = "get_speaker_by_id"
	procGetSpeakers            = "get_speakers"
	procGetSpeakersByDate      = "get_speakers_by_date_range"
	procGetSpeakersByDevice    = "get_speakers_by_device"
	procInsertSpeaker          = "insert_speaker"
	procUpdateSpeaker          = "update_speaker"
	procDeleteSpeaker          = "delete_speaker"
)

func queryOne[T any](ctx context.Context, c Caller, mapper func(db.Row) (*T, error), procedure string, params ...any) (*T, error) {
	rows, err := c.Call(ctx, procedure, params...)
	if err != nil {
		return nil, err
	}
	return mapFirst(rows, mapper)
}

func queryAll[T any](ctx context.Context, c Caller, mapper func(db.Row) (*T, error), procedure string, params ...any) ([]T, error) {
	rows, err := c.Call(ctx, procedure, params...)
	if err != nil {
		return nil, err
	}
	return mapAll(rows, mapper)
}

// exec runs an update or delete procedure keyed by id and turns zero
// affected rows into a NotFoundError for entity.
func exec(ctx context.Context, c Caller, entity, procedure, id string, params ...any) error {
	rows, err := c.Call(ctx, procedure, append([]any{id}, params...)...)
	if err != nil {
		return err
	}
	n, err := affectedRows(rows)
	if err != nil {
		return fmt.Errorf("%s: %w", procedure, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", procedure, &NotFoundError{Entity: entity, ID: id})
	}
	return nil
}

// insert runs an insert procedure and returns the identity row it reports.
func insert(ctx context.Context, c Caller, procedure string, params ...any) (db.Row, error) {
	rows, err := c.Call(ctx, procedure, params...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no identity returned", procedure)
	}
	return rows[0], nil
}

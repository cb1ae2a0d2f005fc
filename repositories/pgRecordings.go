package repositories

import (
	"context"
	"time"

	"recorder-server/entities"
)

type recordingPgRepository struct {
	caller Caller
}

func NewRecordingPgRepository(caller Caller) RecordingRepository {
	return &recordingPgRepository{caller: caller}
}

func (r *recordingPgRepository) GetByID(ctx context.Context, id string) (*entities.Recording, error) {
	return queryOne(ctx, r.caller, mapRecording, procGetRecordingByID, id)
}

func (r *recordingPgRepository) GetAll(ctx context.Context) ([]entities.Recording, error) {
	return queryAll(ctx, r.caller, mapRecording, procGetRecordings)
}

func (r *recordingPgRepository) GetByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Recording, error) {
	return queryAll(ctx, r.caller, mapRecording, procGetRecordingsByDate, nullableTime(after), nullableTime(before))
}

func (r *recordingPgRepository) GetByDeviceID(ctx context.Context, deviceID string) ([]entities.Recording, error) {
	return queryAll(ctx, r.caller, mapRecording, procGetRecordingsByDevice, deviceID)
}

func (r *recordingPgRepository) GetBySpeakerID(ctx context.Context, speakerID string) ([]entities.Recording, error) {
	return queryAll(ctx, r.caller, mapRecording, procGetRecordingsBySpeaker, speakerID)
}

func (r *recordingPgRepository) Insert(ctx context.Context, recording *entities.Recording) (*entities.Recording, error) {
	data, err := encodeJSON(recording.Data)
	if err != nil {
		return nil, err
	}

	var recorded any
	if !recording.RecordingTime.IsZero() {
		recorded = recording.RecordingTime
	}

	row, err := insert(ctx, r.caller, procInsertRecording,
		recording.DeviceID,
		nullableString(recording.SpeakerID),
		nullableString(recording.SettingsID),
		recorded,
		data,
	)
	if err != nil {
		return nil, err
	}

	recordedAt, err := timeColumn(row, "recording_time")
	if err != nil {
		return nil, err
	}
	recording.RecordingID = stringColumn(row, "recording_id")
	recording.RecordingTime = recordedAt
	return recording, nil
}

func (r *recordingPgRepository) Update(ctx context.Context, recording *entities.Recording) (*entities.Recording, error) {
	data, err := encodeJSON(recording.Data)
	if err != nil {
		return nil, err
	}
	err = exec(ctx, r.caller, "recording", procUpdateRecording, recording.RecordingID,
		nullableString(recording.SpeakerID),
		data,
	)
	if err != nil {
		return nil, err
	}
	return recording, nil
}

func (r *recordingPgRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.caller, "recording", procDeleteRecording, id)
}

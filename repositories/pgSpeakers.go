package repositories

import (
	"context"
	"time"

	"recorder-server/entities"
)

type speakerPgRepository struct {
	caller Caller
}

func NewSpeakerPgRepository(caller Caller) SpeakerRepository {
	return &speakerPgRepository{caller: caller}
}

func (r *speakerPgRepository) GetByID(ctx context.Context, id string) (*entities.Speaker, error) {
	return queryOne(ctx, r.caller, mapSpeaker, procGetSpeakerByID, id)
}

func (r *speakerPgRepository) GetAll(ctx context.Context) ([]entities.Speaker, error) {
	return queryAll(ctx, r.caller, mapSpeaker, procGetSpeakers)
}

func (r *speakerPgRepository) GetByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Speaker, error) {
	return queryAll(ctx, r.caller, mapSpeaker, procGetSpeakersByDate, nullableTime(after), nullableTime(before))
}

func (r *speakerPgRepository) GetByDeviceID(ctx context.Context, deviceID string) ([]entities.Speaker, error) {
	return queryAll(ctx, r.caller, mapSpeaker, procGetSpeakersByDevice, deviceID)
}

func (r *speakerPgRepository) Insert(ctx context.Context, speaker *entities.Speaker) (*entities.Speaker, error) {
	data, err := encodeJSON(speaker.Data)
	if err != nil {
		return nil, err
	}
	row, err := insert(ctx, r.caller, procInsertSpeaker, speaker.DeviceID, data)
	if err != nil {
		return nil, err
	}

	created, err := timeColumn(row, "created_date")
	if err != nil {
		return nil, err
	}
	speaker.SpeakerID = stringColumn(row, "speaker_id")
	speaker.CreatedDate = created
	return speaker, nil
}

func (r *speakerPgRepository) Update(ctx context.Context, speaker *entities.Speaker) (*entities.Speaker, error) {
	data, err := encodeJSON(speaker.Data)
	if err != nil {
		return nil, err
	}
	if err := exec(ctx, r.caller, "speaker", procUpdateSpeaker, speaker.SpeakerID, data); err != nil {
		return nil, err
	}
	return speaker, nil
}

func (r *speakerPgRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.caller, "speaker", procDeleteSpeaker, id)
}

package usecases

import (
	"context"
	"fmt"
	"time"

	"recorder-server/entities"
	"recorder-server/repositories"

	"gorm.io/datatypes"
)

type DeviceUseCase struct {
	DeviceRepo    repositories.DeviceRepository
	SettingsRepo  repositories.DeviceSettingsRepository
	RecordingRepo repositories.RecordingRepository
	SpeakerRepo   repositories.SpeakerRepository
}

func NewDeviceUseCase(
	deviceRepo repositories.DeviceRepository,
	settingsRepo repositories.DeviceSettingsRepository,
	recordingRepo repositories.RecordingRepository,
	speakerRepo repositories.SpeakerRepository,
) *DeviceUseCase {
	return &DeviceUseCase{
		DeviceRepo:    deviceRepo,
		SettingsRepo:  settingsRepo,
		RecordingRepo: recordingRepo,
		SpeakerRepo:   speakerRepo,
	}
}

// ============= Device Use Cases =============

// CreateDevice inserts the device and, when properties were supplied, its
// first settings version.
func (uc *DeviceUseCase) CreateDevice(ctx context.Context, device *entities.Device, properties datatypes.JSONMap) (*entities.Device, error) {
	created, err := uc.DeviceRepo.Insert(ctx, device)
	if err != nil {
		return nil, err
	}
	if properties == nil {
		return created, nil
	}

	settings, err := uc.SettingsRepo.Insert(ctx, &entities.DeviceSettings{
		DeviceID:   created.DeviceID,
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("device %s created without settings: %w", created.DeviceID, err)
	}
	created.Settings = settings
	return created, nil
}

// GetDevice retrieves a device by ID, nil when it does not exist
func (uc *DeviceUseCase) GetDevice(ctx context.Context, id string) (*entities.Device, error) {
	return uc.DeviceRepo.GetByID(ctx, id)
}

func (uc *DeviceUseCase) GetAllDevices(ctx context.Context) ([]entities.Device, error) {
	return uc.DeviceRepo.GetAll(ctx)
}

func (uc *DeviceUseCase) GetDevicesByHandle(ctx context.Context, handle string) ([]entities.Device, error) {
	return uc.DeviceRepo.GetByHandle(ctx, handle)
}

func (uc *DeviceUseCase) GetDevicesByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Device, error) {
	return uc.DeviceRepo.GetByDateRange(ctx, after, before)
}

// UpdateDevice overwrites the supplied fields only
func (uc *DeviceUseCase) UpdateDevice(ctx context.Context, device *entities.Device) (*entities.Device, error) {
	return uc.DeviceRepo.Update(ctx, device)
}

func (uc *DeviceUseCase) DeleteDevice(ctx context.Context, id string) error {
	return uc.DeviceRepo.Delete(ctx, id)
}

// ============= DeviceSettings Use Cases =============

func (uc *DeviceUseCase) GetSettings(ctx context.Context, id string) (*entities.DeviceSettings, error) {
	return uc.SettingsRepo.GetByID(ctx, id)
}

func (uc *DeviceUseCase) GetAllSettings(ctx context.Context) ([]entities.DeviceSettings, error) {
	return uc.SettingsRepo.GetAll(ctx)
}

// GetSettingsHistory lists every settings version of a device, newest first
func (uc *DeviceUseCase) GetSettingsHistory(ctx context.Context, deviceID string) ([]entities.DeviceSettings, error) {
	return uc.SettingsRepo.GetByDeviceID(ctx, deviceID)
}

// UpdateDeviceSettings stores a new settings version; the newest version is
// the device's current one.
func (uc *DeviceUseCase) UpdateDeviceSettings(ctx context.Context, deviceID string, properties datatypes.JSONMap) (*entities.DeviceSettings, error) {
	return uc.SettingsRepo.Update(ctx, &entities.DeviceSettings{
		DeviceID:   deviceID,
		Properties: properties,
	})
}

// ============= Recording Use Cases =============

// CreateRecording stores a recording. Without an explicit settings version
// the device's current one is recorded, if it has any.
func (uc *DeviceUseCase) CreateRecording(ctx context.Context, recording *entities.Recording) (*entities.Recording, error) {
	if recording.SettingsID == nil {
		current, err := uc.SettingsRepo.GetCurrent(ctx, recording.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("resolving current settings: %w", err)
		}
		if current != nil {
			id := current.SettingsID
			recording.SettingsID = &id
		}
	}
	return uc.RecordingRepo.Insert(ctx, recording)
}

func (uc *DeviceUseCase) GetRecording(ctx context.Context, id string) (*entities.Recording, error) {
	return uc.RecordingRepo.GetByID(ctx, id)
}

func (uc *DeviceUseCase) GetAllRecordings(ctx context.Context) ([]entities.Recording, error) {
	return uc.RecordingRepo.GetAll(ctx)
}

func (uc *DeviceUseCase) GetRecordingsByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Recording, error) {
	return uc.RecordingRepo.GetByDateRange(ctx, after, before)
}

func (uc *DeviceUseCase) GetRecordingsByDevice(ctx context.Context, deviceID string) ([]entities.Recording, error) {
	return uc.RecordingRepo.GetByDeviceID(ctx, deviceID)
}

func (uc *DeviceUseCase) GetRecordingsBySpeaker(ctx context.Context, speakerID string) ([]entities.Recording, error) {
	return uc.RecordingRepo.GetBySpeakerID(ctx, speakerID)
}

func (uc *DeviceUseCase) UpdateRecording(ctx context.Context, recording *entities.Recording) (*entities.Recording, error) {
	return uc.RecordingRepo.Update(ctx, recording)
}

func (uc *DeviceUseCase) DeleteRecording(ctx context.Context, id string) error {
	return uc.RecordingRepo.Delete(ctx, id)
}

// ============= Speaker Use Cases =============

func (uc *DeviceUseCase) CreateSpeaker(ctx context.Context, speaker *entities.Speaker) (*entities.Speaker, error) {
	return uc.SpeakerRepo.Insert(ctx, speaker)
}

func (uc *DeviceUseCase) GetSpeaker(ctx context.Context, id string) (*entities.Speaker, error) {
	return uc.SpeakerRepo.GetByID(ctx, id)
}

func (uc *DeviceUseCase) GetAllSpeakers(ctx context.Context) ([]entities.Speaker, error) {
	return uc.SpeakerRepo.GetAll(ctx)
}

func (uc *DeviceUseCase) GetSpeakersByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Speaker, error) {
	return uc.SpeakerRepo.GetByDateRange(ctx, after, before)
}

func (uc *DeviceUseCase) GetSpeakersByDevice(ctx context.Context, deviceID string) ([]entities.Speaker, error) {
	return uc.SpeakerRepo.GetByDeviceID(ctx, deviceID)
}

func (uc *DeviceUseCase) UpdateSpeaker(ctx context.Context, speaker *entities.Speaker) (*entities.Speaker, error) {
	return uc.SpeakerRepo.Update(ctx, speaker)
}

func (uc *DeviceUseCase) DeleteSpeaker(ctx context.Context, id string) error {
	return uc.SpeakerRepo.Delete(ctx, id)
}

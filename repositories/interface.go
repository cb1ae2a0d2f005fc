package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recorder-server/db"
	"recorder-server/entities"
)

// ErrNotFound marks an update or delete that touched no row.
var ErrNotFound = errors.New("not found")

// NotFoundError names the entity an update or delete missed. It matches
// ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found with id: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Caller runs one stored procedure. *db.Gateway satisfies it.
type Caller interface {
	Call(ctx context.Context, procedure string, params ...any) ([]db.Row, error)
}

type DeviceRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	GetAll(ctx context.Context) ([]entities.Device, error)
	GetByHandle(ctx context.Context, handle string) ([]entities.Device, error)
	GetByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Device, error)
	Insert(ctx context.Context, device *entities.Device) (*entities.Device, error)
	Update(ctx context.Context, device *entities.Device) (*entities.Device, error)
	Delete(ctx context.Context, id string) error
}

type DeviceSettingsRepository interface {
	GetByID(ctx context.Context, id string) (*entities.DeviceSettings, error)
	GetAll(ctx context.Context) ([]entities.DeviceSettings, error)
	GetByDeviceID(ctx context.Context, deviceID string) ([]entities.DeviceSettings, error)
	GetCurrent(ctx context.Context, deviceID string) (*entities.DeviceSettings, error)
	Insert(ctx context.Context, settings *entities.DeviceSettings) (*entities.DeviceSettings, error)
	Update(ctx context.Context, settings *entities.DeviceSettings) (*entities.DeviceSettings, error)
}

type RecordingRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Recording, error)
	GetAll(ctx context.Context) ([]entities.Recording, error)
	GetByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Recording, error)
	GetByDeviceID(ctx context.Context, deviceID string) ([]entities.Recording, error)
	GetBySpeakerID(ctx context.Context, speakerID string) ([]entities.Recording, error)
	Insert(ctx context.Context, recording *entities.Recording) (*entities.Recording, error)
	Update(ctx context.Context, recording *entities.Recording) (*entities.Recording, error)
	Delete(ctx context.Context, id string) error
}

type SpeakerRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Speaker, error)
	GetAll(ctx context.Context) ([]entities.Speaker, error)
	GetByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Speaker, error)
	GetByDeviceID(ctx context.Context, deviceID string) ([]entities.Speaker, error)
	Insert(ctx context.Context, speaker *entities.Speaker) (*entities.Speaker, error)
	Update(ctx context.Context, speaker *entities.Speaker) (*entities.Speaker, error)
	Delete(ctx context.Context, id string) error
}

package repositories

import (
	"context"
	"time"

	"recorder-server/entities"
)

type devicePgRepository struct {
	caller Caller
}

func NewDevicePgRepository(caller Caller) DeviceRepository {
	return &devicePgRepository{caller: caller}
}

func (r *devicePgRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	return queryOne(ctx, r.caller, mapDevice, procGetDeviceByID, id)
}

func (r *devicePgRepository) GetAll(ctx context.Context) ([]entities.Device, error) {
	return queryAll(ctx, r.caller, mapDevice, procGetDevices)
}

func (r *devicePgRepository) GetByHandle(ctx context.Context, handle string) ([]entities.Device, error) {
	return queryAll(ctx, r.caller, mapDevice, procGetDevicesByHandle, handle)
}

func (r *devicePgRepository) GetByDateRange(ctx context.Context, after, before *time.Time) ([]entities.Device, error) {
	return queryAll(ctx, r.caller, mapDevice, procGetDevicesByDateRange, nullableTime(after), nullableTime(before))
}

func (r *devicePgRepository) Insert(ctx context.Context, device *entities.Device) (*entities.Device, error) {
	row, err := insert(ctx, r.caller, procInsertDevice,
		device.Handle,
		nullableString(device.Description),
		nullableString(device.Location),
		nullableString(device.IPAddress),
	)
	if err != nil {
		return nil, err
	}

	created, err := timeColumn(row, "created_date")
	if err != nil {
		return nil, err
	}
	device.DeviceID = stringColumn(row, "device_id")
	device.CreatedDate = created
	return device, nil
}

// Update overwrites the fields that are set; nil fields are left alone by
// the procedure.
func (r *devicePgRepository) Update(ctx context.Context, device *entities.Device) (*entities.Device, error) {
	var handle any
	if device.Handle != "" {
		handle = device.Handle
	}
	err := exec(ctx, r.caller, "device", procUpdateDevice, device.DeviceID,
		handle,
		nullableString(device.Description),
		nullableString(device.Location),
		nullableString(device.IPAddress),
	)
	if err != nil {
		return nil, err
	}
	return device, nil
}

func (r *devicePgRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.caller, "device", procDeleteDevice, id)
}

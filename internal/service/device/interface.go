package device

import (
	"context"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
)

type DeviceRepo interface {
	Create(ctx context.Context, d *models.Device) error
	Get(ctx context.Context, id types.DeviceID) (models.Device, error)
	ListAll(ctx context.Context) ([]models.Device, error)
	Update(ctx context.Context, id types.DeviceID, patch models.DevicePatch) (models.Device, error)
	SoftDelete(ctx context.Context, id types.DeviceID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.TrackerEvent) error
}

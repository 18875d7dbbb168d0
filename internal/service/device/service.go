// Package device manages the device registry and announces its changes.
package device

import (
	"context"
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

type Service struct {
	repo      DeviceRepo
	publisher EventPublisher
	log       logger.Logger
}

func NewService(repo DeviceRepo, publisher EventPublisher, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Create registers d, reviving a soft-deleted device with the same id.
func (s *Service) Create(ctx context.Context, d models.Device) (models.Device, error) {
	ctx = wrap.WithDeviceID(wrap.WithAction(ctx, "device_create"), d.ID.String())

	if d.Color == "" {
		d.Color = models.DefaultDeviceColor
	}

	if err := s.repo.Create(ctx, &d); err != nil {
		return models.Device{}, err
	}

	s.log.Info(ctx, "device registered", "name", d.Name)
	s.publish(ctx, types.EventDeviceCreated, d)
	return d, nil
}

func (s *Service) Get(ctx context.Context, id types.DeviceID) (models.Device, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Device, error) {
	return s.repo.ListAll(ctx)
}

// Update applies patch. An empty patch returns the current device.
func (s *Service) Update(ctx context.Context, id types.DeviceID, patch models.DevicePatch) (models.Device, error) {
	ctx = wrap.WithDeviceID(wrap.WithAction(ctx, "device_update"), id.String())

	if patch.Empty() {
		return s.repo.Get(ctx, id)
	}

	d, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return models.Device{}, err
	}

	s.publish(ctx, types.EventDeviceUpdated, d)
	return d, nil
}

// Delete soft-deletes the device. Its location history is kept.
func (s *Service) Delete(ctx context.Context, id types.DeviceID) error {
	ctx = wrap.WithDeviceID(wrap.WithAction(ctx, "device_delete"), id.String())

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.log.Info(ctx, "device deleted")
	s.publish(ctx, types.EventDeviceDeleted, models.Device{ID: id})
	return nil
}

// publish announces a registry change. Live dashboards also refresh on their
// own interval, so a lost event only delays the update.
func (s *Service) publish(ctx context.Context, typ types.TrackerEvent, d models.Device) {
	if s.publisher == nil {
		return
	}
	event := models.TrackerEvent{
		Type:       typ,
		DeviceID:   d.ID,
		Device:     &d,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn(ctx, "failed to publish device event", "type", typ.String(), "error", err.Error())
	}
}

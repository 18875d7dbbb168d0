package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

// DeviceService manages the device registry.
type DeviceService interface {
	Create(ctx context.Context, d models.Device) (models.Device, error)
	Update(ctx context.Context, id types.DeviceID, patch models.DevicePatch) (models.Device, error)
	Delete(ctx context.Context, id types.DeviceID) error
}

// ViewService builds the read views derived from location history.
type ViewService interface {
	Locations(ctx context.Context, f models.LocationFilter) (models.LocationResponse, error)
	Dashboard(ctx context.Context) models.Dashboard
	Devices(ctx context.Context) ([]models.DeviceSummary, error)
	Device(ctx context.Context, id types.DeviceID) (models.DeviceDetail, error)
	Track(ctx context.Context, id types.DeviceID, sinceHoursAgo int) (models.DeviceTrack, error)
}

type Devices struct {
	devices DeviceService
	views   ViewService
	l       logger.Logger
}

func NewDevices(devices DeviceService, views ViewService, l logger.Logger) *Devices {
	return &Devices{
		devices: devices,
		views:   views,
		l:       l,
	}
}

// List godoc
// @Summary      List devices
// @Description  Active devices ordered by name with their latest location
// @Tags         Devices
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /api/devices [get]
func (h *Devices) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_devices")

	devices, err := h.views.Devices(ctx)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to list devices", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"devices": devices, "total": len(devices)}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Create godoc
// @Summary      Register device
// @Tags         Devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.CreateDeviceRequest  true  "Device"
// @Success      201      {object}  models.Device
// @Failure      409      {object}  map[string]string
// @Failure      422      {object}  map[string]any
// @Router       /api/devices [post]
func (h *Devices) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_device")

	req := &dto.CreateDeviceRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateDevice(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	device, err := h.devices.Create(ctx, req.ToModel())
	if err != nil {
		serviceError(ctx, w, h.l, "failed to create device", err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, device, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Get godoc
// @Summary      Get device
// @Description  Device with its latest location and, when geocoding is configured, its address
// @Tags         Devices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  models.DeviceDetail
// @Failure      404  {object}  map[string]string
// @Router       /api/devices/{id} [get]
func (h *Devices) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_device")

	id, err := readDeviceID(r)
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithDeviceID(ctx, id.String())

	device, err := h.views.Device(ctx, id)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get device", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, device, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Update godoc
// @Summary      Update device
// @Tags         Devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true  "Device ID"
// @Param        request  body      models.DevicePatch  true  "Fields to change"
// @Success      200      {object}  models.Device
// @Failure      404      {object}  map[string]string
// @Router       /api/devices/{id} [patch]
func (h *Devices) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_device")

	id, err := readDeviceID(r)
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithDeviceID(ctx, id.String())

	patch := &models.DevicePatch{}
	if err := readJSON(w, r, patch); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateDevicePatch(v, patch)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	device, err := h.devices.Update(ctx, id, *patch)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to update device", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, device, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Delete godoc
// @Summary      Delete device
// @Description  Soft-deletes a device. Its location history is kept.
// @Tags         Devices
// @Security     BearerAuth
// @Param        id   path  string  true  "Device ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/devices/{id} [delete]
func (h *Devices) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_device")

	id, err := readDeviceID(r)
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithDeviceID(ctx, id.String())

	if err := h.devices.Delete(ctx, id); err != nil {
		serviceError(ctx, w, h.l, "failed to delete device", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Track godoc
// @Summary      Device track
// @Description  Time ordered history of a device with the travelled distance
// @Tags         Devices
// @Produce      json
// @Security     BearerAuth
// @Param        id              path      string  true   "Device ID"
// @Param        timeRangeHours  query     int     false  "Only points from the last N hours"
// @Success      200             {object}  models.DeviceTrack
// @Failure      404             {object}  map[string]string
// @Router       /api/devices/{id}/track [get]
func (h *Devices) Track(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "device_track")

	id, err := readDeviceID(r)
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithDeviceID(ctx, id.String())

	v := validator.New()
	hours := readInt(r.URL.Query(), "timeRangeHours", 0, v)
	v.Check(hours >= 0, "timeRangeHours", "must not be negative")
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	track, err := h.views.Track(ctx, id, hours)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get device track", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, track, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

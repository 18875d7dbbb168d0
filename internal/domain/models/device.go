package models

import (
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

const DefaultDeviceColor = "#95a5a6"

// UnknownDevice is substituted for records whose device is not registered.
var UnknownDevice = Device{
	ID:    "unknown",
	Name:  "Unknown Device",
	Color: DefaultDeviceColor,
}

type Device struct {
	ID          types.DeviceID `json:"id"`
	Name        string         `json:"name"`
	Color       string         `json:"color"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	OwnerID     *string        `json:"owner_id,omitempty"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DeviceRegistry maps device ids to their descriptors.
type DeviceRegistry map[types.DeviceID]Device

// NewDeviceRegistry indexes devices by id.
func NewDeviceRegistry(devices []Device) DeviceRegistry {
	r := make(DeviceRegistry, len(devices))
	for _, d := range devices {
		r[d.ID] = d
	}
	return r
}

// DevicePatch carries the optional fields of a device update.
type DevicePatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Icon        *string `json:"icon" validate:"omitempty,max=100"`
}

func (p DevicePatch) Empty() bool {
	return p.Name == nil && p.Color == nil && p.Description == nil && p.Icon == nil
}

// Apply copies the set fields onto d.
func (p DevicePatch) Apply(d *Device) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Color != nil {
		d.Color = *p.Color
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Icon != nil {
		d.Icon = *p.Icon
	}
}

func (d Device) Validate(v *validator.Validator) {
	v.Check(!d.ID.IsZero(), "id", "must be provided")
	v.Check(len(d.ID) <= 64, "id", "must not be more than 64 bytes long")
	v.Check(d.Name != "", "name", "must be provided")
	v.Check(len(d.Name) <= 100, "name", "must not be more than 100 bytes long")
	v.Check(validator.Matches(d.Color, validator.HexColorRX), "color", "must be a hex color like #3498db")
}

// DeviceSummary is a device with the presence data derived from its history.
type DeviceSummary struct {
	Device
	LatestLocation *PresenceSnapshot `json:"latest_location"`
	LocationCount  int               `json:"location_count"`
}

// DeviceDetail is DeviceSummary plus the reverse-geocoded address of the last fix.
type DeviceDetail struct {
	DeviceSummary
	Address string `json:"address,omitempty"`
}

// DeviceTrack is the time-ordered history of one device.
type DeviceTrack struct {
	DeviceID   types.DeviceID   `json:"device_id"`
	Points     []LocationRecord `json:"points"`
	TotalPoint int              `json:"total_points"`
	DistanceKm float64          `json:"distance_km"`
}

package models

import (
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
)

// TrackerEvent is the message published on the tracker exchange.
type TrackerEvent struct {
	Type       types.TrackerEvent `json:"type"`
	DeviceID   types.DeviceID     `json:"device_id"`
	Location   *LocationRecord    `json:"location,omitempty"`
	Device     *Device            `json:"device,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

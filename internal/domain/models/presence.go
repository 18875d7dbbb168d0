package models

import (
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
)

// PresenceSnapshot is the derived state of one device: its newest record and
// whether that record is recent enough for the device to count as online.
type PresenceSnapshot struct {
	Device       Device         `json:"device"`
	LastLocation LocationRecord `json:"last_location"`
	LastSeen     time.Time      `json:"last_seen"`
	IsOnline     bool           `json:"is_online"`
}

func (s PresenceSnapshot) Status() types.PresenceStatus {
	if s.IsOnline {
		return types.StatusOnline
	}
	return types.StatusOffline
}

// Package presence derives the latest known position of each device and
// whether the device is online from a stream of location records.
package presence

import (
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
)

// DefaultStaleAfter is the age after which a device is considered offline.
const DefaultStaleAfter = 10 * time.Minute

type group struct {
	record models.LocationRecord
	ts     time.Time
}

// Resolve returns one snapshot per device that has at least one record with a
// parseable timestamp, in the order devices first appear in records.
//
// The newest record of each device wins; of two records with the same instant
// the earlier one in records is kept. A device is online while
// now-ts < staleAfter, so a record exactly staleAfter old is offline.
// Devices missing from registry get models.UnknownDevice.
func Resolve(records []models.LocationRecord, registry models.DeviceRegistry, now time.Time, staleAfter time.Duration) []models.PresenceSnapshot {
	order := make([]types.DeviceID, 0)
	latest := make(map[types.DeviceID]group)

	for _, r := range records {
		ts, err := r.Time()
		if err != nil {
			continue
		}

		cur, seen := latest[r.DeviceID]
		if !seen {
			order = append(order, r.DeviceID)
			latest[r.DeviceID] = group{record: r, ts: ts}
			continue
		}
		if ts.After(cur.ts) {
			latest[r.DeviceID] = group{record: r, ts: ts}
		}
	}

	snapshots := make([]models.PresenceSnapshot, 0, len(order))
	for _, id := range order {
		g := latest[id]

		device, ok := registry[id]
		if !ok {
			device = models.UnknownDevice
		}

		snapshots = append(snapshots, models.PresenceSnapshot{
			Device:       device,
			LastLocation: g.record,
			LastSeen:     g.ts,
			IsOnline:     now.Sub(g.ts) < staleAfter,
		})
	}

	return snapshots
}

// Latest returns the snapshot of a single device, if it has any usable record.
func Latest(id types.DeviceID, records []models.LocationRecord, registry models.DeviceRegistry, now time.Time, staleAfter time.Duration) (models.PresenceSnapshot, bool) {
	for _, s := range Resolve(records, registry, now, staleAfter) {
		if s.LastLocation.DeviceID == id {
			return s, true
		}
	}
	return models.PresenceSnapshot{}, false
}

// CountOnline returns how many snapshots are online.
func CountOnline(snapshots []models.PresenceSnapshot) int {
	n := 0
	for _, s := range snapshots {
		if s.IsOnline {
			n++
		}
	}
	return n
}

package models

import (
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

// DefaultLocationLimit caps a location fetch when the caller gives no limit.
const (
	DefaultLocationLimit = 1000
	MaxLocationLimit     = 10000
)

// timestampLayouts are tried in order when parsing a wire timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// LocationRecord is one position report as devices and the automation webhook send it.
// Timestamp stays a wire string; use Time to get the parsed instant.
type LocationRecord struct {
	DeviceID    types.DeviceID `json:"username"`
	UserID      types.UserRef  `json:"user_id"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Timestamp   string         `json:"timestamp"`
	DisplayTime string         `json:"display_time"`
	Battery     *int           `json:"battery,omitempty"`
	Speed       *float64       `json:"speed,omitempty"` // meters per second
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	MarkerLabel string         `json:"marker_label"`
	ChatID      int64          `json:"chat_id"`
}

// Time parses the record timestamp.
func (r LocationRecord) Time() (time.Time, error) {
	return ParseTimestamp(r.Timestamp)
}

// ParseTimestamp accepts RFC 3339 and the space separated SQL layout.
// Timestamps without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, types.ErrInvalidTimestamp
}

func (r LocationRecord) Validate(v *validator.Validator) {
	v.Check(!r.DeviceID.IsZero(), "username", "must be provided")
	v.Check(len(r.DeviceID) <= 64, "username", "must not be more than 64 bytes long")
	v.Check(r.Latitude >= -90 && r.Latitude <= 90, "latitude", "must be between -90 and 90")
	v.Check(r.Longitude >= -180 && r.Longitude <= 180, "longitude", "must be between -180 and 180")
	_, err := r.Time()
	v.Check(err == nil, "timestamp", "must be an RFC 3339 timestamp")
	if r.Battery != nil {
		v.Check(*r.Battery >= 0 && *r.Battery <= 100, "battery", "must be between 0 and 100")
	}
	if r.Speed != nil {
		v.Check(*r.Speed >= 0, "speed", "must not be negative")
	}
}

// LocationFilter narrows a location fetch. Zero values mean "no constraint",
// except Limit which falls back to DefaultLocationLimit.
type LocationFilter struct {
	DeviceID      types.DeviceID
	SinceHoursAgo int
	Limit         int
}

// EffectiveLimit returns Limit bounded to [1, MaxLocationLimit].
func (f LocationFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLocationLimit
	case f.Limit > MaxLocationLimit:
		return MaxLocationLimit
	default:
		return f.Limit
	}
}

// Since returns the lower time bound of the filter, zero when unbounded.
func (f LocationFilter) Since(now time.Time) time.Time {
	if f.SinceHoursAgo <= 0 {
		return time.Time{}
	}
	return now.Add(-time.Duration(f.SinceHoursAgo) * time.Hour)
}

// Match reports whether a record passes the device and time constraints.
func (f LocationFilter) Match(r LocationRecord, now time.Time) bool {
	if !f.DeviceID.IsZero() && r.DeviceID != f.DeviceID {
		return false
	}
	since := f.Since(now)
	if since.IsZero() {
		return true
	}
	ts, err := r.Time()
	if err != nil {
		return false
	}
	return !ts.Before(since)
}

// LocationResponse is the history envelope served by GET /api/locations and
// returned by the automation webhook.
type LocationResponse struct {
	Success     bool             `json:"success"`
	Current     *LocationRecord  `json:"current"`
	History     []LocationRecord `json:"history"`
	TotalPoints int              `json:"total_points"`
	LastUpdated string           `json:"last_updated"`
}

// NewLocationResponse builds the envelope from newest-first records.
func NewLocationResponse(records []LocationRecord, now time.Time) LocationResponse {
	resp := LocationResponse{
		Success:     true,
		History:     records,
		TotalPoints: len(records),
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
	if resp.History == nil {
		resp.History = []LocationRecord{}
	}
	if len(records) > 0 {
		current := records[0]
		resp.Current = &current
		resp.LastUpdated = current.Timestamp
	}
	return resp
}

// Location is a plain coordinate pair used for geocoding and tracks.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

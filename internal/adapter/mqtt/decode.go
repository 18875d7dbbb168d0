// Package mqtt turns device messages from the broker into location records.
package mqtt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/goccy/go-json"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
)

const (
	FormatOwnTracks = "owntracks"
	FormatNMEA      = "nmea"

	knotsToMetersPerSecond = 0.514444
	displayLayout          = "02.01.2006, 15:04:05"
)

// ownTracksLocation is the OwnTracks location message. vel is in km/h.
type ownTracksLocation struct {
	Type      string   `json:"_type"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
	Timestamp int64    `json:"tst"`
	Battery   *int     `json:"batt"`
	Velocity  *float64 `json:"vel"`
	TrackerID string   `json:"tid"`
}

// DeviceFromTopic returns the second topic segment, e.g. "10" for tracker/10/location.
func DeviceFromTopic(topic string) (types.DeviceID, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: topic %q", types.ErrInvalidDeviceID, topic)
	}
	return types.ParseDeviceID(parts[1])
}

// Decode parses an OwnTracks JSON or NMEA RMC payload. It returns the record
// and the detected payload format.
func Decode(topic string, payload []byte, now time.Time) (models.LocationRecord, string, error) {
	deviceID, err := DeviceFromTopic(topic)
	if err != nil {
		return models.LocationRecord{}, "", err
	}

	trimmed := bytes.TrimSpace(payload)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		r, err := decodeOwnTracks(deviceID, trimmed, now)
		return r, FormatOwnTracks, err
	case len(trimmed) > 0 && trimmed[0] == '$':
		r, err := decodeNMEA(deviceID, string(trimmed))
		return r, FormatNMEA, err
	default:
		return models.LocationRecord{}, "unknown", types.ErrUnsupportedPayload
	}
}

func decodeOwnTracks(id types.DeviceID, payload []byte, now time.Time) (models.LocationRecord, error) {
	var msg ownTracksLocation
	if err := json.Unmarshal(payload, &msg); err != nil {
		return models.LocationRecord{}, fmt.Errorf("%w: %w", types.ErrUnsupportedPayload, err)
	}
	if msg.Type != "" && msg.Type != "location" {
		return models.LocationRecord{}, fmt.Errorf("%w: message type %q", types.ErrUnsupportedPayload, msg.Type)
	}
	if msg.Latitude == nil || msg.Longitude == nil {
		return models.LocationRecord{}, fmt.Errorf("%w: missing coordinates", types.ErrUnsupportedPayload)
	}

	ts := now.UTC()
	if msg.Timestamp > 0 {
		ts = time.Unix(msg.Timestamp, 0).UTC()
	}

	r := newRecord(id, *msg.Latitude, *msg.Longitude, ts)
	r.MarkerLabel = msg.TrackerID
	r.Battery = msg.Battery
	if msg.Velocity != nil {
		mps := *msg.Velocity / 3.6
		r.Speed = &mps
	}
	return r, nil
}

func decodeNMEA(id types.DeviceID, raw string) (models.LocationRecord, error) {
	sentence, err := nmea.Parse(raw)
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("%w: %w", types.ErrUnsupportedPayload, err)
	}

	rmc, ok := sentence.(nmea.RMC)
	if !ok {
		return models.LocationRecord{}, fmt.Errorf("%w: nmea sentence %s", types.ErrUnsupportedPayload, sentence.DataType())
	}
	if rmc.Validity != nmea.ValidRMC {
		return models.LocationRecord{}, fmt.Errorf("%w: no gps fix", types.ErrUnsupportedPayload)
	}
	if !rmc.Date.Valid || !rmc.Time.Valid {
		return models.LocationRecord{}, fmt.Errorf("%w: missing fix time", types.ErrUnsupportedPayload)
	}

	year := 2000 + rmc.Date.YY
	if rmc.Date.YY >= 80 {
		year = 1900 + rmc.Date.YY
	}
	ts := time.Date(year, time.Month(rmc.Date.MM), rmc.Date.DD,
		rmc.Time.Hour, rmc.Time.Minute, rmc.Time.Second, rmc.Time.Millisecond*int(time.Millisecond), time.UTC)

	r := newRecord(id, rmc.Latitude, rmc.Longitude, ts)
	speed := rmc.Speed * knotsToMetersPerSecond
	r.Speed = &speed
	return r, nil
}

func newRecord(id types.DeviceID, lat, lon float64, ts time.Time) models.LocationRecord {
	return models.LocationRecord{
		DeviceID:    id,
		UserID:      types.MQTTUserRef,
		Latitude:    lat,
		Longitude:   lon,
		Timestamp:   ts.Format(time.RFC3339Nano),
		DisplayTime: ts.Format(displayLayout),
	}
}

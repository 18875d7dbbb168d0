package types

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DeviceID identifies a tracked device. Devices report it either as a JSON
// string ("10") or as a number (10); both decode to the same DeviceID.
type DeviceID string

func (id DeviceID) String() string {
	return string(id)
}

func (id DeviceID) IsZero() bool {
	return id == ""
}

// ParseDeviceID trims and validates a raw identifier.
func ParseDeviceID(raw string) (DeviceID, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > 64 {
		return "", ErrInvalidDeviceID
	}
	return DeviceID(s), nil
}

func (id *DeviceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DeviceID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("device id must be a string or a number: %w", err)
	}
	canonical, err := integralNumber(n)
	if err != nil {
		return err
	}
	*id = DeviceID(canonical)
	return nil
}

// integralNumber renders 10, 10.0 and 1e1 alike as "10". Fractional and
// out of range numbers are rejected.
func integralNumber(n json.Number) (string, error) {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		return "", fmt.Errorf("%w: %s is not an integer", ErrInvalidDeviceID, n)
	}
	return strconv.FormatInt(int64(f), 10), nil
}

// UserRef is the numeric sender reference attached to webhook records.
// Zero marks records that came from MQTT devices.
type UserRef int64

const MQTTUserRef UserRef = 0

func (u *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("user reference must be an integer: %w", err)
	}
	*u = UserRef(n)
	return nil
}

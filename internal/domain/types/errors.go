package types

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrDeviceNotFound = errors.New("device not found")
	ErrDeviceExists   = errors.New("device with this id already exists")
	ErrNotFound       = errors.New("requested item not found")
	ErrLastAdmin      = errors.New("cannot remove the last admin")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
	ErrForbidden          = errors.New("action forbidden")

	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidDeviceID    = errors.New("invalid device id")
	ErrUnsupportedPayload = errors.New("unsupported payload")

	ErrDatabaseFailed      = errors.New("database operation failed")
	ErrSourceUnavailable   = errors.New("location source unavailable")
	ErrFailedToPublish     = errors.New("failed to publish event")
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")
)

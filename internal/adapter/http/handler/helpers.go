package handler

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return errors.New("failed to encode json")
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(js)

	return nil
}

// readJSON decodes a single JSON value and rejects unknown fields.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeJSON(w, r, dst, true)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, strict bool) error {
	// Limit the size of the request body to 1MB.
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("invalid unmarshal error: %w", err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readInt returns the integer query value of key or def when absent. A
// malformed value is recorded in v.
func readInt(qs url.Values, key string, def int, v *validator.Validator) int {
	s := qs.Get(key)
	if s == "" {
		return def
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return def
	}

	return i
}

func readString(qs url.Values, key string, def string) string {
	s := qs.Get(key)
	if s == "" {
		return def
	}
	return s
}

func readDeviceID(r *http.Request) (types.DeviceID, error) {
	return types.ParseDeviceID(r.PathValue("id"))
}

func readUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: must be a UUID", key)
	}
	return id, nil
}

// publicErrors are the sentinels whose text is safe to return to clients.
var publicErrors = []error{
	types.ErrUserNotFound,
	types.ErrUsernameTaken,
	types.ErrDeviceNotFound,
	types.ErrDeviceExists,
	types.ErrNotFound,
	types.ErrLastAdmin,
	types.ErrInvalidCredentials,
	types.ErrInvalidToken,
	types.ErrExpiredToken,
	types.ErrForbidden,
	types.ErrInvalidTimestamp,
	types.ErrInvalidDeviceID,
	types.ErrUnsupportedPayload,
	types.ErrSourceUnavailable,
	types.ErrGeocoderUnavailable,
}

func GetCode(err error) int {
	switch {
	case IsOneOf(err, types.ErrInvalidDeviceID):
		return http.StatusBadRequest
	case IsOneOf(err, types.ErrUserNotFound, types.ErrDeviceNotFound, types.ErrNotFound):
		return http.StatusNotFound
	case IsOneOf(err, types.ErrUsernameTaken, types.ErrDeviceExists, types.ErrLastAdmin):
		return http.StatusConflict
	case IsOneOf(err, types.ErrInvalidCredentials, types.ErrInvalidToken, types.ErrExpiredToken):
		return http.StatusUnauthorized
	case IsOneOf(err, types.ErrForbidden):
		return http.StatusForbidden
	case IsOneOf(err, types.ErrInvalidTimestamp, types.ErrUnsupportedPayload):
		return http.StatusUnprocessableEntity
	case IsOneOf(err, types.ErrSourceUnavailable, types.ErrGeocoderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage strips wrapping context from known errors.
func publicMessage(err error) string {
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "internal server error"
}

func IsOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

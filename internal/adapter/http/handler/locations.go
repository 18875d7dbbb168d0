package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

type IngestService interface {
	Record(ctx context.Context, r models.LocationRecord, source string) error
}

type Locations struct {
	views  ViewService
	ingest IngestService
	source string
	l      logger.Logger
}

// NewLocations creates the location handlers. Records posted over HTTP are
// tagged with source in metrics.
func NewLocations(views ViewService, ingest IngestService, source string, l logger.Logger) *Locations {
	return &Locations{
		views:  views,
		ingest: ingest,
		source: source,
		l:      l,
	}
}

// List godoc
// @Summary      Location history
// @Description  Newest first history in the automation webhook shape
// @Tags         Locations
// @Produce      json
// @Security     BearerAuth
// @Param        username        query     string  false  "Device ID"
// @Param        timeRangeHours  query     int     false  "Only points from the last N hours"
// @Param        limit           query     int     false  "Maximum points (default 1000, max 10000)"
// @Success      200             {object}  models.LocationResponse
// @Failure      503             {object}  map[string]string
// @Router       /api/locations [get]
func (h *Locations) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_locations")

	v := validator.New()
	qs := r.URL.Query()

	f := models.LocationFilter{
		SinceHoursAgo: readInt(qs, "timeRangeHours", 0, v),
		Limit:         readInt(qs, "limit", models.DefaultLocationLimit, v),
	}
	if raw := qs.Get("username"); raw != "" {
		id, err := types.ParseDeviceID(raw)
		v.Check(err == nil, "username", "must be a valid device id")
		f.DeviceID = id
	}
	v.Check(f.SinceHoursAgo >= 0, "timeRangeHours", "must not be negative")
	v.Check(f.Limit > 0, "limit", "must be greater than zero")
	v.Check(f.Limit <= models.MaxLocationLimit, "limit", "must not be more than 10000")

	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	resp, err := h.views.Locations(ctx, f)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to fetch locations", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Record godoc
// @Summary      Report a location
// @Description  Stores one position report. Authenticate with X-Ingest-Token or an admin bearer token.
// @Tags         Locations
// @Accept       json
// @Produce      json
// @Param        X-Ingest-Token  header    string                 false  "Shared ingest token"
// @Param        request         body      models.LocationRecord  true   "Location"
// @Success      202             {object}  map[string]any
// @Failure      422             {object}  map[string]any
// @Router       /api/locations [post]
func (h *Locations) Record(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "record_location")

	rec := &models.LocationRecord{}
	if err := decodeJSON(w, r, rec, false); err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithDeviceID(ctx, rec.DeviceID.String())

	if err := h.ingest.Record(ctx, *rec, h.source); err != nil {
		serviceError(ctx, w, h.l, "failed to record location", err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, envelope{"success": true, "device_id": rec.DeviceID}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

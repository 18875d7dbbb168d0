package admin

import (
	"context"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
)

type LocationSource interface {
	Fetch(ctx context.Context, f models.LocationFilter) ([]models.LocationRecord, error)
}

type DeviceRegistry interface {
	Lookup(ctx context.Context, id types.DeviceID) (models.Device, bool, error)
	ListAll(ctx context.Context) ([]models.Device, error)
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

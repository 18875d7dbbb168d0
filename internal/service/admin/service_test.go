package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
)

type fakeSource struct {
	records []models.LocationRecord
	err     error
	last    models.LocationFilter
}

func (f *fakeSource) Fetch(_ context.Context, filter models.LocationFilter) ([]models.LocationRecord, error) {
	f.last = filter
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.LocationRecord, 0, len(f.records))
	for _, r := range f.records {
		if filter.DeviceID.IsZero() || r.DeviceID == filter.DeviceID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeRegistry struct {
	devices []models.Device
	err     error
}

func (f *fakeRegistry) Lookup(_ context.Context, id types.DeviceID) (models.Device, bool, error) {
	if f.err != nil {
		return models.Device{}, false, f.err
	}
	for _, d := range f.devices {
		if d.ID == id {
			return d, true, nil
		}
	}
	return models.Device{}, false, nil
}

func (f *fakeRegistry) ListAll(context.Context) ([]models.Device, error) {
	return f.devices, f.err
}

type fakeGeocoder struct {
	addr string
	err  error
}

func (f fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return f.addr, f.err
}

var now = time.Date(2024, 3, 15, 10, 20, 0, 0, time.UTC)

func speed(v float64) *float64 { return &v }

func testRecords() []models.LocationRecord {
	return []models.LocationRecord{
		{DeviceID: "10", Latitude: 52.50000, Longitude: 13.40000, Timestamp: "2024-03-15T10:00:00Z"},
		{DeviceID: "11", Latitude: 48.13700, Longitude: 11.57500, Timestamp: "2024-03-15T09:00:00Z"},
		{DeviceID: "10", Latitude: 52.51000, Longitude: 13.40000, Timestamp: "2024-03-15T10:15:00Z", Speed: speed(10)},
	}
}

func testDevices() []models.Device {
	return []models.Device{
		{ID: "11", Name: "Huawei Smartphone", Color: "#3498db"},
		{ID: "10", Name: "Joachim Pixel", Color: "#e74c3c"},
		{ID: "12", Name: "Spare", Color: "#95a5a6"},
	}
}

func newTestService(src LocationSource, reg DeviceRegistry, geo Geocoder) *Service {
	s := NewService(src, reg, geo, 10*time.Minute, "test", logger.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestDashboard(t *testing.T) {
	s := newTestService(&fakeSource{records: testRecords()}, &fakeRegistry{devices: testDevices()}, nil)

	d := s.Dashboard(context.Background())
	assert.False(t, d.Degraded)
	assert.Equal(t, 3, d.Stats.TotalDevices)
	assert.Equal(t, 1, d.Stats.OnlineDevices)
	assert.Equal(t, 3, d.Stats.TotalPoints)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 15, 0, 0, time.UTC), d.Stats.LastUpdated)

	require.Len(t, d.Devices, 2)
	first := d.Devices[0]
	assert.Equal(t, "Joachim Pixel", first.Device.Name)
	assert.Equal(t, "Online", first.Status)
	assert.Equal(t, "36.0 km/h", first.SpeedDisplay)
	assert.Equal(t, "52.51000, 13.40000", first.CoordinatesDisplay)

	assert.Equal(t, "Offline", d.Devices[1].Status)
	assert.Empty(t, d.Devices[1].SpeedDisplay)
}

func TestDashboard_SourceFailureIsDegraded(t *testing.T) {
	s := newTestService(&fakeSource{err: types.ErrSourceUnavailable}, &fakeRegistry{devices: testDevices()}, nil)

	d := s.Dashboard(context.Background())
	assert.True(t, d.Degraded)
	assert.NotNil(t, d.Devices)
	assert.Empty(t, d.Devices)
	assert.Equal(t, 3, d.Stats.TotalDevices)
	assert.Zero(t, d.Stats.TotalPoints)
	assert.Equal(t, now, d.Stats.LastUpdated)
}

func TestDashboard_EmptyCacheReportsCurrentTime(t *testing.T) {
	s := newTestService(&fakeSource{}, &fakeRegistry{devices: testDevices()}, nil)

	d := s.Dashboard(context.Background())
	assert.False(t, d.Degraded)
	assert.Empty(t, d.Devices)
	assert.Equal(t, now, d.Stats.LastUpdated)
	assert.False(t, d.Stats.LastUpdated.IsZero())
}

func TestDashboard_RegistryFailureFallsBackToUnknown(t *testing.T) {
	s := newTestService(&fakeSource{records: testRecords()}, &fakeRegistry{err: errors.New("db down")}, nil)

	d := s.Dashboard(context.Background())
	assert.True(t, d.Degraded)
	require.Len(t, d.Devices, 2)
	assert.Equal(t, models.UnknownDevice, d.Devices[0].Device)
}

func TestLocations_NewestFirstAndLimit(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	s := newTestService(src, &fakeRegistry{}, nil)

	resp, err := s.Locations(context.Background(), models.LocationFilter{Limit: 2})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalPoints)
	require.NotNil(t, resp.Current)
	assert.Equal(t, "2024-03-15T10:15:00Z", resp.Current.Timestamp)
	assert.Equal(t, "2024-03-15T10:15:00Z", resp.LastUpdated)
	assert.Equal(t, "2024-03-15T10:00:00Z", resp.History[1].Timestamp)
}

func TestLocations_Empty(t *testing.T) {
	s := newTestService(&fakeSource{}, &fakeRegistry{}, nil)

	resp, err := s.Locations(context.Background(), models.LocationFilter{})
	require.NoError(t, err)
	assert.Nil(t, resp.Current)
	assert.NotNil(t, resp.History)
	assert.Equal(t, now.Format(time.RFC3339), resp.LastUpdated)
}

func TestLocations_SourceError(t *testing.T) {
	s := newTestService(&fakeSource{err: types.ErrSourceUnavailable}, &fakeRegistry{}, nil)

	_, err := s.Locations(context.Background(), models.LocationFilter{})
	assert.ErrorIs(t, err, types.ErrSourceUnavailable)
}

func TestDevices(t *testing.T) {
	s := newTestService(&fakeSource{records: testRecords()}, &fakeRegistry{devices: testDevices()}, nil)

	list, err := s.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)

	byID := map[types.DeviceID]models.DeviceSummary{}
	for _, d := range list {
		byID[d.ID] = d
	}
	assert.Equal(t, 2, byID["10"].LocationCount)
	require.NotNil(t, byID["10"].LatestLocation)
	assert.Equal(t, "2024-03-15T10:15:00Z", byID["10"].LatestLocation.LastLocation.Timestamp)
	assert.Nil(t, byID["12"].LatestLocation)
	assert.Zero(t, byID["12"].LocationCount)
}

func TestDevice_WithAddress(t *testing.T) {
	s := newTestService(&fakeSource{records: testRecords()}, &fakeRegistry{devices: testDevices()}, fakeGeocoder{addr: "Berlin"})

	d, err := s.Device(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", d.Address)
	assert.Equal(t, 2, d.LocationCount)
	require.NotNil(t, d.LatestLocation)
	assert.True(t, d.LatestLocation.IsOnline)
}

func TestDevice_GeocoderFailureKeepsDetail(t *testing.T) {
	s := newTestService(&fakeSource{records: testRecords()}, &fakeRegistry{devices: testDevices()}, fakeGeocoder{err: types.ErrGeocoderUnavailable})

	d, err := s.Device(context.Background(), "10")
	require.NoError(t, err)
	assert.Empty(t, d.Address)
	assert.NotNil(t, d.LatestLocation)
}

func TestDevice_NotFound(t *testing.T) {
	s := newTestService(&fakeSource{}, &fakeRegistry{devices: testDevices()}, nil)

	_, err := s.Device(context.Background(), "99")
	assert.ErrorIs(t, err, types.ErrDeviceNotFound)
}

func TestTrack(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	s := newTestService(src, &fakeRegistry{devices: testDevices()}, nil)

	track, err := s.Track(context.Background(), "10", 24)
	require.NoError(t, err)
	assert.Equal(t, 24, src.last.SinceHoursAgo)
	assert.Equal(t, models.MaxLocationLimit, src.last.Limit)
	require.Len(t, track.Points, 2)
	assert.Equal(t, "2024-03-15T10:00:00Z", track.Points[0].Timestamp)
	assert.InDelta(t, 1.112, track.DistanceKm, 0.001)
}

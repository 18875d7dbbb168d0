// Package admin builds the read views of the admin panel: the dashboard,
// device summaries and tracks, all derived from the location source.
package admin

import (
	"context"
	"slices"
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/internal/service/presence"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/metrics"
)

type Service struct {
	source     LocationSource
	registry   DeviceRegistry
	geocoder   Geocoder
	staleAfter time.Duration
	now        func() time.Time

	serviceName string
	l           logger.Logger
}

// NewService creates the view service. geocoder may be nil.
func NewService(source LocationSource, registry DeviceRegistry, geocoder Geocoder, staleAfter time.Duration, serviceName string, l logger.Logger) *Service {
	if staleAfter <= 0 {
		staleAfter = presence.DefaultStaleAfter
	}
	return &Service{
		source:      source,
		registry:    registry,
		geocoder:    geocoder,
		staleAfter:  staleAfter,
		now:         time.Now,
		serviceName: serviceName,
		l:           l,
	}
}

// Locations returns the history envelope of GET /api/locations, newest first.
func (s *Service) Locations(ctx context.Context, f models.LocationFilter) (models.LocationResponse, error) {
	records, err := s.source.Fetch(ctx, f)
	if err != nil {
		return models.LocationResponse{}, err
	}

	records = newestFirst(records)
	if limit := f.EffectiveLimit(); len(records) > limit {
		records = records[:limit]
	}

	return models.NewLocationResponse(records, s.now()), nil
}

// Dashboard resolves every device seen in the default window. A failing
// source or registry yields an empty, degraded dashboard instead of an error.
func (s *Service) Dashboard(ctx context.Context) models.Dashboard {
	ctx = wrap.WithAction(ctx, "build_dashboard")
	now := s.now()

	records, degraded := s.fetch(ctx, models.LocationFilter{})

	devices, err := s.registry.ListAll(ctx)
	if err != nil {
		s.l.Error(ctx, "failed to list devices", err)
		degraded = true
	}

	snapshots := presence.Resolve(records, models.NewDeviceRegistry(devices), now, s.staleAfter)
	online := presence.CountOnline(snapshots)
	metrics.RecordPresence(s.serviceName, len(snapshots), online)

	cards := make([]models.DashboardCard, 0, len(snapshots))
	var lastUpdated time.Time
	for _, snap := range snapshots {
		cards = append(cards, NewDashboardCard(snap))
		if snap.LastSeen.After(lastUpdated) {
			lastUpdated = snap.LastSeen
		}
	}
	if lastUpdated.IsZero() {
		lastUpdated = now.UTC()
	}

	return models.Dashboard{
		Timestamp: now.UTC(),
		Stats: models.DashboardStats{
			TotalDevices:  len(devices),
			OnlineDevices: online,
			TotalPoints:   len(records),
			LastUpdated:   lastUpdated,
		},
		Devices:  cards,
		Degraded: degraded,
	}
}

// NewDashboardCard adds the display fields to a snapshot.
func NewDashboardCard(snap models.PresenceSnapshot) models.DashboardCard {
	card := models.DashboardCard{
		PresenceSnapshot:   snap,
		Status:             string(snap.Status()),
		CoordinatesDisplay: presence.FormatCoordinates(snap.LastLocation.Latitude, snap.LastLocation.Longitude),
	}
	if snap.LastLocation.Speed != nil {
		card.SpeedDisplay = presence.FormatSpeed(*snap.LastLocation.Speed)
	}
	return card
}

// Devices lists registered devices with their latest location and the number
// of records in the default window.
func (s *Service) Devices(ctx context.Context) ([]models.DeviceSummary, error) {
	devices, err := s.registry.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	records, _ := s.fetch(ctx, models.LocationFilter{})
	registry := models.NewDeviceRegistry(devices)
	snapshots := presence.Resolve(records, registry, s.now(), s.staleAfter)

	latest := make(map[types.DeviceID]models.PresenceSnapshot, len(snapshots))
	for _, snap := range snapshots {
		latest[snap.LastLocation.DeviceID] = snap
	}
	counts := make(map[types.DeviceID]int)
	for _, r := range records {
		counts[r.DeviceID]++
	}

	summaries := make([]models.DeviceSummary, 0, len(devices))
	for _, d := range devices {
		summary := models.DeviceSummary{Device: d, LocationCount: counts[d.ID]}
		if snap, ok := latest[d.ID]; ok {
			summary.LatestLocation = &snap
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Device returns one device with its latest location and, when a geocoder is
// configured, the address of that location.
func (s *Service) Device(ctx context.Context, id types.DeviceID) (models.DeviceDetail, error) {
	ctx = wrap.WithDeviceID(ctx, id.String())

	d, ok, err := s.registry.Lookup(ctx, id)
	if err != nil {
		return models.DeviceDetail{}, err
	}
	if !ok {
		return models.DeviceDetail{}, types.ErrDeviceNotFound
	}

	records, _ := s.fetch(ctx, models.LocationFilter{DeviceID: id})
	detail := models.DeviceDetail{
		DeviceSummary: models.DeviceSummary{Device: d, LocationCount: len(records)},
	}

	registry := models.DeviceRegistry{d.ID: d}
	snap, found := presence.Latest(id, records, registry, s.now(), s.staleAfter)
	if !found {
		return detail, nil
	}
	detail.LatestLocation = &snap

	if s.geocoder != nil {
		addr, err := s.geocoder.ReverseGeocode(ctx, snap.LastLocation.Latitude, snap.LastLocation.Longitude)
		if err != nil {
			s.l.Warn(ctx, "reverse geocoding failed", "error", err.Error())
		} else {
			detail.Address = addr
		}
	}

	return detail, nil
}

// Track returns the device history in time order with its travelled distance.
func (s *Service) Track(ctx context.Context, id types.DeviceID, sinceHoursAgo int) (models.DeviceTrack, error) {
	if _, ok, err := s.registry.Lookup(ctx, id); err != nil {
		return models.DeviceTrack{}, err
	} else if !ok {
		return models.DeviceTrack{}, types.ErrDeviceNotFound
	}

	records, err := s.source.Fetch(ctx, models.LocationFilter{
		DeviceID:      id,
		SinceHoursAgo: sinceHoursAgo,
		Limit:         models.MaxLocationLimit,
	})
	if err != nil {
		return models.DeviceTrack{}, err
	}

	points := oldestFirst(records)
	return models.DeviceTrack{
		DeviceID:   id,
		Points:     points,
		TotalPoint: len(points),
		DistanceKm: TrackDistance(points),
	}, nil
}

// fetch reads the source and reports failure as degraded.
func (s *Service) fetch(ctx context.Context, f models.LocationFilter) ([]models.LocationRecord, bool) {
	records, err := s.source.Fetch(ctx, f)
	if err != nil {
		s.l.Warn(ctx, "location source unavailable, using empty history", "error", err.Error())
		return []models.LocationRecord{}, true
	}
	return records, false
}

type timedRecord struct {
	r  models.LocationRecord
	ts time.Time
}

// oldestFirst sorts by parsed timestamp and drops unparseable records.
func oldestFirst(records []models.LocationRecord) []models.LocationRecord {
	return sortByTime(records, func(a, b time.Time) int { return a.Compare(b) })
}

// newestFirst keeps the source order of records with equal timestamps.
func newestFirst(records []models.LocationRecord) []models.LocationRecord {
	return sortByTime(records, func(a, b time.Time) int { return b.Compare(a) })
}

func sortByTime(records []models.LocationRecord, cmp func(a, b time.Time) int) []models.LocationRecord {
	timed := make([]timedRecord, 0, len(records))
	for _, r := range records {
		ts, err := r.Time()
		if err != nil {
			continue
		}
		timed = append(timed, timedRecord{r: r, ts: ts})
	}
	slices.SortStableFunc(timed, func(a, b timedRecord) int {
		return cmp(a.ts, b.ts)
	})

	out := make([]models.LocationRecord, len(timed))
	for i, t := range timed {
		out[i] = t.r
	}
	return out
}

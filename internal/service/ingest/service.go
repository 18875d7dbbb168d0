// Package ingest stores incoming location records in the local cache and
// announces them to the admin service.
package ingest

import (
	"context"
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/metrics"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

// Ingestion sources, used as metric labels.
const (
	SourceMQTT = "mqtt"
	SourceHTTP = "http"
)

type Service struct {
	cache       LocationCache
	publisher   EventPublisher
	now         func() time.Time
	serviceName string
	log         logger.Logger
}

func NewService(cache LocationCache, publisher EventPublisher, serviceName string, log logger.Logger) *Service {
	return &Service{
		cache:       cache,
		publisher:   publisher,
		now:         time.Now,
		serviceName: serviceName,
		log:         log,
	}
}

// Record validates r, stores it and publishes a location event. Records of
// MQTT devices always carry user id 0.
func (s *Service) Record(ctx context.Context, r models.LocationRecord, source string) (err error) {
	ctx = wrap.WithDeviceID(ctx, r.DeviceID.String())
	defer func() {
		metrics.RecordLocationIngested(s.serviceName, source, err)
	}()

	v := validator.New()
	r.Validate(v)
	if err := v.Err(); err != nil {
		return err
	}

	r.UserID = types.MQTTUserRef
	if r.DisplayTime == "" {
		if ts, err := r.Time(); err == nil {
			r.DisplayTime = ts.Local().Format("02.01.2006, 15:04:05")
		}
	}

	if err := s.cache.Save(ctx, r); err != nil {
		return err
	}

	if s.publisher != nil {
		event := models.TrackerEvent{
			Type:       types.EventLocationRecorded,
			DeviceID:   r.DeviceID,
			Location:   &r,
			OccurredAt: s.now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn(ctx, "failed to publish location event", "error", err.Error())
		}
	}

	s.log.Debug(ctx, "location recorded", "source", source, "timestamp", r.Timestamp)
	return nil
}

// Prune deletes cached records older than retention.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	ctx = wrap.WithAction(ctx, types.ActionCachePruned)

	n, err := s.cache.Prune(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.CachePrunedTotal.WithLabelValues(s.serviceName).Add(float64(n))
		s.log.Info(ctx, "pruned location cache", "deleted", n, "retention", retention.String())
	}
	return n, nil
}

// RunPruner prunes on every tick until ctx is done.
func (s *Service) RunPruner(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Prune(ctx, retention); err != nil {
			s.log.Error(ctx, "failed to prune location cache", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

package ingest

import (
	"context"
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
)

type LocationCache interface {
	Save(ctx context.Context, r models.LocationRecord) error
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.TrackerEvent) error
}

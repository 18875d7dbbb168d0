// Package webhook reads location history from the external automation webhook.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/metrics"
)

const (
	breakerName = "location-webhook"
	cacheKey    = "tracker:webhook:history"
	maxBodySize = 32 << 20
)

// Cache stores the raw webhook body between polls. *redis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

type Config struct {
	URL      string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Source fetches location history from the webhook. Only MQTT device records
// (user_id 0) are kept; the filter is applied client-side because the webhook
// always returns the full history.
type Source struct {
	url      string
	cacheTTL time.Duration
	client   *http.Client
	cache    Cache
	cb       *gobreaker.CircuitBreaker[[]byte]
	now      func() time.Time

	serviceName string
	log         logger.Logger
}

// New creates a webhook source. cache may be nil.
func New(cfg Config, cache Cache, serviceName string, log logger.Logger) *Source {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := &Source{
		url:         cfg.URL,
		cacheTTL:    cfg.CacheTTL,
		client:      &http.Client{Timeout: timeout},
		cache:       cache,
		now:         time.Now,
		serviceName: serviceName,
		log:         log,
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	s.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := wrap.WithAction(context.Background(), types.ActionBreakerStateFlip)
			log.Warn(ctx, "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return s
}

// Fetch returns the records matching f newest first, capped at the filter
// limit. Records with equal timestamps keep their webhook order and records
// with unparseable timestamps sort last.
func (s *Source) Fetch(ctx context.Context, f models.LocationFilter) ([]models.LocationRecord, error) {
	ctx = wrap.WithAction(ctx, types.ActionSourceFetch)

	body, err := s.history(ctx)
	if err != nil {
		return nil, err
	}

	var resp models.LocationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("webhook: decode response: %w", err))
	}

	now := s.now()
	out := make([]models.LocationRecord, 0, len(resp.History))
	for _, r := range resp.History {
		if r.UserID != types.MQTTUserRef || !f.Match(r, now) {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b models.LocationRecord) int {
		ta, errA := a.Time()
		tb, errB := b.Time()
		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		return tb.Compare(ta)
	})

	if limit := f.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// history returns the raw body, from the cache when fresh.
func (s *Source) history(ctx context.Context) ([]byte, error) {
	if s.cache != nil && s.cacheTTL > 0 {
		body, err := s.cache.Get(ctx, cacheKey).Bytes()
		switch {
		case err == nil:
			metrics.RecordWebhookFetch(s.serviceName, "hit")
			return body, nil
		case !errors.Is(err, goredis.Nil):
			s.log.Warn(ctx, "webhook cache read failed", "error", err.Error())
		}
	}

	body, err := s.cb.Execute(func() ([]byte, error) {
		return s.request(ctx)
	})
	if err != nil {
		result := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.RecordWebhookFetch(s.serviceName, result)
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err))
	}
	metrics.RecordWebhookFetch(s.serviceName, "miss")

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, cacheKey, body, s.cacheTTL).Err(); err != nil {
			s.log.Warn(ctx, "webhook cache write failed", "error", err.Error())
		}
	}

	return body, nil
}

func (s *Source) request(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

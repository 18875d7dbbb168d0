// Package locationIQ resolves coordinates to street addresses.
package locationIQ

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

const (
	DefaultBaseURL = "https://us1.locationiq.com"

	addressTTL = 24 * time.Hour
)

var ErrLocationNotFound = errors.New("location not found")

// Cache keeps resolved addresses. *redis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cache   Cache
}

// New returns a reverse geocoder. cache may be nil.
func New(apiKey string, cache Cache) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		cache:   cache,
	}
}

// WithBaseURL points the client at another LocationIQ compatible endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

type addressPayload struct {
	Address string `json:"display_name"`
}

// ReverseGeocode returns the display address of a position. Results are
// cached per position rounded to five decimals.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	const op = "locationIQ.ReverseGeocode"

	key := cacheKey(lat, lon)
	if c.cache != nil {
		if addr, err := c.cache.Get(ctx, key).Result(); err == nil {
			return addr, nil
		}
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w: %w", op, types.ErrGeocoderUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrLocationNotFound
	case resp.StatusCode != http.StatusOK:
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: %w: status %d", op, types.ErrGeocoderUnavailable, resp.StatusCode))
	}

	var payload addressPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: decode: %w", op, err))
	}
	if payload.Address == "" {
		return "", ErrLocationNotFound
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, key, payload.Address, addressTTL).Err()
	}

	return payload.Address, nil
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("tracker:geocode:%.5f,%.5f", lat, lon)
}

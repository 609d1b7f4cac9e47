package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"export-tracking-service/tracking/geo"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const searchKeyPrefix = "geocode:search:"

// CachedGeocoder keeps forward geocoding results in Redis. Place names move
// rarely, coordinates from devices never repeat, so only Search is cached.
// Cache errors are logged and the lookup goes to the wrapped geocoder.
type CachedGeocoder struct {
	next   Geocoder
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedGeocoder(next Geocoder, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, client: client, ttl: ttl, logger: logger}
}

func (g *CachedGeocoder) Search(ctx context.Context, query string) (geo.Coordinates, error) {
	key := searchKeyPrefix + strings.ToLower(strings.TrimSpace(query))

	raw, err := g.client.Get(ctx, key).Bytes()
	if err == nil {
		var c geo.Coordinates
		if err := json.Unmarshal(raw, &c); err == nil {
			return c, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		g.logger.Warn("Geocode cache read failed", zap.String("query", query), zap.Error(err))
	}

	c, err := g.next.Search(ctx, query)
	if err != nil {
		return c, err
	}

	if raw, err := json.Marshal(c); err == nil {
		if err := g.client.Set(ctx, key, raw, g.ttl).Err(); err != nil {
			g.logger.Warn("Geocode cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return c, nil
}

func (g *CachedGeocoder) Reverse(ctx context.Context, at geo.Coordinates) (Address, error) {
	return g.next.Reverse(ctx, at)
}

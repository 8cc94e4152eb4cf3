// internal/services/geocoding_service.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/config"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves a free-form address. Every failure wraps ErrGeocodingDegraded.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

type GeocodeCache interface {
	Get(ctx context.Context, address string) (*Coordinates, bool, error)
	Set(ctx context.Context, address string, coords Coordinates) error
}

// PositionstackGeocoder calls the positionstack forward geocoding endpoint.
type PositionstackGeocoder struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cache   GeocodeCache
}

func NewPositionstackGeocoder(cfg config.GeocodingConfig, cache GeocodeCache) *PositionstackGeocoder {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &PositionstackGeocoder{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		cache:   cache,
	}
}

type positionstackResponse struct {
	Data []json.RawMessage `json:"data"`
}

type positionstackResult struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (g *PositionstackGeocoder) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	if g.cache != nil {
		coords, ok, err := g.cache.Get(ctx, address)
		if err != nil {
			logrus.WithError(err).Warn("Geocode cache read failed")
		} else if ok {
			return coords, nil
		}
	}

	coords, err := g.lookup(ctx, address)
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, address, *coords); err != nil {
			logrus.WithError(err).Warn("Geocode cache write failed")
		}
	}

	return coords, nil
}

func (g *PositionstackGeocoder) lookup(ctx context.Context, address string) (*Coordinates, error) {
	params := url.Values{}
	params.Set("access_key", g.apiKey)
	params.Set("query", address)
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeocodingDegraded, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeocodingDegraded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: unexpected status %d", ErrGeocodingDegraded, resp.StatusCode)
	}

	var body positionstackResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrGeocodingDegraded, err)
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("%w: no results", ErrGeocodingDegraded)
	}

	// An empty match comes back as a nested empty array rather than an object.
	var result positionstackResult
	if err := json.Unmarshal(body.Data[0], &result); err != nil {
		return nil, fmt.Errorf("%w: no usable result: %v", ErrGeocodingDegraded, err)
	}
	if result.Latitude == nil || result.Longitude == nil {
		return nil, fmt.Errorf("%w: result has no coordinates", ErrGeocodingDegraded)
	}

	return &Coordinates{Latitude: *result.Latitude, Longitude: *result.Longitude}, nil
}

// RedisGeocodeCache stores successful lookups keyed by a hash of the normalized address.
type RedisGeocodeCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisGeocodeCache(client redis.Cmdable, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{client: client, ttl: ttl}
}

func geocodeCacheKey(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return "geocode:" + hex.EncodeToString(sum[:])
}

func (c *RedisGeocodeCache) Get(ctx context.Context, address string) (*Coordinates, bool, error) {
	raw, err := c.client.Get(ctx, geocodeCacheKey(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var coords Coordinates
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil, false, fmt.Errorf("decode cached coordinates: %w", err)
	}
	return &coords, true, nil
}

func (c *RedisGeocodeCache) Set(ctx context.Context, address string, coords Coordinates) error {
	raw, err := json.Marshal(coords)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, geocodeCacheKey(address), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

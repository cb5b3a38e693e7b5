package geo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type cacheEntry struct {
	coords    Coordinates
	fetchedAt time.Time
}

// Cache memoizes geocode lookups for a TTL. It is process-local by
// design: coordinates are an enrichment, and a cold cache only costs
// one upstream call per location.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	geocoder Geocoder
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewCache(geocoder Geocoder, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		entries:  make(map[string]cacheEntry),
		geocoder: geocoder,
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Lookup returns coordinates for a free-text location, consulting the
// cache first. Upstream failure is swallowed: the caller gets nil
// coordinates and the primary operation proceeds without them.
func (c *Cache) Lookup(ctx context.Context, location string) *Coordinates {
	key := normalize(location)
	if key == "" {
		return nil
	}

	if coords, ok := c.fresh(key); ok {
		return &coords
	}

	coords, err := c.geocoder.Geocode(ctx, location)
	if err != nil {
		c.log.Warn().Err(err).Str("location", location).Msg("geocode lookup failed")
		return nil
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{coords: coords, fetchedAt: c.now()}
	c.mu.Unlock()

	return &coords
}

// Cleanup removes entries older than the TTL and reports how many.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl)
	removed := 0
	for key, entry := range c.entries {
		if entry.fetchedAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) fresh(key string) (Coordinates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.fetchedAt) > c.ttl {
		return Coordinates{}, false
	}
	return entry.coords, true
}

func normalize(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

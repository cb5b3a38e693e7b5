package geo

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playaway/internal/apperr"
)

type fakeGeocoder struct {
	calls  int
	coords Coordinates
	err    error
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (Coordinates, error) {
	f.calls++
	if f.err != nil {
		return Coordinates{}, f.err
	}
	return f.coords, nil
}

func newTestCache(geocoder Geocoder, ttl time.Duration) (*Cache, *time.Time) {
	cache := NewCache(geocoder, ttl, zerolog.Nop())
	now := time.Now()
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestLookupCachesWithinTTL(t *testing.T) {
	fake := &fakeGeocoder{coords: Coordinates{Latitude: 53.27, Longitude: -9.05}}
	cache, _ := newTestCache(fake, time.Hour)

	first := cache.Lookup(context.Background(), "Galway")
	require.NotNil(t, first)
	assert.Equal(t, 53.27, first.Latitude)

	second := cache.Lookup(context.Background(), "Galway")
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, fake.calls)
}

func TestLookupKeyIsCaseAndSpaceInsensitive(t *testing.T) {
	fake := &fakeGeocoder{coords: Coordinates{Latitude: 52.66, Longitude: -8.62}}
	cache, _ := newTestCache(fake, time.Hour)

	require.NotNil(t, cache.Lookup(context.Background(), "Limerick"))
	require.NotNil(t, cache.Lookup(context.Background(), "  limerick "))
	assert.Equal(t, 1, fake.calls)
}

func TestLookupRefetchesAfterTTL(t *testing.T) {
	fake := &fakeGeocoder{coords: Coordinates{Latitude: 51.9, Longitude: -8.47}}
	cache, now := newTestCache(fake, time.Hour)

	require.NotNil(t, cache.Lookup(context.Background(), "Cork"))
	*now = now.Add(2 * time.Hour)
	require.NotNil(t, cache.Lookup(context.Background(), "Cork"))
	assert.Equal(t, 2, fake.calls)
}

func TestLookupUpstreamFailureReturnsNil(t *testing.T) {
	fake := &fakeGeocoder{err: apperr.New(apperr.KindUpstreamUnavailable, "geocoder unreachable")}
	cache, _ := newTestCache(fake, time.Hour)

	assert.Nil(t, cache.Lookup(context.Background(), "Sligo"))

	// failures are not cached; the next call retries upstream
	assert.Nil(t, cache.Lookup(context.Background(), "Sligo"))
	assert.Equal(t, 2, fake.calls)
}

func TestLookupEmptyLocation(t *testing.T) {
	fake := &fakeGeocoder{coords: Coordinates{Latitude: 1, Longitude: 1}}
	cache, _ := newTestCache(fake, time.Hour)

	assert.Nil(t, cache.Lookup(context.Background(), "   "))
	assert.Equal(t, 0, fake.calls)
}

func TestCleanup(t *testing.T) {
	fake := &fakeGeocoder{coords: Coordinates{Latitude: 1, Longitude: 1}}
	cache, now := newTestCache(fake, time.Hour)

	require.NotNil(t, cache.Lookup(context.Background(), "Dublin"))
	*now = now.Add(30 * time.Minute)
	require.NotNil(t, cache.Lookup(context.Background(), "Belfast"))

	// Dublin is 90 minutes old, Belfast 60 exactly; only Dublin goes.
	*now = now.Add(time.Hour)
	assert.Equal(t, 1, cache.Cleanup())
	assert.Equal(t, 0, cache.Cleanup())

	// Belfast entry survived but is now stale for lookups once past TTL
	*now = now.Add(time.Minute)
	require.NotNil(t, cache.Lookup(context.Background(), "Belfast"))
	assert.Equal(t, 3, fake.calls)
}

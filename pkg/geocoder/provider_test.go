package geocoder

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider implements Provider for testing.
type mockProvider struct {
	name       string
	available  bool
	candidates []Candidate
	err        error
	delay      time.Duration
	calls      int
}

func (m *mockProvider) Name() string    { return m.name }
func (m *mockProvider) Available() bool { return m.available }

func (m *mockProvider) Geocode(ctx context.Context, _ string) ([]Candidate, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.candidates, m.err
}

func TestClient_KnownCoordinatesBypassProviders(t *testing.T) {
	p := &mockProvider{name: "nominatim", available: true}
	c := NewClient([]Provider{p})

	loc := c.Locate(context.Background(), "2324 REHBERG LN BILLINGS, MT 59102")

	require.NotNil(t, loc)
	assert.Equal(t, "known_coordinates", loc.Source)
	assert.InDelta(t, 45.7935, loc.Coordinate.Lat, 1e-9)
	assert.InDelta(t, -108.5917, loc.Coordinate.Lng, 1e-9)
	assert.True(t, loc.Precise)
	assert.Equal(t, 0, p.calls, "known-coordinate hit must bypass all network calls")
}

func TestClient_KnownCoordinatesNormalizesKey(t *testing.T) {
	c := NewClient(nil)
	loc := c.Locate(context.Background(), "  2324  rehberg ln billings, mt 59102 ")
	assert.Equal(t, "known_coordinates", loc.Source)
}

func TestClient_ProviderFailureIsolated(t *testing.T) {
	failing := &mockProvider{name: "census", available: true, err: errors.New("503")}
	working := &mockProvider{name: "nominatim", available: true, candidates: []Candidate{
		{Lat: 46.5891, Lng: -112.0391, Type: "house", HouseNumber: "100", State: "Montana", Provider: "nominatim"},
	}}

	c := NewClient([]Provider{failing, working})
	loc := c.Locate(context.Background(), "100 N LAST CHANCE GULCH HELENA, MT 59601")

	require.NotNil(t, loc)
	assert.True(t, loc.Precise)
	assert.Equal(t, "nominatim", loc.Source)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
}

func TestClient_SlowProviderDoesNotBlockResult(t *testing.T) {
	slow := &mockProvider{name: "census", available: true, delay: 500 * time.Millisecond}
	fast := &mockProvider{name: "nominatim", available: true, candidates: []Candidate{
		{Lat: 46.5891, Lng: -112.0391, Type: "house", HouseNumber: "100", State: "MT", Provider: "nominatim"},
	}}

	c := NewClient([]Provider{slow, fast}, WithProviderTimeout(50*time.Millisecond))

	start := time.Now()
	loc := c.Locate(context.Background(), "100 N LAST CHANCE GULCH HELENA, MT 59601")
	elapsed := time.Since(start)

	require.NotNil(t, loc)
	assert.True(t, loc.Precise)
	assert.Less(t, elapsed, 400*time.Millisecond, "slow provider is cut off at its own deadline")
}

func TestClient_SkipsUnavailableProviders(t *testing.T) {
	offline := &mockProvider{name: "census", available: false}
	c := NewClient([]Provider{offline})

	loc := c.Locate(context.Background(), "417 GRAND AVE BOZEMAN, MT 59715")
	require.NotNil(t, loc)
	assert.Equal(t, 0, offline.calls)
	assert.False(t, loc.Precise)
}

func TestClient_AllProvidersMissFallsBackToCityCentroid(t *testing.T) {
	p := &mockProvider{name: "nominatim", available: true}
	c := NewClient([]Provider{p})

	loc := c.Locate(context.Background(), "417 GRAND AVE BOZEMAN, MT 59715")

	require.NotNil(t, loc)
	assert.Equal(t, "city_centroid", loc.Source)
	assert.InDelta(t, 45.6770, loc.Coordinate.Lat, 1e-9)
	assert.False(t, loc.Precise)
}

func TestClient_UnknownCityFallsBackToStateCentroid(t *testing.T) {
	c := NewClient(nil)
	loc := c.Locate(context.Background(), "12 DIRT RD NOWHEREVILLE, MT 59999")

	require.NotNil(t, loc)
	assert.Equal(t, "state_centroid", loc.Source)
	assert.InDelta(t, 46.8797, loc.Coordinate.Lat, 1e-9)
}

func TestClient_OutOfRegionCandidatesDiscarded(t *testing.T) {
	p := &mockProvider{name: "nominatim", available: true, candidates: []Candidate{
		{Lat: 40.7128, Lng: -74.0060, Type: "house", Provider: "nominatim"}, // NYC
	}}
	c := NewClient([]Provider{p})

	loc := c.Locate(context.Background(), "417 GRAND AVE BOZEMAN, MT 59715")
	assert.Equal(t, "city_centroid", loc.Source, "out-of-region candidates must not win")
}

func TestClient_LoadKnownCoordinates(t *testing.T) {
	path := t.TempDir() + "/coords.yaml"
	content := "\"417 GRAND AVE BOZEMAN, MT 59715\":\n  lat: 45.6771\n  lng: -111.0430\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c := NewClient(nil)
	require.NoError(t, c.LoadKnownCoordinates(path))

	loc := c.Locate(context.Background(), "417 GRAND AVE BOZEMAN, MT 59715")
	assert.Equal(t, "known_coordinates", loc.Source)
	assert.InDelta(t, 45.6771, loc.Coordinate.Lat, 1e-9)
}

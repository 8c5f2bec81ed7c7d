package parcel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// mockStrategy implements Strategy for testing.
type mockStrategy struct {
	name   string
	result *model.LookupResult
	err    error
	calls  int
}

func (m *mockStrategy) Name() string { return m.name }

func (m *mockStrategy) Resolve(_ context.Context, _ string) (*model.LookupResult, error) {
	m.calls++
	return m.result, m.err
}

func TestResolver_FirstSuccessWins(t *testing.T) {
	s1 := &mockStrategy{name: "registry", result: &model.LookupResult{
		Success: true, Address: "100 N LAST CHANCE GULCH HELENA, MT 59601", Geocode: "05-1",
	}}
	s2 := &mockStrategy{name: "scrape", err: errors.New("unreachable")}

	r := NewResolver(s1, s2)
	result, err := r.Resolve(context.Background(), "05-1")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "registry", result.Source)
	assert.Equal(t, 1, s1.calls)
	assert.Equal(t, 0, s2.calls, "chain must stop at first success")
}

func TestResolver_FallbackOrdering(t *testing.T) {
	// A geocode present only in the last strategy still exercises the
	// upstream strategies first.
	registry := &mockStrategy{name: "registry", err: errors.New("no data")}
	scrape := &mockStrategy{name: "cadastral_scrape", err: errors.New("blocked")}
	known := &mockStrategy{name: "known_properties", result: &model.LookupResult{
		Success: true, Address: "2324 REHBERG LN BILLINGS, MT 59102", Geocode: "03-1032-34-1-08-10-0000",
	}}

	r := NewResolver(registry, scrape, known)
	result, err := r.Resolve(context.Background(), "03-1032-34-1-08-10-0000")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "2324 REHBERG LN BILLINGS, MT 59102", result.Address)
	assert.Equal(t, "known_properties", result.Source)
	assert.Equal(t, 1, registry.calls)
	assert.Equal(t, 1, scrape.calls)
	assert.Equal(t, 1, known.calls)
}

func TestResolver_AllFail(t *testing.T) {
	s1 := &mockStrategy{name: "registry", err: errors.New("down")}
	s2 := &mockStrategy{name: "scrape", err: errors.New("down")}

	r := NewResolver(s1, s2)
	result, err := r.Resolve(context.Background(), "99-9999-99-9-99-99-0000")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "99-9999-99-9-99-99-0000")
	assert.Empty(t, result.Address)
}

func TestResolver_NilResultIsSoftFailure(t *testing.T) {
	s1 := &mockStrategy{name: "registry"} // nil result, nil error
	s2 := &mockStrategy{name: "known", result: &model.LookupResult{
		Success: true, Address: "2324 REHBERG LN BILLINGS, MT 59102",
	}}

	r := NewResolver(s1, s2)
	result, err := r.Resolve(context.Background(), "03-1")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "known", result.Source)
}

func TestResolver_EmptyGeocode(t *testing.T) {
	r := NewResolver(&mockStrategy{name: "registry"})
	_, err := r.Resolve(context.Background(), "   ")
	assert.Error(t, err)
}

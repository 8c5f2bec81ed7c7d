package geocoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCandidate_HouseLevelWithNumberMatch(t *testing.T) {
	cfg := DefaultScoringConfig()
	c := Candidate{
		Lat: 45.79, Lng: -108.59,
		Type: "house", HouseNumber: "2324", State: "Montana", Importance: 0.6,
	}

	score := ScoreCandidate(c, "2324 REHBERG LN BILLINGS, MT 59102", cfg)
	assert.GreaterOrEqual(t, score, cfg.HighConfidence)
}

func TestScoreCandidate_PlaceLevelScoresLow(t *testing.T) {
	cfg := DefaultScoringConfig()
	place := Candidate{Type: "city", Class: "place", State: "Montana", Importance: 0.7}
	house := Candidate{Type: "house", HouseNumber: "2324", State: "Montana", Importance: 0.7}

	query := "2324 REHBERG LN BILLINGS, MT 59102"
	assert.Less(t, ScoreCandidate(place, query, cfg), ScoreCandidate(house, query, cfg))
}

func TestScoreCandidate_NoHouseBonusWithoutLeadingNumber(t *testing.T) {
	cfg := DefaultScoringConfig()
	c := Candidate{Type: "house", HouseNumber: "2324"}

	withNumber := ScoreCandidate(c, "2324 REHBERG LN BILLINGS, MT 59102", cfg)
	withoutNumber := ScoreCandidate(c, "REHBERG LN BILLINGS, MT 59102", cfg)
	assert.Greater(t, withNumber, withoutNumber)
}

func TestScoreCandidate_CapsAtOne(t *testing.T) {
	cfg := DefaultScoringConfig()
	c := Candidate{Type: "house", HouseNumber: "1", State: "MT", Importance: 5}
	assert.LessOrEqual(t, ScoreCandidate(c, "1 MAIN ST", cfg), 1.0)
}

func TestScoreAndFilter_DropsOutOfRegion(t *testing.T) {
	cfg := DefaultScoringConfig()
	candidates := []Candidate{
		{Lat: 45.78, Lng: -108.50, Type: "house"},      // Billings
		{Lat: 40.71, Lng: -74.00, Type: "house"},       // New York
		{Lat: 46.87, Lng: -113.99, Type: "residential"}, // Missoula
	}

	scored := ScoreAndFilter(candidates, "123 MAIN ST", cfg)
	require.Len(t, scored, 2)
}

func TestReconcile_Empty(t *testing.T) {
	coord, _, _ := Reconcile(nil, DefaultScoringConfig())
	assert.Nil(t, coord)
}

func TestReconcile_SingleCandidate(t *testing.T) {
	scored := []ScoredCandidate{
		{Candidate: Candidate{Lat: 45.79, Lng: -108.59, Provider: "nominatim"}, Score: 0.4},
	}

	coord, source, _ := Reconcile(scored, DefaultScoringConfig())
	require.NotNil(t, coord)
	assert.Equal(t, 45.79, coord.Lat)
	assert.Equal(t, "nominatim", source)
}

func TestReconcile_HighConfidenceWinsOutright(t *testing.T) {
	scored := []ScoredCandidate{
		{Candidate: Candidate{Lat: 45.79, Lng: -108.59, Provider: "census"}, Score: 0.9},
		{Candidate: Candidate{Lat: 46.00, Lng: -109.00, Provider: "nominatim"}, Score: 0.5},
	}

	coord, source, score := Reconcile(scored, DefaultScoringConfig())
	require.NotNil(t, coord)
	assert.Equal(t, 45.79, coord.Lat)
	assert.Equal(t, "census", source)
	assert.Equal(t, 0.9, score)
}

func TestReconcile_CloseAgreementAverages(t *testing.T) {
	scored := []ScoredCandidate{
		{Candidate: Candidate{Lat: 45.7930, Lng: -108.5910, Provider: "census"}, Score: 0.6},
		{Candidate: Candidate{Lat: 45.7936, Lng: -108.5916, Provider: "nominatim"}, Score: 0.55},
	}

	coord, source, _ := Reconcile(scored, DefaultScoringConfig())
	require.NotNil(t, coord)
	assert.Equal(t, "averaged", source)
	assert.InDelta(t, 45.7933, coord.Lat, 1e-9)
	assert.InDelta(t, -108.5913, coord.Lng, 1e-9)
}

func TestReconcile_DisagreementTakesTopScorer(t *testing.T) {
	scored := []ScoredCandidate{
		{Candidate: Candidate{Lat: 45.79, Lng: -108.59, Provider: "census"}, Score: 0.6},
		{Candidate: Candidate{Lat: 46.87, Lng: -113.99, Provider: "nominatim"}, Score: 0.55},
	}

	coord, source, _ := Reconcile(scored, DefaultScoringConfig())
	require.NotNil(t, coord)
	assert.Equal(t, "census", source)
	assert.Equal(t, 45.79, coord.Lat)
}

func TestBBoxContains(t *testing.T) {
	assert.True(t, MontanaBBox.Contains(45.7833, -108.5007))
	assert.False(t, MontanaBBox.Contains(40.7128, -74.0060))
	assert.False(t, MontanaBBox.Contains(45.0, -120.0))
}

package geocoder

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// BBox is a geographic sanity filter: candidates outside it are discarded.
type BBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether the point falls inside the box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// MontanaBBox bounds the target region.
var MontanaBBox = BBox{MinLat: 44.26, MaxLat: 49.05, MinLng: -116.12, MaxLng: -103.95}

// ScoringConfig holds the heuristic tuning knobs for candidate scoring and
// reconciliation. The thresholds are observed values, not derived constants;
// they are surfaced through configuration rather than hard-coded at call
// sites.
type ScoringConfig struct {
	HighConfidence   float64 // score above which the top candidate wins outright
	AgreementEpsilon float64 // degrees; ~0.001 is roughly 100 meters
	StateCode        string
	StateName        string
	Region           BBox
}

// DefaultScoringConfig returns the Montana defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		HighConfidence:   0.75,
		AgreementEpsilon: 0.001,
		StateCode:        "MT",
		StateName:        "Montana",
		Region:           MontanaBBox,
	}
}

// ScoredCandidate pairs a candidate with its confidence score.
type ScoredCandidate struct {
	Candidate Candidate
	Score     float64
}

// ScoreCandidate computes a confidence score for one candidate against the
// original query. Pure function, kept out of the network-call path so it can
// be tested without mocking HTTP.
func ScoreCandidate(c Candidate, query string, cfg ScoringConfig) float64 {
	score := typeSpecificity(c.Type, c.Class)

	if num := leadingNumber(query); num != "" && c.HouseNumber == num {
		score += 0.2
	}

	if matchesState(c.State, cfg) {
		score += 0.1
	}

	importance := c.Importance
	if importance < 0 {
		importance = 0
	}
	if importance > 1 {
		importance = 1
	}
	score += importance * 0.15

	if score > 1 {
		score = 1
	}
	return score
}

// ScoreAndFilter scores all candidates and drops any outside the region box.
func ScoreAndFilter(candidates []Candidate, query string, cfg ScoringConfig) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !cfg.Region.Contains(c.Lat, c.Lng) {
			continue
		}
		scored = append(scored, ScoredCandidate{Candidate: c, Score: ScoreCandidate(c, query, cfg)})
	}
	return scored
}

// Reconcile picks one coordinate from the scored candidates. Returns nil when
// there are none and the caller should fall back to a centroid.
//
// With multiple candidates: a high-confidence top scorer wins outright;
// otherwise close agreement between the top two is treated as corroboration
// and their coordinates are averaged; otherwise the top scorer wins alone.
func Reconcile(scored []ScoredCandidate, cfg ScoringConfig) (*model.Coordinate, string, float64) {
	if len(scored) == 0 {
		return nil, "", 0
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	top := scored[0]

	if len(scored) == 1 || top.Score >= cfg.HighConfidence {
		return &model.Coordinate{Lat: top.Candidate.Lat, Lng: top.Candidate.Lng}, top.Candidate.Provider, top.Score
	}

	second := scored[1]
	if math.Abs(top.Candidate.Lat-second.Candidate.Lat) <= cfg.AgreementEpsilon &&
		math.Abs(top.Candidate.Lng-second.Candidate.Lng) <= cfg.AgreementEpsilon {
		avg := model.Coordinate{
			Lat: (top.Candidate.Lat + second.Candidate.Lat) / 2,
			Lng: (top.Candidate.Lng + second.Candidate.Lng) / 2,
		}
		return &avg, "averaged", (top.Score + second.Score) / 2
	}

	return &model.Coordinate{Lat: top.Candidate.Lat, Lng: top.Candidate.Lng}, top.Candidate.Provider, top.Score
}

// typeSpecificity ranks result granularity: building/house level scores
// highest, place and highway level lowest.
func typeSpecificity(resultType, class string) float64 {
	switch strings.ToLower(resultType) {
	case "house", "building", "address":
		return 0.55
	case "residential", "apartments":
		return 0.5
	case "street", "road":
		return 0.4
	case "postcode", "neighbourhood", "suburb":
		return 0.35
	case "place", "city", "town", "village", "hamlet":
		return 0.3
	}
	switch strings.ToLower(class) {
	case "building":
		return 0.55
	case "highway":
		return 0.25
	case "place":
		return 0.3
	}
	return 0.3
}

// leadingNumber extracts the house number when the query starts with digits.
func leadingNumber(query string) string {
	q := strings.TrimSpace(query)
	end := 0
	for end < len(q) && unicode.IsDigit(rune(q[end])) {
		end++
	}
	return q[:end]
}

// matchesState compares a candidate's state field against the target region.
func matchesState(state string, cfg ScoringConfig) bool {
	return strings.EqualFold(state, cfg.StateCode) || strings.EqualFold(state, cfg.StateName)
}
